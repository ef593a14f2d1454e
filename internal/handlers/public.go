// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"shopcore/internal/hierarchy"
	"shopcore/internal/membership"
	"shopcore/internal/models"
	"shopcore/internal/store"
)

// Public groups the storefront-facing read handlers. Unpublished collections
// are invisible here; the admin handlers pass includeUnpublished instead of
// using separate endpoints.
type Public struct {
	collections *store.CollectionStore
	hierarchy   *hierarchy.Service
	resolver    *membership.Resolver
}

// NewPublic creates the storefront handler group.
func NewPublic(collections *store.CollectionStore, h *hierarchy.Service, resolver *membership.Resolver) *Public {
	return &Public{collections: collections, hierarchy: h, resolver: resolver}
}

// List serves GET /api/collections. With hierarchy=true it returns the
// nested tree (optionally rooted at parentId); otherwise a flat page
// filtered by level and parentId.
func (p *Public) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var parentID *uuid.UUID
	if raw := q.Get("parentId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(w, "invalid parentId")
			return
		}
		parentID = &id
	}

	if q.Get("hierarchy") == "true" {
		tree, err := p.hierarchy.Tree(ctx, parentID, false)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"collections": tree})
		return
	}

	opts := store.ListOptions{ParentID: parentID}
	if raw := q.Get("level"); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil || level < 0 {
			badRequest(w, "invalid level")
			return
		}
		opts.Level = &level
	}
	opts.Page, opts.Limit = pageParams(q.Get("page"), q.Get("limit"))

	items, total, err := p.collections.List(ctx, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []models.Collection{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collections": items,
		"pagination":  NewPagination(opts.Page, opts.Limit, total),
	})
}

// Get serves GET /api/collections/{id}.
func (p *Public) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid collection id")
		return
	}

	c, err := p.collections.FindByID(r.Context(), id, false)
	if err != nil {
		writeError(w, err)
		return
	}

	p.countView(c.ID)
	writeJSON(w, http.StatusOK, map[string]any{"collection": c})
}

// GetByHandle serves GET /api/collections/handle/{handle}.
func (p *Public) GetByHandle(w http.ResponseWriter, r *http.Request) {
	c, err := p.collections.FindByHandle(r.Context(), chi.URLParam(r, "handle"), false)
	if err != nil {
		writeError(w, err)
		return
	}

	p.countView(c.ID)
	writeJSON(w, http.StatusOK, map[string]any{"collection": c})
}

// GetByPath serves GET /api/collections/path/*, where the wildcard is the
// full materialized path, e.g. apparel/shirts/tees.
func (p *Public) GetByPath(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	if path == "" {
		badRequest(w, "missing path")
		return
	}

	c, err := p.collections.FindByPath(r.Context(), path, false)
	if err != nil {
		writeError(w, err)
		return
	}

	p.countView(c.ID)
	writeJSON(w, http.StatusOK, map[string]any{"collection": c})
}

// Breadcrumbs serves GET /api/collections/{id}/breadcrumbs, root first.
func (p *Public) Breadcrumbs(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid collection id")
		return
	}

	crumbs, err := p.hierarchy.Breadcrumbs(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"breadcrumbs": crumbs})
}

// Products serves GET /api/collections/{id}/products with pagination,
// allow-listed sorting, and optional subtree membership.
func (p *Public) Products(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid collection id")
		return
	}

	q := r.URL.Query()
	opts := membership.Options{
		SortBy:             q.Get("sortBy"),
		SortOrder:          q.Get("sortOrder"),
		IncludeDescendants: q.Get("includeDescendants") == "true",
	}
	opts.Page, opts.PageSize = pageParams(q.Get("page"), q.Get("limit"))

	products, total, err := p.resolver.Products(r.Context(), id, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"products":   products,
		"pagination": NewPagination(opts.Page, opts.PageSize, total),
	})
}

// countView bumps the collection's access counter off the request path.
// View counts are approximate analytics; failures are logged and swallowed
// so they can never break a storefront read.
func (p *Public) countView(id uuid.UUID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.collections.IncrementView(ctx, id); err != nil {
			slog.Warn("view count increment failed", "collection", id, "error", err)
		}
	}()
}

// pageParams parses page/limit query values with the resolver defaults.
func pageParams(pageRaw, limitRaw string) (page, limit int) {
	page = 1
	if n, err := strconv.Atoi(pageRaw); err == nil && n > 0 {
		page = n
	}
	limit = membership.DefaultPageSize
	if n, err := strconv.Atoi(limitRaw); err == nil && n > 0 {
		limit = n
	}
	if limit > membership.MaxPageSize {
		limit = membership.MaxPageSize
	}
	return page, limit
}
