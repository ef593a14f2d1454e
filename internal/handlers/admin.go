// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"shopcore/internal/handle"
	"shopcore/internal/hierarchy"
	"shopcore/internal/models"
	"shopcore/internal/store"
)

// Admin groups the management handlers that mutate the tree. Every mutation
// fires the hierarchy cache invalidation before responding, so a cached tree
// never survives a structural change.
type Admin struct {
	collections *store.CollectionStore
	hierarchy   *hierarchy.Service
}

// NewAdmin creates the admin handler group.
func NewAdmin(collections *store.CollectionStore, h *hierarchy.Service) *Admin {
	return &Admin{collections: collections, hierarchy: h}
}

// collectionRequest is the JSON body for create and update.
type collectionRequest struct {
	Title       string                `json:"title"`
	Handle      string                `json:"handle"`
	Description string                `json:"description"`
	ParentID    *uuid.UUID            `json:"parent_id"`
	Type        models.CollectionType `json:"collection_type"`
	Rules       *models.RuleSet       `json:"rules"`
	ProductIDs  []uuid.UUID           `json:"product_ids"`
	Published   bool                  `json:"published"`
}

// List serves GET /admin/api/collections — same flat listing as the public
// endpoint but including unpublished collections.
func (a *Admin) List(w http.ResponseWriter, r *http.Request) {
	opts := store.ListOptions{IncludeUnpublished: true}
	q := r.URL.Query()
	opts.Page, opts.Limit = pageParams(q.Get("page"), q.Get("limit"))

	items, total, err := a.collections.List(r.Context(), opts)
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

// Get serves GET /admin/api/collections/{id}, unpublished included.
func (a *Admin) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid collection id")
		return
	}
	c, err := a.collections.FindByID(r.Context(), id, true)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collection": c})
}

// Tree serves GET /admin/api/collections/tree — the full hierarchy with
// unpublished nodes, always assembled fresh.
func (a *Admin) Tree(w http.ResponseWriter, r *http.Request) {
	tree, err := a.hierarchy.Tree(r.Context(), nil, true)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"collections": tree})
}

// Create serves POST /admin/api/collections.
func (a *Admin) Create(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if req.Handle == "" {
		req.Handle = handle.Generate(req.Title)
	}
	if req.Handle == "" {
		badRequest(w, "a handle could not be derived from the title")
		return
	}
	if msg := validateCollection(&req); msg != "" {
		badRequest(w, msg)
		return
	}

	created, err := a.collections.Create(r.Context(), &models.Collection{
		Title:       req.Title,
		Handle:      req.Handle,
		Description: req.Description,
		ParentID:    req.ParentID,
		Type:        req.Type,
		Rules:       req.Rules,
		ProductIDs:  req.ProductIDs,
		Published:   req.Published,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	a.hierarchy.Invalidate(r.Context())
	writeJSON(w, http.StatusCreated, map[string]any{"collection": created})
}

// Update serves PUT /admin/api/collections/{id}. A handle change cascades
// into every descendant path atomically; the collection type is immutable.
func (a *Admin) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid collection id")
		return
	}

	var req collectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if msg := validateCollection(&req); msg != "" {
		badRequest(w, msg)
		return
	}

	updated, err := a.collections.Update(r.Context(), &models.Collection{
		ID:          id,
		Title:       req.Title,
		Handle:      req.Handle,
		Description: req.Description,
		Type:        req.Type,
		Rules:       req.Rules,
		ProductIDs:  req.ProductIDs,
		Published:   req.Published,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	a.hierarchy.Invalidate(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"collection": updated})
}

// moveRequest is the JSON body for re-parenting. A null parent_id moves the
// subtree to the root.
type moveRequest struct {
	ParentID *uuid.UUID `json:"parent_id"`
}

// Move serves POST /admin/api/collections/{id}/move.
func (a *Admin) Move(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid collection id")
		return
	}

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	moved, err := a.collections.Move(r.Context(), id, req.ParentID)
	if err != nil {
		writeError(w, err)
		return
	}

	a.hierarchy.Invalidate(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"collection": moved})
}

// Delete serves DELETE /admin/api/collections/{id}. Deleting a non-leaf is
// rejected unless the caller passes cascade=true explicitly; there is no
// implicit default.
func (a *Admin) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid collection id")
		return
	}

	cascade := r.URL.Query().Get("cascade") == "true"
	if err := a.collections.Delete(r.Context(), id, cascade); err != nil {
		writeError(w, err)
		return
	}

	a.hierarchy.Invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// SetPublished serves POST /admin/api/collections/{id}/publish and
// .../unpublish by toggling the visibility gate while keeping all other
// fields intact.
func (a *Admin) SetPublished(published bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			badRequest(w, "invalid collection id")
			return
		}

		cur, err := a.collections.FindByID(r.Context(), id, true)
		if err != nil {
			writeError(w, err)
			return
		}

		cur.Published = published
		if !published {
			cur.PublishedAt = nil
		}
		updated, err := a.collections.Update(r.Context(), cur)
		if err != nil {
			writeError(w, err)
			return
		}

		a.hierarchy.Invalidate(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{"collection": updated})
	}
}
