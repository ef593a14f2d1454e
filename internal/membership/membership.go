// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package membership resolves which products belong to a collection, with
// identical pagination and counting semantics for manual and smart
// collections. Smart membership is pushed down to the catalog store as a SQL
// filter so totals are exact; subtree queries union membership across the
// descendants first, dedupe by product id, and only then paginate.
package membership

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"shopcore/internal/hierarchy"
	"shopcore/internal/models"
	"shopcore/internal/store"
)

// Options carries pagination and sorting for a product listing.
type Options struct {
	Page               int
	PageSize           int
	SortBy             string // "", "title", "price", "createdAt"
	SortOrder          string // "asc" (default) or "desc"
	IncludeDescendants bool
}

// DefaultPageSize applies when the caller leaves PageSize unset.
const DefaultPageSize = 20

// MaxPageSize caps a single page.
const MaxPageSize = 100

// sortColumns is the allow-list mapping API sort fields onto indexed catalog
// columns. Anything else fails with ErrInvalidSort before reaching SQL.
var sortColumns = map[string]string{
	"title":     "title",
	"price":     "price",
	"createdAt": "created_at",
}

// Resolver computes collection membership against the live catalog.
type Resolver struct {
	collections *store.CollectionStore
	products    *store.ProductStore
	hierarchy   *hierarchy.Service
}

// NewResolver returns a membership resolver.
func NewResolver(collections *store.CollectionStore, products *store.ProductStore, h *hierarchy.Service) *Resolver {
	return &Resolver{collections: collections, products: products, hierarchy: h}
}

// Products returns one page of a collection's members plus the exact total.
// Manual collections preserve curator order when no sort is given; smart
// collections and subtree unions default to recency. Unpublished collections
// report ErrNotFound: the resolver serves storefront reads.
func (r *Resolver) Products(ctx context.Context, collectionID uuid.UUID, opts Options) ([]models.Product, int, error) {
	col, desc, err := resolveSort(opts)
	if err != nil {
		return nil, 0, err
	}
	page, size := normalizePage(opts)
	offset := (page - 1) * size

	c, err := r.collections.FindByID(ctx, collectionID, false)
	if err != nil {
		return nil, 0, err
	}

	if opts.IncludeDescendants {
		return r.subtreeProducts(ctx, c, col, desc, size, offset)
	}

	if c.IsManual() {
		return r.manualProducts(ctx, c, opts.SortBy == "", col, desc, size, offset)
	}
	return r.smartProducts(ctx, c, col, desc, size, offset)
}

// manualProducts resolves a curated list: intersect with active products,
// then either keep curator order (no sort requested) or delegate sorting and
// paging to the catalog store.
func (r *Resolver) manualProducts(ctx context.Context, c *models.Collection, curatorOrder bool, col string, desc bool, limit, offset int) ([]models.Product, int, error) {
	active, err := r.products.ActiveIDsAmong(ctx, c.ProductIDs)
	if err != nil {
		return nil, 0, err
	}
	total := len(active)
	if total == 0 {
		return []models.Product{}, 0, nil
	}

	if curatorOrder {
		pageIDs := slicePage(active, limit, offset)
		products, err := r.products.ActiveByIDs(ctx, pageIDs)
		if err != nil {
			return nil, 0, err
		}
		return reorder(products, pageIDs), total, nil
	}

	products, err := r.products.ActivePageByIDs(ctx, active, col, desc, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// smartProducts pushes the rule set down as a catalog filter for both the
// page fetch and the count.
func (r *Resolver) smartProducts(ctx context.Context, c *models.Collection, col string, desc bool, limit, offset int) ([]models.Product, int, error) {
	total, err := r.products.FilterCount(ctx, c.Rules)
	if err != nil {
		return nil, 0, err
	}
	products, err := r.products.FilterPage(ctx, c.Rules, col, desc, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, total, nil
}

// subtreeProducts unions membership over the collection and every published
// descendant, dedupes by product id, and paginates the combined set so page
// boundaries are never skewed per subcollection.
func (r *Resolver) subtreeProducts(ctx context.Context, c *models.Collection, col string, desc bool, limit, offset int) ([]models.Product, int, error) {
	nodes := []models.Collection{*c}
	descendants, err := r.hierarchy.Descendants(ctx, c.ID, false)
	if err != nil {
		return nil, 0, err
	}
	nodes = append(nodes, descendants...)

	seen := make(map[uuid.UUID]struct{})
	var union []uuid.UUID
	for i := range nodes {
		ids, err := r.memberIDs(ctx, &nodes[i])
		if err != nil {
			return nil, 0, err
		}
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			union = append(union, id)
		}
	}

	total := len(union)
	if total == 0 {
		return []models.Product{}, 0, nil
	}

	products, err := r.products.ActivePageByIDs(ctx, union, col, desc, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, total, nil
}

// memberIDs resolves one node's active member ids for the subtree union.
func (r *Resolver) memberIDs(ctx context.Context, c *models.Collection) ([]uuid.UUID, error) {
	if c.IsManual() {
		curated := c.ProductIDs
		if curated == nil {
			var err error
			curated, err = r.collections.ProductIDs(ctx, c.ID)
			if err != nil {
				return nil, err
			}
		}
		return r.products.ActiveIDsAmong(ctx, curated)
	}
	return r.products.FilterIDs(ctx, c.Rules)
}

// resolveSort validates the sort field against the allow-list and returns
// the catalog column plus direction. An empty field means "collection
// default": curator order for manual collections, recency for everything
// else, which maps onto created_at descending here.
func resolveSort(opts Options) (string, bool, error) {
	if opts.SortBy == "" {
		return "created_at", true, nil
	}
	col, ok := sortColumns[opts.SortBy]
	if !ok {
		return "", false, fmt.Errorf("sort by %q: %w", opts.SortBy, store.ErrInvalidSort)
	}
	return col, opts.SortOrder == "desc", nil
}

func normalizePage(opts Options) (page, size int) {
	page = opts.Page
	if page < 1 {
		page = 1
	}
	size = opts.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// slicePage takes the [offset, offset+limit) window of ids.
func slicePage(ids []uuid.UUID, limit, offset int) []uuid.UUID {
	if offset >= len(ids) {
		return nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	return ids[offset:end]
}

// reorder arranges fetched products to follow the given id order.
func reorder(products []models.Product, ids []uuid.UUID) []models.Product {
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}
