// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package hierarchy is the read side of the collection tree: full tree
// assembly, breadcrumbs, and ancestor/descendant resolution on top of the
// collection store. The full published tree is cached in Valkey; every
// structural mutation must call Invalidate so the cache never outlives a
// move or rename.
package hierarchy

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"shopcore/internal/cache"
	"shopcore/internal/models"
	"shopcore/internal/store"
)

// Service assembles hierarchy views from the collection store.
type Service struct {
	store *store.CollectionStore
	cache *cache.HierarchyCache
}

// New returns a hierarchy service. cache may be nil, in which case every
// call assembles from the store.
func New(s *store.CollectionStore, c *cache.HierarchyCache) *Service {
	return &Service{store: s, cache: c}
}

// Tree returns the nested collection hierarchy. With rootID nil it returns
// all roots; otherwise the subtree rooted at that collection (the root node
// itself, with descendants nested below it). Only the full published tree is
// served from cache. Long scans are bounded by the caller's context deadline.
func (s *Service) Tree(ctx context.Context, rootID *uuid.UUID, includeUnpublished bool) ([]models.Collection, error) {
	cacheable := rootID == nil && !includeUnpublished && s.cache != nil
	if cacheable {
		if tree, ok := s.cache.Get(ctx); ok {
			return tree, nil
		}
	}

	var tree []models.Collection
	if rootID == nil {
		flat, err := s.store.ListAll(ctx, includeUnpublished)
		if err != nil {
			return nil, err
		}
		tree = nest(flat, nil)
	} else {
		node, err := s.store.FindByID(ctx, *rootID, includeUnpublished)
		if err != nil {
			return nil, err
		}
		flat, err := s.store.DescendantsOf(ctx, node.Path, includeUnpublished)
		if err != nil {
			return nil, err
		}
		node.Children = nest(flat, &node.ID)
		tree = []models.Collection{*node}
	}

	if cacheable {
		s.cache.Set(ctx, tree)
	}
	return tree, nil
}

// Breadcrumbs returns the ordered chain from root to the given collection,
// inclusive. The upward walk is bounded by the deepest level in the tree
// plus one; exceeding the bound or hitting a dangling parent link reports
// ErrCorruptHierarchy, which signals an invariant violation elsewhere.
func (s *Service) Breadcrumbs(ctx context.Context, id uuid.UUID) ([]models.Collection, error) {
	node, err := s.store.FindByID(ctx, id, true)
	if err != nil {
		return nil, err
	}

	maxLevel, err := s.store.MaxLevel(ctx)
	if err != nil {
		return nil, err
	}
	bound := maxLevel + 1

	crumbs := []models.Collection{*node}
	cur := node
	for cur.ParentID != nil {
		if len(crumbs) > bound {
			return nil, fmt.Errorf("breadcrumbs for %s: %w", id, store.ErrCorruptHierarchy)
		}
		parent, err := s.store.FindByID(ctx, *cur.ParentID, true)
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("breadcrumbs for %s: dangling parent: %w", id, store.ErrCorruptHierarchy)
		}
		if err != nil {
			return nil, err
		}
		crumbs = append(crumbs, *parent)
		cur = parent
	}

	// Walked leaf-to-root; callers want root first.
	for i, j := 0, len(crumbs)-1; i < j; i, j = i+1, j-1 {
		crumbs[i], crumbs[j] = crumbs[j], crumbs[i]
	}
	return crumbs, nil
}

// Descendants returns every collection strictly inside the subtree of id,
// resolved with a single prefix query on the materialized path.
func (s *Service) Descendants(ctx context.Context, id uuid.UUID, includeUnpublished bool) ([]models.Collection, error) {
	node, err := s.store.FindByID(ctx, id, includeUnpublished)
	if err != nil {
		return nil, err
	}
	return s.store.DescendantsOf(ctx, node.Path, includeUnpublished)
}

// AncestorIDs returns the ids of the collection's ancestors, root first,
// excluding the collection itself.
func (s *Service) AncestorIDs(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	crumbs, err := s.Breadcrumbs(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(crumbs)-1)
	for _, c := range crumbs[:len(crumbs)-1] {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// Invalidate drops the cached tree. Fired after every store mutation.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}

// nest recursively builds the child lists for parentID from a flat,
// path-ordered slice.
func nest(flat []models.Collection, parentID *uuid.UUID) []models.Collection {
	var result []models.Collection
	for _, c := range flat {
		if ptrEqual(c.ParentID, parentID) {
			c.Children = nest(flat, &c.ID)
			result = append(result, c)
		}
	}
	return result
}

// ptrEqual compares two *uuid.UUID for equality (both nil or same value).
func ptrEqual(a, b *uuid.UUID) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}
