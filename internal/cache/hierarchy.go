// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// hierarchy.go provides a Valkey-backed cache for the assembled published
// collection tree. Assembling the hierarchy reads every collection row, so
// storefront navigation requests reuse the cached JSON until a structural
// mutation invalidates it. The cache never outlives a mutation: every
// create/update/move/delete fires Invalidate.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"shopcore/internal/models"
)

const (
	// hierarchyKey is the Valkey key for the cached published tree.
	hierarchyKey = "hierarchy:tree"

	// DefaultHierarchyTTL bounds staleness even if an invalidation is lost.
	DefaultHierarchyTTL = 5 * time.Minute
)

// HierarchyCache stores the fully assembled published collection tree.
type HierarchyCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewHierarchyCache creates a hierarchy cache backed by the given Valkey client.
func NewHierarchyCache(client *redis.Client, ttl time.Duration) *HierarchyCache {
	if ttl == 0 {
		ttl = DefaultHierarchyTTL
	}
	return &HierarchyCache{client: client, ttl: ttl}
}

// Get retrieves the cached tree. The second return is false on miss or on
// any cache error; the caller falls back to assembling from the store.
func (hc *HierarchyCache) Get(ctx context.Context) ([]models.Collection, bool) {
	val, err := hc.client.Get(ctx, hierarchyKey).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("hierarchy cache get error", "error", err)
		return nil, false
	}

	var tree []models.Collection
	if err := json.Unmarshal(val, &tree); err != nil {
		slog.Warn("hierarchy cache decode error", "error", err)
		return nil, false
	}
	slog.Debug("hierarchy cache hit")
	return tree, true
}

// Set stores the assembled tree with the configured TTL.
func (hc *HierarchyCache) Set(ctx context.Context, tree []models.Collection) {
	val, err := json.Marshal(tree)
	if err != nil {
		slog.Warn("hierarchy cache encode error", "error", err)
		return
	}
	if err := hc.client.Set(ctx, hierarchyKey, val, hc.ttl).Err(); err != nil {
		slog.Warn("hierarchy cache set error", "error", err)
	}
}

// Invalidate drops the cached tree. Called after every structural mutation.
func (hc *HierarchyCache) Invalidate(ctx context.Context) {
	if err := hc.client.Del(ctx, hierarchyKey).Err(); err != nil {
		slog.Warn("hierarchy cache invalidate error", "error", err)
	}
	slog.Debug("hierarchy cache invalidated")
}
