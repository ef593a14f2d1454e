// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CollectionType discriminates how a collection resolves its members.
type CollectionType string

const (
	// CollectionManual holds an explicit, curator-ordered product list.
	CollectionManual CollectionType = "manual"
	// CollectionSmart computes membership from attribute rules on demand.
	CollectionSmart CollectionType = "smart"
)

// Collection is a node in the category tree. Level and Path are denormalized
// from the parent chain: Level is the ancestor count (root = 0) and Path is
// the slash-joined chain of ancestor handles ending in this node's own handle.
// The store keeps both consistent across every structural mutation.
type Collection struct {
	ID          uuid.UUID      `json:"id"`
	Title       string         `json:"title"`
	Handle      string         `json:"handle"`
	Description string         `json:"description"`
	ParentID    *uuid.UUID     `json:"parent_id"`
	Level       int            `json:"level"`
	Path        string         `json:"path"`
	Type        CollectionType `json:"collection_type"`
	Rules       *RuleSet       `json:"rules,omitempty"`
	Published   bool           `json:"published"`
	PublishedAt *time.Time     `json:"published_at"`
	ViewCount   int64          `json:"view_count"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`

	// Virtual fields populated by store and query-service methods.
	// Children is always derived from ParentID edges, never persisted,
	// and ProductIDs is loaded from the membership table for manual
	// collections only.
	Children   []Collection `json:"children,omitempty"`
	ProductIDs []uuid.UUID  `json:"product_ids,omitempty"`
}

// IsManual reports whether membership is an explicit curated list.
func (c *Collection) IsManual() bool { return c.Type == CollectionManual }

// IsSmart reports whether membership is rule-computed.
func (c *Collection) IsSmart() bool { return c.Type == CollectionSmart }

// Visible reports whether the collection may appear in storefront reads:
// published and not future-dated.
func (c *Collection) Visible(now time.Time) bool {
	if !c.Published {
		return false
	}
	return c.PublishedAt == nil || !c.PublishedAt.After(now)
}

// Validate checks the variant discipline: a manual collection never carries
// rules and a smart collection never carries a curated product list.
func (c *Collection) Validate() error {
	switch c.Type {
	case CollectionManual:
		if c.Rules != nil && len(c.Rules.Rules) > 0 {
			return fmt.Errorf("manual collection %q must not define rules", c.Handle)
		}
	case CollectionSmart:
		if len(c.ProductIDs) > 0 {
			return fmt.Errorf("smart collection %q must not define a product list", c.Handle)
		}
	default:
		return fmt.Errorf("unknown collection type %q", c.Type)
	}
	return nil
}
