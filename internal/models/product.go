// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductStatus is the catalog lifecycle state of a product.
type ProductStatus string

const (
	ProductDraft    ProductStatus = "draft"
	ProductActive   ProductStatus = "active"
	ProductArchived ProductStatus = "archived"
)

// Product is a catalog item. Only the attributes consulted by collection
// membership live here; variants, inventory and media are owned elsewhere.
type Product struct {
	ID        uuid.UUID     `json:"id"`
	Title     string        `json:"title"`
	Handle    string        `json:"handle"`
	Price     float64       `json:"price"`
	Status    ProductStatus `json:"status"`
	Tags      []string      `json:"tags"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// IsActive reports whether the product participates in storefront listings.
func (p *Product) IsActive() bool { return p.Status == ProductActive }

// HasTag reports whether the product carries the exact tag.
func (p *Product) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
