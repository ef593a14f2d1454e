// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"

	"shopcore/internal/handle"
	"shopcore/internal/models"
)

const (
	maxTitleLen       = 255
	maxHandleLen      = 255
	maxDescriptionLen = 10000
	maxRuleCount      = 50
	maxProductCount   = 10000
)

// validateCollection checks field limits and variant discipline on an
// incoming request. Returns an empty string when the request is acceptable,
// otherwise a human-readable message for a 400 response.
func validateCollection(req *collectionRequest) string {
	if req.Title == "" {
		return "title is required"
	}
	if len(req.Title) > maxTitleLen {
		return fmt.Sprintf("title exceeds %d characters", maxTitleLen)
	}
	if len(req.Handle) > maxHandleLen {
		return fmt.Sprintf("handle exceeds %d characters", maxHandleLen)
	}
	// An empty handle means "derive from title" on create and "keep the
	// current one" on update; anything else must be well-formed.
	if req.Handle != "" && !handle.IsValid(req.Handle) {
		return "handle must contain only lowercase letters, digits and hyphens"
	}
	if len(req.Description) > maxDescriptionLen {
		return fmt.Sprintf("description exceeds %d characters", maxDescriptionLen)
	}

	switch req.Type {
	case models.CollectionManual:
		if req.Rules != nil {
			return "manual collections cannot carry rules"
		}
		if len(req.ProductIDs) > maxProductCount {
			return fmt.Sprintf("product list exceeds %d entries", maxProductCount)
		}
	case models.CollectionSmart:
		if len(req.ProductIDs) > 0 {
			return "smart collections cannot carry an explicit product list"
		}
		// An empty rule list is legal: under "all" it matches every
		// active product, under "any" none. Only a missing rule set is
		// rejected.
		if req.Rules == nil {
			return "smart collections require a rule set"
		}
		if len(req.Rules.Rules) > maxRuleCount {
			return fmt.Sprintf("rule set exceeds %d rules", maxRuleCount)
		}
		if req.Rules.Combinator != models.CombinatorAll && req.Rules.Combinator != models.CombinatorAny {
			return "rules combinator must be \"all\" or \"any\""
		}
	default:
		return "collection_type must be \"manual\" or \"smart\""
	}

	return ""
}
