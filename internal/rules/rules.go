// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package rules evaluates smart-collection rule sets against product records.
// It offers two paths that agree on every input: Match for in-process
// evaluation of a single product, and SQL for translating the same rule set
// into a WHERE fragment the catalog store can run for exact paged counts.
// A rule whose value does not fit its field and operator fails that single
// rule; it never aborts the rest of the set.
package rules

import (
	"strings"
	"time"

	"shopcore/internal/models"
)

// Match reports whether a product satisfies the rule set. A nil set matches
// nothing. An empty rule list is vacuously true under "all" and vacuously
// false under "any".
func Match(set *models.RuleSet, p *models.Product) bool {
	if set == nil {
		return false
	}
	switch set.Combinator {
	case models.CombinatorAll:
		for _, r := range set.Rules {
			if !matchRule(r, p) {
				return false
			}
		}
		return true
	case models.CombinatorAny:
		for _, r := range set.Rules {
			if matchRule(r, p) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// matchRule evaluates one predicate. Unknown fields, unsupported operators,
// and type-mismatched values all degrade to non-match.
func matchRule(r models.Rule, p *models.Product) bool {
	switch r.Field {
	case models.FieldPrice:
		return matchNumber(p.Price, r.Operator, r.Value)
	case models.FieldTitle:
		return matchString(p.Title, r.Operator, r.Value)
	case models.FieldHandle:
		return matchString(p.Handle, r.Operator, r.Value)
	case models.FieldStatus:
		return matchString(string(p.Status), r.Operator, r.Value)
	case models.FieldTag:
		return matchTag(p.Tags, r.Operator, r.Value)
	case models.FieldCreatedAt:
		return matchTime(p.CreatedAt, r.Operator, r.Value)
	default:
		return false
	}
}

func matchNumber(have float64, op models.RuleOperator, value any) bool {
	switch op {
	case models.OpEquals, models.OpNotEquals, models.OpGreaterThan, models.OpLessThan:
		want, ok := toNumber(value)
		if !ok {
			return false
		}
		switch op {
		case models.OpEquals:
			return have == want
		case models.OpNotEquals:
			return have != want
		case models.OpGreaterThan:
			return have > want
		default:
			return have < want
		}
	case models.OpIn:
		wants, ok := toNumberList(value)
		if !ok {
			return false
		}
		for _, w := range wants {
			if have == w {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func matchString(have string, op models.RuleOperator, value any) bool {
	switch op {
	case models.OpEquals, models.OpNotEquals, models.OpContains:
		want, ok := value.(string)
		if !ok {
			return false
		}
		switch op {
		case models.OpEquals:
			return have == want
		case models.OpNotEquals:
			return have != want
		default:
			return strings.Contains(strings.ToLower(have), strings.ToLower(want))
		}
	case models.OpIn:
		wants, ok := toStringList(value)
		if !ok {
			return false
		}
		for _, w := range wants {
			if have == w {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func matchTag(tags []string, op models.RuleOperator, value any) bool {
	switch op {
	case models.OpEquals, models.OpNotEquals:
		want, ok := value.(string)
		if !ok {
			return false
		}
		has := false
		for _, t := range tags {
			if t == want {
				has = true
				break
			}
		}
		if op == models.OpEquals {
			return has
		}
		return !has
	case models.OpContains:
		want, ok := value.(string)
		if !ok {
			return false
		}
		for _, t := range tags {
			if strings.Contains(strings.ToLower(t), strings.ToLower(want)) {
				return true
			}
		}
		return false
	case models.OpIn:
		wants, ok := toStringList(value)
		if !ok {
			return false
		}
		for _, t := range tags {
			for _, w := range wants {
				if t == w {
					return true
				}
			}
		}
		return false
	default:
		return false
	}
}

func matchTime(have time.Time, op models.RuleOperator, value any) bool {
	want, ok := toTime(value)
	if !ok {
		return false
	}
	switch op {
	case models.OpGreaterThan:
		return have.After(want)
	case models.OpLessThan:
		return have.Before(want)
	default:
		return false
	}
}

// toNumber accepts JSON numbers (float64) plus the integer types Go callers
// construct directly. Numeric strings are rejected on purpose so the SQL
// translation never sends a text parameter into a numeric comparison.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toNumberList(v any) ([]float64, bool) {
	switch list := v.(type) {
	case []float64:
		return list, true
	case []any:
		out := make([]float64, 0, len(list))
		for _, item := range list {
			n, ok := toNumber(item)
			if !ok {
				return nil, false
			}
			out = append(out, n)
		}
		return out, true
	default:
		return nil, false
	}
}

func toStringList(v any) ([]string, bool) {
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

func toTime(v any) (time.Time, bool) {
	switch tv := v.(type) {
	case time.Time:
		return tv, true
	case string:
		t, err := time.Parse(time.RFC3339, tv)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}
