// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// RuleCombinator selects how a rule set's individual rules combine.
type RuleCombinator string

const (
	// CombinatorAll requires every rule to match (AND). With zero rules it
	// is vacuously true.
	CombinatorAll RuleCombinator = "all"
	// CombinatorAny requires at least one rule to match (OR). With zero
	// rules it is vacuously false.
	CombinatorAny RuleCombinator = "any"
)

// RuleField names a product attribute a rule may test.
type RuleField string

const (
	FieldPrice     RuleField = "price"
	FieldTag       RuleField = "tag"
	FieldStatus    RuleField = "status"
	FieldTitle     RuleField = "title"
	FieldHandle    RuleField = "handle"
	FieldCreatedAt RuleField = "createdAt"
)

// RuleOperator names a comparison a rule applies to its field.
type RuleOperator string

const (
	OpEquals      RuleOperator = "equals"
	OpNotEquals   RuleOperator = "notEquals"
	OpGreaterThan RuleOperator = "greaterThan"
	OpLessThan    RuleOperator = "lessThan"
	OpContains    RuleOperator = "contains"
	OpIn          RuleOperator = "in"
)

// Rule is a single (field, operator, value) predicate. Value is decoded from
// JSON, so numbers arrive as float64, lists as []any, everything else as
// string. A value whose type does not fit the field/operator pair fails that
// rule only; it never aborts evaluation of the whole set.
type Rule struct {
	Field    RuleField    `json:"field"`
	Operator RuleOperator `json:"operator"`
	Value    any          `json:"value"`
}

// RuleSet is the full membership predicate of a smart collection: an ordered
// rule list plus the combinator joining them.
type RuleSet struct {
	Combinator RuleCombinator `json:"combinator"`
	Rules      []Rule         `json:"rules"`
}
