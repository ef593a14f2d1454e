// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package rules

import (
	"fmt"
	"strings"

	"shopcore/internal/models"
)

// SQL translates a rule set into a parameterized WHERE fragment over the
// products table, with placeholders numbered from argIndex. Malformed rules
// compile to FALSE so the filter agrees with Match rule-for-rule. The
// returned fragment is always parenthesized and never empty.
func SQL(set *models.RuleSet, argIndex int) (string, []any) {
	if set == nil {
		return "(FALSE)", nil
	}

	var clauses []string
	var args []any
	for _, r := range set.Rules {
		clause, ruleArgs := ruleSQL(r, argIndex+len(args))
		clauses = append(clauses, clause)
		args = append(args, ruleArgs...)
	}

	switch set.Combinator {
	case models.CombinatorAll:
		if len(clauses) == 0 {
			return "(TRUE)", nil
		}
		return "(" + strings.Join(clauses, " AND ") + ")", args
	case models.CombinatorAny:
		if len(clauses) == 0 {
			return "(FALSE)", nil
		}
		return "(" + strings.Join(clauses, " OR ") + ")", args
	default:
		return "(FALSE)", nil
	}
}

// ruleSQL compiles a single predicate. The placeholder for this rule's first
// argument is $argIndex.
func ruleSQL(r models.Rule, argIndex int) (string, []any) {
	switch r.Field {
	case models.FieldPrice:
		return numberSQL("price", r.Operator, r.Value, argIndex)
	case models.FieldTitle:
		return stringSQL("title", r.Operator, r.Value, argIndex)
	case models.FieldHandle:
		return stringSQL("handle", r.Operator, r.Value, argIndex)
	case models.FieldStatus:
		return stringSQL("status", r.Operator, r.Value, argIndex)
	case models.FieldTag:
		return tagSQL(r.Operator, r.Value, argIndex)
	case models.FieldCreatedAt:
		return timeSQL("created_at", r.Operator, r.Value, argIndex)
	default:
		return "FALSE", nil
	}
}

func numberSQL(col string, op models.RuleOperator, value any, argIndex int) (string, []any) {
	switch op {
	case models.OpEquals, models.OpNotEquals, models.OpGreaterThan, models.OpLessThan:
		n, ok := toNumber(value)
		if !ok {
			return "FALSE", nil
		}
		return fmt.Sprintf("%s %s $%d", col, comparison(op), argIndex), []any{n}
	case models.OpIn:
		list, ok := toNumberList(value)
		if !ok || len(list) == 0 {
			return "FALSE", nil
		}
		placeholders := make([]string, len(list))
		args := make([]any, len(list))
		for i, n := range list {
			placeholders[i] = fmt.Sprintf("$%d", argIndex+i)
			args[i] = n
		}
		return fmt.Sprintf("%s IN (%s)", col, strings.Join(placeholders, ", ")), args
	default:
		return "FALSE", nil
	}
}

func stringSQL(col string, op models.RuleOperator, value any, argIndex int) (string, []any) {
	switch op {
	case models.OpEquals, models.OpNotEquals:
		s, ok := value.(string)
		if !ok {
			return "FALSE", nil
		}
		return fmt.Sprintf("%s %s $%d", col, comparison(op), argIndex), []any{s}
	case models.OpContains:
		s, ok := value.(string)
		if !ok {
			return "FALSE", nil
		}
		return fmt.Sprintf("%s ILIKE '%%' || $%d || '%%'", col, argIndex), []any{likeEscape(s)}
	case models.OpIn:
		list, ok := toStringList(value)
		if !ok || len(list) == 0 {
			return "FALSE", nil
		}
		placeholders := make([]string, len(list))
		args := make([]any, len(list))
		for i, s := range list {
			placeholders[i] = fmt.Sprintf("$%d", argIndex+i)
			args[i] = s
		}
		return fmt.Sprintf("%s IN (%s)", col, strings.Join(placeholders, ", ")), args
	default:
		return "FALSE", nil
	}
}

// tagSQL works against the jsonb string array in products.tags. The jsonb
// existence operator covers exact membership; substring matching unnests.
func tagSQL(op models.RuleOperator, value any, argIndex int) (string, []any) {
	switch op {
	case models.OpEquals:
		s, ok := value.(string)
		if !ok {
			return "FALSE", nil
		}
		return fmt.Sprintf("tags ? $%d", argIndex), []any{s}
	case models.OpNotEquals:
		s, ok := value.(string)
		if !ok {
			return "FALSE", nil
		}
		return fmt.Sprintf("NOT (tags ? $%d)", argIndex), []any{s}
	case models.OpContains:
		s, ok := value.(string)
		if !ok {
			return "FALSE", nil
		}
		clause := fmt.Sprintf(
			"EXISTS (SELECT 1 FROM jsonb_array_elements_text(tags) AS t(tag) WHERE t.tag ILIKE '%%' || $%d || '%%')",
			argIndex,
		)
		return clause, []any{likeEscape(s)}
	case models.OpIn:
		list, ok := toStringList(value)
		if !ok || len(list) == 0 {
			return "FALSE", nil
		}
		clauses := make([]string, len(list))
		args := make([]any, len(list))
		for i, s := range list {
			clauses[i] = fmt.Sprintf("tags ? $%d", argIndex+i)
			args[i] = s
		}
		return "(" + strings.Join(clauses, " OR ") + ")", args
	default:
		return "FALSE", nil
	}
}

func timeSQL(col string, op models.RuleOperator, value any, argIndex int) (string, []any) {
	t, ok := toTime(value)
	if !ok {
		return "FALSE", nil
	}
	switch op {
	case models.OpGreaterThan, models.OpLessThan:
		return fmt.Sprintf("%s %s $%d", col, comparison(op), argIndex), []any{t}
	default:
		return "FALSE", nil
	}
}

func comparison(op models.RuleOperator) string {
	switch op {
	case models.OpEquals:
		return "="
	case models.OpNotEquals:
		return "<>"
	case models.OpGreaterThan:
		return ">"
	case models.OpLessThan:
		return "<"
	default:
		return "="
	}
}

// likeEscape neutralizes LIKE wildcards inside a contains value so the SQL
// path matches the same literal substring the in-memory path does.
func likeEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
