// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"shopcore/internal/models"
	"shopcore/internal/rules"
)

// ProductStore handles catalog reads and writes. The membership resolver
// drives its filtered queries; admin and seed code use the plain CRUD.
type ProductStore struct {
	db *sql.DB
}

// NewProductStore returns a new ProductStore.
func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

const productColumns = `id, title, handle, price, status, tags, created_at, updated_at`

// activeCond limits queries to storefront-visible products.
const activeCond = `status = 'active'`

func scanProduct(scanner interface{ Scan(...any) error }) (*models.Product, error) {
	var p models.Product
	var tagsJSON []byte
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Handle, &p.Price, &p.Status, &tagsJSON,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &p.Tags); err != nil {
			return nil, fmt.Errorf("decode tags: %w", err)
		}
	}
	return &p, nil
}

// Create inserts a new product and returns it.
func (s *ProductStore) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO products (title, handle, price, status, tags)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+productColumns,
		p.Title, p.Handle, p.Price, p.Status, tagsJSON,
	)
	created, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", mapPgError(err))
	}
	return created, nil
}

// FindByID retrieves a product by id, or ErrNotFound.
func (s *ProductStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id,
	)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product by id: %w", err)
	}
	return p, nil
}

// ActiveByIDs returns the active products among the given ids, in no
// particular order. Callers that care about curated order reorder the result.
func (s *ProductStore) ActiveByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cond, args := idList(ids, 1)
	query := `SELECT ` + productColumns + ` FROM products WHERE ` + activeCond + ` AND id IN ` + cond
	return s.queryProducts(ctx, query, args...)
}

// ActivePageByIDs returns one sorted page of the active products among ids,
// for paginated listings over an already-resolved membership set.
func (s *ProductStore) ActivePageByIDs(ctx context.Context, ids []uuid.UUID, orderBy string, desc bool, limit, offset int) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cond, args := idList(ids, 1)
	query := `SELECT ` + productColumns + ` FROM products WHERE ` + activeCond + ` AND id IN ` + cond +
		orderClause(orderBy, desc)
	args = append(args, limit, offset)
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	return s.queryProducts(ctx, query, args...)
}

// FilterPage returns one sorted page of active products matching a smart
// collection's rule set.
func (s *ProductStore) FilterPage(ctx context.Context, set *models.RuleSet, orderBy string, desc bool, limit, offset int) ([]models.Product, error) {
	clause, args := rules.SQL(set, 1)
	query := `SELECT ` + productColumns + ` FROM products WHERE ` + activeCond + ` AND ` + clause +
		orderClause(orderBy, desc)
	args = append(args, limit, offset)
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	return s.queryProducts(ctx, query, args...)
}

// FilterCount returns the exact number of active products matching the rule
// set, so totals never come from a sampled page.
func (s *ProductStore) FilterCount(ctx context.Context, set *models.RuleSet) (int, error) {
	clause, args := rules.SQL(set, 1)
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE `+activeCond+` AND `+clause, args...,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count filtered products: %w", err)
	}
	return count, nil
}

// FilterIDs returns the ids of all active products matching the rule set.
// Used when unioning membership across a subtree before pagination.
func (s *ProductStore) FilterIDs(ctx context.Context, set *models.RuleSet) ([]uuid.UUID, error) {
	clause, args := rules.SQL(set, 1)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM products WHERE `+activeCond+` AND `+clause, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("filter product ids: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ActiveIDsAmong filters the given ids down to those belonging to active
// products, preserving the input order.
func (s *ProductStore) ActiveIDsAmong(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	products, err := s.ActiveByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	active := make(map[uuid.UUID]struct{}, len(products))
	for _, p := range products {
		active[p.ID] = struct{}{}
	}
	out := make([]uuid.UUID, 0, len(products))
	for _, id := range ids {
		if _, ok := active[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *ProductStore) queryProducts(ctx context.Context, query string, args ...any) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var items []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

// idList renders an IN clause with numbered placeholders starting at argIndex.
func idList(ids []uuid.UUID, argIndex int) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", argIndex+i)
		args[i] = id
	}
	return "(" + strings.Join(placeholders, ", ") + ")", args
}

// orderClause renders the ORDER BY for an already-validated sort column.
// A trailing id sort keeps pagination stable across equal keys.
func orderClause(orderBy string, desc bool) string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id ASC", orderBy, dir)
}
