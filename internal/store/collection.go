// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"shopcore/internal/models"
	"shopcore/internal/treepath"
)

// CollectionStore is the sole writer of collection rows. Every structural
// mutation (create, rename, move, cascade delete) runs in one transaction
// that locks the affected subtree with FOR UPDATE, so two overlapping
// mutations serialize and readers never observe a half-recomputed subtree.
type CollectionStore struct {
	db *sql.DB
}

// NewCollectionStore returns a new CollectionStore.
func NewCollectionStore(db *sql.DB) *CollectionStore {
	return &CollectionStore{db: db}
}

const collectionColumns = `id, title, handle, description, parent_id, level, path,
	collection_type, rules, published, published_at, view_count, created_at, updated_at`

// visibleCond excludes unpublished and future-dated collections from
// storefront reads.
const visibleCond = `published AND (published_at IS NULL OR published_at <= now())`

// scanCollection scans a row into a Collection, decoding the rules JSON.
func scanCollection(scanner interface{ Scan(...any) error }) (*models.Collection, error) {
	var c models.Collection
	var rulesJSON []byte
	err := scanner.Scan(
		&c.ID, &c.Title, &c.Handle, &c.Description, &c.ParentID, &c.Level, &c.Path,
		&c.Type, &rulesJSON, &c.Published, &c.PublishedAt, &c.ViewCount,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(rulesJSON) > 0 {
		var rs models.RuleSet
		if err := json.Unmarshal(rulesJSON, &rs); err != nil {
			return nil, fmt.Errorf("decode rules: %w", err)
		}
		c.Rules = &rs
	}
	return &c, nil
}

// marshalRules encodes a rule set for the jsonb column; nil stays NULL.
func marshalRules(rs *models.RuleSet) (any, error) {
	if rs == nil {
		return nil, nil
	}
	b, err := json.Marshal(rs)
	if err != nil {
		return nil, fmt.Errorf("encode rules: %w", err)
	}
	return b, nil
}

// Create inserts a new collection, deriving level and path from the resolved
// parent. The parent row is locked so concurrent structural mutations on the
// same subtree serialize. For manual collections the curated product list is
// written in the same transaction, deduplicated in curator order.
func (s *CollectionStore) Create(ctx context.Context, c *models.Collection) (*models.Collection, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if c.Handle == "" {
		return nil, fmt.Errorf("create collection: handle is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	level := treepath.Level(0)
	path := treepath.Join(nil, c.Handle)
	if c.ParentID != nil {
		var parentPath string
		var parentLevel int
		err := tx.QueryRowContext(ctx,
			`SELECT path, level FROM collections WHERE id = $1 FOR UPDATE`,
			*c.ParentID,
		).Scan(&parentPath, &parentLevel)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("create collection: %w", ErrParentNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("resolve parent: %w", err)
		}
		path = treepath.Join(treepath.Split(parentPath), c.Handle)
		level = treepath.Level(parentLevel + 1)
	}

	rulesArg, err := marshalRules(c.Rules)
	if err != nil {
		return nil, err
	}

	if c.Published && c.PublishedAt == nil {
		now := time.Now()
		c.PublishedAt = &now
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO collections (title, handle, description, parent_id, level, path,
		                         collection_type, rules, published, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+collectionColumns,
		c.Title, c.Handle, c.Description, c.ParentID, level, path,
		c.Type, rulesArg, c.Published, c.PublishedAt,
	)
	created, err := scanCollection(row)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", mapPgError(err))
	}

	if c.IsManual() && len(c.ProductIDs) > 0 {
		ids := dedupIDs(c.ProductIDs)
		if err := replaceProducts(ctx, tx, created.ID, ids); err != nil {
			return nil, err
		}
		created.ProductIDs = ids
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create: %w", err)
	}
	return created, nil
}

// Update modifies a collection's editable fields. The collection type is
// immutable. A handle change recomputes the path of this node and of every
// descendant in the same transaction; any failure leaves the tree unchanged.
func (s *CollectionStore) Update(ctx context.Context, c *models.Collection) (*models.Collection, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	cur, err := lockCollection(ctx, tx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("update collection: %w", err)
	}
	if c.Type != "" && c.Type != cur.Type {
		return nil, fmt.Errorf("update collection: %w", ErrTypeImmutable)
	}
	c.Type = cur.Type
	if err := c.Validate(); err != nil {
		return nil, err
	}

	newPath := cur.Path
	if c.Handle != "" && c.Handle != cur.Handle {
		segs := treepath.Split(cur.Path)
		newPath = treepath.Join(segs[:len(segs)-1], c.Handle)

		// Lock the whole subtree, then rebase every descendant path onto
		// the renamed prefix in a single statement.
		if _, err := tx.ExecContext(ctx,
			`SELECT id FROM collections WHERE path LIKE $1 FOR UPDATE`,
			cur.Path+treepath.Separator+"%",
		); err != nil {
			return nil, fmt.Errorf("lock subtree: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE collections
			SET path = $1 || substr(path, $2), updated_at = now()
			WHERE path LIKE $3`,
			newPath, len(cur.Path)+1, cur.Path+treepath.Separator+"%",
		); err != nil {
			return nil, fmt.Errorf("rebase descendant paths: %w", mapPgError(err))
		}
	} else if c.Handle == "" {
		c.Handle = cur.Handle
	}

	if c.Published && c.PublishedAt == nil {
		now := time.Now()
		c.PublishedAt = &now
	}

	rulesArg, err := marshalRules(c.Rules)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE collections SET
			title = $1, handle = $2, description = $3, path = $4,
			rules = $5, published = $6, published_at = $7, updated_at = now()
		WHERE id = $8
		RETURNING `+collectionColumns,
		c.Title, c.Handle, c.Description, newPath,
		rulesArg, c.Published, c.PublishedAt, c.ID,
	)
	updated, err := scanCollection(row)
	if err != nil {
		return nil, fmt.Errorf("update collection: %w", mapPgError(err))
	}

	if updated.IsManual() {
		ids := dedupIDs(c.ProductIDs)
		if err := replaceProducts(ctx, tx, updated.ID, ids); err != nil {
			return nil, err
		}
		updated.ProductIDs = ids
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return updated, nil
}

// Move re-parents a subtree. It fails with ErrCycleDetected when the new
// parent is the node itself or any of its descendants, and recomputes level
// and path for the node and its entire subtree atomically.
func (s *CollectionStore) Move(ctx context.Context, id uuid.UUID, newParentID *uuid.UUID) (*models.Collection, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	node, err := lockCollection(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("move collection: %w", err)
	}

	newLevel := treepath.Level(0)
	newPath := treepath.Join(nil, node.Handle)
	if newParentID != nil {
		if *newParentID == id {
			return nil, fmt.Errorf("move collection: %w", ErrCycleDetected)
		}
		parent, err := lockCollection(ctx, tx, *newParentID)
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("move collection: %w", ErrParentNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("move collection: %w", err)
		}

		chain, err := ancestorChain(ctx, tx, parent)
		if err != nil {
			return nil, fmt.Errorf("move collection: %w", err)
		}
		if treepath.DetectCycle(id, chain) {
			return nil, fmt.Errorf("move collection: %w", ErrCycleDetected)
		}

		newPath = treepath.Join(treepath.Split(parent.Path), node.Handle)
		newLevel = treepath.Level(parent.Level + 1)
	}

	if newPath == node.Path {
		return node, nil
	}

	// Lock every descendant before rewriting, so a concurrent move of an
	// overlapping subtree waits for this one to commit.
	if _, err := tx.ExecContext(ctx,
		`SELECT id FROM collections WHERE path LIKE $1 FOR UPDATE`,
		node.Path+treepath.Separator+"%",
	); err != nil {
		return nil, fmt.Errorf("lock subtree: %w", err)
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE collections SET parent_id = $1, level = $2, path = $3, updated_at = now()
		WHERE id = $4
		RETURNING `+collectionColumns,
		newParentID, newLevel, newPath, id,
	)
	moved, err := scanCollection(row)
	if err != nil {
		return nil, fmt.Errorf("move collection: %w", mapPgError(err))
	}

	levelDelta := newLevel - node.Level
	if _, err := tx.ExecContext(ctx, `
		UPDATE collections
		SET path = $1 || substr(path, $2), level = level + $3, updated_at = now()
		WHERE path LIKE $4`,
		newPath, len(node.Path)+1, levelDelta, node.Path+treepath.Separator+"%",
	); err != nil {
		return nil, fmt.Errorf("recompute subtree: %w", mapPgError(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit move: %w", err)
	}
	return moved, nil
}

// Delete removes a collection. Without cascade it fails with ErrNotEmpty on a
// non-leaf; with cascade it removes the entire subtree in one statement.
// Curated product references are weak: membership rows go, products stay.
func (s *CollectionStore) Delete(ctx context.Context, id uuid.UUID, cascade bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	node, err := lockCollection(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}

	if !cascade {
		var children int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM collections WHERE parent_id = $1`, id,
		).Scan(&children); err != nil {
			return fmt.Errorf("count children: %w", err)
		}
		if children > 0 {
			return fmt.Errorf("delete collection: %w", ErrNotEmpty)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete collection: %w", err)
		}
		return tx.Commit()
	}

	if _, err := tx.ExecContext(ctx,
		`SELECT id FROM collections WHERE path LIKE $1 FOR UPDATE`,
		node.Path+treepath.Separator+"%",
	); err != nil {
		return fmt.Errorf("lock subtree: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM collections WHERE id = $1 OR path LIKE $2`,
		id, node.Path+treepath.Separator+"%",
	); err != nil {
		return fmt.Errorf("delete subtree: %w", err)
	}
	return tx.Commit()
}

// FindByID retrieves a collection by id. With includeUnpublished false,
// unpublished and future-dated collections report ErrNotFound.
func (s *CollectionStore) FindByID(ctx context.Context, id uuid.UUID, includeUnpublished bool) (*models.Collection, error) {
	return s.findBy(ctx, `id = $1`, id, includeUnpublished)
}

// FindByHandle retrieves a collection by its globally unique handle.
func (s *CollectionStore) FindByHandle(ctx context.Context, handle string, includeUnpublished bool) (*models.Collection, error) {
	return s.findBy(ctx, `handle = $1`, handle, includeUnpublished)
}

// FindByPath retrieves a collection by its full materialized path.
func (s *CollectionStore) FindByPath(ctx context.Context, path string, includeUnpublished bool) (*models.Collection, error) {
	return s.findBy(ctx, `path = $1`, path, includeUnpublished)
}

func (s *CollectionStore) findBy(ctx context.Context, cond string, arg any, includeUnpublished bool) (*models.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE ` + cond
	if !includeUnpublished {
		query += ` AND ` + visibleCond
	}
	row := s.db.QueryRowContext(ctx, query, arg)
	c, err := scanCollection(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find collection: %w", err)
	}
	if c.IsManual() {
		c.ProductIDs, err = s.ProductIDs(ctx, c.ID)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ListOptions filters and pages the flat collection listing.
type ListOptions struct {
	Level              *int
	ParentID           *uuid.UUID
	IncludeUnpublished bool
	Page               int
	Limit              int
}

// List returns a page of collections ordered by path, plus the total count
// for the same filter.
func (s *CollectionStore) List(ctx context.Context, opts ListOptions) ([]models.Collection, int, error) {
	where := `TRUE`
	var args []any
	if !opts.IncludeUnpublished {
		where += ` AND ` + visibleCond
	}
	if opts.Level != nil {
		args = append(args, *opts.Level)
		where += fmt.Sprintf(` AND level = $%d`, len(args))
	}
	if opts.ParentID != nil {
		args = append(args, *opts.ParentID)
		where += fmt.Sprintf(` AND parent_id = $%d`, len(args))
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM collections WHERE `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count collections: %w", err)
	}

	query := `SELECT ` + collectionColumns + ` FROM collections WHERE ` + where + ` ORDER BY path`
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
		offset := 0
		if opts.Page > 1 {
			offset = (opts.Page - 1) * opts.Limit
		}
		args = append(args, offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	items, err := s.queryCollections(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListAll returns every collection ordered by path. Used by the hierarchy
// service to assemble the tree in one pass.
func (s *CollectionStore) ListAll(ctx context.Context, includeUnpublished bool) ([]models.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections`
	if !includeUnpublished {
		query += ` WHERE ` + visibleCond
	}
	query += ` ORDER BY path`
	return s.queryCollections(ctx, query)
}

// DescendantsOf returns every collection strictly below the given path,
// ordered by path. Subtree membership is a single prefix match on the
// materialized path; no recursive traversal.
func (s *CollectionStore) DescendantsOf(ctx context.Context, path string, includeUnpublished bool) ([]models.Collection, error) {
	query := `SELECT ` + collectionColumns + ` FROM collections WHERE path LIKE $1`
	if !includeUnpublished {
		query += ` AND ` + visibleCond
	}
	query += ` ORDER BY path`
	return s.queryCollections(ctx, query, path+treepath.Separator+"%")
}

// MaxLevel returns the deepest level currently in the tree. The hierarchy
// service uses it to bound ancestor walks.
func (s *CollectionStore) MaxLevel(ctx context.Context) (int, error) {
	var max int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(level), 0) FROM collections`,
	).Scan(&max); err != nil {
		return 0, fmt.Errorf("max level: %w", err)
	}
	return max, nil
}

// ProductIDs returns a manual collection's curated product ids in curator
// order.
func (s *CollectionStore) ProductIDs(ctx context.Context, collectionID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id FROM collection_products
		WHERE collection_id = $1
		ORDER BY position`,
		collectionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list collection products: %w", err)
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

// IncrementView bumps the access counter atomically. Callers treat failures
// as non-fatal analytics loss.
func (s *CollectionStore) IncrementView(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE collections SET view_count = view_count + 1 WHERE id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("increment view: %w", err)
	}
	return nil
}

func (s *CollectionStore) queryCollections(ctx context.Context, query string, args ...any) ([]models.Collection, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var items []models.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan collection: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// lockCollection reads a row under FOR UPDATE inside a transaction.
func lockCollection(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*models.Collection, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+collectionColumns+` FROM collections WHERE id = $1 FOR UPDATE`, id,
	)
	c, err := scanCollection(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lock collection: %w", err)
	}
	return c, nil
}

// ancestorChain walks parent links upward from the given node, returning the
// node's id followed by each ancestor id. The walk is bounded by the node's
// own level so corrupt parent links cannot loop forever.
func ancestorChain(ctx context.Context, tx *sql.Tx, node *models.Collection) ([]uuid.UUID, error) {
	chain := []uuid.UUID{node.ID}
	parentID := node.ParentID
	for steps := 0; parentID != nil; steps++ {
		if steps > node.Level {
			return nil, ErrCorruptHierarchy
		}
		var id uuid.UUID
		var next *uuid.UUID
		err := tx.QueryRowContext(ctx,
			`SELECT id, parent_id FROM collections WHERE id = $1`, *parentID,
		).Scan(&id, &next)
		if err == sql.ErrNoRows {
			return nil, ErrCorruptHierarchy
		}
		if err != nil {
			return nil, fmt.Errorf("walk ancestors: %w", err)
		}
		chain = append(chain, id)
		parentID = next
	}
	return chain, nil
}

// replaceProducts rewrites a manual collection's membership rows in curator
// order. ids must already be deduplicated.
func replaceProducts(ctx context.Context, tx *sql.Tx, collectionID uuid.UUID, ids []uuid.UUID) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM collection_products WHERE collection_id = $1`, collectionID,
	); err != nil {
		return fmt.Errorf("clear collection products: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO collection_products (collection_id, product_id, position)
		VALUES ($1, $2, $3)`)
	if err != nil {
		return fmt.Errorf("prepare membership insert: %w", err)
	}
	defer stmt.Close()

	for i, id := range ids {
		if _, err := stmt.ExecContext(ctx, collectionID, id, i); err != nil {
			return fmt.Errorf("insert collection product %s: %w", id, mapPgError(err))
		}
	}
	return nil
}

// dedupIDs drops duplicate product references while preserving the curator's
// first-occurrence order.
func dedupIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
