// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors for the collection engine. Callers match them with
// errors.Is; the HTTP layer maps each to a status code.
var (
	// ErrNotFound marks an entity that is absent or excluded by its
	// publish state.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateHandle marks a handle (or the path it would produce)
	// that is already taken. Handle uniqueness is global, not per-sibling.
	ErrDuplicateHandle = errors.New("duplicate handle")
	// ErrParentNotFound marks a parent reference that cannot be resolved.
	ErrParentNotFound = errors.New("parent collection not found")
	// ErrCycleDetected marks a re-parent that would make a collection its
	// own ancestor.
	ErrCycleDetected = errors.New("move would create a cycle")
	// ErrNotEmpty marks a non-cascade delete of a collection that still
	// has children.
	ErrNotEmpty = errors.New("collection has children")
	// ErrInvalidSort marks a sort field outside the allow-listed set.
	ErrInvalidSort = errors.New("invalid sort field")
	// ErrTypeImmutable marks an update that tries to switch a collection
	// between manual and smart.
	ErrTypeImmutable = errors.New("collection type is immutable")
	// ErrCorruptHierarchy marks an ancestor walk that exceeded the depth
	// bound. It signals a prior invariant violation, not a caller mistake.
	ErrCorruptHierarchy = errors.New("corrupt hierarchy")
)

// Postgres error codes we translate into domain errors.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// mapPgError converts constraint violations into the matching sentinel so
// callers never depend on driver types.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicateHandle
		case pgForeignKeyViolation:
			return ErrParentNotFound
		}
	}
	return err
}
