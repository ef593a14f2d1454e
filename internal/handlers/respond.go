// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers exposes the collection engine over JSON HTTP. It is a
// thin boundary: parsing, status mapping, and response envelopes live here;
// all tree and membership semantics live in the store and services.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"shopcore/internal/store"
)

// Pagination is the envelope block for paginated responses.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewPagination computes the pagination block: total_pages is
// ceil(total/limit), has_next/has_prev compare against page.
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// writeError maps engine errors onto HTTP statuses. Everything in the
// taxonomy is a caller error except CorruptHierarchy, which indicates a
// data-integrity bug and is surfaced as a 500 with an operator-level log.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, store.ErrDuplicateHandle):
		writeJSON(w, http.StatusConflict, errorBody{Error: "handle already in use"})
	case errors.Is(err, store.ErrParentNotFound):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "parent collection not found"})
	case errors.Is(err, store.ErrCycleDetected):
		writeJSON(w, http.StatusConflict, errorBody{Error: "move would create a cycle"})
	case errors.Is(err, store.ErrNotEmpty):
		writeJSON(w, http.StatusConflict, errorBody{Error: "collection has children; pass cascade=true to delete the subtree"})
	case errors.Is(err, store.ErrInvalidSort):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid sort field"})
	case errors.Is(err, store.ErrTypeImmutable):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "collection type cannot be changed"})
	case errors.Is(err, store.ErrCorruptHierarchy):
		slog.Error("hierarchy corruption detected", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "hierarchy integrity error"})
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, errorBody{Error: "request timed out"})
	default:
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

// badRequest reports a parse or validation failure.
func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}
