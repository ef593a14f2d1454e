// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package treepath derives materialized paths and depth levels from ancestor
// chains and provides the prefix relation that makes subtree queries a single
// string match. It performs no I/O; callers supply the ancestor data.
package treepath

import (
	"strings"

	"github.com/google/uuid"
)

// Separator joins path segments. Handles never contain it, so joining is
// lossless and prefix matching is exact.
const Separator = "/"

// Join builds a node's materialized path from its ancestor handles (root
// first) and its own handle.
func Join(ancestorHandles []string, ownHandle string) string {
	if len(ancestorHandles) == 0 {
		return ownHandle
	}
	return strings.Join(ancestorHandles, Separator) + Separator + ownHandle
}

// Split breaks a path back into its handle segments.
func Split(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, Separator)
}

// Level returns the depth for a node with the given ancestor count.
// Roots have zero ancestors and level zero.
func Level(ancestorCount int) int {
	return ancestorCount
}

// IsDescendant reports whether path lies strictly below ancestorPath.
// The separator is included in the comparison so "a/b" never claims
// "a/bc" as a descendant, and a path is never its own descendant.
func IsDescendant(path, ancestorPath string) bool {
	return strings.HasPrefix(path, ancestorPath+Separator)
}

// Rebase rewrites a descendant path from an old subtree prefix onto a new
// one. It returns false when path is not the old root itself nor below it.
func Rebase(path, oldRoot, newRoot string) (string, bool) {
	if path == oldRoot {
		return newRoot, true
	}
	if !IsDescendant(path, oldRoot) {
		return "", false
	}
	return newRoot + path[len(oldRoot):], true
}

// DetectCycle reports whether re-parenting subtreeRoot under a candidate
// parent would close a cycle: true when subtreeRoot appears in the candidate
// parent's ancestor chain (the chain includes the candidate itself).
func DetectCycle(subtreeRoot uuid.UUID, candidateChain []uuid.UUID) bool {
	for _, id := range candidateChain {
		if id == subtreeRoot {
			return true
		}
	}
	return false
}
