// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "errors"

// Error taxonomy for the wiki core. Callers match with errors.Is after
// the usual fmt.Errorf("...: %w", err) wrapping. Conflicts are advisory
// data, never an error.
var (
	// ErrNotFound indicates a missing blob, page, revision or session.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied indicates the caller's role lacks a capability.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidState indicates an operation illegal for the current state,
	// e.g. merging an already-merged suggestion.
	ErrInvalidState = errors.New("invalid state")

	// ErrUpstreamUnavailable indicates a blob store or live registry failure.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
