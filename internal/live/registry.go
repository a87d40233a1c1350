// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package live connects the wiki to the external live-entity registry
// that tracks computed statistics for in-world entities (towns, nations).
// The registry itself is an external collaborator; this package only
// consumes snapshots.
package live

import (
	"context"
	"time"
)

// Snapshot is the registry's current view of one entity.
type Snapshot struct {
	Type        string            `json:"type"`
	Name        string            `json:"name"`
	Fields      map[string]string `json:"fields"`
	LastUpdated time.Time         `json:"last_updated"`
}

// Registry fetches live entity snapshots.
type Registry interface {
	GetEntitySnapshot(ctx context.Context, entityType, name string) (*Snapshot, error)
}
