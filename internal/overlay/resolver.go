// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package overlay augments a page's stored body with fresh data from the
// live-entity registry at render time. The renderer substitutes computed
// statistics sections from the snapshot while hand-authored prose stays
// untouched; a registry failure always degrades to the static body.
package overlay

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lorekeep/lorekeep/internal/content"
	"github.com/lorekeep/lorekeep/internal/live"
	"github.com/lorekeep/lorekeep/internal/util"
)

// Frontmatter keys gating the overlay.
const (
	KeyLiveSync   = "live"
	KeyEntityType = "entity_type"
	KeyEntityName = "entity_name"
)

// DefaultPrefixTypes maps path segments to entity types for pages whose
// frontmatter does not name the entity explicitly.
var DefaultPrefixTypes = map[string]string{
	"towns":   "town",
	"nations": "nation",
}

// Result is what the renderer receives: the display body, plus the live
// snapshot when one could be fetched.
type Result struct {
	Body     string         `json:"body"`
	Snapshot *live.Snapshot `json:"snapshot,omitempty"`
}

// Resolver applies the live overlay. It is entirely gated by frontmatter:
// pages without the live flag never touch the registry.
type Resolver struct {
	registry    live.Registry
	prefixTypes map[string]string
	indexFile   string
	logger      *slog.Logger
}

// NewResolver creates a resolver over the given registry. A nil registry
// disables the overlay entirely.
func NewResolver(registry live.Registry, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		registry:    registry,
		prefixTypes: DefaultPrefixTypes,
		indexFile:   "README.md",
		logger:      logger,
	}
}

// Resolve returns the display body and, when the page opts in and the
// registry answers, the live snapshot. It never fails: any registry
// problem degrades to the static body.
func (r *Resolver) Resolve(ctx context.Context, c *content.Content) Result {
	result := Result{Body: c.Body}

	if r.registry == nil || !c.Meta.Bool(KeyLiveSync) {
		return result
	}

	entityType, entityName := r.entityFor(c)
	if entityType == "" || entityName == "" {
		r.logger.Debug("live overlay enabled but entity not resolvable", "path", c.Path)
		return result
	}

	snap, err := r.registry.GetEntitySnapshot(ctx, entityType, entityName)
	if err != nil {
		r.logger.Warn("live snapshot fetch failed, serving static body",
			"path", c.Path, "entity_type", entityType, "entity_name", entityName, "error", err)
		return result
	}

	result.Snapshot = snap
	return result
}

// entityFor resolves the entity type and name: frontmatter overrides
// first, then inference from the page path.
func (r *Resolver) entityFor(c *content.Content) (entityType, entityName string) {
	entityType = c.Meta.GetDefault(KeyEntityType, "")
	entityName = c.Meta.GetDefault(KeyEntityName, "")
	if entityType != "" && entityName != "" {
		return entityType, entityName
	}

	if entityType == "" {
		for _, segment := range strings.Split(c.Path, "/") {
			if t, ok := r.prefixTypes[segment]; ok {
				entityType = t
				break
			}
		}
	}

	if entityName == "" {
		base := util.BaseName(c.Path)
		if base == r.indexFile {
			entityName = util.BaseName(util.ParentPath(c.Path))
		} else {
			entityName = strings.TrimSuffix(base, ".md")
		}
	}

	return entityType, entityName
}
