// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package overlay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/lorekeep/lorekeep/internal/content"
	"github.com/lorekeep/lorekeep/internal/frontmatter"
	"github.com/lorekeep/lorekeep/internal/live"
)

type stubRegistry struct {
	snap     *live.Snapshot
	err      error
	lastType string
	lastName string
	calls    int
}

func (s *stubRegistry) GetEntitySnapshot(_ context.Context, entityType, name string) (*live.Snapshot, error) {
	s.calls++
	s.lastType = entityType
	s.lastName = name
	return s.snap, s.err
}

func pageContent(path, body string, meta map[string]string) *content.Content {
	fm := frontmatter.New()
	for k, v := range meta {
		fm.Set(k, v)
	}
	return &content.Content{Path: path, Meta: fm, Body: body}
}

func newTestResolver(registry live.Registry) *Resolver {
	return NewResolver(registry, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestResolveDisabledSkipsRegistry(t *testing.T) {
	registry := &stubRegistry{snap: &live.Snapshot{Name: "garvia"}}
	r := newTestResolver(registry)

	result := r.Resolve(context.Background(), pageContent("towns/garvia.md", "static", nil))

	if result.Body != "static" {
		t.Errorf("body = %q, want %q", result.Body, "static")
	}
	if result.Snapshot != nil {
		t.Error("snapshot returned for a page without the live flag")
	}
	if registry.calls != 0 {
		t.Errorf("registry calls = %d, want 0", registry.calls)
	}
}

func TestResolveInfersEntityFromPath(t *testing.T) {
	registry := &stubRegistry{snap: &live.Snapshot{Type: "town", Name: "garvia"}}
	r := newTestResolver(registry)

	result := r.Resolve(context.Background(),
		pageContent("towns/garvia.md", "static", map[string]string{"live": "true"}))

	if registry.lastType != "town" || registry.lastName != "garvia" {
		t.Errorf("inferred entity = (%q, %q), want (town, garvia)", registry.lastType, registry.lastName)
	}
	if result.Snapshot == nil {
		t.Fatal("snapshot missing")
	}
	if result.Body != "static" {
		t.Errorf("body = %q, want static body alongside snapshot", result.Body)
	}
}

func TestResolveIndexPageUsesFolderName(t *testing.T) {
	registry := &stubRegistry{snap: &live.Snapshot{}}
	r := newTestResolver(registry)

	r.Resolve(context.Background(),
		pageContent("Nordics/towns/garvia/README.md", "", map[string]string{"live": "yes"}))

	if registry.lastName != "garvia" {
		t.Errorf("entity name = %q, want folder name garvia", registry.lastName)
	}
}

func TestResolveFrontmatterOverridesWin(t *testing.T) {
	registry := &stubRegistry{snap: &live.Snapshot{}}
	r := newTestResolver(registry)

	r.Resolve(context.Background(), pageContent("misc/page.md", "", map[string]string{
		"live":        "true",
		"entity_type": "nation",
		"entity_name": "aurora",
	}))

	if registry.lastType != "nation" || registry.lastName != "aurora" {
		t.Errorf("entity = (%q, %q), want overrides (nation, aurora)", registry.lastType, registry.lastName)
	}
}

func TestResolveRegistryFailureDegradesToStatic(t *testing.T) {
	registry := &stubRegistry{err: errors.New("registry down")}
	r := newTestResolver(registry)

	result := r.Resolve(context.Background(),
		pageContent("towns/garvia.md", "static", map[string]string{"live": "true"}))

	if result.Body != "static" {
		t.Errorf("body = %q, want static body on registry failure", result.Body)
	}
	if result.Snapshot != nil {
		t.Error("snapshot returned despite registry failure")
	}
}

func TestResolveNilRegistry(t *testing.T) {
	r := newTestResolver(nil)

	result := r.Resolve(context.Background(),
		pageContent("towns/garvia.md", "static", map[string]string{"live": "true"}))

	if result.Snapshot != nil || result.Body != "static" {
		t.Error("nil registry must disable the overlay")
	}
}

func TestResolveUnresolvableEntity(t *testing.T) {
	registry := &stubRegistry{snap: &live.Snapshot{}}
	r := newTestResolver(registry)

	// No frontmatter type and no known path segment: no registry call.
	r.Resolve(context.Background(),
		pageContent("misc/page.md", "", map[string]string{"live": "true"}))

	if registry.calls != 0 {
		t.Errorf("registry calls = %d, want 0 for unresolvable entity", registry.calls)
	}
}
