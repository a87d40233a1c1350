// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package demo seeds the blob store with a small sample wiki so a fresh
// instance has something to browse.
package demo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lorekeep/lorekeep/internal/blob"
	"github.com/lorekeep/lorekeep/internal/frontmatter"
)

type samplePage struct {
	path  string
	title string
	meta  map[string]string
	body  string
}

var samplePages = []samplePage{
	{
		path:  "wiki/README.md",
		title: "Welcome",
		body: "This wiki is the shared chronicle of the realm. Pages live in\n" +
			"folders by topic; open any page to read it or start an edit\n" +
			"session to change it.\n",
	},
	{
		path:  "wiki/towns/garvia.md",
		title: "Garvia",
		meta:  map[string]string{"tags": "town, harbor"},
		body: "Garvia is the largest harbor town on the eastern coast. Its\n" +
			"lighthouse has burned without pause for two hundred years.\n",
	},
	{
		path:  "wiki/towns/thornfield.md",
		title: "Thornfield",
		meta:  map[string]string{"tags": "town", "status": "draft"},
		body:  "A quiet farming village north of Garvia. Little is written yet.\n",
	},
	{
		path:  "wiki/people/captain-mira.md",
		title: "Captain Mira",
		meta:  map[string]string{"tags": "person, garvia", "live": "true", "entity_type": "character"},
		body: "Captain of the Garvia harbor watch. Her current whereabouts are\n" +
			"tracked by the live registry when one is connected.\n",
	},
	{
		path:  "wiki/lore/the-long-winter.md",
		title: "The Long Winter",
		meta:  map[string]string{"tags": "history"},
		body: "Three generations ago the harbor froze solid for a full year.\n" +
			"Most of what the towns remember about rationing dates to then.\n",
	},
}

// Seed writes the sample pages. Existing pages are left alone, so
// seeding an already-populated store is safe.
func Seed(ctx context.Context, blobs blob.Store, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	seeded := 0
	for _, p := range samplePages {
		meta := frontmatter.New()
		meta.Set("title", p.title)
		for k, v := range p.meta {
			meta.Set(k, v)
		}
		if _, ok := meta.Get("status"); !ok {
			meta.Set("status", "published")
		}

		err := blobs.Put(ctx, p.path, []byte(frontmatter.Encode(meta, p.body)), false)
		if errors.Is(err, blob.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return fmt.Errorf("seeding %q: %w", p.path, err)
		}
		seeded++
	}

	if seeded > 0 {
		logger.Info("demo wiki seeded", "pages", seeded)
	}
	return nil
}
