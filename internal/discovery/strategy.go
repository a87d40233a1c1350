// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package discovery

import (
	"context"
	"log/slog"
	"strings"

	"github.com/lorekeep/lorekeep/internal/blob"
	"github.com/lorekeep/lorekeep/internal/util"
)

// Found is one path discovered by a strategy, before tree assembly.
type Found struct {
	Path   string
	IsFile bool
}

// Strategy lists candidate paths from the store. Strategies are pure
// lookups: they never write, and they swallow per-branch failures so a
// broken prefix degrades to an empty branch instead of aborting discovery.
type Strategy struct {
	Name string
	Run  func(ctx context.Context, store blob.Store) []Found
}

// listBreadthFirst walks prefixes with an explicit worklist. A failed List
// on one prefix drops that branch only.
func listBreadthFirst(ctx context.Context, store blob.Store, root, pageExt string, logger *slog.Logger) []Found {
	var found []Found
	queue := []string{root}
	for len(queue) > 0 {
		prefix := queue[0]
		queue = queue[1:]

		entries, err := store.List(ctx, prefix)
		if err != nil {
			logger.Warn("listing prefix failed, skipping branch", "prefix", prefix, "error", err)
			continue
		}
		for _, e := range entries {
			path := util.JoinPath(prefix, e.Name)
			if e.IsFile {
				if strings.HasSuffix(e.Name, pageExt) {
					found = append(found, Found{Path: path, IsFile: true})
				}
				continue
			}
			found = append(found, Found{Path: path})
			queue = append(queue, path)
		}
	}
	return found
}

// rootListing is the primary strategy: breadth-first descent from the
// configured root prefix.
func rootListing(cfg Config, logger *slog.Logger) Strategy {
	return Strategy{
		Name: "root-listing",
		Run: func(ctx context.Context, store blob.Store) []Found {
			return listBreadthFirst(ctx, store, cfg.Root, cfg.PageExt, logger)
		},
	}
}

// knownPrefixes probes historically-known directory prefixes and descends
// into any that still list children.
func knownPrefixes(cfg Config, logger *slog.Logger) Strategy {
	return Strategy{
		Name: "known-prefixes",
		Run: func(ctx context.Context, store blob.Store) []Found {
			var found []Found
			for _, prefix := range cfg.KnownPrefixes {
				branch := listBreadthFirst(ctx, store, prefix, cfg.PageExt, logger)
				if len(branch) == 0 {
					continue
				}
				found = append(found, Found{Path: prefix})
				found = append(found, branch...)
			}
			return found
		},
	}
}

// knownFiles fetches historically-known file paths directly and infers
// folder membership from any hit's ancestor segments.
func knownFiles(cfg Config, logger *slog.Logger) Strategy {
	return Strategy{
		Name: "known-files",
		Run: func(ctx context.Context, store blob.Store) []Found {
			var found []Found
			for _, path := range cfg.KnownFiles {
				if _, err := store.Get(ctx, path); err != nil {
					continue
				}
				found = append(found, Found{Path: path, IsFile: true})
				for parent := util.ParentPath(path); parent != "" && parent != cfg.Root; parent = util.ParentPath(parent) {
					found = append(found, Found{Path: parent})
				}
			}
			return found
		},
	}
}

// alternateRoots retries the breadth-first descent under alternate root
// prefix spellings left behind by earlier naming schemes.
func alternateRoots(cfg Config, logger *slog.Logger) Strategy {
	return Strategy{
		Name: "alternate-roots",
		Run: func(ctx context.Context, store blob.Store) []Found {
			var found []Found
			for _, root := range cfg.AlternateRoots {
				found = append(found, listBreadthFirst(ctx, store, root, cfg.PageExt, logger)...)
			}
			return found
		},
	}
}
