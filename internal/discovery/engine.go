// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package discovery

import (
	"context"
	"log/slog"
	"sort"

	"github.com/lorekeep/lorekeep/internal/blob"
	"github.com/lorekeep/lorekeep/internal/util"
)

// DefaultIndexFile is the reserved page filename that marks a folder as
// having renderable content of its own.
const DefaultIndexFile = "README.md"

// DefaultPageExt is the blob suffix that identifies page files.
const DefaultPageExt = ".md"

// Config controls the discovery ladder.
type Config struct {
	// Root is the prefix the primary listing descends from.
	Root string
	// KnownPrefixes are historically-known directory prefixes probed when
	// the root listing comes back empty.
	KnownPrefixes []string
	// KnownFiles are historically-known file paths fetched directly when
	// prefix probing also fails.
	KnownFiles []string
	// AlternateRoots are alternate root prefix spellings tried last.
	AlternateRoots []string
	// IndexFile marks a folder as a page (default "README.md").
	IndexFile string
	// PageExt identifies page files (default ".md").
	PageExt string
}

// Engine reconstructs the page/category tree from the blob store.
// Discovery is a read-path, best-effort operation: it never returns an
// error, and a total failure yields an empty tree for the caller to
// retry.
type Engine struct {
	store      blob.Store
	cfg        Config
	strategies []Strategy
	logger     *slog.Logger
}

// NewEngine creates a discovery engine over the given store.
func NewEngine(store blob.Store, cfg Config, logger *slog.Logger) *Engine {
	if cfg.IndexFile == "" {
		cfg.IndexFile = DefaultIndexFile
	}
	if cfg.PageExt == "" {
		cfg.PageExt = DefaultPageExt
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store: store,
		cfg:   cfg,
		strategies: []Strategy{
			rootListing(cfg, logger),
			knownPrefixes(cfg, logger),
			knownFiles(cfg, logger),
			alternateRoots(cfg, logger),
		},
		logger: logger,
	}
}

// Discover runs the strategy ladder and assembles the tree. Each rung runs
// only when every prior rung produced zero results; the satisfied rung's
// paths are de-duplicated before assembly.
func (e *Engine) Discover(ctx context.Context) *Tree {
	var found []Found
	for _, s := range e.strategies {
		found = s.Run(ctx, e.store)
		if len(found) > 0 {
			e.logger.Info("discovery strategy satisfied",
				"strategy", s.Name, "paths", len(found))
			break
		}
		e.logger.Debug("discovery strategy yielded nothing", "strategy", s.Name)
	}

	tree := assemble(e.cfg, dedupe(found))
	if tree.IsEmpty() {
		e.logger.Warn("discovery found no pages", "root", e.cfg.Root)
	}
	return tree
}

// dedupe collapses duplicate paths; a file classification wins over a
// folder one for the same path.
func dedupe(found []Found) []Found {
	seen := make(map[string]int, len(found))
	out := make([]Found, 0, len(found))
	for _, f := range found {
		if i, ok := seen[f.Path]; ok {
			if f.IsFile {
				out[i].IsFile = true
			}
			continue
		}
		seen[f.Path] = len(out)
		out = append(out, f)
	}
	return out
}

// assemble builds the tree. Folders are attached shallowest-first so a
// parent exists before its children; entries whose parent was never
// discovered attach at the root rather than being dropped.
func assemble(cfg Config, found []Found) *Tree {
	tree := NewTree(cfg.Root)
	nodes := map[string]*Node{cfg.Root: tree.Root}

	var folders, files []Found
	for _, f := range found {
		if f.IsFile {
			files = append(files, f)
		} else {
			folders = append(folders, f)
		}
	}
	sort.SliceStable(folders, func(i, j int) bool {
		return util.PathDepth(folders[i].Path) < util.PathDepth(folders[j].Path)
	})

	attach := func(n *Node) {
		parent, ok := nodes[util.ParentPath(n.Path)]
		if !ok {
			parent = tree.Root
		}
		parent.Children = append(parent.Children, n)
	}

	for _, f := range folders {
		if _, ok := nodes[f.Path]; ok {
			continue
		}
		n := &Node{Kind: KindFolder, Name: util.BaseName(f.Path), Path: f.Path}
		nodes[f.Path] = n
		attach(n)
	}
	for _, f := range files {
		attach(&Node{Kind: KindFile, Name: util.BaseName(f.Path), Path: f.Path})
	}

	markPages(tree.Root, cfg.IndexFile)
	return tree
}

// markPages flags folders containing the reserved index file as pages;
// the rest are plain groups.
func markPages(n *Node, indexFile string) {
	for _, c := range n.Children {
		if c.IsFolder() {
			markPages(c, indexFile)
			continue
		}
		if c.Name == indexFile {
			n.IsPage = true
		}
	}
}
