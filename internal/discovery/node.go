// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package discovery reconstructs a folder/page tree from the flat blob
// namespace. The blob store only lists immediate children of a prefix, so
// the engine walks prefixes breadth-first and synthesizes folders; a
// ladder of fallback strategies covers stores whose listing support is
// partial or broken.
package discovery

import (
	"github.com/lorekeep/lorekeep/internal/util"
)

// Node kinds.
const (
	KindFile   = "file"
	KindFolder = "folder"
)

// Node is one entry in the discovered tree. Path is the blob key: the
// concatenation of ancestor names joined by "/". Folders are synthesized,
// never stored directly.
type Node struct {
	Kind     string  `json:"kind"`
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	IsPage   bool    `json:"is_page,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// IsFolder returns true for folder nodes.
func (n *Node) IsFolder() bool {
	return n.Kind == KindFolder
}

// Child returns the direct child with the given name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Find walks the tree for the node with the given path, or nil.
func (n *Node) Find(path string) *Node {
	if n.Path == path {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(path); found != nil {
			return found
		}
	}
	return nil
}

// Tree is the discovered hierarchy. Root is a synthesized folder for the
// configured root prefix; an empty tree has a childless root.
type Tree struct {
	Root *Node `json:"root"`
}

// NewTree creates a tree with an empty root for the given prefix.
func NewTree(rootPrefix string) *Tree {
	return &Tree{Root: &Node{
		Kind: KindFolder,
		Name: util.BaseName(rootPrefix),
		Path: rootPrefix,
	}}
}

// IsEmpty returns true when discovery found nothing.
func (t *Tree) IsEmpty() bool {
	return t.Root == nil || len(t.Root.Children) == 0
}

// Pages returns every file node in depth-first order.
func (t *Tree) Pages() []*Node {
	var pages []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if !n.IsFolder() {
			pages = append(pages, n)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(t.Root)
	return pages
}
