// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package blob defines the flat key-addressed object store the wiki is
// built on. The store has no native directory concept: List returns only
// the immediate children of a prefix, and the folder hierarchy is
// reconstructed on top by the discovery engine.
package blob

import (
	"context"
	"errors"
)

// Store errors.
var (
	// ErrNotFound indicates the key does not exist.
	ErrNotFound = errors.New("blob not found")

	// ErrAlreadyExists indicates a Put without overwrite hit an existing key.
	ErrAlreadyExists = errors.New("blob already exists")
)

// Entry describes one immediate child of a listed prefix.
type Entry struct {
	// Name is the child's name relative to the listed prefix.
	Name string
	// IsFile is false for synthesized folder entries.
	IsFile bool
	// Size is the blob size in bytes; zero for folders.
	Size int64
}

// Store is the flat key/bytes contract. All implementations must be safe
// for concurrent use.
type Store interface {
	// List returns the immediate children of prefix, folders and files
	// alike. No recursion, no content. An unknown prefix yields an empty
	// slice, not an error.
	List(ctx context.Context, prefix string) ([]Entry, error)

	// Get returns the blob stored under path, or ErrNotFound.
	Get(ctx context.Context, path string) ([]byte, error)

	// Put stores data under path. When overwrite is false an existing key
	// fails with ErrAlreadyExists.
	Put(ctx context.Context, path string, data []byte, overwrite bool) error

	// Delete removes the blob under path. Deleting a missing key returns
	// ErrNotFound.
	Delete(ctx context.Context, path string) error
}
