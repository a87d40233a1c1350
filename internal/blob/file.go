// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/lorekeep/lorekeep/internal/util"
)

// FileStore maps blob keys onto a rooted directory tree. It is the default
// production backend when no remote object store is wired in.
type FileStore struct {
	root string
}

// NewFileStore creates a FileStore rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating blob root: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving blob root: %w", err)
	}
	return &FileStore{root: abs}, nil
}

// resolve maps a blob key to a filesystem path, rejecting traversal.
func (s *FileStore) resolve(path string) (string, error) {
	if util.ContainsPathTraversal(path) {
		return "", fmt.Errorf("invalid blob path %q", path)
	}
	return util.SafeJoinPath(s.root, filepath.FromSlash(path))
}

// List returns the immediate children of prefix.
func (s *FileStore) List(_ context.Context, prefix string) ([]Entry, error) {
	dir, err := s.resolve(prefix)
	if err != nil {
		return nil, err
	}

	dirents, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", prefix, err)
	}

	entries := make([]Entry, 0, len(dirents))
	for _, de := range dirents {
		if strings.HasPrefix(de.Name(), ".") {
			continue
		}
		entry := Entry{Name: de.Name(), IsFile: !de.IsDir()}
		if entry.IsFile {
			if info, err := de.Info(); err == nil {
				entry.Size = info.Size()
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Get returns the blob stored under path.
func (s *FileStore) Get(_ context.Context, path string) ([]byte, error) {
	file, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	return data, nil
}

// Put stores data under path, creating parent directories as needed.
func (s *FileStore) Put(_ context.Context, path string, data []byte, overwrite bool) error {
	file, err := s.resolve(path)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(file); err == nil {
			return ErrAlreadyExists
		}
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("creating parent of %q: %w", path, err)
	}
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", path, err)
	}
	return nil
}

// Delete removes the blob under path.
func (s *FileStore) Delete(_ context.Context, path string) error {
	file, err := s.resolve(path)
	if err != nil {
		return err
	}
	err = os.Remove(file)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting %q: %w", path, err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
