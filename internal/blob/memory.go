// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package blob

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Store implementation used by tests and the
// demo seed. Folder entries are synthesized from key prefixes at list time.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

// List returns the immediate children of prefix.
func (s *MemoryStore) List(_ context.Context, prefix string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	base := prefix
	if base != "" && !strings.HasSuffix(base, "/") {
		base += "/"
	}

	files := make(map[string]int64)
	folders := make(map[string]bool)
	for key, data := range s.data {
		if !strings.HasPrefix(key, base) {
			continue
		}
		rest := key[len(base):]
		if rest == "" {
			continue
		}
		if i := strings.Index(rest, "/"); i >= 0 {
			folders[rest[:i]] = true
		} else {
			files[rest] = int64(len(data))
		}
	}

	entries := make([]Entry, 0, len(files)+len(folders))
	for name := range folders {
		entries = append(entries, Entry{Name: name})
	}
	for name, size := range files {
		entries = append(entries, Entry{Name: name, IsFile: true, Size: size})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Get returns the blob stored under path.
func (s *MemoryStore) Get(_ context.Context, path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[path]
	if !ok {
		return nil, ErrNotFound
	}
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

// Put stores data under path.
func (s *MemoryStore) Put(_ context.Context, path string, data []byte, overwrite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[path]; ok && !overwrite {
		return ErrAlreadyExists
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	s.data[path] = stored
	return nil
}

// Delete removes the blob under path.
func (s *MemoryStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[path]; !ok {
		return ErrNotFound
	}
	delete(s.data, path)
	return nil
}

// Len returns the number of stored blobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

var _ Store = (*MemoryStore)(nil)
