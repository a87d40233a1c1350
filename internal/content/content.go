// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content loads and caches decoded page bodies on demand, so
// structural discovery never has to touch page content. A body is fetched
// from the blob store and decoded at most once until its entry is
// invalidated by a save.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lorekeep/lorekeep/internal/blob"
	"github.com/lorekeep/lorekeep/internal/cache"
	"github.com/lorekeep/lorekeep/internal/frontmatter"
	"github.com/lorekeep/lorekeep/internal/model"
)

// Content is a decoded page blob.
type Content struct {
	Path string
	Meta *frontmatter.Frontmatter
	Body string
}

// cachedContent is the JSON shape stored in the byte cache. Frontmatter
// order matters, so pairs are kept as a list.
type cachedContent struct {
	Meta [][2]string `json:"meta"`
	Body string      `json:"body"`
}

// Cache is the on-demand, per-path content cache.
type Cache struct {
	store  blob.Store
	cache  cache.Cacher
	logger *slog.Logger
}

// NewCache creates a content cache over the given blob store and cache
// backend.
func NewCache(store blob.Store, cacher cache.Cacher, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: store, cache: cacher, logger: logger}
}

// Get returns the decoded content for path, fetching and decoding from
// the blob store on a miss.
func (c *Cache) Get(ctx context.Context, path string) (*Content, error) {
	if data, err := c.cache.Get(ctx, path); err == nil {
		if content, ok := decodeEntry(path, data); ok {
			return content, nil
		}
		// Corrupt entry; fall through to a fresh fetch.
		c.logger.Warn("dropping undecodable cache entry", "path", path)
		_ = c.cache.Delete(ctx, path)
	}

	raw, err := c.store.Get(ctx, path)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return nil, fmt.Errorf("page %q: %w", path, model.ErrNotFound)
		}
		return nil, fmt.Errorf("fetching %q: %w: %w", path, model.ErrUpstreamUnavailable, err)
	}

	meta, body := frontmatter.Decode(string(raw))
	content := &Content{Path: path, Meta: meta, Body: body}

	if err := c.cache.Set(ctx, path, encodeEntry(content), 0); err != nil {
		c.logger.Warn("caching content failed", "path", path, "error", err)
	}
	return content, nil
}

// Invalidate drops the cached entry for path so the next read is fresh.
// Called after every external save.
func (c *Cache) Invalidate(ctx context.Context, path string) {
	if err := c.cache.Delete(ctx, path); err != nil {
		c.logger.Warn("invalidating content failed", "path", path, "error", err)
	}
}

func encodeEntry(content *Content) []byte {
	entry := cachedContent{Body: content.Body}
	for _, k := range content.Meta.Keys() {
		v, _ := content.Meta.Get(k)
		entry.Meta = append(entry.Meta, [2]string{k, v})
	}
	data, _ := json.Marshal(entry)
	return data
}

func decodeEntry(path string, data []byte) (*Content, bool) {
	var entry cachedContent
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	meta := frontmatter.New()
	for _, pair := range entry.Meta {
		meta.Set(pair[0], pair[1])
	}
	return &Content{Path: path, Meta: meta, Body: entry.Body}, true
}
