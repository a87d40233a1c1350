// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/lorekeep/lorekeep/internal/blob"
	"github.com/lorekeep/lorekeep/internal/cache"
	"github.com/lorekeep/lorekeep/internal/model"
)

type countingStore struct {
	blob.Store
	gets int
}

func (s *countingStore) Get(ctx context.Context, path string) ([]byte, error) {
	s.gets++
	return s.Store.Get(ctx, path)
}

func newTestCache(t *testing.T, blobs map[string]string) (*Cache, *countingStore) {
	t.Helper()
	store := blob.NewMemoryStore()
	for path, body := range blobs {
		if err := store.Put(context.Background(), path, []byte(body), true); err != nil {
			t.Fatalf("seeding %s: %v", path, err)
		}
	}
	counting := &countingStore{Store: store}
	backend := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	t.Cleanup(func() { _ = backend.Close() })
	return NewCache(counting, backend, slog.New(slog.NewTextHandler(io.Discard, nil))), counting
}

func TestGetDecodesAndCaches(t *testing.T) {
	c, store := newTestCache(t, map[string]string{
		"towns/garvia.md": "---\ntitle: Garvia\nlive: true\n---\nOld history.",
	})
	ctx := context.Background()

	content, err := c.Get(ctx, "towns/garvia.md")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if content.Body != "Old history." {
		t.Errorf("body = %q, want %q", content.Body, "Old history.")
	}
	if got, _ := content.Meta.Get("title"); got != "Garvia" {
		t.Errorf("title = %q, want %q", got, "Garvia")
	}

	// Second read must come from cache, not the blob store.
	again, err := c.Get(ctx, "towns/garvia.md")
	if err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if store.gets != 1 {
		t.Errorf("blob store gets = %d, want 1", store.gets)
	}
	if again.Body != content.Body {
		t.Errorf("cached body = %q, want %q", again.Body, content.Body)
	}
	if !again.Meta.Bool("live") {
		t.Error("frontmatter lost through the cache round-trip")
	}
}

func TestGetNotFound(t *testing.T) {
	c, _ := newTestCache(t, nil)

	_, err := c.Get(context.Background(), "missing.md")
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	c, store := newTestCache(t, map[string]string{
		"page.md": "---\n---\nfirst",
	})
	ctx := context.Background()

	if _, err := c.Get(ctx, "page.md"); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	// Simulate an external save, then invalidate.
	if err := store.Store.Put(ctx, "page.md", []byte("---\n---\nsecond"), true); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	c.Invalidate(ctx, "page.md")

	content, err := c.Get(ctx, "page.md")
	if err != nil {
		t.Fatalf("Get after invalidate failed: %v", err)
	}
	if content.Body != "second" {
		t.Errorf("body = %q, want %q after invalidate", content.Body, "second")
	}
	if store.gets != 2 {
		t.Errorf("blob store gets = %d, want 2", store.gets)
	}
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"first paragraph",
			"# Garvia\n\nA mountain town.\nFounded long ago.\n\nSecond paragraph.",
			"A mountain town. Founded long ago.",
		},
		{"no paragraph", "# Heading only\n", ""},
		{"plain text", "Just prose.", "Just prose."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Excerpt(tt.body, 0); got != tt.want {
				t.Errorf("Excerpt = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExcerptTruncates(t *testing.T) {
	body := "word " // repeated
	for i := 0; i < 6; i++ {
		body += body
	}

	got := Excerpt(body, 20)
	if len([]rune(got)) > 24 {
		t.Errorf("excerpt too long: %q", got)
	}
	if got == "" {
		t.Error("excerpt empty, want truncated text")
	}
}
