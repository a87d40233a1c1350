// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package wiki

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lorekeep/lorekeep/internal/blob"
	"github.com/lorekeep/lorekeep/internal/cache"
	"github.com/lorekeep/lorekeep/internal/content"
	"github.com/lorekeep/lorekeep/internal/discovery"
	"github.com/lorekeep/lorekeep/internal/model"
	"github.com/lorekeep/lorekeep/internal/notify"
	"github.com/lorekeep/lorekeep/internal/store"
)

func testService(t *testing.T, blobs blob.Store) *Service {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	contents := content.NewCache(blobs, cache.NewMemoryCache(cache.MemoryCacheOptions{}), logger)
	engine := discovery.NewEngine(blobs, discovery.Config{Root: "wiki"}, logger)
	return NewService(blobs, contents, engine, nil, db, logger)
}

func seed(t *testing.T, blobs blob.Store, path, data string) {
	t.Helper()
	if err := blobs.Put(context.Background(), path, []byte(data), true); err != nil {
		t.Fatalf("seeding %s: %v", path, err)
	}
}

// getCountingStore counts Get calls so tests can prove the tree listing
// never fetches page bodies.
type getCountingStore struct {
	blob.Store
	gets int
}

func (s *getCountingStore) Get(ctx context.Context, path string) ([]byte, error) {
	s.gets++
	return s.Store.Get(ctx, path)
}

func TestGetTreeListsStubsWithoutFetchingBodies(t *testing.T) {
	blobs := blob.NewMemoryStore()
	seed(t, blobs, "wiki/towns/garvia.md", "---\ntitle: Garvia\ndescription: A quiet harbor town\n---\nBody text.")
	seed(t, blobs, "wiki/towns/elmspire.md", "First paragraph.\n\nSecond paragraph.")
	counting := &getCountingStore{Store: blobs}
	s := testService(t, counting)

	root, err := s.GetTree(context.Background())
	if err != nil {
		t.Fatalf("GetTree: %v", err)
	}
	if counting.gets != 0 {
		t.Errorf("tree listing fetched %d blobs, want 0", counting.gets)
	}

	if len(root.Children) != 1 || root.Children[0].Title != "towns" {
		t.Fatalf("tree shape unexpected: %+v", root)
	}
	towns := root.Children[0]
	if len(towns.Pages) != 2 {
		t.Fatalf("got %d pages under towns, want 2", len(towns.Pages))
	}

	byID := map[string]*model.Page{}
	for _, p := range towns.Pages {
		byID[p.ID] = p
	}

	garvia := byID["wiki/towns/garvia.md"]
	if garvia == nil {
		t.Fatal("garvia missing from tree")
	}
	if garvia.Title != "garvia" {
		t.Errorf("title = %q, want path-derived garvia", garvia.Title)
	}
	if garvia.Slug != "garvia" || garvia.CategoryID != "wiki/towns" {
		t.Errorf("stub = %+v", garvia)
	}
	if garvia.Body != "" || garvia.Description != "" {
		t.Error("tree listing hydrated page content")
	}
	if byID["wiki/towns/elmspire.md"] == nil {
		t.Fatal("elmspire missing from tree")
	}
}

func TestGetPage(t *testing.T) {
	blobs := blob.NewMemoryStore()
	seed(t, blobs, "wiki/towns/garvia.md", "---\ntitle: Garvia\nstatus: published\ndescription: A quiet harbor town\ntags: coastal, trade\n---\nThe town.")
	s := testService(t, blobs)

	view, err := s.GetPage(context.Background(), "wiki/towns/garvia.md")
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if view.Page.Title != "Garvia" || view.Body != "The town." {
		t.Errorf("page = %q / %q", view.Page.Title, view.Body)
	}
	if view.Page.Description != "A quiet harbor town" {
		t.Errorf("description = %q, want frontmatter description", view.Page.Description)
	}
	if len(view.Page.Tags) != 2 || view.Page.Tags[0] != "coastal" {
		t.Errorf("tags = %v, want [coastal trade]", view.Page.Tags)
	}
	if view.Meta["status"] != "published" {
		t.Errorf("meta = %v", view.Meta)
	}
}

func TestGetPageExcerptDescription(t *testing.T) {
	blobs := blob.NewMemoryStore()
	seed(t, blobs, "wiki/towns/elmspire.md", "First paragraph becomes the description.\n\nSecond paragraph.")
	s := testService(t, blobs)

	view, err := s.GetPage(context.Background(), "wiki/towns/elmspire.md")
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if !strings.HasPrefix(view.Page.Description, "First paragraph") {
		t.Errorf("description = %q, want excerpt of first paragraph", view.Page.Description)
	}
}

func TestGetPageNotFound(t *testing.T) {
	s := testService(t, blob.NewMemoryStore())

	if _, err := s.GetPage(context.Background(), "wiki/missing.md"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveWritesBlobAndRevision(t *testing.T) {
	blobs := blob.NewMemoryStore()
	s := testService(t, blobs)
	ctx := context.Background()

	rev, err := s.Save(ctx, SaveRequest{
		Path: "wiki/towns/garvia.md", Title: "Garvia", Body: "v1",
		Status: model.PageStatusDraft, AuthorID: "alice", Create: true,
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rev.RevisionNumber != 1 {
		t.Errorf("revision = %d, want 1", rev.RevisionNumber)
	}

	raw, err := blobs.Get(ctx, "wiki/towns/garvia.md")
	if err != nil {
		t.Fatalf("blob missing after save: %v", err)
	}
	if !strings.Contains(string(raw), "title: Garvia") || !strings.HasSuffix(string(raw), "v1") {
		t.Errorf("stored blob = %q", raw)
	}

	view, err := s.GetPage(ctx, "wiki/towns/garvia.md")
	if err != nil {
		t.Fatalf("GetPage after save: %v", err)
	}
	if view.Body != "v1" {
		t.Errorf("body = %q, want v1", view.Body)
	}
}

func TestSaveCreateFailsOnExistingPage(t *testing.T) {
	blobs := blob.NewMemoryStore()
	seed(t, blobs, "wiki/p.md", "existing")
	s := testService(t, blobs)

	_, err := s.Save(context.Background(), SaveRequest{
		Path: "wiki/p.md", Title: "P", Body: "x", AuthorID: "alice", Create: true,
	})
	if !errors.Is(err, model.ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}

	// The failed save must not leave a revision behind.
	revisions, rerr := s.ListRevisions(context.Background(), "wiki/p.md")
	if rerr != nil {
		t.Fatal(rerr)
	}
	if len(revisions) != 0 {
		t.Errorf("revisions after failed create = %d, want 0", len(revisions))
	}
}

func TestSavePreservesUnmanagedFrontmatter(t *testing.T) {
	blobs := blob.NewMemoryStore()
	seed(t, blobs, "wiki/towns/garvia.md", "---\ntitle: Old\nlive: true\nentity_type: town\n---\nold body")
	s := testService(t, blobs)
	ctx := context.Background()

	if _, err := s.Save(ctx, SaveRequest{
		Path: "wiki/towns/garvia.md", Title: "New", Body: "new body", AuthorID: "alice",
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	raw, _ := blobs.Get(ctx, "wiki/towns/garvia.md")
	for _, want := range []string{"title: New", "live: true", "entity_type: town"} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("saved blob missing %q:\n%s", want, raw)
		}
	}
}

func TestSaveKeepsStatusWhenOmitted(t *testing.T) {
	blobs := blob.NewMemoryStore()
	s := testService(t, blobs)
	ctx := context.Background()

	if _, err := s.Save(ctx, SaveRequest{
		Path: "wiki/p.md", Title: "P", Body: "v1",
		Status: model.PageStatusPublished, AuthorID: "alice", Create: true,
	}); err != nil {
		t.Fatal(err)
	}

	// A save without an explicit status must not demote the page.
	if _, err := s.Save(ctx, SaveRequest{
		Path: "wiki/p.md", Title: "P", Body: "v2", AuthorID: "bob",
	}); err != nil {
		t.Fatal(err)
	}

	raw, _ := blobs.Get(ctx, "wiki/p.md")
	if !strings.Contains(string(raw), "status: published") {
		t.Errorf("status demoted on statusless save:\n%s", raw)
	}

	// A brand-new page without a status starts as a draft.
	if _, err := s.Save(ctx, SaveRequest{
		Path: "wiki/q.md", Title: "Q", Body: "x", AuthorID: "alice", Create: true,
	}); err != nil {
		t.Fatal(err)
	}
	raw, _ = blobs.Get(ctx, "wiki/q.md")
	if !strings.Contains(string(raw), "status: draft") {
		t.Errorf("new page status = %s, want draft", raw)
	}
}

func TestSaveInvalidatesContentCache(t *testing.T) {
	blobs := blob.NewMemoryStore()
	seed(t, blobs, "wiki/p.md", "v1")
	s := testService(t, blobs)
	ctx := context.Background()

	// Prime the cache.
	if _, err := s.GetPage(ctx, "wiki/p.md"); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Save(ctx, SaveRequest{Path: "wiki/p.md", Title: "P", Body: "v2", AuthorID: "alice"}); err != nil {
		t.Fatal(err)
	}

	view, err := s.GetPage(ctx, "wiki/p.md")
	if err != nil {
		t.Fatal(err)
	}
	if view.Body != "v2" {
		t.Errorf("body = %q, want fresh v2", view.Body)
	}
}

func TestRestoreCreatesNewHead(t *testing.T) {
	blobs := blob.NewMemoryStore()
	s := testService(t, blobs)
	ctx := context.Background()

	for i, body := range []string{"v1", "v2", "v3"} {
		req := SaveRequest{Path: "wiki/p.md", Title: "P", Body: body, AuthorID: "alice", Create: i == 0}
		if _, err := s.Save(ctx, req); err != nil {
			t.Fatal(err)
		}
	}

	rev, err := s.Restore(ctx, "wiki/p.md", 1, "bob")
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if rev.RevisionNumber != 4 {
		t.Errorf("restored revision = %d, want new head 4", rev.RevisionNumber)
	}
	if rev.Body != "v1" {
		t.Errorf("restored body = %q, want v1", rev.Body)
	}
	if !strings.Contains(rev.Comment, "revision 1") {
		t.Errorf("comment = %q, want provenance note", rev.Comment)
	}

	view, err := s.GetPage(ctx, "wiki/p.md")
	if err != nil {
		t.Fatal(err)
	}
	if view.Body != "v1" {
		t.Errorf("page body after restore = %q, want v1", view.Body)
	}
}

func TestRestoreMissingRevision(t *testing.T) {
	s := testService(t, blob.NewMemoryStore())

	if _, err := s.Restore(context.Background(), "wiki/p.md", 9, "bob"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteEndsSessionsKeepsHistory(t *testing.T) {
	blobs := blob.NewMemoryStore()
	s := testService(t, blobs)
	ctx := context.Background()

	if _, err := s.Save(ctx, SaveRequest{Path: "wiki/p.md", Title: "P", Body: "x", AuthorID: "alice", Create: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.queries.CreateEditSession(ctx, store.CreateEditSessionParams{
		ID: "sess", PageID: "wiki/p.md", UserID: "bob",
	}); err != nil {
		t.Fatal(err)
	}

	if err := s.Delete(ctx, "wiki/p.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := blobs.Get(ctx, "wiki/p.md"); !errors.Is(err, blob.ErrNotFound) {
		t.Error("blob still present after delete")
	}

	sess, err := s.queries.GetEditSession(ctx, "sess")
	if err != nil {
		t.Fatal(err)
	}
	if sess.IsActive {
		t.Error("session still active after page delete")
	}

	revisions, err := s.ListRevisions(ctx, "wiki/p.md")
	if err != nil {
		t.Fatal(err)
	}
	if len(revisions) != 1 {
		t.Errorf("revisions after delete = %d, want history kept", len(revisions))
	}
}

func TestDeleteMissingPage(t *testing.T) {
	s := testService(t, blob.NewMemoryStore())

	if err := s.Delete(context.Background(), "wiki/missing.md"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSavePublishesNotification(t *testing.T) {
	blobs := blob.NewMemoryStore()
	s := testService(t, blobs)
	ctx := context.Background()

	hub := notify.NewHub(s.db, slog.New(slog.NewTextHandler(io.Discard, nil)), notify.DefaultConfig())
	hub.Start(ctx)
	t.Cleanup(hub.Stop)
	s.SetNotifier(hub)

	if err := hub.Subscribe(ctx, "bob", "wiki/p.md", nil); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	// Draft saves stay quiet.
	if _, err := s.Save(ctx, SaveRequest{Path: "wiki/p.md", Title: "P", Body: "x", AuthorID: "alice", Create: true}); err != nil {
		t.Fatalf("draft save: %v", err)
	}

	// The transition to published announces to subscribers.
	if _, err := s.Save(ctx, SaveRequest{
		Path: "wiki/p.md", Title: "P", Body: "x",
		Status: model.PageStatusPublished, AuthorID: "alice",
	}); err != nil {
		t.Fatalf("publish save: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		n, err := s.queries.CountUnreadNotifications(ctx, "bob")
		if err != nil {
			t.Fatalf("CountUnreadNotifications: %v", err)
		}
		if n == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("unread = %d, want 1", n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}
