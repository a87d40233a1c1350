// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package comment

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/lorekeep/lorekeep/internal/model"
	"github.com/lorekeep/lorekeep/internal/store"
)

func testCommentService(t *testing.T) *Service {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return NewService(db, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func addComment(t *testing.T, s *Service, author, parentID, body string) model.Comment {
	t.Helper()
	c, err := s.Add(context.Background(), AddRequest{
		PageID: "wiki/p.md", AuthorID: author, ParentID: parentID, Body: body,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	return c
}

func TestAddSanitizesBody(t *testing.T) {
	s := testCommentService(t)

	c := addComment(t, s, "alice", "", `hello <script>alert(1)</script><b>world</b>`)
	if strings.Contains(c.Body, "script") {
		t.Errorf("script survived sanitization: %q", c.Body)
	}
	if !strings.Contains(c.Body, "<b>world</b>") {
		t.Errorf("benign markup stripped: %q", c.Body)
	}
}

func TestAddRejectsEmptyAfterSanitization(t *testing.T) {
	s := testCommentService(t)

	_, err := s.Add(context.Background(), AddRequest{
		PageID: "wiki/p.md", AuthorID: "alice", Body: "<script>only evil</script>",
	})
	if !errors.Is(err, model.ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestReplyToReplyReparentsToRoot(t *testing.T) {
	s := testCommentService(t)

	root := addComment(t, s, "alice", "", "root")
	reply := addComment(t, s, "bob", root.ID, "reply")
	deep := addComment(t, s, "carol", reply.ID, "deep")

	if deep.ParentID != root.ID {
		t.Errorf("deep reply parent = %s, want thread root %s", deep.ParentID, root.ID)
	}
}

func TestReplyOnWrongPageRejected(t *testing.T) {
	s := testCommentService(t)
	root := addComment(t, s, "alice", "", "root")

	_, err := s.Add(context.Background(), AddRequest{
		PageID: "wiki/other.md", AuthorID: "bob", ParentID: root.ID, Body: "reply",
	})
	if !errors.Is(err, model.ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestListForPageThreadsAndPins(t *testing.T) {
	s := testCommentService(t)
	ctx := context.Background()

	first := addComment(t, s, "alice", "", "first thread")
	addComment(t, s, "bob", first.ID, "reply one")
	second := addComment(t, s, "carol", "", "second thread")

	if err := s.Pin(ctx, second.ID, model.RoleModerator, true); err != nil {
		t.Fatal(err)
	}

	threads, err := s.ListForPage(ctx, "wiki/p.md", false)
	if err != nil {
		t.Fatalf("ListForPage: %v", err)
	}
	if len(threads) != 2 {
		t.Fatalf("threads = %d, want 2", len(threads))
	}
	if threads[0].ID != second.ID {
		t.Errorf("pinned thread not first")
	}
	if len(threads[1].Replies) != 1 || threads[1].Replies[0].Body != "reply one" {
		t.Errorf("replies = %+v", threads[1].Replies)
	}
}

func TestModeratedHiddenFromDefaultListing(t *testing.T) {
	s := testCommentService(t)
	ctx := context.Background()

	c := addComment(t, s, "alice", "", "spam")
	addComment(t, s, "bob", "", "fine")

	if err := s.Moderate(ctx, c.ID, model.RoleAdmin, true); err != nil {
		t.Fatal(err)
	}

	visible, err := s.ListForPage(ctx, "wiki/p.md", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(visible) != 1 || visible[0].Body != "fine" {
		t.Errorf("visible = %+v, want only the clean comment", visible)
	}

	all, err := s.ListForPage(ctx, "wiki/p.md", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("moderator view = %d threads, want 2", len(all))
	}
}

func TestEditByAuthorOrModerator(t *testing.T) {
	s := testCommentService(t)
	ctx := context.Background()
	c := addComment(t, s, "alice", "", "original")

	if _, err := s.Edit(ctx, c.ID, "bob", model.RoleMember, "hijacked"); !errors.Is(err, model.ErrPermissionDenied) {
		t.Errorf("edit by stranger = %v, want ErrPermissionDenied", err)
	}

	got, err := s.Edit(ctx, c.ID, "alice", model.RoleMember, "updated")
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if got.Body != "updated" {
		t.Errorf("body = %q", got.Body)
	}

	got, err = s.Edit(ctx, c.ID, "bob", model.RoleModerator, "tidied")
	if err != nil {
		t.Fatalf("moderator Edit: %v", err)
	}
	if got.Body != "tidied" {
		t.Errorf("body after moderator edit = %q", got.Body)
	}
}

func TestDeletePermissions(t *testing.T) {
	s := testCommentService(t)
	ctx := context.Background()

	c := addComment(t, s, "alice", "", "mine")
	if err := s.Delete(ctx, c.ID, "bob", model.RoleMember); !errors.Is(err, model.ErrPermissionDenied) {
		t.Errorf("delete by stranger = %v, want ErrPermissionDenied", err)
	}
	if err := s.Delete(ctx, c.ID, "bob", model.RoleModerator); err != nil {
		t.Errorf("moderator delete: %v", err)
	}

	own := addComment(t, s, "alice", "", "mine too")
	if err := s.Delete(ctx, own.ID, "alice", model.RoleMember); err != nil {
		t.Errorf("author delete: %v", err)
	}
}

func TestResolveByAuthorOrModerator(t *testing.T) {
	s := testCommentService(t)
	ctx := context.Background()
	c := addComment(t, s, "alice", "", "question")

	if err := s.Resolve(ctx, c.ID, "bob", model.RoleEditor, true); !errors.Is(err, model.ErrPermissionDenied) {
		t.Errorf("stranger resolve = %v, want ErrPermissionDenied", err)
	}
	if err := s.Resolve(ctx, c.ID, "alice", model.RoleMember, true); err != nil {
		t.Errorf("author resolve: %v", err)
	}
	if err := s.Resolve(ctx, c.ID, "bob", model.RoleModerator, false); err != nil {
		t.Errorf("moderator reopen: %v", err)
	}
}
