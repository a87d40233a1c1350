// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lorekeep/lorekeep/internal/model"
)

func testDB(t *testing.T) *Queries {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := Migrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return New(db)
}

func TestCreateRevisionAssignsMonotonicNumbers(t *testing.T) {
	q := testDB(t)
	ctx := context.Background()

	first, err := q.CreateRevision(ctx, CreateRevisionParams{
		PageID: "towns/garvia.md", Title: "Garvia", Body: "v1", Status: "draft", AuthorID: "alice",
	})
	if err != nil {
		t.Fatalf("CreateRevision: %v", err)
	}
	second, err := q.CreateRevision(ctx, CreateRevisionParams{
		PageID: "towns/garvia.md", Title: "Garvia", Body: "v2", Status: "published", AuthorID: "bob",
	})
	if err != nil {
		t.Fatalf("CreateRevision: %v", err)
	}

	if first.RevisionNumber != 1 || second.RevisionNumber != 2 {
		t.Errorf("revision numbers = %d, %d; want 1, 2", first.RevisionNumber, second.RevisionNumber)
	}

	current, err := q.GetCurrentRevision(ctx, "towns/garvia.md")
	if err != nil {
		t.Fatalf("GetCurrentRevision: %v", err)
	}
	if current.RevisionNumber != 2 || current.Body != "v2" {
		t.Errorf("current = revision %d body %q, want revision 2 body v2", current.RevisionNumber, current.Body)
	}

	old, err := q.GetRevision(ctx, "towns/garvia.md", 1)
	if err != nil {
		t.Fatalf("GetRevision: %v", err)
	}
	if old.IsCurrent {
		t.Error("old revision still marked current")
	}
}

func TestRevisionNumbersIndependentPerPage(t *testing.T) {
	q := testDB(t)
	ctx := context.Background()

	if _, err := q.CreateRevision(ctx, CreateRevisionParams{PageID: "a.md", Body: "x", AuthorID: "u"}); err != nil {
		t.Fatal(err)
	}
	rev, err := q.CreateRevision(ctx, CreateRevisionParams{PageID: "b.md", Body: "y", AuthorID: "u"})
	if err != nil {
		t.Fatal(err)
	}
	if rev.RevisionNumber != 1 {
		t.Errorf("first revision of b.md = %d, want 1", rev.RevisionNumber)
	}
}

func TestListRevisionsNewestFirst(t *testing.T) {
	q := testDB(t)
	ctx := context.Background()

	for _, body := range []string{"v1", "v2", "v3"} {
		if _, err := q.CreateRevision(ctx, CreateRevisionParams{PageID: "p.md", Body: body, AuthorID: "u"}); err != nil {
			t.Fatal(err)
		}
	}

	revisions, err := q.ListRevisions(ctx, "p.md")
	if err != nil {
		t.Fatalf("ListRevisions: %v", err)
	}
	if len(revisions) != 3 {
		t.Fatalf("got %d revisions, want 3", len(revisions))
	}
	if revisions[0].RevisionNumber != 3 || revisions[2].RevisionNumber != 1 {
		t.Errorf("order = %d..%d, want 3..1", revisions[0].RevisionNumber, revisions[2].RevisionNumber)
	}
}

func TestGetRevisionNotFound(t *testing.T) {
	q := testDB(t)

	if _, err := q.GetRevision(context.Background(), "missing.md", 1); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestEditSessionLifecycle(t *testing.T) {
	q := testDB(t)
	ctx := context.Background()

	created, err := q.CreateEditSession(ctx, CreateEditSessionParams{
		ID: "sess-1", PageID: "p.md", UserID: "alice", UserName: "Alice",
	})
	if err != nil {
		t.Fatalf("CreateEditSession: %v", err)
	}
	if !created.IsActive {
		t.Error("new session not active")
	}

	if err := q.TouchEditSession(ctx, "sess-1", time.Now()); err != nil {
		t.Fatalf("TouchEditSession: %v", err)
	}

	if err := q.EndEditSession(ctx, "sess-1"); err != nil {
		t.Fatalf("EndEditSession: %v", err)
	}

	got, err := q.GetEditSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetEditSession: %v", err)
	}
	if got.IsActive {
		t.Error("ended session still active")
	}

	// Heartbeats after End must fail so the editor loop stops.
	if err := q.TouchEditSession(ctx, "sess-1", time.Now()); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("touch after end = %v, want ErrNotFound", err)
	}

	// Ending again is a no-op.
	if err := q.EndEditSession(ctx, "sess-1"); err != nil {
		t.Errorf("second EndEditSession: %v", err)
	}
}

func TestListActiveSessionsHonorsWindow(t *testing.T) {
	q := testDB(t)
	ctx := context.Background()

	if _, err := q.CreateEditSession(ctx, CreateEditSessionParams{ID: "fresh", PageID: "p.md", UserID: "alice"}); err != nil {
		t.Fatal(err)
	}
	if _, err := q.CreateEditSession(ctx, CreateEditSessionParams{ID: "stale", PageID: "p.md", UserID: "bob"}); err != nil {
		t.Fatal(err)
	}
	if err := q.TouchEditSession(ctx, "stale", time.Now().Add(-5*time.Minute)); err != nil {
		t.Fatal(err)
	}

	sessions, err := q.ListActiveSessions(ctx, "p.md", time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("ListActiveSessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "fresh" {
		t.Errorf("active sessions = %+v, want only fresh", sessions)
	}
}

func TestExpireStaleSessions(t *testing.T) {
	q := testDB(t)
	ctx := context.Background()

	if _, err := q.CreateEditSession(ctx, CreateEditSessionParams{ID: "old", PageID: "p.md", UserID: "alice"}); err != nil {
		t.Fatal(err)
	}
	if err := q.TouchEditSession(ctx, "old", time.Now().Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	if _, err := q.CreateEditSession(ctx, CreateEditSessionParams{ID: "new", PageID: "p.md", UserID: "bob"}); err != nil {
		t.Fatal(err)
	}

	n, err := q.ExpireStaleSessions(ctx, time.Now().Add(-10*time.Minute))
	if err != nil {
		t.Fatalf("ExpireStaleSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("expired %d sessions, want 1", n)
	}

	got, _ := q.GetEditSession(ctx, "new")
	if !got.IsActive {
		t.Error("fresh session was expired")
	}
}

func TestEndSessionsForPage(t *testing.T) {
	q := testDB(t)
	ctx := context.Background()

	for i, user := range []string{"alice", "bob"} {
		id := []string{"s1", "s2"}[i]
		if _, err := q.CreateEditSession(ctx, CreateEditSessionParams{ID: id, PageID: "doomed.md", UserID: user}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := q.CreateEditSession(ctx, CreateEditSessionParams{ID: "s3", PageID: "other.md", UserID: "carol"}); err != nil {
		t.Fatal(err)
	}

	n, err := q.EndSessionsForPage(ctx, "doomed.md")
	if err != nil {
		t.Fatalf("EndSessionsForPage: %v", err)
	}
	if n != 2 {
		t.Errorf("ended %d sessions, want 2", n)
	}

	other, _ := q.GetEditSession(ctx, "s3")
	if !other.IsActive {
		t.Error("session on another page was ended")
	}
}

func TestReviewSuggestedEditFirstWins(t *testing.T) {
	q := testDB(t)
	ctx := context.Background()

	if _, err := q.CreateSuggestedEdit(ctx, CreateSuggestedEditParams{
		ID: "sug-1", PageID: "p.md", AuthorID: "alice", Title: "T", Body: "B",
	}); err != nil {
		t.Fatalf("CreateSuggestedEdit: %v", err)
	}

	if err := q.ReviewSuggestedEdit(ctx, "sug-1", model.SuggestionStatusApproved, "mod", "lgtm"); err != nil {
		t.Fatalf("first review: %v", err)
	}

	// A second review finds no pending row.
	err := q.ReviewSuggestedEdit(ctx, "sug-1", model.SuggestionStatusRejected, "mod2", "no")
	if !errors.Is(err, model.ErrInvalidState) {
		t.Errorf("second review = %v, want ErrInvalidState", err)
	}

	got, err := q.GetSuggestedEdit(ctx, "sug-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.SuggestionStatusApproved || got.ReviewerID != "mod" {
		t.Errorf("suggestion = %s by %s, want approved by mod", got.Status, got.ReviewerID)
	}
}

func TestMarkSuggestedEditMergedGuardsState(t *testing.T) {
	q := testDB(t)
	ctx := context.Background()

	if _, err := q.CreateSuggestedEdit(ctx, CreateSuggestedEditParams{
		ID: "sug-1", PageID: "p.md", AuthorID: "alice", Title: "T", Body: "B",
	}); err != nil {
		t.Fatal(err)
	}

	// Pending suggestions merge directly.
	if err := q.MarkSuggestedEditMerged(ctx, "sug-1", "mod"); err != nil {
		t.Fatalf("merge pending: %v", err)
	}

	// Merging twice must fail.
	if err := q.MarkSuggestedEditMerged(ctx, "sug-1", "mod"); !errors.Is(err, model.ErrInvalidState) {
		t.Errorf("second merge = %v, want ErrInvalidState", err)
	}
}

func TestListSuggestedEditsByStatus(t *testing.T) {
	q := testDB(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := q.CreateSuggestedEdit(ctx, CreateSuggestedEditParams{
			ID: id, PageID: "p.md", AuthorID: "alice", Title: "T", Body: "B",
		}); err != nil {
			t.Fatal(err)
		}
	}
	if err := q.ReviewSuggestedEdit(ctx, "b", model.SuggestionStatusRejected, "mod", "no"); err != nil {
		t.Fatal(err)
	}

	pending, err := q.ListSuggestedEdits(ctx, "p.md", model.SuggestionStatusPending)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Errorf("pending = %d, want 2", len(pending))
	}

	all, err := q.ListSuggestedEdits(ctx, "p.md", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("all = %d, want 3", len(all))
	}
}

func TestDeleteCommentRemovesReplies(t *testing.T) {
	q := testDB(t)
	ctx := context.Background()

	if _, err := q.CreateComment(ctx, CreateCommentParams{ID: "root", PageID: "p.md", AuthorID: "alice", Body: "hi"}); err != nil {
		t.Fatal(err)
	}
	if _, err := q.CreateComment(ctx, CreateCommentParams{ID: "reply", PageID: "p.md", AuthorID: "bob", ParentID: "root", Body: "yo"}); err != nil {
		t.Fatal(err)
	}
	if _, err := q.CreateComment(ctx, CreateCommentParams{ID: "other", PageID: "p.md", AuthorID: "carol", Body: "hm"}); err != nil {
		t.Fatal(err)
	}

	if err := q.DeleteComment(ctx, "root"); err != nil {
		t.Fatalf("DeleteComment: %v", err)
	}

	comments, err := q.ListCommentsForPage(ctx, "p.md")
	if err != nil {
		t.Fatal(err)
	}
	if len(comments) != 1 || comments[0].ID != "other" {
		t.Errorf("remaining comments = %+v, want only other", comments)
	}
}

func TestCommentFlags(t *testing.T) {
	q := testDB(t)
	ctx := context.Background()

	if _, err := q.CreateComment(ctx, CreateCommentParams{ID: "c1", PageID: "p.md", AuthorID: "alice", Body: "hi"}); err != nil {
		t.Fatal(err)
	}

	if err := q.SetCommentResolved(ctx, "c1", true); err != nil {
		t.Fatal(err)
	}
	if err := q.SetCommentPinned(ctx, "c1", true); err != nil {
		t.Fatal(err)
	}
	if err := q.SetCommentModerated(ctx, "c1", true); err != nil {
		t.Fatal(err)
	}

	got, err := q.GetComment(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsResolved || !got.IsPinned || !got.IsModerated {
		t.Errorf("flags = resolved=%v pinned=%v moderated=%v, want all true",
			got.IsResolved, got.IsPinned, got.IsModerated)
	}

	if err := q.SetCommentResolved(ctx, "missing", true); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("resolve missing = %v, want ErrNotFound", err)
	}
}

func TestNotificationReadLedger(t *testing.T) {
	q := testDB(t)
	ctx := context.Background()

	for _, id := range []string{"n1", "n2", "n3"} {
		if _, err := q.CreateNotification(ctx, CreateNotificationParams{
			ID: id, UserID: "alice", Type: model.NotifyCommentAdded, Title: "New comment",
		}); err != nil {
			t.Fatal(err)
		}
	}

	unread, err := q.CountUnreadNotifications(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if unread != 3 {
		t.Errorf("unread = %d, want 3", unread)
	}

	if err := q.MarkNotificationRead(ctx, "n1", "alice"); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}

	// Another user cannot mark alice's entries.
	if err := q.MarkNotificationRead(ctx, "n2", "bob"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("cross-user mark = %v, want ErrNotFound", err)
	}

	n, err := q.MarkAllNotificationsRead(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("marked %d, want 2", n)
	}

	onlyUnread, err := q.ListNotifications(ctx, "alice", true, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(onlyUnread) != 0 {
		t.Errorf("unread list = %d entries, want 0", len(onlyUnread))
	}
}

func TestSubscriptionUpsertAndFilter(t *testing.T) {
	q := testDB(t)
	ctx := context.Background()

	if err := q.UpsertSubscription(ctx, "alice", "p.md", nil); err != nil {
		t.Fatalf("UpsertSubscription: %v", err)
	}
	// Re-subscribing replaces the filter instead of failing.
	if err := q.UpsertSubscription(ctx, "alice", "p.md", []string{model.NotifyCommentAdded}); err != nil {
		t.Fatalf("second UpsertSubscription: %v", err)
	}

	sub, err := q.GetSubscription(ctx, "alice", "p.md")
	if err != nil {
		t.Fatal(err)
	}
	if !sub.Wants(model.NotifyCommentAdded) || sub.Wants(model.NotifyPagePublished) {
		t.Errorf("filter %v does not match expectations", sub.NotificationTypes)
	}

	subs, err := q.ListSubscribers(ctx, "p.md")
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 1 {
		t.Errorf("subscribers = %d, want 1", len(subs))
	}

	if err := q.DeleteSubscription(ctx, "alice", "p.md"); err != nil {
		t.Fatal(err)
	}
	if _, err := q.GetSubscription(ctx, "alice", "p.md"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("after delete = %v, want ErrNotFound", err)
	}
}

func TestWithTxRollsBack(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := Migrate(db); err != nil {
		t.Fatal(err)
	}
	q := New(db)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := q.WithTx(tx).CreateRevision(ctx, CreateRevisionParams{
		PageID: "p.md", Body: "x", AuthorID: "u",
	}); err != nil {
		t.Fatal(err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatal(err)
	}

	if _, err := q.GetCurrentRevision(ctx, "p.md"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("after rollback = %v, want ErrNotFound", err)
	}
}

func TestEventLog(t *testing.T) {
	q := testDB(t)
	ctx := context.Background()

	if err := q.CreateEvent(ctx, CreateEventParams{
		Level: model.EventLevelWarning, Category: model.EventCategoryDiscovery,
		Message: "prefix listing failed", UserID: "alice",
	}); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if err := q.CreateEvent(ctx, CreateEventParams{
		Level: model.EventLevelInfo, Category: model.EventCategorySystem, Message: "startup",
	}); err != nil {
		t.Fatal(err)
	}

	events, err := q.ListEvents(ctx, 10)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Message != "startup" {
		t.Errorf("newest event = %q, want startup", events[0].Message)
	}
	if !events[1].UserID.Valid || events[1].UserID.String != "alice" {
		t.Errorf("user_id = %+v, want alice", events[1].UserID)
	}
	if events[0].UserID.Valid {
		t.Error("anonymous event has a user_id")
	}
}
