// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package review implements the suggested-edit workflow: members propose
// a full replacement for a page, reviewers approve, reject or merge it.
// Merging is first-wins; a suggestion never merges twice.
package review

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/lorekeep/lorekeep/internal/model"
	"github.com/lorekeep/lorekeep/internal/notify"
	"github.com/lorekeep/lorekeep/internal/store"
	"github.com/lorekeep/lorekeep/internal/wiki"
)

// Workflow ties suggestions to the page save path and the notification
// hub.
type Workflow struct {
	queries *store.Queries
	pages   *wiki.Service
	hub     *notify.Hub
	logger  *slog.Logger
}

// NewWorkflow creates the suggested-edit workflow. The hub may be nil to
// disable notifications.
func NewWorkflow(db *sql.DB, pages *wiki.Service, hub *notify.Hub, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{
		queries: store.New(db),
		pages:   pages,
		hub:     hub,
		logger:  logger,
	}
}

// ProposeRequest carries a new suggestion. Title and body are the full
// proposed replacement, not a diff.
type ProposeRequest struct {
	PageID      string
	AuthorID    string
	AuthorName  string
	Title       string
	Body        string
	Description string
}

// Validate checks the proposal fields.
func (r ProposeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PageID, validation.Required),
		validation.Field(&r.AuthorID, validation.Required),
		validation.Field(&r.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Body, validation.Required),
		validation.Field(&r.Description, validation.Length(0, 1000)),
	)
}

// Propose records a pending suggestion. Anyone may propose; no role
// check happens here.
func (w *Workflow) Propose(ctx context.Context, req ProposeRequest) (model.SuggestedEdit, error) {
	if err := req.Validate(); err != nil {
		return model.SuggestedEdit{}, err
	}

	sug, err := w.queries.CreateSuggestedEdit(ctx, store.CreateSuggestedEditParams{
		ID:          uuid.NewString(),
		PageID:      req.PageID,
		AuthorID:    req.AuthorID,
		AuthorName:  req.AuthorName,
		Title:       req.Title,
		Body:        req.Body,
		Description: req.Description,
	})
	if err != nil {
		return model.SuggestedEdit{}, err
	}

	w.logger.Info("suggestion proposed", "suggestion", sug.ID, "page", req.PageID, "author", req.AuthorID)
	w.publish(notify.Event{
		Type:    model.NotifySuggestionSubmitted,
		PageID:  req.PageID,
		ActorID: req.AuthorID,
		Title:   "Suggested edit submitted",
		Message: fmt.Sprintf("%s proposed changes to %s", req.AuthorName, req.PageID),
	})
	return sug, nil
}

// Get returns one suggestion.
func (w *Workflow) Get(ctx context.Context, id string) (model.SuggestedEdit, error) {
	return w.queries.GetSuggestedEdit(ctx, id)
}

// List returns a page's suggestions, optionally filtered by status.
func (w *Workflow) List(ctx context.Context, pageID, status string) ([]model.SuggestedEdit, error) {
	return w.queries.ListSuggestedEdits(ctx, pageID, status)
}

// Review approves or rejects a pending suggestion. Rejections carry
// mandatory notes; approvals may leave them empty. A suggestion already
// decided reports model.ErrInvalidState, so concurrent reviews are
// first-wins.
func (w *Workflow) Review(ctx context.Context, id, reviewerID string, role model.Role, approve bool, notes string) (model.SuggestedEdit, error) {
	if !role.CanReview() {
		return model.SuggestedEdit{}, model.ErrPermissionDenied
	}

	status := model.SuggestionStatusApproved
	if !approve {
		if notes == "" {
			return model.SuggestedEdit{}, fmt.Errorf("rejection requires notes: %w", model.ErrInvalidState)
		}
		status = model.SuggestionStatusRejected
	}

	if err := w.queries.ReviewSuggestedEdit(ctx, id, status, reviewerID, notes); err != nil {
		return model.SuggestedEdit{}, err
	}

	sug, err := w.queries.GetSuggestedEdit(ctx, id)
	if err != nil {
		return model.SuggestedEdit{}, err
	}

	w.logger.Info("suggestion reviewed", "suggestion", id, "status", status, "reviewer", reviewerID)
	w.publish(notify.Event{
		Type:       model.NotifySuggestionReviewed,
		PageID:     sug.PageID,
		ActorID:    reviewerID,
		Recipients: []string{sug.AuthorID},
		Title:      "Your suggested edit was reviewed",
		Message:    fmt.Sprintf("Suggestion for %s is now %s", sug.PageID, status),
	})
	return sug, nil
}

// Merge applies an open suggestion to its page as a normal save and
// finalizes it. The status flip rides the save transaction, so it lands
// with the new revision or not at all, and its guard is the
// serialization point: when two reviewers race, the loser gets
// model.ErrInvalidState and no second save happens.
func (w *Workflow) Merge(ctx context.Context, id, reviewerID string, role model.Role) (model.Revision, error) {
	if !role.CanReview() {
		return model.Revision{}, model.ErrPermissionDenied
	}

	sug, err := w.queries.GetSuggestedEdit(ctx, id)
	if err != nil {
		return model.Revision{}, err
	}
	if !sug.IsOpen() {
		return model.Revision{}, fmt.Errorf("suggestion is %s: %w", sug.Status, model.ErrInvalidState)
	}

	rev, err := w.pages.SaveWith(ctx, wiki.SaveRequest{
		Path:     sug.PageID,
		Title:    sug.Title,
		Body:     sug.Body,
		AuthorID: sug.AuthorID,
		Comment:  fmt.Sprintf("merged suggestion %s by %s", sug.ID, reviewerID),
	}, func(q *store.Queries) error {
		return q.MarkSuggestedEditMerged(ctx, id, reviewerID)
	})
	if err != nil {
		return model.Revision{}, fmt.Errorf("applying suggestion %s: %w", id, err)
	}

	w.logger.Info("suggestion merged", "suggestion", id, "page", sug.PageID,
		"revision", rev.RevisionNumber, "reviewer", reviewerID)
	w.publish(notify.Event{
		Type:       model.NotifySuggestionMerged,
		PageID:     sug.PageID,
		ActorID:    reviewerID,
		Recipients: []string{sug.AuthorID},
		Title:      "Your suggested edit was merged",
		Message:    fmt.Sprintf("Suggestion for %s landed as revision %d", sug.PageID, rev.RevisionNumber),
	})
	w.publish(notify.Event{
		Type:    model.NotifySuggestionMerged,
		PageID:  sug.PageID,
		ActorID: reviewerID,
		Title:   "Page updated from a suggested edit",
		Message: fmt.Sprintf("%s was updated from a community suggestion", sug.PageID),
	})
	return rev, nil
}

// RequestReview pings specific reviewers about an open suggestion.
func (w *Workflow) RequestReview(ctx context.Context, id, requesterID string, reviewerIDs []string) error {
	sug, err := w.queries.GetSuggestedEdit(ctx, id)
	if err != nil {
		return err
	}
	if !sug.IsOpen() {
		return fmt.Errorf("suggestion is %s: %w", sug.Status, model.ErrInvalidState)
	}
	w.publish(notify.Event{
		Type:       model.NotifyReviewRequested,
		PageID:     sug.PageID,
		ActorID:    requesterID,
		Recipients: reviewerIDs,
		Title:      "Review requested",
		Message:    fmt.Sprintf("A suggested edit for %s awaits review", sug.PageID),
	})
	return nil
}

func (w *Workflow) publish(ev notify.Event) {
	if w.hub == nil {
		return
	}
	w.hub.Publish(ev)
}
