// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lorekeep/lorekeep/internal/model"
)

// CreateSuggestedEditParams carries a proposed page replacement.
type CreateSuggestedEditParams struct {
	ID          string
	PageID      string
	AuthorID    string
	AuthorName  string
	Title       string
	Body        string
	Description string
}

const createSuggestedEdit = `
INSERT INTO suggested_edits (id, page_id, author_id, author_name, title, body, description, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, 'pending', ?)`

// CreateSuggestedEdit records a new pending suggestion.
func (q *Queries) CreateSuggestedEdit(ctx context.Context, arg CreateSuggestedEditParams) (model.SuggestedEdit, error) {
	now := time.Now().UTC()
	if _, err := q.db.ExecContext(ctx, createSuggestedEdit,
		arg.ID, arg.PageID, arg.AuthorID, arg.AuthorName, arg.Title, arg.Body, arg.Description, now); err != nil {
		return model.SuggestedEdit{}, err
	}
	return model.SuggestedEdit{
		ID:          arg.ID,
		PageID:      arg.PageID,
		AuthorID:    arg.AuthorID,
		AuthorName:  arg.AuthorName,
		Title:       arg.Title,
		Body:        arg.Body,
		Description: arg.Description,
		Status:      model.SuggestionStatusPending,
		CreatedAt:   now,
	}, nil
}

const getSuggestedEdit = `
SELECT id, page_id, author_id, author_name, title, body, description, status, reviewer_id, review_notes, created_at
FROM suggested_edits WHERE id = ?`

// GetSuggestedEdit returns one suggestion by ID.
func (q *Queries) GetSuggestedEdit(ctx context.Context, id string) (model.SuggestedEdit, error) {
	row := q.db.QueryRowContext(ctx, getSuggestedEdit, id)
	s, err := scanSuggestedEdit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.SuggestedEdit{}, model.ErrNotFound
	}
	return s, err
}

const listSuggestedEdits = `
SELECT id, page_id, author_id, author_name, title, body, description, status, reviewer_id, review_notes, created_at
FROM suggested_edits WHERE page_id = ? ORDER BY created_at DESC`

const listSuggestedEditsByStatus = `
SELECT id, page_id, author_id, author_name, title, body, description, status, reviewer_id, review_notes, created_at
FROM suggested_edits WHERE page_id = ? AND status = ? ORDER BY created_at DESC`

// ListSuggestedEdits returns a page's suggestions, newest first,
// optionally filtered by status.
func (q *Queries) ListSuggestedEdits(ctx context.Context, pageID, status string) ([]model.SuggestedEdit, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = q.db.QueryContext(ctx, listSuggestedEdits, pageID)
	} else {
		rows, err = q.db.QueryContext(ctx, listSuggestedEditsByStatus, pageID, status)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suggestions []model.SuggestedEdit
	for rows.Next() {
		s, err := scanSuggestedEdit(rows)
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, s)
	}
	return suggestions, rows.Err()
}

const reviewSuggestedEdit = `
UPDATE suggested_edits SET status = ?, reviewer_id = ?, review_notes = ?
WHERE id = ? AND status = 'pending'`

// ReviewSuggestedEdit moves a pending suggestion to approved or rejected.
// The status guard makes concurrent reviews first-wins: a second review
// finds no pending row and reports model.ErrInvalidState.
func (q *Queries) ReviewSuggestedEdit(ctx context.Context, id, status, reviewerID, notes string) error {
	res, err := q.db.ExecContext(ctx, reviewSuggestedEdit, status, reviewerID, notes, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrInvalidState
	}
	return nil
}

const markSuggestedEditMerged = `
UPDATE suggested_edits SET status = 'merged', reviewer_id = ?
WHERE id = ? AND status IN ('pending', 'approved')`

// MarkSuggestedEditMerged finalizes a suggestion after its content lands
// on the page. Only open suggestions can merge; a suggestion already
// merged or rejected reports model.ErrInvalidState.
func (q *Queries) MarkSuggestedEditMerged(ctx context.Context, id, reviewerID string) error {
	res, err := q.db.ExecContext(ctx, markSuggestedEditMerged, reviewerID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrInvalidState
	}
	return nil
}

func scanSuggestedEdit(row rowScanner) (model.SuggestedEdit, error) {
	var s model.SuggestedEdit
	err := row.Scan(&s.ID, &s.PageID, &s.AuthorID, &s.AuthorName, &s.Title, &s.Body,
		&s.Description, &s.Status, &s.ReviewerID, &s.ReviewNotes, &s.CreatedAt)
	return s, err
}
