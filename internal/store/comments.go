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

// CreateCommentParams carries a new comment or reply. ParentID is empty
// for thread roots.
type CreateCommentParams struct {
	ID       string
	PageID   string
	AuthorID string
	ParentID string
	Body     string
}

const createComment = `
INSERT INTO comments (id, page_id, author_id, parent_id, body, created_at)
VALUES (?, ?, ?, ?, ?, ?)`

// CreateComment stores a comment.
func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (model.Comment, error) {
	now := time.Now().UTC()
	if _, err := q.db.ExecContext(ctx, createComment,
		arg.ID, arg.PageID, arg.AuthorID, arg.ParentID, arg.Body, now); err != nil {
		return model.Comment{}, err
	}
	return model.Comment{
		ID:        arg.ID,
		PageID:    arg.PageID,
		AuthorID:  arg.AuthorID,
		ParentID:  arg.ParentID,
		Body:      arg.Body,
		CreatedAt: now,
	}, nil
}

const getComment = `
SELECT id, page_id, author_id, parent_id, body, is_resolved, is_pinned, is_moderated, created_at
FROM comments WHERE id = ?`

// GetComment returns one comment by ID.
func (q *Queries) GetComment(ctx context.Context, id string) (model.Comment, error) {
	row := q.db.QueryRowContext(ctx, getComment, id)
	c, err := scanComment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Comment{}, model.ErrNotFound
	}
	return c, err
}

const listCommentsForPage = `
SELECT id, page_id, author_id, parent_id, body, is_resolved, is_pinned, is_moderated, created_at
FROM comments WHERE page_id = ? ORDER BY created_at ASC`

// ListCommentsForPage returns all of a page's comments in creation order,
// roots and replies interleaved. Thread assembly happens in the service
// layer.
func (q *Queries) ListCommentsForPage(ctx context.Context, pageID string) ([]model.Comment, error) {
	rows, err := q.db.QueryContext(ctx, listCommentsForPage, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

const updateCommentBody = `UPDATE comments SET body = ? WHERE id = ?`

// UpdateCommentBody replaces a comment's text.
func (q *Queries) UpdateCommentBody(ctx context.Context, id, body string) error {
	return q.execOne(ctx, updateCommentBody, body, id)
}

const deleteComment = `DELETE FROM comments WHERE id = ? OR parent_id = ?`

// DeleteComment removes a comment and, for thread roots, its replies.
func (q *Queries) DeleteComment(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, deleteComment, id, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

const setCommentResolved = `UPDATE comments SET is_resolved = ? WHERE id = ?`

// SetCommentResolved marks a thread resolved or reopens it.
func (q *Queries) SetCommentResolved(ctx context.Context, id string, resolved bool) error {
	return q.execOne(ctx, setCommentResolved, resolved, id)
}

const setCommentPinned = `UPDATE comments SET is_pinned = ? WHERE id = ?`

// SetCommentPinned pins or unpins a comment.
func (q *Queries) SetCommentPinned(ctx context.Context, id string, pinned bool) error {
	return q.execOne(ctx, setCommentPinned, pinned, id)
}

const setCommentModerated = `UPDATE comments SET is_moderated = ? WHERE id = ?`

// SetCommentModerated hides or unhides a comment.
func (q *Queries) SetCommentModerated(ctx context.Context, id string, moderated bool) error {
	return q.execOne(ctx, setCommentModerated, moderated, id)
}

// execOne runs a single-row update and maps zero affected rows to
// model.ErrNotFound.
func (q *Queries) execOne(ctx context.Context, query string, args ...any) error {
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func scanComment(row rowScanner) (model.Comment, error) {
	var c model.Comment
	err := row.Scan(&c.ID, &c.PageID, &c.AuthorID, &c.ParentID, &c.Body,
		&c.IsResolved, &c.IsPinned, &c.IsModerated, &c.CreatedAt)
	return c, err
}
