// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lorekeep/lorekeep/internal/model"
)

// CreateRevisionParams carries the content of a new page revision. The
// revision number is assigned inside CreateRevision, never by callers.
type CreateRevisionParams struct {
	PageID   string
	Title    string
	Body     string
	Status   string
	AuthorID string
	Comment  string
}

const nextRevisionNumber = `
SELECT COALESCE(MAX(revision_number), 0) + 1 FROM revisions WHERE page_id = ?`

const clearCurrentRevision = `
UPDATE revisions SET is_current = 0 WHERE page_id = ? AND is_current = 1`

const insertRevision = `
INSERT INTO revisions (page_id, revision_number, title, body, status, author_id, comment, is_current, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)`

// CreateRevision appends a new head revision for the page, assigning the
// next revision number and moving the current marker. Run it inside a
// transaction (via WithTx) when paired with a content-store write.
func (q *Queries) CreateRevision(ctx context.Context, arg CreateRevisionParams) (model.Revision, error) {
	var number int64
	if err := q.db.QueryRowContext(ctx, nextRevisionNumber, arg.PageID).Scan(&number); err != nil {
		return model.Revision{}, fmt.Errorf("assigning revision number: %w", err)
	}

	if _, err := q.db.ExecContext(ctx, clearCurrentRevision, arg.PageID); err != nil {
		return model.Revision{}, fmt.Errorf("clearing current revision: %w", err)
	}

	now := time.Now().UTC()
	res, err := q.db.ExecContext(ctx, insertRevision,
		arg.PageID, number, arg.Title, arg.Body, arg.Status, arg.AuthorID, arg.Comment, now)
	if err != nil {
		return model.Revision{}, fmt.Errorf("inserting revision: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Revision{}, err
	}

	return model.Revision{
		ID:             id,
		PageID:         arg.PageID,
		RevisionNumber: number,
		Title:          arg.Title,
		Body:           arg.Body,
		Status:         arg.Status,
		AuthorID:       arg.AuthorID,
		Comment:        arg.Comment,
		IsCurrent:      true,
		CreatedAt:      now,
	}, nil
}

const listRevisions = `
SELECT id, page_id, revision_number, title, body, status, author_id, comment, is_current, created_at
FROM revisions WHERE page_id = ? ORDER BY revision_number DESC`

// ListRevisions returns all revisions of a page, newest first.
func (q *Queries) ListRevisions(ctx context.Context, pageID string) ([]model.Revision, error) {
	rows, err := q.db.QueryContext(ctx, listRevisions, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revisions []model.Revision
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		revisions = append(revisions, rev)
	}
	return revisions, rows.Err()
}

const getRevision = `
SELECT id, page_id, revision_number, title, body, status, author_id, comment, is_current, created_at
FROM revisions WHERE page_id = ? AND revision_number = ?`

// GetRevision returns one numbered revision of a page.
func (q *Queries) GetRevision(ctx context.Context, pageID string, number int64) (model.Revision, error) {
	row := q.db.QueryRowContext(ctx, getRevision, pageID, number)
	rev, err := scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Revision{}, model.ErrNotFound
	}
	return rev, err
}

const getCurrentRevision = `
SELECT id, page_id, revision_number, title, body, status, author_id, comment, is_current, created_at
FROM revisions WHERE page_id = ? AND is_current = 1`

// GetCurrentRevision returns the head revision of a page.
func (q *Queries) GetCurrentRevision(ctx context.Context, pageID string) (model.Revision, error) {
	row := q.db.QueryRowContext(ctx, getCurrentRevision, pageID)
	rev, err := scanRevision(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Revision{}, model.ErrNotFound
	}
	return rev, err
}

const countRevisions = `SELECT COUNT(*) FROM revisions WHERE page_id = ?`

// CountRevisions returns how many revisions a page has.
func (q *Queries) CountRevisions(ctx context.Context, pageID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countRevisions, pageID).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRevision(row rowScanner) (model.Revision, error) {
	var rev model.Revision
	err := row.Scan(&rev.ID, &rev.PageID, &rev.RevisionNumber, &rev.Title, &rev.Body,
		&rev.Status, &rev.AuthorID, &rev.Comment, &rev.IsCurrent, &rev.CreatedAt)
	return rev, err
}
