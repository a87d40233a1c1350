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

// CreateEditSessionParams identifies the editor opening a session.
type CreateEditSessionParams struct {
	ID       string
	PageID   string
	UserID   string
	UserName string
}

const createEditSession = `
INSERT INTO edit_sessions (id, page_id, user_id, user_name, is_active, created_at, last_activity_at)
VALUES (?, ?, ?, ?, 1, ?, ?)`

// CreateEditSession opens a new editing session.
func (q *Queries) CreateEditSession(ctx context.Context, arg CreateEditSessionParams) (model.EditSession, error) {
	now := time.Now().UTC()
	if _, err := q.db.ExecContext(ctx, createEditSession,
		arg.ID, arg.PageID, arg.UserID, arg.UserName, now, now); err != nil {
		return model.EditSession{}, err
	}
	return model.EditSession{
		ID:             arg.ID,
		PageID:         arg.PageID,
		UserID:         arg.UserID,
		UserName:       arg.UserName,
		IsActive:       true,
		CreatedAt:      now,
		LastActivityAt: now,
	}, nil
}

const getEditSession = `
SELECT id, page_id, user_id, user_name, is_active, created_at, last_activity_at
FROM edit_sessions WHERE id = ?`

// GetEditSession returns one session by ID.
func (q *Queries) GetEditSession(ctx context.Context, id string) (model.EditSession, error) {
	row := q.db.QueryRowContext(ctx, getEditSession, id)
	s, err := scanEditSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.EditSession{}, model.ErrNotFound
	}
	return s, err
}

const touchEditSession = `
UPDATE edit_sessions SET last_activity_at = ? WHERE id = ? AND is_active = 1`

// TouchEditSession records a heartbeat. Touching an ended or unknown
// session reports model.ErrNotFound so the caller can stop heartbeating.
func (q *Queries) TouchEditSession(ctx context.Context, id string, at time.Time) error {
	res, err := q.db.ExecContext(ctx, touchEditSession, at.UTC(), id)
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

const endEditSession = `UPDATE edit_sessions SET is_active = 0 WHERE id = ?`

// EndEditSession closes a session. Ending an already-ended session is a
// no-op.
func (q *Queries) EndEditSession(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, endEditSession, id)
	return err
}

const listActiveSessions = `
SELECT id, page_id, user_id, user_name, is_active, created_at, last_activity_at
FROM edit_sessions
WHERE page_id = ? AND is_active = 1 AND last_activity_at >= ?
ORDER BY last_activity_at DESC`

// ListActiveSessions returns sessions on a page whose last heartbeat is
// within the liveness window (activeSince is the window's lower bound).
func (q *Queries) ListActiveSessions(ctx context.Context, pageID string, activeSince time.Time) ([]model.EditSession, error) {
	rows, err := q.db.QueryContext(ctx, listActiveSessions, pageID, activeSince.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.EditSession
	for rows.Next() {
		s, err := scanEditSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

const getActiveSessionFor = `
SELECT id, page_id, user_id, user_name, is_active, created_at, last_activity_at
FROM edit_sessions
WHERE page_id = ? AND user_id = ? AND is_active = 1
ORDER BY last_activity_at DESC LIMIT 1`

// GetActiveSessionFor returns the user's open session on a page, if any.
func (q *Queries) GetActiveSessionFor(ctx context.Context, pageID, userID string) (model.EditSession, error) {
	row := q.db.QueryRowContext(ctx, getActiveSessionFor, pageID, userID)
	s, err := scanEditSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.EditSession{}, model.ErrNotFound
	}
	return s, err
}

const expireStaleSessions = `
UPDATE edit_sessions SET is_active = 0 WHERE is_active = 1 AND last_activity_at < ?`

// ExpireStaleSessions ends every session silent since the cutoff and
// returns how many were closed.
func (q *Queries) ExpireStaleSessions(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, expireStaleSessions, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const endSessionsForPage = `
UPDATE edit_sessions SET is_active = 0 WHERE page_id = ? AND is_active = 1`

// EndSessionsForPage closes all open sessions on a page, used when the
// page is deleted.
func (q *Queries) EndSessionsForPage(ctx context.Context, pageID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, endSessionsForPage, pageID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanEditSession(row rowScanner) (model.EditSession, error) {
	var s model.EditSession
	err := row.Scan(&s.ID, &s.PageID, &s.UserID, &s.UserName, &s.IsActive,
		&s.CreatedAt, &s.LastActivityAt)
	return s, err
}
