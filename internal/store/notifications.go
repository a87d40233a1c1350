// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lorekeep/lorekeep/internal/model"
)

// CreateNotificationParams carries one entry for a user's ledger.
type CreateNotificationParams struct {
	ID      string
	UserID  string
	Type    string
	PageID  string
	ActorID string
	Title   string
	Message string
}

const createNotification = `
INSERT INTO notifications (id, user_id, type, page_id, actor_id, title, message, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// CreateNotification stores a notification, unread.
func (q *Queries) CreateNotification(ctx context.Context, arg CreateNotificationParams) (model.Notification, error) {
	now := time.Now().UTC()
	if _, err := q.db.ExecContext(ctx, createNotification,
		arg.ID, arg.UserID, arg.Type, arg.PageID, arg.ActorID, arg.Title, arg.Message, now); err != nil {
		return model.Notification{}, err
	}
	return model.Notification{
		ID:        arg.ID,
		UserID:    arg.UserID,
		Type:      arg.Type,
		PageID:    arg.PageID,
		ActorID:   arg.ActorID,
		Title:     arg.Title,
		Message:   arg.Message,
		CreatedAt: now,
	}, nil
}

const listNotifications = `
SELECT id, user_id, type, page_id, actor_id, title, message, is_read, created_at
FROM notifications WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`

const listUnreadNotifications = `
SELECT id, user_id, type, page_id, actor_id, title, message, is_read, created_at
FROM notifications WHERE user_id = ? AND is_read = 0 ORDER BY created_at DESC LIMIT ?`

// ListNotifications returns a user's notifications, newest first. With
// unreadOnly it skips entries already read.
func (q *Queries) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	query := listNotifications
	if unreadOnly {
		query = listUnreadNotifications
	}
	rows, err := q.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.PageID, &n.ActorID,
			&n.Title, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

const markNotificationRead = `
UPDATE notifications SET is_read = 1 WHERE id = ? AND user_id = ?`

// MarkNotificationRead marks one of the user's notifications read. The
// user guard keeps users from touching each other's ledgers.
func (q *Queries) MarkNotificationRead(ctx context.Context, id, userID string) error {
	return q.execOne(ctx, markNotificationRead, id, userID)
}

const markAllNotificationsRead = `
UPDATE notifications SET is_read = 1 WHERE user_id = ? AND is_read = 0`

// MarkAllNotificationsRead clears a user's unread set and returns how
// many entries changed.
func (q *Queries) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, markAllNotificationsRead, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countUnreadNotifications = `
SELECT COUNT(*) FROM notifications WHERE user_id = ? AND is_read = 0`

// CountUnreadNotifications returns the user's unread badge count.
func (q *Queries) CountUnreadNotifications(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUnreadNotifications, userID).Scan(&n)
	return n, err
}

const deleteOldNotifications = `
DELETE FROM notifications WHERE is_read = 1 AND created_at < ?`

// DeleteOldNotifications prunes read notifications older than the cutoff.
func (q *Queries) DeleteOldNotifications(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteOldNotifications, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const upsertSubscription = `
INSERT INTO subscriptions (user_id, page_id, notification_types, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (user_id, page_id) DO UPDATE SET notification_types = excluded.notification_types`

// UpsertSubscription subscribes a user to a page, replacing any previous
// type filter. An empty types slice means all types.
func (q *Queries) UpsertSubscription(ctx context.Context, userID, pageID string, types []string) error {
	if types == nil {
		types = []string{}
	}
	encoded, err := json.Marshal(types)
	if err != nil {
		return fmt.Errorf("encoding type filter: %w", err)
	}
	_, err = q.db.ExecContext(ctx, upsertSubscription, userID, pageID, string(encoded), time.Now().UTC())
	return err
}

const deleteSubscription = `
DELETE FROM subscriptions WHERE user_id = ? AND page_id = ?`

// DeleteSubscription unsubscribes a user from a page. Unsubscribing when
// not subscribed is a no-op.
func (q *Queries) DeleteSubscription(ctx context.Context, userID, pageID string) error {
	_, err := q.db.ExecContext(ctx, deleteSubscription, userID, pageID)
	return err
}

const getSubscription = `
SELECT user_id, page_id, notification_types FROM subscriptions
WHERE user_id = ? AND page_id = ?`

// GetSubscription returns one user's subscription to a page.
func (q *Queries) GetSubscription(ctx context.Context, userID, pageID string) (model.Subscription, error) {
	row := q.db.QueryRowContext(ctx, getSubscription, userID, pageID)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Subscription{}, model.ErrNotFound
	}
	return sub, err
}

const listSubscribers = `
SELECT user_id, page_id, notification_types FROM subscriptions WHERE page_id = ?`

// ListSubscribers returns every subscription on a page.
func (q *Queries) ListSubscribers(ctx context.Context, pageID string) ([]model.Subscription, error) {
	rows, err := q.db.QueryContext(ctx, listSubscribers, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func scanSubscription(row rowScanner) (model.Subscription, error) {
	var (
		sub     model.Subscription
		encoded string
	)
	if err := row.Scan(&sub.UserID, &sub.PageID, &encoded); err != nil {
		return model.Subscription{}, err
	}
	if err := json.Unmarshal([]byte(encoded), &sub.NotificationTypes); err != nil {
		return model.Subscription{}, fmt.Errorf("decoding type filter: %w", err)
	}
	return sub, nil
}
