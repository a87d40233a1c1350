// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session tracks who is editing what. Sessions are advisory:
// they surface concurrent editing to users but never lock a page or
// block a save.
package session

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lorekeep/lorekeep/internal/model"
	"github.com/lorekeep/lorekeep/internal/notify"
	"github.com/lorekeep/lorekeep/internal/store"
)

// DefaultHeartbeatInterval is how often an editor is expected to check
// in. A session counts as live for twice this interval after its last
// heartbeat, so one missed beat never flags a conflict.
const DefaultHeartbeatInterval = 30 * time.Second

// Manager owns edit-session lifecycle and conflict detection.
type Manager struct {
	queries   *store.Queries
	hub       *notify.Hub
	logger    *slog.Logger
	heartbeat time.Duration
}

// NewManager creates a session manager. The hub may be nil to disable
// conflict notifications.
func NewManager(db *sql.DB, hub *notify.Hub, heartbeat time.Duration, logger *slog.Logger) *Manager {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeatInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		queries:   store.New(db),
		hub:       hub,
		logger:    logger,
		heartbeat: heartbeat,
	}
}

// HeartbeatInterval returns the interval editors should beat at.
func (m *Manager) HeartbeatInterval() time.Duration {
	return m.heartbeat
}

// livenessCutoff is the oldest last-activity timestamp that still counts
// as live.
func (m *Manager) livenessCutoff(now time.Time) time.Time {
	return now.Add(-2 * m.heartbeat)
}

// Begin opens an edit session on a page and reports any concurrent
// editors. A user re-opening a page they already edit gets their
// existing session back rather than a duplicate.
func (m *Manager) Begin(ctx context.Context, pageID, userID, userName string) (model.EditSession, []model.Conflict, error) {
	sess, err := m.queries.GetActiveSessionFor(ctx, pageID, userID)
	switch {
	case err == nil:
		if terr := m.queries.TouchEditSession(ctx, sess.ID, time.Now()); terr != nil {
			return model.EditSession{}, nil, terr
		}
	case errors.Is(err, model.ErrNotFound):
		sess, err = m.queries.CreateEditSession(ctx, store.CreateEditSessionParams{
			ID:       uuid.NewString(),
			PageID:   pageID,
			UserID:   userID,
			UserName: userName,
		})
		if err != nil {
			return model.EditSession{}, nil, err
		}
		m.logger.Info("edit session opened", "page", pageID, "user", userID, "session", sess.ID)
	default:
		return model.EditSession{}, nil, err
	}

	conflicts, err := m.Conflicts(ctx, pageID, userID)
	if err != nil {
		return model.EditSession{}, nil, err
	}
	if len(conflicts) > 0 {
		m.notifyConflict(pageID, userID, userName, conflicts)
	}
	return sess, conflicts, nil
}

// Heartbeat records activity on a session and returns the current
// conflict set. A heartbeat on an ended or unknown session reports
// model.ErrNotFound so the editor loop stops.
func (m *Manager) Heartbeat(ctx context.Context, sessionID string) ([]model.Conflict, error) {
	if err := m.queries.TouchEditSession(ctx, sessionID, time.Now()); err != nil {
		return nil, err
	}
	sess, err := m.queries.GetEditSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return m.Conflicts(ctx, sess.PageID, sess.UserID)
}

// End closes a session. Ending twice is a no-op.
func (m *Manager) End(ctx context.Context, sessionID string) error {
	return m.queries.EndEditSession(ctx, sessionID)
}

// Conflicts lists other users' live sessions on a page. Stale sessions
// inside the table but outside the liveness window never count.
func (m *Manager) Conflicts(ctx context.Context, pageID, excludeUserID string) ([]model.Conflict, error) {
	sessions, err := m.queries.ListActiveSessions(ctx, pageID, m.livenessCutoff(time.Now()))
	if err != nil {
		return nil, err
	}
	var conflicts []model.Conflict
	for _, s := range sessions {
		if s.UserID == excludeUserID {
			continue
		}
		conflicts = append(conflicts, model.Conflict{
			UserID:       s.UserID,
			UserName:     s.UserName,
			LastActivity: s.LastActivityAt,
		})
	}
	return conflicts, nil
}

// ExpireStale ends sessions silent for longer than the liveness window.
// The scheduler calls this periodically.
func (m *Manager) ExpireStale(ctx context.Context) (int64, error) {
	n, err := m.queries.ExpireStaleSessions(ctx, m.livenessCutoff(time.Now()))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.logger.Info("expired stale edit sessions", "count", n)
	}
	return n, nil
}

// notifyConflict tells both sides about the overlap: the new editor and
// everyone they collided with.
func (m *Manager) notifyConflict(pageID, userID, userName string, conflicts []model.Conflict) {
	if m.hub == nil {
		return
	}
	recipients := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		recipients = append(recipients, c.UserID)
	}
	m.hub.Publish(notify.Event{
		Type:       model.NotifyConflictDetected,
		PageID:     pageID,
		ActorID:    userID,
		Recipients: recipients,
		Title:      "Concurrent editing detected",
		Message:    userName + " started editing a page you are working on",
	})
}
