// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package notify fans page activity out to subscribed users. Publishing
// never blocks the action that caused it: events enter a queue and a
// small worker pool writes the per-user ledger entries.
package notify

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/lorekeep/lorekeep/internal/model"
	"github.com/lorekeep/lorekeep/internal/store"
)

// Event is one unit of page activity to fan out.
type Event struct {
	// Type is one of the model.Notify* constants.
	Type string
	// PageID scopes the fan-out to the page's subscribers. Empty for
	// direct events.
	PageID string
	// ActorID is the user who caused the event; they never receive their
	// own notifications.
	ActorID string
	// Recipients, when set, bypasses subscription fan-out and delivers to
	// exactly these users (still excluding the actor).
	Recipients []string
	Title      string
	Message    string
}

// Config holds hub configuration.
type Config struct {
	Workers   int
	QueueSize int
}

// DefaultConfig returns default hub configuration.
func DefaultConfig() Config {
	return Config{Workers: 3, QueueSize: 100}
}

// Hub owns the notification ledger and subscription registry.
type Hub struct {
	db      *sql.DB
	queries *store.Queries
	logger  *slog.Logger
	queue   chan Event
	workers int
	wg      sync.WaitGroup
	done    chan struct{}
	mu      sync.RWMutex
	running bool
}

// NewHub creates a notification hub.
func NewHub(db *sql.DB, logger *slog.Logger, cfg Config) *Hub {
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		db:      db,
		queries: store.New(db),
		logger:  logger,
		queue:   make(chan Event, cfg.QueueSize),
		workers: cfg.Workers,
		done:    make(chan struct{}),
	}
}

// Start launches the delivery workers.
func (h *Hub) Start(ctx context.Context) {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	h.logger.Info("starting notification hub", "workers", h.workers)
	for i := 0; i < h.workers; i++ {
		h.wg.Add(1)
		go h.worker(ctx, i)
	}
}

// Stop drains the workers and waits for them to finish.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.done)
	h.wg.Wait()
	h.logger.Info("notification hub stopped")
}

func (h *Hub) worker(ctx context.Context, id int) {
	defer h.wg.Done()
	for {
		select {
		case <-h.done:
			return
		case <-ctx.Done():
			return
		case ev := <-h.queue:
			h.deliver(ctx, ev)
		}
	}
}

// Publish queues an event for fan-out. A full queue drops the event with
// a warning rather than stalling the caller; notifications are advisory.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()
	if !running {
		h.logger.Warn("notification hub not running, dropping event", "type", ev.Type)
		return
	}

	select {
	case h.queue <- ev:
	default:
		h.logger.Warn("notification queue full, dropping event", "type", ev.Type, "page", ev.PageID)
	}
}

// PublishSync delivers an event on the caller's goroutine. Tests and the
// shutdown path use it to avoid racing the worker pool.
func (h *Hub) PublishSync(ctx context.Context, ev Event) {
	h.deliver(ctx, ev)
}

func (h *Hub) deliver(ctx context.Context, ev Event) {
	recipients := ev.Recipients
	if len(recipients) == 0 {
		subs, err := h.queries.ListSubscribers(ctx, ev.PageID)
		if err != nil {
			h.logger.Error("listing subscribers failed", "page", ev.PageID, "error", err)
			return
		}
		for _, sub := range subs {
			if sub.Wants(ev.Type) {
				recipients = append(recipients, sub.UserID)
			}
		}
	}

	delivered := 0
	for _, userID := range recipients {
		if userID == ev.ActorID || userID == "" {
			continue
		}
		_, err := h.queries.CreateNotification(ctx, store.CreateNotificationParams{
			ID:      uuid.NewString(),
			UserID:  userID,
			Type:    ev.Type,
			PageID:  ev.PageID,
			ActorID: ev.ActorID,
			Title:   ev.Title,
			Message: ev.Message,
		})
		if err != nil {
			h.logger.Error("writing notification failed", "user", userID, "type", ev.Type, "error", err)
			continue
		}
		delivered++
	}

	if delivered > 0 {
		h.logger.Debug("notifications delivered", "type", ev.Type, "page", ev.PageID, "count", delivered)
	}
}

// Subscribe registers interest in a page. An empty types slice means
// every notification type; re-subscribing replaces the filter.
func (h *Hub) Subscribe(ctx context.Context, userID, pageID string, types []string) error {
	for _, t := range types {
		if !validType(t) {
			return model.ErrInvalidState
		}
	}
	return h.queries.UpsertSubscription(ctx, userID, pageID, types)
}

// Unsubscribe removes a user's subscription; a no-op when absent.
func (h *Hub) Unsubscribe(ctx context.Context, userID, pageID string) error {
	return h.queries.DeleteSubscription(ctx, userID, pageID)
}

// List returns a user's notifications, newest first.
func (h *Hub) List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	return h.queries.ListNotifications(ctx, userID, unreadOnly, limit)
}

// MarkRead marks one notification read.
func (h *Hub) MarkRead(ctx context.Context, id, userID string) error {
	return h.queries.MarkNotificationRead(ctx, id, userID)
}

// MarkAllRead clears the user's unread set.
func (h *Hub) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	return h.queries.MarkAllNotificationsRead(ctx, userID)
}

// UnreadCount returns the user's badge count.
func (h *Hub) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return h.queries.CountUnreadNotifications(ctx, userID)
}

func validType(t string) bool {
	for _, known := range model.AllNotificationTypes {
		if t == known {
			return true
		}
	}
	return false
}
