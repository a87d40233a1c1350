// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic maintenance sweeps: expiring
// silent edit sessions and pruning old notifications and event log
// entries.
package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lorekeep/lorekeep/internal/session"
	"github.com/lorekeep/lorekeep/internal/store"
)

// Config holds scheduler retention settings.
type Config struct {
	NotificationRetention time.Duration
	EventRetention        time.Duration
}

// Scheduler owns the cron jobs.
type Scheduler struct {
	queries  *store.Queries
	sessions *session.Manager
	cron     *cron.Cron
	cfg      Config
	logger   *slog.Logger
}

// New creates a scheduler instance.
func New(db *sql.DB, sessions *session.Manager, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.NotificationRetention <= 0 {
		cfg.NotificationRetention = 30 * 24 * time.Hour
	}
	if cfg.EventRetention <= 0 {
		cfg.EventRetention = 90 * 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		queries:  store.New(db),
		sessions: sessions,
		cron:     cron.New(),
		cfg:      cfg,
		logger:   logger,
	}
}

// Start registers the jobs and begins the cron loop: a stale-session
// sweep every minute and a retention prune nightly.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("* * * * *", func() {
		if _, err := s.sessions.ExpireStale(context.Background()); err != nil {
			s.logger.Error("stale session sweep failed", "error", err)
		}
	}); err != nil {
		return err
	}

	if _, err := s.cron.AddFunc("30 3 * * *", func() {
		s.prune(context.Background())
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// prune applies the retention policy to notifications and the event log.
func (s *Scheduler) prune(ctx context.Context) {
	now := time.Now()

	if n, err := s.queries.DeleteOldNotifications(ctx, now.Add(-s.cfg.NotificationRetention)); err != nil {
		s.logger.Error("notification prune failed", "error", err)
	} else if n > 0 {
		s.logger.Info("pruned old notifications", "count", n)
	}

	if n, err := s.queries.DeleteOldEvents(ctx, now.Add(-s.cfg.EventRetention)); err != nil {
		s.logger.Error("event log prune failed", "error", err)
	} else if n > 0 {
		s.logger.Info("pruned old events", "count", n)
	}
}
