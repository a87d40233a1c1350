// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/lorekeep/lorekeep/internal/model"
)

// Runner default intervals.
const (
	DefaultConflictPollInterval = 10 * time.Second
	DefaultAutoSaveInterval     = 30 * time.Second
)

// RunnerConfig tunes the editor loop.
type RunnerConfig struct {
	HeartbeatInterval    time.Duration
	ConflictPollInterval time.Duration
	AutoSaveInterval     time.Duration
}

// RunnerHooks are the runner's outbound edges. Save is invoked on the
// auto-save tick while the draft is dirty; OnConflicts whenever a poll
// returns a non-empty set.
type RunnerHooks struct {
	Save        func(ctx context.Context) error
	OnConflicts func(conflicts []model.Conflict)
}

// Runner drives one open editor: periodic heartbeats keep the session
// live, a faster poll watches for concurrent editors, and a dirty draft
// is auto-saved. The loop stops when the session ends, the context is
// cancelled, or a heartbeat discovers the session is gone.
type Runner struct {
	manager   *Manager
	sessionID string
	cfg       RunnerConfig
	hooks     RunnerHooks
	logger    *slog.Logger

	mu     sync.Mutex
	dirty  bool
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner creates a runner for an already-open session.
func NewRunner(manager *Manager, sessionID string, cfg RunnerConfig, hooks RunnerHooks, logger *slog.Logger) *Runner {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = manager.HeartbeatInterval()
	}
	if cfg.ConflictPollInterval <= 0 {
		cfg.ConflictPollInterval = DefaultConflictPollInterval
	}
	if cfg.AutoSaveInterval <= 0 {
		cfg.AutoSaveInterval = DefaultAutoSaveInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		manager:   manager,
		sessionID: sessionID,
		cfg:       cfg,
		hooks:     hooks,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start launches the loop. It returns immediately.
func (r *Runner) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()
	go r.loop(ctx)
}

// MarkDirty flags the draft as having unsaved changes.
func (r *Runner) MarkDirty() {
	r.mu.Lock()
	r.dirty = true
	r.mu.Unlock()
}

// Stop ends the session and waits for the loop to exit.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
		<-r.done
	}
	return r.manager.End(ctx, r.sessionID)
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)

	heartbeat := time.NewTicker(r.cfg.HeartbeatInterval)
	defer heartbeat.Stop()
	poll := time.NewTicker(r.cfg.ConflictPollInterval)
	defer poll.Stop()
	autosave := time.NewTicker(r.cfg.AutoSaveInterval)
	defer autosave.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-heartbeat.C:
			if _, err := r.manager.Heartbeat(ctx, r.sessionID); err != nil {
				if errors.Is(err, model.ErrNotFound) {
					r.logger.Info("edit session gone, stopping editor loop", "session", r.sessionID)
					return
				}
				r.logger.Warn("heartbeat failed", "session", r.sessionID, "error", err)
			}

		case <-poll.C:
			sess, err := r.manager.queries.GetEditSession(ctx, r.sessionID)
			if err != nil {
				continue
			}
			conflicts, err := r.manager.Conflicts(ctx, sess.PageID, sess.UserID)
			if err != nil {
				r.logger.Warn("conflict poll failed", "session", r.sessionID, "error", err)
				continue
			}
			if len(conflicts) > 0 && r.hooks.OnConflicts != nil {
				r.hooks.OnConflicts(conflicts)
			}

		case <-autosave.C:
			r.mu.Lock()
			dirty := r.dirty
			r.mu.Unlock()
			if !dirty || r.hooks.Save == nil {
				continue
			}
			if err := r.hooks.Save(ctx); err != nil {
				r.logger.Warn("auto-save failed, draft stays dirty", "session", r.sessionID, "error", err)
				continue
			}
			r.mu.Lock()
			r.dirty = false
			r.mu.Unlock()
		}
	}
}
