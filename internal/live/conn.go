// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package live

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// ConnManager owns the single websocket connection to the live registry
// and hands it out to interested subscribers by reference count: the
// connection is dialed on the first Acquire and closed on the last
// Release. It replaces any ambient shared-connection state; components
// receive the manager through injection.
type ConnManager struct {
	url    string
	logger *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
	refs int
}

// NewConnManager creates a manager for the registry at url. No connection
// is made until the first Acquire.
func NewConnManager(url string, logger *slog.Logger) *ConnManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConnManager{url: url, logger: logger}
}

// Acquire registers interest and returns the shared connection, dialing
// it if this is the first subscriber.
func (m *ConnManager) Acquire(ctx context.Context) (*websocket.Conn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil {
		conn, _, err := websocket.Dial(ctx, m.url, nil)
		if err != nil {
			return nil, fmt.Errorf("dialing live registry: %w", err)
		}
		m.conn = conn
		m.logger.Info("live registry connected", "url", m.url)
	}
	m.refs++
	return m.conn, nil
}

// Release drops one subscriber; the last release closes the connection.
func (m *ConnManager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.refs == 0 {
		return
	}
	m.refs--
	if m.refs == 0 && m.conn != nil {
		_ = m.conn.Close(websocket.StatusNormalClosure, "no subscribers")
		m.conn = nil
		m.logger.Info("live registry disconnected")
	}
}

// Refs returns the current subscriber count.
func (m *ConnManager) Refs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refs
}

// snapshotRequest is the wire request for one entity snapshot.
type snapshotRequest struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// WSRegistry implements Registry over the managed websocket connection.
// Requests are serialized: the registry protocol is strict
// request/response.
type WSRegistry struct {
	manager *ConnManager
	timeout time.Duration
	mu      sync.Mutex
}

// NewWSRegistry creates a registry client over the given manager.
func NewWSRegistry(manager *ConnManager, timeout time.Duration) *WSRegistry {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WSRegistry{manager: manager, timeout: timeout}
}

// GetEntitySnapshot fetches one snapshot from the registry.
func (r *WSRegistry) GetEntitySnapshot(ctx context.Context, entityType, name string) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	conn, err := r.manager.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer r.manager.Release()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := wsjson.Write(ctx, conn, snapshotRequest{Type: entityType, Name: name}); err != nil {
		return nil, fmt.Errorf("requesting snapshot: %w", err)
	}

	var snap Snapshot
	if err := wsjson.Read(ctx, conn, &snap); err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	return &snap, nil
}

var _ Registry = (*WSRegistry)(nil)
