// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// EditSession is a user's claim of actively editing a page, kept alive by
// heartbeats. One conceptually active session exists per (user, page).
type EditSession struct {
	ID             string    `json:"id"`
	PageID         string    `json:"page_id"`
	UserID         string    `json:"user_id"`
	UserName       string    `json:"user_name"`
	LastActivityAt time.Time `json:"last_activity_at"`
	CreatedAt      time.Time `json:"created_at"`
	IsActive       bool      `json:"is_active"`
}

// Conflict reports another active session on the same page. It is derived
// at read time, never stored, and never blocks a save.
type Conflict struct {
	UserID       string    `json:"conflict_user_id"`
	UserName     string    `json:"conflict_user_name"`
	LastActivity time.Time `json:"last_activity"`
}
