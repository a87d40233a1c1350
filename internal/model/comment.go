// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Comment is a threaded page comment. Replies point at a root comment via
// ParentID; nesting is one level deep and the Replies slice is a read-time
// projection, never stored.
type Comment struct {
	ID          string     `json:"id"`
	PageID      string     `json:"page_id"`
	AuthorID    string     `json:"author_id"`
	ParentID    string     `json:"parent_id,omitempty"`
	Body        string     `json:"body"`
	IsResolved  bool       `json:"is_resolved"`
	IsPinned    bool       `json:"is_pinned"`
	IsModerated bool       `json:"is_moderated"`
	CreatedAt   time.Time  `json:"created_at"`
	Replies     []*Comment `json:"replies,omitempty"`
}

// IsReply returns true if the comment belongs to a thread root.
func (c *Comment) IsReply() bool {
	return c.ParentID != ""
}
