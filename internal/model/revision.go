// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Revision is an immutable numbered snapshot of a page at save time.
// Revision numbers are monotonic per page and never rewind: restoring an
// old revision copies its content into a new head revision.
type Revision struct {
	ID             int64     `json:"id"`
	PageID         string    `json:"page_id"`
	RevisionNumber int64     `json:"revision_number"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	Status         string    `json:"status"`
	AuthorID       string    `json:"author_id"`
	CreatedAt      time.Time `json:"created_at"`
	Comment        string    `json:"comment,omitempty"`
	IsCurrent      bool      `json:"is_current"`
}
