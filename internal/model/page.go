// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the core domain types shared across the wiki:
// pages, categories, revisions, edit sessions, suggested edits, comments
// and notifications.
package model

import (
	"time"
)

// Page statuses
const (
	PageStatusDraft     = "draft"
	PageStatusReview    = "review"
	PageStatusPublished = "published"
)

// Page represents a wiki page reconstructed from the blob namespace.
// The ID is the blob path. Body is empty until the content cache hydrates
// it on first open.
type Page struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Body        string    `json:"body"`
	Status      string    `json:"status"`
	AuthorID    string    `json:"author_id"`
	AuthorName  string    `json:"author_name"`
	CategoryID  string    `json:"category_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Tags        []string  `json:"tags,omitempty"`
	Description string    `json:"description,omitempty"`
}

// IsPublished returns true if the page is published.
func (p *Page) IsPublished() bool {
	return p.Status == PageStatusPublished
}

// IsDraft returns true if the page is a draft.
func (p *Page) IsDraft() bool {
	return p.Status == PageStatusDraft
}

// Category is a folder synthesized from the discovered tree. It has no
// persisted identity of its own; the ID is the folder path.
type Category struct {
	ID       string      `json:"id"`
	Title    string      `json:"title"`
	Children []*Category `json:"children,omitempty"`
	Pages    []*Page     `json:"pages,omitempty"`
}
