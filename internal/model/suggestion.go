// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Suggested edit statuses
const (
	SuggestionStatusPending  = "pending"
	SuggestionStatusApproved = "approved"
	SuggestionStatusRejected = "rejected"
	SuggestionStatusMerged   = "merged"
)

// SuggestedEdit is a proposed full-content replacement for a page awaiting
// reviewer decision. Title and body are immutable after creation;
// re-proposing requires a new suggestion.
type SuggestedEdit struct {
	ID          string    `json:"id"`
	PageID      string    `json:"page_id"`
	AuthorID    string    `json:"author_id"`
	AuthorName  string    `json:"author_name"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	ReviewerID  string    `json:"reviewer_id,omitempty"`
	ReviewNotes string    `json:"review_notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsOpen returns true while the suggestion can still be merged.
func (s *SuggestedEdit) IsOpen() bool {
	return s.Status == SuggestionStatusPending || s.Status == SuggestionStatusApproved
}
