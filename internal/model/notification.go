// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Notification types published by the collaboration subsystem.
const (
	NotifyCommentAdded        = "comment.added"
	NotifyCommentReplied      = "comment.replied"
	NotifySuggestionSubmitted = "suggestion.submitted"
	NotifySuggestionReviewed  = "suggestion.reviewed"
	NotifySuggestionMerged    = "suggestion.merged"
	NotifyConflictDetected    = "conflict.detected"
	NotifyPagePublished       = "page.published"
	NotifyReviewRequested     = "review.requested"
)

// AllNotificationTypes lists every type a subscription may filter on.
var AllNotificationTypes = []string{
	NotifyCommentAdded,
	NotifyCommentReplied,
	NotifySuggestionSubmitted,
	NotifySuggestionReviewed,
	NotifySuggestionMerged,
	NotifyConflictDetected,
	NotifyPagePublished,
	NotifyReviewRequested,
}

// Notification is one delivered entry in a user's read/unread ledger.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	PageID    string    `json:"page_id,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Subscription registers a user's interest in a page, unique per
// (user, page). An empty type set means all types.
type Subscription struct {
	UserID            string   `json:"user_id"`
	PageID            string   `json:"page_id"`
	NotificationTypes []string `json:"notification_types,omitempty"`
}

// Wants returns true if the subscription's type filter matches the given
// notification type.
func (s *Subscription) Wants(notifType string) bool {
	if len(s.NotificationTypes) == 0 {
		return true
	}
	for _, t := range s.NotificationTypes {
		if t == notifType {
			return true
		}
	}
	return false
}
