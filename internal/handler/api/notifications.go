// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lorekeep/lorekeep/internal/middleware"
)

// ListNotifications returns the caller's notifications, newest first.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	unreadOnly := r.URL.Query().Get("unread") == "true"
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	notifications, err := h.hub.List(r.Context(), middleware.UserID(r), unreadOnly, limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, notifications, &Meta{Total: int64(len(notifications))})
}

// UnreadCount returns the caller's unread badge count.
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.hub.UnreadCount(r.Context(), middleware.UserID(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]int64{"unread": count}, nil)
}

// MarkNotificationRead marks one of the caller's notifications read.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.hub.MarkRead(r.Context(), id, middleware.UserID(r)); err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]string{"read": id}, nil)
}

// MarkAllNotificationsRead clears the caller's unread set.
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.hub.MarkAllRead(r.Context(), middleware.UserID(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]int64{"marked": n}, nil)
}

type subscribeRequest struct {
	PageID string   `json:"page_id"`
	Types  []string `json:"types,omitempty"`
}

// Subscribe registers interest in a page's activity.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := decode(r, &req); err != nil || req.PageID == "" {
		WriteBadRequest(w, "page_id required", nil)
		return
	}
	if err := h.hub.Subscribe(r.Context(), middleware.UserID(r), req.PageID, req.Types); err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]string{"subscribed": req.PageID}, nil)
}

// Unsubscribe removes the caller's subscription to a page.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	pageID := r.URL.Query().Get("page")
	if pageID == "" {
		WriteBadRequest(w, "page query parameter required", nil)
		return
	}
	if err := h.hub.Unsubscribe(r.Context(), middleware.UserID(r), pageID); err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]string{"unsubscribed": pageID}, nil)
}
