// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lorekeep/lorekeep/internal/middleware"
	"github.com/lorekeep/lorekeep/internal/model"
)

type beginSessionRequest struct {
	PageID string `json:"page_id"`
}

type sessionResponse struct {
	Session   model.EditSession `json:"session"`
	Conflicts []model.Conflict  `json:"conflicts,omitempty"`
}

// BeginSession opens an edit session and reports concurrent editors.
func (h *Handler) BeginSession(w http.ResponseWriter, r *http.Request) {
	var req beginSessionRequest
	if err := decode(r, &req); err != nil || req.PageID == "" {
		WriteBadRequest(w, "page_id required", nil)
		return
	}

	sess, conflicts, err := h.sessions.Begin(r.Context(), req.PageID,
		middleware.UserID(r), middleware.UserName(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteCreated(w, sessionResponse{Session: sess, Conflicts: conflicts})
}

// HeartbeatSession records activity and returns the current conflict set.
func (h *Handler) HeartbeatSession(w http.ResponseWriter, r *http.Request) {
	conflicts, err := h.sessions.Heartbeat(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]any{"conflicts": conflicts}, nil)
}

// CheckConflicts reports other users actively editing a page.
func (h *Handler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	pageID := r.URL.Query().Get("page")
	if pageID == "" {
		WriteBadRequest(w, "page query parameter required", nil)
		return
	}
	conflicts, err := h.sessions.Conflicts(r.Context(), pageID, middleware.UserID(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]any{"conflicts": conflicts}, &Meta{Total: int64(len(conflicts))})
}

// EndSession closes an edit session.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]string{"ended": chi.URLParam(r, "id")}, nil)
}
