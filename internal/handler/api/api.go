// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST API for the wiki core.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lorekeep/lorekeep/internal/comment"
	"github.com/lorekeep/lorekeep/internal/middleware"
	"github.com/lorekeep/lorekeep/internal/model"
	"github.com/lorekeep/lorekeep/internal/notify"
	"github.com/lorekeep/lorekeep/internal/review"
	"github.com/lorekeep/lorekeep/internal/session"
	"github.com/lorekeep/lorekeep/internal/wiki"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	pages    *wiki.Service
	sessions *session.Manager
	reviews  *review.Workflow
	comments *comment.Service
	hub      *notify.Hub
	logger   *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(pages *wiki.Service, sessions *session.Manager, reviews *review.Workflow,
	comments *comment.Service, hub *notify.Hub, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		pages:    pages,
		sessions: sessions,
		reviews:  reviews,
		comments: comments,
		hub:      hub,
		logger:   logger,
	}
}

// Routes mounts all v1 endpoints on a fresh router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/status", h.Status)
	r.Get("/tree", h.GetTree)

	r.Get("/pages/*", h.GetPage)
	r.With(middleware.RequireUser).Put("/pages/*", h.SavePage)
	r.With(middleware.RequireUser).Delete("/pages/*", h.DeletePage)

	r.Get("/revisions", h.ListRevisions)
	r.Get("/revisions/show", h.GetRevision)
	r.With(middleware.RequireUser).Post("/revisions/restore", h.RestoreRevision)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Post("/sessions", h.BeginSession)
		r.Post("/sessions/{id}/heartbeat", h.HeartbeatSession)
		r.Delete("/sessions/{id}", h.EndSession)
		r.Get("/sessions/conflicts", h.CheckConflicts)
	})

	r.Get("/suggestions", h.ListSuggestions)
	r.Get("/suggestions/{id}", h.GetSuggestion)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Post("/suggestions", h.ProposeSuggestion)
		r.Post("/suggestions/{id}/review", h.ReviewSuggestion)
		r.Post("/suggestions/{id}/merge", h.MergeSuggestion)
		r.Post("/suggestions/{id}/request-review", h.RequestReview)
	})

	r.Get("/comments", h.ListComments)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Post("/comments", h.AddComment)
		r.Patch("/comments/{id}", h.EditComment)
		r.Delete("/comments/{id}", h.DeleteComment)
		r.Post("/comments/{id}/resolve", h.ResolveComment)
		r.Post("/comments/{id}/pin", h.PinComment)
		r.Post("/comments/{id}/moderate", h.ModerateComment)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Get("/notifications", h.ListNotifications)
		r.Get("/notifications/unread-count", h.UnreadCount)
		r.Post("/notifications/{id}/read", h.MarkNotificationRead)
		r.Post("/notifications/read-all", h.MarkAllNotificationsRead)
		r.Put("/subscriptions", h.Subscribe)
		r.Delete("/subscriptions", h.Unsubscribe)
	})

	return r
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains count metadata.
type Meta struct {
	Total int64 `json:"total,omitempty"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: ErrorDetail{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteForbidden writes a 403 Forbidden response.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, "forbidden", message, nil)
}

// WriteConflict writes a 409 Conflict response.
func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, "conflict", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// writeServiceError maps domain sentinel errors onto HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		WriteNotFound(w, err.Error())
	case errors.Is(err, model.ErrPermissionDenied):
		WriteForbidden(w, err.Error())
	case errors.Is(err, model.ErrInvalidState):
		WriteConflict(w, err.Error())
	case errors.Is(err, model.ErrUpstreamUnavailable):
		WriteError(w, http.StatusBadGateway, "upstream_unavailable", err.Error(), nil)
	default:
		h.logger.Error("request failed", "error", err)
		WriteInternalError(w, "Internal error")
	}
}

// decode reads a JSON request body into dst.
func decode(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// StatusResponse contains API status information.
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// Status returns the API status.
func (h *Handler) Status(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, StatusResponse{Status: "ok", Version: "v1"}, nil)
}
