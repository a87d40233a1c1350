// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lorekeep/lorekeep/internal/comment"
	"github.com/lorekeep/lorekeep/internal/middleware"
)

// ListComments returns a page's comment threads. Moderators see hidden
// comments too.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	pageID := r.URL.Query().Get("page")
	if pageID == "" {
		WriteBadRequest(w, "page query parameter required", nil)
		return
	}
	threads, err := h.comments.ListForPage(r.Context(), pageID, middleware.Role(r).CanModerate())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, threads, &Meta{Total: int64(len(threads))})
}

type addCommentRequest struct {
	PageID   string `json:"page_id"`
	ParentID string `json:"parent_id,omitempty"`
	Body     string `json:"body"`
}

// AddComment posts a comment or reply.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req addCommentRequest
	if err := decode(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	c, err := h.comments.Add(r.Context(), comment.AddRequest{
		PageID:   req.PageID,
		AuthorID: middleware.UserID(r),
		ParentID: req.ParentID,
		Body:     req.Body,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteCreated(w, c)
}

type editCommentRequest struct {
	Body string `json:"body"`
}

// EditComment replaces a comment's body; author or moderator.
func (h *Handler) EditComment(w http.ResponseWriter, r *http.Request) {
	var req editCommentRequest
	if err := decode(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	c, err := h.comments.Edit(r.Context(), chi.URLParam(r, "id"), middleware.UserID(r), middleware.Role(r), req.Body)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, c, nil)
}

// DeleteComment removes a comment (author or moderator).
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.comments.Delete(r.Context(), id, middleware.UserID(r), middleware.Role(r)); err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]string{"deleted": id}, nil)
}

type flagRequest struct {
	Value bool `json:"value"`
}

// ResolveComment marks a thread resolved or reopens it; thread author or
// moderator.
func (h *Handler) ResolveComment(w http.ResponseWriter, r *http.Request) {
	h.setCommentFlag(w, r, func(ctx context.Context, id string, value bool) error {
		return h.comments.Resolve(ctx, id, middleware.UserID(r), middleware.Role(r), value)
	})
}

// PinComment pins or unpins a thread.
func (h *Handler) PinComment(w http.ResponseWriter, r *http.Request) {
	h.setCommentFlag(w, r, func(ctx context.Context, id string, value bool) error {
		return h.comments.Pin(ctx, id, middleware.Role(r), value)
	})
}

// ModerateComment hides or unhides a comment.
func (h *Handler) ModerateComment(w http.ResponseWriter, r *http.Request) {
	h.setCommentFlag(w, r, func(ctx context.Context, id string, value bool) error {
		return h.comments.Moderate(ctx, id, middleware.Role(r), value)
	})
}

func (h *Handler) setCommentFlag(w http.ResponseWriter, r *http.Request,
	set func(ctx context.Context, id string, value bool) error) {
	var req flagRequest
	if err := decode(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	id := chi.URLParam(r, "id")
	if err := set(r.Context(), id, req.Value); err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]any{"id": id, "value": req.Value}, nil)
}
