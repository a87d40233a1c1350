// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/lorekeep/lorekeep/internal/middleware"
	"github.com/lorekeep/lorekeep/internal/review"
)

// ListSuggestions returns a page's suggestions, optionally filtered by
// status.
func (h *Handler) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	pageID := r.URL.Query().Get("page")
	if pageID == "" {
		WriteBadRequest(w, "page query parameter required", nil)
		return
	}
	suggestions, err := h.reviews.List(r.Context(), pageID, r.URL.Query().Get("status"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, suggestions, &Meta{Total: int64(len(suggestions))})
}

// GetSuggestion returns one suggestion.
func (h *Handler) GetSuggestion(w http.ResponseWriter, r *http.Request) {
	sug, err := h.reviews.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, sug, nil)
}

type proposeRequest struct {
	PageID      string `json:"page_id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	Description string `json:"description,omitempty"`
}

// ProposeSuggestion records a pending suggested edit.
func (h *Handler) ProposeSuggestion(w http.ResponseWriter, r *http.Request) {
	var req proposeRequest
	if err := decode(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}

	sug, err := h.reviews.Propose(r.Context(), review.ProposeRequest{
		PageID:      req.PageID,
		AuthorID:    middleware.UserID(r),
		AuthorName:  middleware.UserName(r),
		Title:       req.Title,
		Body:        req.Body,
		Description: req.Description,
	})
	if err != nil {
		if errs, ok := err.(validation.Errors); ok {
			details := make(map[string]string, len(errs))
			for field, ferr := range errs {
				details[field] = ferr.Error()
			}
			WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", details)
			return
		}
		h.writeServiceError(w, err)
		return
	}
	WriteCreated(w, sug)
}

type reviewRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes,omitempty"`
}

// ReviewSuggestion approves or rejects a pending suggestion.
func (h *Handler) ReviewSuggestion(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decode(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	sug, err := h.reviews.Review(r.Context(), chi.URLParam(r, "id"),
		middleware.UserID(r), middleware.Role(r), req.Approve, req.Notes)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, sug, nil)
}

// MergeSuggestion applies an open suggestion to its page.
func (h *Handler) MergeSuggestion(w http.ResponseWriter, r *http.Request) {
	rev, err := h.reviews.Merge(r.Context(), chi.URLParam(r, "id"),
		middleware.UserID(r), middleware.Role(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, rev, nil)
}

type requestReviewRequest struct {
	Reviewers []string `json:"reviewers"`
}

// RequestReview pings specific reviewers about an open suggestion.
func (h *Handler) RequestReview(w http.ResponseWriter, r *http.Request) {
	var req requestReviewRequest
	if err := decode(r, &req); err != nil || len(req.Reviewers) == 0 {
		WriteBadRequest(w, "reviewers required", nil)
		return
	}
	if err := h.reviews.RequestReview(r.Context(), chi.URLParam(r, "id"),
		middleware.UserID(r), req.Reviewers); err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]int{"notified": len(req.Reviewers)}, nil)
}
