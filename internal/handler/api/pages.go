// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lorekeep/lorekeep/internal/middleware"
	"github.com/lorekeep/lorekeep/internal/wiki"
)

// GetTree returns the discovered page hierarchy.
func (h *Handler) GetTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.pages.GetTree(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, tree, nil)
}

// pagePath extracts the blob path from the catch-all route segment.
func pagePath(r *http.Request) string {
	return chi.URLParam(r, "*")
}

// GetPage returns one opened page with its display body.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	path := pagePath(r)
	if path == "" {
		WriteBadRequest(w, "Page path required", nil)
		return
	}
	view, err := h.pages.GetPage(r.Context(), path)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, view, nil)
}

type savePageRequest struct {
	Title   string `json:"title"`
	Body    string `json:"body"`
	Status  string `json:"status,omitempty"`
	Comment string `json:"comment,omitempty"`
	Create  bool   `json:"create,omitempty"`
}

// SavePage writes a page and records a revision.
func (h *Handler) SavePage(w http.ResponseWriter, r *http.Request) {
	path := pagePath(r)
	if path == "" {
		WriteBadRequest(w, "Page path required", nil)
		return
	}

	var req savePageRequest
	if err := decode(r, &req); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return
	}
	if req.Title == "" {
		WriteBadRequest(w, "Title required", map[string]string{"title": "cannot be blank"})
		return
	}

	rev, err := h.pages.Save(r.Context(), wiki.SaveRequest{
		Path:     path,
		Title:    req.Title,
		Body:     req.Body,
		Status:   req.Status,
		AuthorID: middleware.UserID(r),
		Comment:  req.Comment,
		Create:   req.Create,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if req.Create {
		WriteCreated(w, rev)
		return
	}
	WriteSuccess(w, rev, nil)
}

// DeletePage removes a page; its revision history stays.
func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	path := pagePath(r)
	if path == "" {
		WriteBadRequest(w, "Page path required", nil)
		return
	}
	if err := h.pages.Delete(r.Context(), path); err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, map[string]string{"deleted": path}, nil)
}

// ListRevisions returns a page's history, newest first. The page path
// comes in as a query parameter since it contains slashes.
func (h *Handler) ListRevisions(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		WriteBadRequest(w, "path query parameter required", nil)
		return
	}
	revisions, err := h.pages.ListRevisions(r.Context(), path)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, revisions, &Meta{Total: int64(len(revisions))})
}

// GetRevision returns one numbered revision.
func (h *Handler) GetRevision(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	number, err := strconv.ParseInt(r.URL.Query().Get("revision"), 10, 64)
	if path == "" || err != nil {
		WriteBadRequest(w, "path and revision query parameters required", nil)
		return
	}
	rev, err := h.pages.GetRevision(r.Context(), path, number)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteSuccess(w, rev, nil)
}

type restoreRequest struct {
	Path     string `json:"path"`
	Revision int64  `json:"revision"`
}

// RestoreRevision copies an old revision into a new head revision.
func (h *Handler) RestoreRevision(w http.ResponseWriter, r *http.Request) {
	var req restoreRequest
	if err := decode(r, &req); err != nil || req.Path == "" || req.Revision <= 0 {
		WriteBadRequest(w, "path and revision required", nil)
		return
	}
	rev, err := h.pages.Restore(r.Context(), req.Path, req.Revision, middleware.UserID(r))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	WriteCreated(w, rev)
}
