// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package comment provides threaded page discussion. Threads are one
// level deep: replies attach to a root comment, never to another reply.
package comment

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/lorekeep/lorekeep/internal/model"
	"github.com/lorekeep/lorekeep/internal/notify"
	"github.com/lorekeep/lorekeep/internal/store"
)

// Service is the comment service.
type Service struct {
	queries   *store.Queries
	hub       *notify.Hub
	sanitizer *bluemonday.Policy
	logger    *slog.Logger
}

// NewService creates the comment service. Bodies are sanitized with a
// UGC policy on the way in; stored bodies are always safe to render.
func NewService(db *sql.DB, hub *notify.Hub, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		queries:   store.New(db),
		hub:       hub,
		sanitizer: bluemonday.UGCPolicy(),
		logger:    logger,
	}
}

// AddRequest carries a new comment. ParentID targets a thread root for
// replies.
type AddRequest struct {
	PageID   string
	AuthorID string
	ParentID string
	Body     string
}

// Validate checks the comment fields.
func (r AddRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PageID, validation.Required),
		validation.Field(&r.AuthorID, validation.Required),
		validation.Field(&r.Body, validation.Required, validation.Length(1, 10000)),
	)
}

// Add posts a comment or reply. Replying to a reply reparents onto the
// thread root, keeping threads one level deep.
func (s *Service) Add(ctx context.Context, req AddRequest) (model.Comment, error) {
	if err := req.Validate(); err != nil {
		return model.Comment{}, err
	}

	body := strings.TrimSpace(s.sanitizer.Sanitize(req.Body))
	if body == "" {
		return model.Comment{}, fmt.Errorf("comment empty after sanitization: %w", model.ErrInvalidState)
	}

	var rootAuthor string
	if req.ParentID != "" {
		parent, err := s.queries.GetComment(ctx, req.ParentID)
		if err != nil {
			return model.Comment{}, err
		}
		if parent.PageID != req.PageID {
			return model.Comment{}, fmt.Errorf("parent comment on another page: %w", model.ErrInvalidState)
		}
		if parent.IsReply() {
			req.ParentID = parent.ParentID
			parent, err = s.queries.GetComment(ctx, req.ParentID)
			if err != nil {
				return model.Comment{}, err
			}
		}
		rootAuthor = parent.AuthorID
	}

	c, err := s.queries.CreateComment(ctx, store.CreateCommentParams{
		ID:       uuid.NewString(),
		PageID:   req.PageID,
		AuthorID: req.AuthorID,
		ParentID: req.ParentID,
		Body:     body,
	})
	if err != nil {
		return model.Comment{}, err
	}

	s.logger.Info("comment added", "comment", c.ID, "page", req.PageID, "reply", c.IsReply())
	s.notifyAdd(c, rootAuthor)
	return c, nil
}

func (s *Service) notifyAdd(c model.Comment, rootAuthor string) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(notify.Event{
		Type:    model.NotifyCommentAdded,
		PageID:  c.PageID,
		ActorID: c.AuthorID,
		Title:   "New comment",
		Message: fmt.Sprintf("New activity on %s", c.PageID),
	})
	if c.IsReply() && rootAuthor != "" {
		s.hub.Publish(notify.Event{
			Type:       model.NotifyCommentReplied,
			PageID:     c.PageID,
			ActorID:    c.AuthorID,
			Recipients: []string{rootAuthor},
			Title:      "New reply",
			Message:    fmt.Sprintf("Someone replied to your comment on %s", c.PageID),
		})
	}
}

// ListForPage returns a page's comments as threads: pinned roots first,
// then roots in creation order, each with its replies attached.
func (s *Service) ListForPage(ctx context.Context, pageID string, includeModerated bool) ([]*model.Comment, error) {
	flat, err := s.queries.ListCommentsForPage(ctx, pageID)
	if err != nil {
		return nil, err
	}

	roots := make([]*model.Comment, 0, len(flat))
	byID := make(map[string]*model.Comment, len(flat))
	for i := range flat {
		c := &flat[i]
		if c.IsModerated && !includeModerated {
			continue
		}
		byID[c.ID] = c
		if !c.IsReply() {
			roots = append(roots, c)
		}
	}
	for i := range flat {
		c := &flat[i]
		if !c.IsReply() {
			continue
		}
		if c.IsModerated && !includeModerated {
			continue
		}
		if root, ok := byID[c.ParentID]; ok {
			root.Replies = append(root.Replies, c)
		}
	}

	// Stable partition: pinned threads float to the top.
	ordered := make([]*model.Comment, 0, len(roots))
	for _, c := range roots {
		if c.IsPinned {
			ordered = append(ordered, c)
		}
	}
	for _, c := range roots {
		if !c.IsPinned {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}

// Edit replaces a comment's body. The author may edit their own;
// moderators may edit any.
func (s *Service) Edit(ctx context.Context, id, userID string, role model.Role, body string) (model.Comment, error) {
	c, err := s.queries.GetComment(ctx, id)
	if err != nil {
		return model.Comment{}, err
	}
	if c.AuthorID != userID && !role.CanModerate() {
		return model.Comment{}, model.ErrPermissionDenied
	}

	clean := strings.TrimSpace(s.sanitizer.Sanitize(body))
	if clean == "" {
		return model.Comment{}, fmt.Errorf("comment empty after sanitization: %w", model.ErrInvalidState)
	}
	if err := s.queries.UpdateCommentBody(ctx, id, clean); err != nil {
		return model.Comment{}, err
	}
	c.Body = clean
	return c, nil
}

// Delete removes a comment. The author may delete their own; moderators
// may delete any. Deleting a thread root removes its replies.
func (s *Service) Delete(ctx context.Context, id, userID string, role model.Role) error {
	c, err := s.queries.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if c.AuthorID != userID && !role.CanModerate() {
		return model.ErrPermissionDenied
	}
	return s.queries.DeleteComment(ctx, id)
}

// Resolve marks a thread resolved or reopens it. The thread's author may
// resolve their own; moderators may resolve any.
func (s *Service) Resolve(ctx context.Context, id, userID string, role model.Role, resolved bool) error {
	c, err := s.queries.GetComment(ctx, id)
	if err != nil {
		return err
	}
	if c.AuthorID != userID && !role.CanModerate() {
		return model.ErrPermissionDenied
	}
	return s.queries.SetCommentResolved(ctx, id, resolved)
}

// Pin floats a thread to the top of the page or drops it back. Moderators
// only.
func (s *Service) Pin(ctx context.Context, id string, role model.Role, pinned bool) error {
	if !role.CanModerate() {
		return model.ErrPermissionDenied
	}
	return s.queries.SetCommentPinned(ctx, id, pinned)
}

// Moderate hides a comment from default listings or unhides it.
// Moderators only.
func (s *Service) Moderate(ctx context.Context, id string, role model.Role, hidden bool) error {
	if !role.CanModerate() {
		return model.ErrPermissionDenied
	}
	return s.queries.SetCommentModerated(ctx, id, hidden)
}
