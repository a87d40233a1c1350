// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package wiki ties the read and write paths together: a lazily built
// page tree from discovery, single-page reads through the content cache
// and live overlay, and saves that pair a blob write with a new revision.
package wiki

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lorekeep/lorekeep/internal/blob"
	"github.com/lorekeep/lorekeep/internal/content"
	"github.com/lorekeep/lorekeep/internal/discovery"
	"github.com/lorekeep/lorekeep/internal/frontmatter"
	"github.com/lorekeep/lorekeep/internal/model"
	"github.com/lorekeep/lorekeep/internal/notify"
	"github.com/lorekeep/lorekeep/internal/overlay"
	"github.com/lorekeep/lorekeep/internal/store"
	"github.com/lorekeep/lorekeep/internal/util"
)

// Frontmatter keys the save path maintains.
const (
	keyTitle       = "title"
	keyStatus      = "status"
	keyDescription = "description"
	keyTags        = "tags"
)

// Service is the page service.
type Service struct {
	blobs    blob.Store
	contents *content.Cache
	engine   *discovery.Engine
	resolver *overlay.Resolver
	db       *sql.DB
	queries  *store.Queries
	hub      *notify.Hub
	logger   *slog.Logger
}

// NewService wires the page service. The resolver may be nil when the
// live overlay is disabled.
func NewService(blobs blob.Store, contents *content.Cache, engine *discovery.Engine,
	resolver *overlay.Resolver, db *sql.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		blobs:    blobs,
		contents: contents,
		engine:   engine,
		resolver: resolver,
		db:       db,
		queries:  store.New(db),
		logger:   logger,
	}
}

// SetNotifier wires the notification hub. Without one, publish events are
// simply not announced.
func (s *Service) SetNotifier(hub *notify.Hub) {
	s.hub = hub
}

// GetTree discovers the page hierarchy. Pages come back as stubs built
// from their paths alone: no blob is fetched or decoded until a page is
// opened, so listing a large wiki stays cheap.
func (s *Service) GetTree(ctx context.Context) (*model.Category, error) {
	tree := s.engine.Discover(ctx)
	return s.categoryFor(tree.Root), nil
}

func (s *Service) categoryFor(n *discovery.Node) *model.Category {
	cat := &model.Category{
		ID:    n.Path,
		Title: humanize(n.Name),
	}
	for _, child := range n.Children {
		if child.IsFolder() {
			cat.Children = append(cat.Children, s.categoryFor(child))
			continue
		}
		cat.Pages = append(cat.Pages, stub(child))
	}
	return cat
}

// stub builds the tree-listing view of one page from its path. Title,
// description and the rest of the frontmatter hydrate on open.
func stub(n *discovery.Node) *model.Page {
	name := strings.TrimSuffix(n.Name, ".md")
	return &model.Page{
		ID:         n.Path,
		Title:      humanize(name),
		Slug:       util.Slugify(name),
		Status:     model.PageStatusPublished,
		CategoryID: util.ParentPath(n.Path),
	}
}

// PageView is a fully opened page: metadata, display body after the live
// overlay, and the snapshot when one applied.
type PageView struct {
	Page     *model.Page       `json:"page"`
	Body     string            `json:"body"`
	Snapshot any               `json:"snapshot,omitempty"`
	Meta     map[string]string `json:"meta,omitempty"`
}

// GetPage opens one page: content cache, then live overlay.
func (s *Service) GetPage(ctx context.Context, path string) (*PageView, error) {
	c, err := s.contents.Get(ctx, path)
	if err != nil {
		return nil, err
	}

	page := &model.Page{
		ID:         path,
		Title:      c.Meta.GetDefault(keyTitle, humanize(strings.TrimSuffix(util.BaseName(path), ".md"))),
		Slug:       util.Slugify(strings.TrimSuffix(util.BaseName(path), ".md")),
		Body:       c.Body,
		Status:     c.Meta.GetDefault(keyStatus, model.PageStatusPublished),
		CategoryID: util.ParentPath(path),
	}
	if desc := c.Meta.GetDefault(keyDescription, ""); desc != "" {
		page.Description = desc
	} else {
		page.Description = content.Excerpt(c.Body, content.DefaultExcerptLength)
	}
	if tags := c.Meta.GetDefault(keyTags, ""); tags != "" {
		page.Tags = splitTags(tags)
	}

	view := &PageView{Page: page, Body: c.Body}
	if s.resolver != nil {
		result := s.resolver.Resolve(ctx, c)
		view.Body = result.Body
		if result.Snapshot != nil {
			view.Snapshot = result.Snapshot
		}
	}

	meta := make(map[string]string, c.Meta.Len())
	for _, k := range c.Meta.Keys() {
		v, _ := c.Meta.Get(k)
		meta[k] = v
	}
	view.Meta = meta
	return view, nil
}

// SaveRequest carries one page save.
type SaveRequest struct {
	Path     string
	Title    string
	Body     string
	Status   string
	AuthorID string
	Comment  string
	// Create requires the path to be unused.
	Create bool
}

// Save writes the page and records a revision as one unit: the revision
// row commits only after the blob write lands, and a failed blob write
// rolls the revision back. Frontmatter keys not managed by the save
// (live-overlay flags and the like) carry over from the previous content.
func (s *Service) Save(ctx context.Context, req SaveRequest) (model.Revision, error) {
	return s.SaveWith(ctx, req, nil)
}

// SaveWith is Save with extra store work joined to the revision
// transaction: fn runs against the same transaction before the blob
// write, so its changes commit or roll back together with the revision.
func (s *Service) SaveWith(ctx context.Context, req SaveRequest, fn func(q *store.Queries) error) (model.Revision, error) {
	meta := frontmatter.New()
	if !req.Create {
		if prev, err := s.contents.Get(ctx, req.Path); err == nil {
			meta = prev.Meta
		} else if !errors.Is(err, model.ErrNotFound) {
			return model.Revision{}, err
		}
	}
	prevStatus := meta.GetDefault(keyStatus, "")

	// An omitted status keeps the page where it was; only a page without
	// history falls back to draft.
	if req.Status == "" {
		req.Status = prevStatus
		if req.Status == "" {
			req.Status = model.PageStatusDraft
		}
	}
	meta.Set(keyTitle, req.Title)
	meta.Set(keyStatus, req.Status)
	encoded := frontmatter.Encode(meta, req.Body)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Revision{}, fmt.Errorf("beginning save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)
	if fn != nil {
		if err := fn(qtx); err != nil {
			return model.Revision{}, err
		}
	}

	rev, err := qtx.CreateRevision(ctx, store.CreateRevisionParams{
		PageID:   req.Path,
		Title:    req.Title,
		Body:     req.Body,
		Status:   req.Status,
		AuthorID: req.AuthorID,
		Comment:  req.Comment,
	})
	if err != nil {
		return model.Revision{}, fmt.Errorf("recording revision: %w", err)
	}

	if err := s.blobs.Put(ctx, req.Path, []byte(encoded), !req.Create); err != nil {
		if errors.Is(err, blob.ErrAlreadyExists) {
			return model.Revision{}, fmt.Errorf("page %q: %w", req.Path, model.ErrInvalidState)
		}
		return model.Revision{}, fmt.Errorf("writing %q: %w: %w", req.Path, model.ErrUpstreamUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return model.Revision{}, fmt.Errorf("committing save: %w", err)
	}

	s.contents.Invalidate(ctx, req.Path)
	s.logger.Info("page saved", "path", req.Path, "revision", rev.RevisionNumber, "author", req.AuthorID)

	if s.hub != nil && req.Status == model.PageStatusPublished && prevStatus != model.PageStatusPublished {
		s.hub.Publish(notify.Event{
			Type:    model.NotifyPagePublished,
			PageID:  req.Path,
			ActorID: req.AuthorID,
			Title:   "Page published",
			Message: fmt.Sprintf("%q is now published", req.Title),
		})
	}
	return rev, nil
}

// Delete removes a page blob and closes every open edit session on it.
// Revisions stay: the history of a deleted page remains inspectable.
func (s *Service) Delete(ctx context.Context, path string) error {
	if err := s.blobs.Delete(ctx, path); err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return fmt.Errorf("page %q: %w", path, model.ErrNotFound)
		}
		return fmt.Errorf("deleting %q: %w: %w", path, model.ErrUpstreamUnavailable, err)
	}
	s.contents.Invalidate(ctx, path)

	ended, err := s.queries.EndSessionsForPage(ctx, path)
	if err != nil {
		s.logger.Error("ending sessions for deleted page failed", "path", path, "error", err)
	} else if ended > 0 {
		s.logger.Info("ended sessions on deleted page", "path", path, "sessions", ended)
	}
	return nil
}

// ListRevisions returns a page's history, newest first.
func (s *Service) ListRevisions(ctx context.Context, path string) ([]model.Revision, error) {
	return s.queries.ListRevisions(ctx, path)
}

// GetRevision returns one numbered revision.
func (s *Service) GetRevision(ctx context.Context, path string, number int64) (model.Revision, error) {
	return s.queries.GetRevision(ctx, path, number)
}

// Restore copies an old revision's content into a new head revision.
// History never rewinds: restoring revision 3 of a five-revision page
// produces revision 6.
func (s *Service) Restore(ctx context.Context, path string, number int64, authorID string) (model.Revision, error) {
	old, err := s.queries.GetRevision(ctx, path, number)
	if err != nil {
		return model.Revision{}, err
	}
	return s.Save(ctx, SaveRequest{
		Path:     path,
		Title:    old.Title,
		Body:     old.Body,
		Status:   old.Status,
		AuthorID: authorID,
		Comment:  fmt.Sprintf("restored from revision %d", number),
	})
}

// humanize turns a path segment into a display title.
func humanize(name string) string {
	name = strings.ReplaceAll(name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	return strings.TrimSpace(name)
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
