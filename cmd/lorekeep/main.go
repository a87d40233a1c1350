// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/lorekeep/lorekeep/internal/blob"
	"github.com/lorekeep/lorekeep/internal/cache"
	"github.com/lorekeep/lorekeep/internal/comment"
	"github.com/lorekeep/lorekeep/internal/config"
	"github.com/lorekeep/lorekeep/internal/content"
	"github.com/lorekeep/lorekeep/internal/demo"
	"github.com/lorekeep/lorekeep/internal/discovery"
	"github.com/lorekeep/lorekeep/internal/handler/api"
	"github.com/lorekeep/lorekeep/internal/live"
	"github.com/lorekeep/lorekeep/internal/logging"
	"github.com/lorekeep/lorekeep/internal/middleware"
	"github.com/lorekeep/lorekeep/internal/notify"
	"github.com/lorekeep/lorekeep/internal/overlay"
	"github.com/lorekeep/lorekeep/internal/review"
	"github.com/lorekeep/lorekeep/internal/scheduler"
	"github.com/lorekeep/lorekeep/internal/session"
	"github.com/lorekeep/lorekeep/internal/store"
	"github.com/lorekeep/lorekeep/internal/wiki"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	seedDemo := flag.Bool("demo", false, "Seed the blob store with a sample wiki")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Lorekeep - community wiki core\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LOREKEEP_DB_PATH            SQLite database path (default: ./data/lorekeep.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LOREKEEP_SERVER_PORT        Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LOREKEEP_BLOB_STORE         Blob backend: file|memory (default: file)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LOREKEEP_BLOB_DIR           Blob directory for the file backend (default: ./data/blobs)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LOREKEEP_WIKI_ROOT          Root prefix of the page tree (default: wiki)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LOREKEEP_REDIS_URL          Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  LOREKEEP_LIVE_REGISTRY_URL  Live-entity registry websocket URL (optional)\n")
	}

	flag.Parse()

	if *showVersion {
		_, _ = fmt.Printf("lorekeep %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(*seedDemo); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(seedDemo bool) error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the event log
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	ctx := context.Background()

	// Blob store backend
	var blobs blob.Store
	switch cfg.BlobStoreType {
	case "memory":
		blobs = blob.NewMemoryStore()
		slog.Info("blob store initialized", "backend", "memory")
	default:
		fileStore, err := blob.NewFileStore(cfg.BlobDir)
		if err != nil {
			return fmt.Errorf("initializing blob store: %w", err)
		}
		blobs = fileStore
		slog.Info("blob store initialized", "backend", "file", "dir", cfg.BlobDir)
	}

	if seedDemo {
		if err := demo.Seed(ctx, blobs, logger); err != nil {
			return fmt.Errorf("seeding demo wiki: %w", err)
		}
	}

	// Content cache backend
	cacheConfig := cache.Config{
		Type:             "memory",
		RedisURL:         cfg.RedisURL,
		Prefix:           cfg.CachePrefix,
		DefaultTTL:       time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:          cfg.CacheMaxSize,
		CleanupInterval:  time.Minute,
		FallbackToMemory: true,
	}
	if cfg.UseRedisCache() {
		cacheConfig.Type = "redis"
	}
	cacher, err := cache.New(cacheConfig, logger)
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	slog.Info("cache initialized", "backend", cacheConfig.Type)

	contents := content.NewCache(blobs, cacher, logger)

	// Live-entity overlay, enabled only when a registry is configured
	var resolver *overlay.Resolver
	if cfg.LiveOverlayEnabled() {
		connManager := live.NewConnManager(cfg.LiveRegistryURL, logger)
		registry := live.NewWSRegistry(connManager, 5*time.Second)
		resolver = overlay.NewResolver(registry, logger)
		slog.Info("live overlay enabled", "url", cfg.LiveRegistryURL)
	}

	engine := discovery.NewEngine(blobs, discovery.Config{
		Root:           cfg.WikiRoot,
		KnownPrefixes:  cfg.KnownPrefixes,
		KnownFiles:     cfg.KnownFiles,
		AlternateRoots: cfg.AlternateRoots,
	}, logger)

	pages := wiki.NewService(blobs, contents, engine, resolver, db, logger)

	// Notification fan-out
	hub := notify.NewHub(db, logger, notify.Config{
		Workers:   cfg.NotifyWorkers,
		QueueSize: notify.DefaultConfig().QueueSize,
	})
	hub.Start(ctx)
	defer hub.Stop()
	slog.Info("notification hub started", "workers", cfg.NotifyWorkers)

	pages.SetNotifier(hub)

	sessions := session.NewManager(db, hub, cfg.HeartbeatInterval(), logger)
	reviews := review.NewWorkflow(db, pages, hub, logger)
	comments := comment.NewService(db, hub, logger)

	// Maintenance sweeps
	sched := scheduler.New(db, sessions, scheduler.Config{
		NotificationRetention: time.Duration(cfg.NotifyRetentionDays) * 24 * time.Hour,
		EventRetention:        time.Duration(cfg.EventRetentionDays) * 24 * time.Hour,
	}, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	apiHandler := api.NewHandler(pages, sessions, reviews, comments, hub, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
			AllowedHeaders:   []string{"Content-Type", middleware.HeaderUserID, middleware.HeaderUserName, middleware.HeaderRole},
			AllowCredentials: true,
			MaxAge:           300,
		}).Handler)
	}

	r.Use(middleware.Identity())
	r.Use(middleware.NewRateLimiter(float64(cfg.RateLimitPerSecond), cfg.RateLimitBurst).Middleware())

	r.Mount("/api/v1", apiHandler.Routes())
	slog.Info("REST API v1 mounted at /api/v1")

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
