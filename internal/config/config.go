// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the application configuration from environment
// variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath     string `env:"LOREKEEP_DB_PATH" envDefault:"./data/lorekeep.db"`
	ServerHost string `env:"LOREKEEP_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"LOREKEEP_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"LOREKEEP_ENV" envDefault:"development"`
	LogLevel   string `env:"LOREKEEP_LOG_LEVEL" envDefault:"info"`

	// Blob store configuration. Type is "memory" or "file".
	BlobStoreType string `env:"LOREKEEP_BLOB_STORE" envDefault:"file"`
	BlobDir       string `env:"LOREKEEP_BLOB_DIR" envDefault:"./data/blobs"`

	// Discovery configuration
	WikiRoot       string   `env:"LOREKEEP_WIKI_ROOT" envDefault:"wiki"`
	KnownPrefixes  []string `env:"LOREKEEP_KNOWN_PREFIXES" envSeparator:","`
	KnownFiles     []string `env:"LOREKEEP_KNOWN_FILES" envSeparator:","`
	AlternateRoots []string `env:"LOREKEEP_ALTERNATE_ROOTS" envSeparator:","`

	// Cache configuration
	RedisURL     string `env:"LOREKEEP_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"LOREKEEP_CACHE_PREFIX" envDefault:"lk:"`     // Redis key prefix
	CacheTTL     int    `env:"LOREKEEP_CACHE_TTL" envDefault:"3600"`       // Default cache TTL in seconds
	CacheMaxSize int    `env:"LOREKEEP_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Live-entity registry configuration
	LiveRegistryURL string `env:"LOREKEEP_LIVE_REGISTRY_URL"` // Optional websocket URL; empty disables the overlay

	// Collaboration configuration
	HeartbeatSeconds    int      `env:"LOREKEEP_HEARTBEAT_SECONDS" envDefault:"30"`
	NotifyWorkers       int      `env:"LOREKEEP_NOTIFY_WORKERS" envDefault:"3"`
	NotifyRetentionDays int      `env:"LOREKEEP_NOTIFY_RETENTION_DAYS" envDefault:"30"`
	EventRetentionDays  int      `env:"LOREKEEP_EVENT_RETENTION_DAYS" envDefault:"90"`
	RateLimitPerSecond  int      `env:"LOREKEEP_RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst      int      `env:"LOREKEEP_RATE_LIMIT_BURST" envDefault:"40"`
	CORSAllowedOrigins  []string `env:"LOREKEEP_CORS_ORIGINS" envSeparator:","`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// LiveOverlayEnabled returns true if the live-entity registry is configured.
func (c Config) LiveOverlayEnabled() bool {
	return c.LiveRegistryURL != ""
}

// HeartbeatInterval returns the edit-session heartbeat interval.
func (c Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.HeartbeatSeconds) * time.Second
}

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	switch cfg.BlobStoreType {
	case "memory", "file":
	default:
		return nil, fmt.Errorf("LOREKEEP_BLOB_STORE must be memory or file, got %q", cfg.BlobStoreType)
	}

	cfg.WikiRoot = strings.Trim(cfg.WikiRoot, "/")
	if cfg.WikiRoot == "" {
		return nil, fmt.Errorf("LOREKEEP_WIKI_ROOT must not be empty")
	}

	if cfg.HeartbeatSeconds <= 0 {
		return nil, fmt.Errorf("LOREKEEP_HEARTBEAT_SECONDS must be positive, got %d", cfg.HeartbeatSeconds)
	}

	return cfg, nil
}
