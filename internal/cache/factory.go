// Copyright (c) 2026 Lorekeep Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"log/slog"
	"time"
)

// Config holds configuration for cache creation.
type Config struct {
	// Type is the cache backend type: "memory" or "redis"
	Type string

	// RedisURL is the Redis connection URL (only for redis type)
	RedisURL string

	// Prefix is the key prefix for Redis (only for redis type)
	Prefix string

	// DefaultTTL is the default TTL for cache entries (0 = no expiry)
	DefaultTTL time.Duration

	// MaxSize is the maximum number of entries for memory cache
	// (0 = unlimited; page corpora are small enough in practice)
	MaxSize int

	// CleanupInterval is the interval for expired entry cleanup
	CleanupInterval time.Duration

	// FallbackToMemory falls back to a memory cache when Redis is
	// configured but unreachable.
	FallbackToMemory bool
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		Type:            "memory",
		CleanupInterval: time.Minute,
	}
}

// New creates a cache based on the provided configuration.
func New(cfg Config, logger *slog.Logger) (Cacher, error) {
	if cfg.Type == "redis" && cfg.RedisURL != "" {
		redisOpts := DefaultRedisCacheOptions()
		redisOpts.URL = cfg.RedisURL
		if cfg.Prefix != "" {
			redisOpts.Prefix = cfg.Prefix
		}
		if cfg.DefaultTTL > 0 {
			redisOpts.DefaultTTL = cfg.DefaultTTL
		}

		c, err := NewRedisCache(redisOpts)
		if err == nil {
			return c, nil
		}
		if !cfg.FallbackToMemory {
			return nil, err
		}
		if logger != nil {
			logger.Warn("redis cache unavailable, falling back to memory", "error", err)
		}
	}

	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: cfg.CleanupInterval,
	}), nil
}
