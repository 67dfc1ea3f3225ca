package domain

import (
	"context"
	"time"
)

// Cache defines the interface for caching operations.
// Supports two-phase caching: local memory + Redis.
type Cache interface {
	// Get retrieves a value from cache.
	// Returns nil, nil if key not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache.
	Delete(ctx context.Context, key string) error

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// CacheConfig holds configuration for cache initialization.
type CacheConfig struct {
	// Type is the cache type: "memory" or "redis"
	Type string `yaml:"type" mapstructure:"type"`

	// Local cache settings
	LocalTTL     time.Duration `yaml:"local_ttl" mapstructure:"local_ttl"`
	LocalCleanup time.Duration `yaml:"local_cleanup" mapstructure:"local_cleanup"`

	// Two-phase settings
	EnableTwoPhase bool `yaml:"enable_two_phase" mapstructure:"enable_two_phase"` // If true, check local first, then Redis

	// Entry lifetimes per cached concern
	PolicyTTL       time.Duration `yaml:"policy_ttl" mapstructure:"policy_ttl"`
	SettledCountTTL time.Duration `yaml:"settled_count_ttl" mapstructure:"settled_count_ttl"`
}

// RedisConfig holds the Redis connection shared by the cache and the locker.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}
