// Package cache provides the in-process, Redis and two-phase caches.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/opensource-finance/adjudicator/internal/domain"
	"github.com/redis/go-redis/v9"
)

// New creates a cache based on configuration.
// "memory" returns a MemoryCache. "redis" returns a RedisCache, or a
// TwoPhaseCache over MemoryCache and Redis when two-phase is enabled.
// client is required for "redis" only.
func New(cfg domain.CacheConfig, client *redis.Client) (domain.Cache, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryCache(cfg.LocalTTL, cfg.LocalCleanup), nil

	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis cache requires a redis client")
		}
		remote := NewRedisCache(client)
		if cfg.EnableTwoPhase {
			return NewTwoPhaseCache(NewMemoryCache(cfg.LocalTTL, cfg.LocalCleanup), remote, cfg.LocalTTL), nil
		}
		return remote, nil

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.Type)
	}
}

// TwoPhaseCache implements the two-phase caching strategy.
// L1: local memory cache for fast reads
// L2: shared cache for consistency across nodes
type TwoPhaseCache struct {
	local  domain.Cache
	remote domain.Cache
	l1TTL  time.Duration
}

// NewTwoPhaseCache layers local over remote. Local entries live at most l1TTL.
func NewTwoPhaseCache(local, remote domain.Cache, l1TTL time.Duration) *TwoPhaseCache {
	if l1TTL <= 0 {
		l1TTL = 30 * time.Second
	}
	return &TwoPhaseCache{
		local:  local,
		remote: remote,
		l1TTL:  l1TTL,
	}
}

// Get retrieves from L1 first, then L2. Populates L1 on L2 hit.
func (c *TwoPhaseCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.local.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if val != nil {
		return val, nil
	}

	val, err = c.remote.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if val != nil {
		_ = c.local.Set(ctx, key, val, c.l1TTL)
	}

	return val, nil
}

// Set writes to both L1 and L2.
func (c *TwoPhaseCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	l1TTL := c.l1TTL
	if ttl > 0 && ttl < l1TTL {
		l1TTL = ttl
	}
	if err := c.local.Set(ctx, key, value, l1TTL); err != nil {
		return err
	}
	return c.remote.Set(ctx, key, value, ttl)
}

// Delete removes from both L1 and L2.
func (c *TwoPhaseCache) Delete(ctx context.Context, key string) error {
	if err := c.local.Delete(ctx, key); err != nil {
		return err
	}
	return c.remote.Delete(ctx, key)
}

// Ping checks both L1 and L2 health.
func (c *TwoPhaseCache) Ping(ctx context.Context) error {
	if err := c.local.Ping(ctx); err != nil {
		return fmt.Errorf("L1 ping failed: %w", err)
	}
	if err := c.remote.Ping(ctx); err != nil {
		return fmt.Errorf("L2 ping failed: %w", err)
	}
	return nil
}

// Close closes both L1 and L2.
func (c *TwoPhaseCache) Close() error {
	_ = c.local.Close()
	return c.remote.Close()
}
