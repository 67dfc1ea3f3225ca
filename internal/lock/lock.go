// Package lock serialises work on a single record across goroutines or nodes.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/opensource-finance/adjudicator/internal/domain"
	"github.com/redis/go-redis/v9"
)

// New creates a locker based on configuration. client is required for "redis" only.
func New(cfg domain.LockConfig, client *redis.Client) (domain.Locker, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalLocker(), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis locker requires a redis client")
		}
		return NewRedisLocker(client, cfg), nil
	default:
		return nil, fmt.Errorf("unsupported lock type: %s", cfg.Type)
	}
}

// LocalLocker holds per-key locks inside one process.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker creates an in-process locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

// Lock blocks until key is free or ctx ends.
func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, s)
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrLockNotObtained, key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.release(key, s)
		})
	}, nil
}

func (l *LocalLocker) release(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// RedisLocker holds per-key locks across nodes with Redis leases.
type RedisLocker struct {
	client   *redislock.Client
	ttl      time.Duration
	strategy redislock.RetryStrategy
}

// NewRedisLocker creates a Redis-backed locker.
func NewRedisLocker(client *redis.Client, cfg domain.LockConfig) *RedisLocker {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	interval := cfg.RetryInterval
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 100
	}

	return &RedisLocker{
		client:   redislock.New(client),
		ttl:      ttl,
		strategy: redislock.LimitRetry(redislock.LinearBackoff(interval), retries),
	}
}

// Lock obtains a lease on key, retrying per the configured strategy.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lease, err := l.client.Obtain(ctx, "adjudicator:lock:"+key, l.ttl, &redislock.Options{
		RetryStrategy: l.strategy,
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", domain.ErrLockNotObtained, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}

	return func() {
		// The lease may already have expired; Release reports that as ErrLockNotHeld.
		if err := lease.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			slog.Warn("failed to release lock", "key", key, "error", err)
		}
	}, nil
}
