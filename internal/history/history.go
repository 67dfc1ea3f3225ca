// Package history answers claim-history questions used during fraud scoring.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opensource-finance/adjudicator/internal/domain"
)

// DefaultTTL bounds how long a cached settled-claim count is served.
const DefaultTTL = 5 * time.Minute

// Counter is the repository slice the service reads from.
type Counter interface {
	CountSettledClaims(ctx context.Context, customerID int64) (int64, error)
}

// Service counts a customer's settled claims, caching the result.
type Service struct {
	repo  Counter
	cache domain.Cache
	ttl   time.Duration
}

// NewService creates a new history service. cache may be nil.
func NewService(repo Counter, cache domain.Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
	}
}

// CacheKey returns the cache key for a customer's settled-claim count.
func CacheKey(customerID int64) string {
	return "settled:" + strconv.FormatInt(customerID, 10)
}

// GenerationKey returns the key holding the customer's invalidation token.
// A cached count is only served while it carries the current token.
func GenerationKey(customerID int64) string {
	return "settled-gen:" + strconv.FormatInt(customerID, 10)
}

// SettledClaimCount returns the number of SETTLED claims the customer has.
// Cache failures fall through to the repository.
//
// The generation token is read before the repository, so a count computed
// while Invalidate runs is stored under the old token and never served.
func (s *Service) SettledClaimCount(ctx context.Context, customerID int64) (int64, error) {
	gen, cacheable := s.generation(ctx, customerID)
	if cacheable {
		if n, ok := s.cached(ctx, customerID, gen); ok {
			return n, nil
		}
	}

	count, err := s.repo.CountSettledClaims(ctx, customerID)
	if err != nil {
		return 0, fmt.Errorf("failed to count settled claims: %w", err)
	}

	if cacheable {
		value := gen + "|" + strconv.FormatInt(count, 10)
		if err := s.cache.Set(ctx, CacheKey(customerID), []byte(value), s.ttl); err != nil {
			slog.Warn("settled count cache write failed", "customer_id", customerID, "error", err)
		}
	}

	return count, nil
}

// generation returns the current token. The second result is false when the
// cache is absent or unreadable, in which case nothing is cached.
func (s *Service) generation(ctx context.Context, customerID int64) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	data, err := s.cache.Get(ctx, GenerationKey(customerID))
	if err != nil {
		slog.Warn("settled count cache read failed", "customer_id", customerID, "error", err)
		return "", false
	}
	return string(data), true
}

func (s *Service) cached(ctx context.Context, customerID int64, gen string) (int64, bool) {
	data, err := s.cache.Get(ctx, CacheKey(customerID))
	if err != nil {
		slog.Warn("settled count cache read failed", "customer_id", customerID, "error", err)
		return 0, false
	}
	if data == nil {
		return 0, false
	}

	tag, raw, found := strings.Cut(string(data), "|")
	if !found || tag != gen {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Invalidate retires every cached count for the customer after a claim settles.
// The new token outlives any count stored under the old one.
func (s *Service) Invalidate(ctx context.Context, customerID int64) {
	if s.cache == nil {
		return
	}
	token := uuid.New().String()
	if err := s.cache.Set(ctx, GenerationKey(customerID), []byte(token), 2*s.ttl); err != nil {
		slog.Warn("settled count cache invalidation failed", "customer_id", customerID, "error", err)
	}
	if err := s.cache.Delete(ctx, CacheKey(customerID)); err != nil {
		slog.Warn("settled count cache invalidation failed", "customer_id", customerID, "error", err)
	}
}
