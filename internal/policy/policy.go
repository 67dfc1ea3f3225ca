// Package policy administers insurance policies.
package policy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/opensource-finance/adjudicator/internal/domain"
	"github.com/opensource-finance/adjudicator/internal/metrics"
	"github.com/shopspring/decimal"
)

// DefaultCacheTTL bounds how long a cached policy is served.
const DefaultCacheTTL = 10 * time.Minute

// Operation names a policy operation.
type Operation string

const (
	OpCreate   Operation = "create"
	OpActivate Operation = "activate"
	OpRenew    Operation = "renew"
	OpCancel   Operation = "cancel"
)

// Publisher receives policy changes. Delivery is fire-and-forget.
type Publisher interface {
	PublishPolicy(ctx context.Context, eventType domain.EventType, p *domain.Policy)
}

// Service creates and maintains policies.
type Service struct {
	repo    domain.PolicyRepository
	cache   domain.Cache
	ttl     time.Duration
	events  Publisher
	metrics *metrics.Metrics
}

// NewService creates a policy service. cache, events and m may be nil.
func NewService(repo domain.PolicyRepository, cache domain.Cache, ttl time.Duration, events Publisher, m *metrics.Metrics) *Service {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Service{
		repo:    repo,
		cache:   cache,
		ttl:     ttl,
		events:  events,
		metrics: m,
	}
}

// CacheKey returns the cache key for a policy.
func CacheKey(id int64) string {
	return "policy:" + strconv.FormatInt(id, 10)
}

// CreateRequest carries a new policy. Fields are validated upstream.
type CreateRequest struct {
	CustomerID       int64
	ProductType      domain.ProductType
	Premium          decimal.Decimal
	CoverageAmount   decimal.Decimal
	StartDate        time.Time
	EndDate          time.Time
	Description      string
	Beneficiary      string
	PaymentFrequency domain.PaymentFrequency
}

// Create stores a new DRAFT policy.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Policy, error) {
	start := domain.DateOf(req.StartDate)
	end := domain.DateOf(req.EndDate)
	if !end.After(start) {
		s.metrics.RecordPolicyOperation(string(OpCreate), metrics.OutcomeValidation)
		return nil, domain.NewValidationError("endDate", "must be after startDate")
	}

	p := &domain.Policy{
		CustomerID:       req.CustomerID,
		ProductType:      req.ProductType,
		Premium:          req.Premium,
		CoverageAmount:   req.CoverageAmount,
		StartDate:        start,
		EndDate:          end,
		Status:           domain.PolicyDraft,
		Description:      req.Description,
		Beneficiary:      req.Beneficiary,
		PaymentFrequency: req.PaymentFrequency,
	}

	if err := s.repo.CreatePolicy(ctx, p); err != nil {
		s.metrics.RecordPolicyOperation(string(OpCreate), metrics.OutcomeFor(err))
		return nil, fmt.Errorf("failed to save policy: %w", err)
	}

	slog.Info("policy created",
		"policy_id", p.ID,
		"policy_number", p.PolicyNumber,
		"customer_id", p.CustomerID,
		"product_type", p.ProductType,
	)

	s.metrics.RecordPolicyOperation(string(OpCreate), metrics.OutcomeOK)
	s.publish(ctx, domain.EventPolicyCreated, p)
	return p, nil
}

// Get returns a policy by id, served from cache when present.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Policy, error) {
	key := CacheKey(id)

	if s.cache != nil {
		data, err := s.cache.Get(ctx, key)
		if err != nil {
			slog.Warn("policy cache read failed", "policy_id", id, "error", err)
		} else if data != nil {
			var p domain.Policy
			if err := json.Unmarshal(data, &p); err == nil {
				return &p, nil
			}
		}
	}

	p, err := s.repo.GetPolicy(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(p); err == nil {
			if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
				slog.Warn("policy cache write failed", "policy_id", id, "error", err)
			}
		}
	}

	return p, nil
}

// ListByCustomer returns a customer's policies, newest first.
func (s *Service) ListByCustomer(ctx context.Context, customerID int64) ([]*domain.Policy, error) {
	return s.repo.ListPoliciesByCustomer(ctx, customerID)
}

// Activate puts a policy in force.
func (s *Service) Activate(ctx context.Context, id int64) (*domain.Policy, error) {
	return s.apply(ctx, id, OpActivate, domain.EventPolicyActivated, func(p *domain.Policy) {
		p.Status = domain.PolicyActive
	})
}

// Renew extends the policy's end date by one calendar year.
func (s *Service) Renew(ctx context.Context, id int64) (*domain.Policy, error) {
	return s.apply(ctx, id, OpRenew, domain.EventPolicyRenewed, func(p *domain.Policy) {
		p.EndDate = addYears(p.EndDate, 1)
	})
}

// addYears moves t forward n years, keeping it in the same month.
// Feb 29 lands on Feb 28 when the target year is not a leap year.
func addYears(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	if last := time.Date(y+n, m+1, 0, 0, 0, 0, 0, t.Location()).Day(); d > last {
		d = last
	}
	return time.Date(y+n, m, d, hh, mm, ss, t.Nanosecond(), t.Location())
}

// Cancel cancels the policy, recording reason.
func (s *Service) Cancel(ctx context.Context, id int64, reason string) (*domain.Policy, error) {
	return s.apply(ctx, id, OpCancel, domain.EventPolicyCancelled, func(p *domain.Policy) {
		p.Status = domain.PolicyCancelled
		p.CancellationReason = reason
	})
}

// apply mutates a policy atomically. A CANCELLED policy accepts no further operations.
func (s *Service) apply(ctx context.Context, id int64, op Operation, eventType domain.EventType, mutate func(p *domain.Policy)) (*domain.Policy, error) {
	p, err := s.repo.UpdatePolicy(ctx, id, func(p *domain.Policy) error {
		if p.Status == domain.PolicyCancelled {
			return &domain.StateError{Entity: "policy", Operation: string(op), Status: string(p.Status)}
		}
		mutate(p)
		return nil
	})
	s.metrics.RecordPolicyOperation(string(op), metrics.OutcomeFor(err))
	if err != nil {
		return nil, err
	}

	s.evict(ctx, id)

	slog.Info("policy updated",
		"policy_id", p.ID,
		"policy_number", p.PolicyNumber,
		"operation", op,
		"status", p.Status,
		"end_date", p.EndDate.Format(time.DateOnly),
	)

	s.publish(ctx, eventType, p)
	return p, nil
}

func (s *Service) evict(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, CacheKey(id)); err != nil {
		slog.Warn("policy cache eviction failed", "policy_id", id, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, eventType domain.EventType, p *domain.Policy) {
	if s.events == nil {
		return
	}
	s.events.PublishPolicy(ctx, eventType, p)
}
