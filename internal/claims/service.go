package claims

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/opensource-finance/adjudicator/internal/domain"
	"github.com/opensource-finance/adjudicator/internal/fraud"
	"github.com/opensource-finance/adjudicator/internal/metrics"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("adjudicator/claims")

// History supplies and invalidates the customer's prior settled claim count.
type History interface {
	SettledClaimCount(ctx context.Context, customerID int64) (int64, error)
	Invalidate(ctx context.Context, customerID int64)
}

// Publisher receives claim state changes. Delivery is fire-and-forget.
type Publisher interface {
	PublishClaim(ctx context.Context, eventType domain.EventType, c *domain.Claim)
}

// Service files claims and drives them through the lifecycle.
type Service struct {
	repo    domain.ClaimRepository
	scorer  *fraud.Scorer
	history History
	events  Publisher
	locker  domain.Locker
	metrics *metrics.Metrics
	clock   domain.Clock
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source used to stamp filing, assessment and settlement dates.
func WithClock(clock domain.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithPublisher sets where state changes are announced.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithLocker serialises transitions on the same claim across replicas.
func WithLocker(l domain.Locker) Option {
	return func(s *Service) { s.locker = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a claim service.
func NewService(repo domain.ClaimRepository, scorer *fraud.Scorer, history History, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		scorer:  scorer,
		history: history,
		clock:   domain.SystemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FileRequest carries a new claim. Fields are validated upstream.
type FileRequest struct {
	PolicyID            int64
	CustomerID          int64
	ClaimType           domain.ClaimType
	ClaimAmount         decimal.Decimal
	IncidentDate        time.Time
	IncidentDescription string
	IncidentLocation    string

	// FiledDate defaults to today.
	FiledDate *time.Time
}

// File scores a new claim for fraud and routes it to review or investigation.
func (s *Service) File(ctx context.Context, req FileRequest) (*domain.Claim, error) {
	ctx, span := tracer.Start(ctx, "claims.File", trace.WithAttributes(
		attribute.Int64("customer.id", req.CustomerID),
		attribute.Int64("policy.id", req.PolicyID),
	))
	defer span.End()

	filed := domain.DateOf(s.clock())
	if req.FiledDate != nil {
		filed = domain.DateOf(*req.FiledDate)
	}

	claim := &domain.Claim{
		PolicyID:            req.PolicyID,
		CustomerID:          req.CustomerID,
		ClaimType:           req.ClaimType,
		ClaimAmount:         req.ClaimAmount,
		Status:              domain.ClaimSubmitted,
		IncidentDate:        domain.DateOf(req.IncidentDate),
		IncidentDescription: req.IncidentDescription,
		IncidentLocation:    req.IncidentLocation,
		FiledDate:           filed,
	}

	if !Allowed(claim.Status, OpFile) {
		return nil, &domain.StateError{Entity: "claim", Operation: string(OpFile), Status: string(claim.Status)}
	}

	prior, err := s.history.SettledClaimCount(ctx, req.CustomerID)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("failed to look up claim history: %w", err))
	}

	assessment, err := s.scorer.Score(fraud.FactsFor(claim, prior))
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("failed to score claim: %w", err))
	}

	claim.FraudScore = assessment.Score
	claim.FraudRiskLevel = assessment.Level
	claim.Status = Route(assessment.Level)

	if err := s.repo.CreateClaim(ctx, claim); err != nil {
		return nil, s.fail(span, fmt.Errorf("failed to save claim: %w", err))
	}

	span.SetAttributes(
		attribute.String("claim.number", claim.ClaimNumber),
		attribute.Float64("fraud.score", claim.FraudScore),
		attribute.String("fraud.level", string(claim.FraudRiskLevel)),
	)

	slog.Info("claim filed",
		"claim_id", claim.ID,
		"claim_number", claim.ClaimNumber,
		"customer_id", claim.CustomerID,
		"prior_settled", prior,
		"fraud_score", claim.FraudScore,
		"fraud_level", claim.FraudRiskLevel,
		"status", claim.Status,
		"reasons", assessment.Reasons(),
	)

	s.metrics.RecordClaimFiled(string(claim.FraudRiskLevel), string(claim.Status), claim.FraudScore)
	s.publish(ctx, domain.EventClaimFiled, claim)

	return claim, nil
}

// ApproveRequest carries an adjuster's approval.
type ApproveRequest struct {
	ApprovedAmount decimal.Decimal
	Notes          string
	AdjusterID     *int64
}

// Approve approves a claim for payment. It fails with an invalid-state error when
// the claim is already APPROVED or SETTLED and with an invalid-amount error when
// the approved amount exceeds the claimed amount.
func (s *Service) Approve(ctx context.Context, id int64, req ApproveRequest) (*domain.Claim, error) {
	c, err := s.transition(ctx, id, OpApprove, func(c *domain.Claim, now time.Time) error {
		if req.ApprovedAmount.GreaterThan(c.ClaimAmount) {
			return &domain.AmountError{Approved: req.ApprovedAmount, Claimed: c.ClaimAmount}
		}
		assessed := domain.DateOf(now)
		c.ApprovedAmount = decimal.NullDecimal{Decimal: req.ApprovedAmount, Valid: true}
		c.AdjusterNotes = req.Notes
		c.AssessmentDate = &assessed
		if req.AdjusterID != nil {
			adjuster := *req.AdjusterID
			c.AssignedAdjusterID = &adjuster
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.EventClaimApproved, c)
	return c, nil
}

// Settle pays out an APPROVED claim.
func (s *Service) Settle(ctx context.Context, id int64) (*domain.Claim, error) {
	c, err := s.transition(ctx, id, OpSettle, func(c *domain.Claim, now time.Time) error {
		settled := domain.DateOf(now)
		c.SettlementDate = &settled
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The customer's settled count just changed.
	s.history.Invalidate(ctx, c.CustomerID)

	s.publish(ctx, domain.EventClaimSettled, c)
	return c, nil
}

// Reject rejects a claim from any status, including APPROVED and SETTLED.
func (s *Service) Reject(ctx context.Context, id int64, reason string) (*domain.Claim, error) {
	var wasSettled bool
	c, err := s.transition(ctx, id, OpReject, func(c *domain.Claim, now time.Time) error {
		wasSettled = c.Status == domain.ClaimSettled
		assessed := domain.DateOf(now)
		c.RejectionReason = reason
		c.AssessmentDate = &assessed
		return nil
	})
	if err != nil {
		return nil, err
	}

	if wasSettled {
		s.history.Invalidate(ctx, c.CustomerID)
	}

	s.publish(ctx, domain.EventClaimRejected, c)
	return c, nil
}

// transition applies op to the claim as one atomic read-check-write.
func (s *Service) transition(ctx context.Context, id int64, op Operation, apply func(c *domain.Claim, now time.Time) error) (*domain.Claim, error) {
	ctx, span := tracer.Start(ctx, "claims."+string(op), trace.WithAttributes(
		attribute.Int64("claim.id", id),
	))
	defer span.End()

	if s.locker != nil {
		unlock, err := s.locker.Lock(ctx, LockKey(id))
		if err != nil {
			s.metrics.RecordClaimTransition(string(op), metrics.OutcomeFor(err))
			return nil, s.fail(span, fmt.Errorf("failed to lock claim %d: %w", id, err))
		}
		defer unlock()
	}

	now := s.clock()
	var from domain.ClaimStatus
	updated, err := s.repo.UpdateClaim(ctx, id, func(c *domain.Claim) error {
		from = c.Status
		to, err := Next(c.Status, op)
		if err != nil {
			return err
		}
		if err := apply(c, now); err != nil {
			return err
		}
		c.Status = to
		return nil
	})
	s.metrics.RecordClaimTransition(string(op), metrics.OutcomeFor(err))
	if err != nil {
		slog.Debug("claim transition refused",
			"claim_id", id,
			"operation", op,
			"error", err,
		)
		return nil, s.fail(span, err)
	}

	slog.Info("claim transitioned",
		"claim_id", updated.ID,
		"claim_number", updated.ClaimNumber,
		"operation", op,
		"from", from,
		"to", updated.Status,
	)
	return updated, nil
}

// Get returns a claim by id.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Claim, error) {
	return s.repo.GetClaim(ctx, id)
}

// GetByNumber returns a claim by its claim number.
func (s *Service) GetByNumber(ctx context.Context, number string) (*domain.Claim, error) {
	return s.repo.GetClaimByNumber(ctx, number)
}

// ListByCustomer returns a customer's claims, newest first.
func (s *Service) ListByCustomer(ctx context.Context, customerID int64) ([]*domain.Claim, error) {
	return s.repo.ListClaimsByCustomer(ctx, customerID)
}

// ListByPolicy returns the claims filed under a policy, newest first.
func (s *Service) ListByPolicy(ctx context.Context, policyID int64) ([]*domain.Claim, error) {
	return s.repo.ListClaimsByPolicy(ctx, policyID)
}

// ListByStatus returns claims currently in status.
func (s *Service) ListByStatus(ctx context.Context, status domain.ClaimStatus) ([]*domain.Claim, error) {
	if !status.Valid() {
		return nil, domain.NewValidationError("status", "unknown claim status "+strconv.Quote(string(status)))
	}
	return s.repo.ListClaimsByStatus(ctx, status)
}

// LockKey names the lock guarding one claim.
func LockKey(id int64) string {
	return "claim:" + strconv.FormatInt(id, 10)
}

func (s *Service) publish(ctx context.Context, eventType domain.EventType, c *domain.Claim) {
	if s.events == nil {
		return
	}
	s.events.PublishClaim(ctx, eventType, c)
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
