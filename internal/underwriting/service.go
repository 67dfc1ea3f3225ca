package underwriting

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/opensource-finance/adjudicator/internal/domain"
	"github.com/opensource-finance/adjudicator/internal/metrics"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("adjudicator/underwriting")

// Publisher receives case changes. Delivery is fire-and-forget.
type Publisher interface {
	PublishCase(ctx context.Context, eventType domain.EventType, uc *domain.UnderwritingCase)
}

// Service creates and reviews underwriting cases.
type Service struct {
	repo    domain.UnderwritingRepository
	engine  *Engine
	events  Publisher
	metrics *metrics.Metrics
}

// NewService creates an underwriting service. events and m may be nil.
func NewService(repo domain.UnderwritingRepository, engine *Engine, events Publisher, m *metrics.Metrics) *Service {
	return &Service{
		repo:    repo,
		engine:  engine,
		events:  events,
		metrics: m,
	}
}

// CreateRequest carries a new case.
type CreateRequest struct {
	PolicyID    int64
	CustomerID  int64
	BasePremium decimal.NullDecimal
}

// Create evaluates and stores a new case with its automated decision.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.UnderwritingCase, error) {
	ctx, span := tracer.Start(ctx, "underwriting.Create", trace.WithAttributes(
		attribute.Int64("policy.id", req.PolicyID),
		attribute.Int64("customer.id", req.CustomerID),
	))
	defer span.End()

	ev := s.engine.Evaluate(Facts{
		PolicyID:    req.PolicyID,
		CustomerID:  req.CustomerID,
		BasePremium: req.BasePremium,
	})

	uc := &domain.UnderwritingCase{
		PolicyID:           req.PolicyID,
		CustomerID:         req.CustomerID,
		RiskScore:          ev.RiskScore,
		RiskLevel:          ev.RiskLevel,
		Decision:           ev.Decision,
		BasePremium:        req.BasePremium,
		RecommendedPremium: ev.RecommendedPremium,
	}

	if err := s.repo.CreateCase(ctx, uc); err != nil {
		err = fmt.Errorf("failed to save underwriting case: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("case.number", uc.CaseNumber),
		attribute.String("risk.level", string(uc.RiskLevel)),
		attribute.String("decision", string(uc.Decision)),
	)

	slog.Info("underwriting case created",
		"case_id", uc.ID,
		"case_number", uc.CaseNumber,
		"policy_id", uc.PolicyID,
		"risk_score", uc.RiskScore,
		"risk_level", uc.RiskLevel,
		"decision", uc.Decision,
		"recommended_premium", uc.RecommendedPremium.StringFixed(2),
	)

	s.metrics.RecordCaseCreated(string(uc.RiskLevel), string(uc.Decision))
	s.publish(ctx, domain.EventCaseCreated, uc)
	return uc, nil
}

// ReviewRequest carries a manual review.
type ReviewRequest struct {
	Decision      domain.Decision
	Notes         string
	UnderwriterID *int64
}

// Review overwrites the decision and notes regardless of the current decision.
// Only the decision value itself is checked.
func (s *Service) Review(ctx context.Context, id int64, req ReviewRequest) (*domain.UnderwritingCase, error) {
	ctx, span := tracer.Start(ctx, "underwriting.Review", trace.WithAttributes(
		attribute.Int64("case.id", id),
		attribute.String("decision", string(req.Decision)),
	))
	defer span.End()

	if !req.Decision.Valid() {
		err := domain.NewValidationError("decision", "unknown decision "+strconv.Quote(string(req.Decision)))
		span.RecordError(err)
		return nil, err
	}

	var previous domain.Decision
	uc, err := s.repo.UpdateCase(ctx, id, func(c *domain.UnderwritingCase) error {
		previous = c.Decision
		c.Decision = req.Decision
		c.UnderwriterNotes = req.Notes
		if req.UnderwriterID != nil {
			underwriter := *req.UnderwriterID
			c.AssignedUnderwriterID = &underwriter
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	slog.Info("underwriting case reviewed",
		"case_id", uc.ID,
		"case_number", uc.CaseNumber,
		"from", previous,
		"to", uc.Decision,
	)

	s.metrics.RecordCaseReviewed(string(uc.Decision))
	s.publish(ctx, domain.EventCaseReviewed, uc)
	return uc, nil
}

// Get returns a case by id.
func (s *Service) Get(ctx context.Context, id int64) (*domain.UnderwritingCase, error) {
	return s.repo.GetCase(ctx, id)
}

// ListByPolicy returns a policy's cases, newest first.
func (s *Service) ListByPolicy(ctx context.Context, policyID int64) ([]*domain.UnderwritingCase, error) {
	return s.repo.ListCasesByPolicy(ctx, policyID)
}

func (s *Service) publish(ctx context.Context, eventType domain.EventType, uc *domain.UnderwritingCase) {
	if s.events == nil {
		return
	}
	s.events.PublishCase(ctx, eventType, uc)
}
