// Package events announces claim, underwriting and policy state changes on the bus.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/opensource-finance/adjudicator/internal/domain"
	"github.com/opensource-finance/adjudicator/internal/metrics"
	"github.com/shopspring/decimal"
)

// DefaultSource is stamped on events when no source is configured.
const DefaultSource = "adjudicator"

// Publisher builds InsuranceEvents and publishes them.
// Failures are logged and counted, never returned: a state change that
// has been committed is not rolled back because its announcement failed.
type Publisher struct {
	bus     domain.EventBus
	metrics *metrics.Metrics
	source  string
	clock   domain.Clock
}

// NewPublisher creates a publisher. m may be nil.
func NewPublisher(bus domain.EventBus, m *metrics.Metrics, source string, clock domain.Clock) *Publisher {
	if source == "" {
		source = DefaultSource
	}
	if clock == nil {
		clock = domain.SystemClock
	}
	return &Publisher{
		bus:     bus,
		metrics: m,
		source:  source,
		clock:   clock,
	}
}

// PublishClaim announces a claim state change on TopicClaimEvents.
func (p *Publisher) PublishClaim(ctx context.Context, eventType domain.EventType, c *domain.Claim) {
	ev := p.envelope(eventType, c.CustomerID)
	ev.PolicyID = c.PolicyID
	ev.ClaimID = c.ID
	ev.ClaimNumber = c.ClaimNumber
	ev.ClaimStatus = c.Status
	ev.ClaimAmount = decimalPtr(c.ClaimAmount)
	if c.ApprovedAmount.Valid {
		ev.ApprovedAmount = decimalPtr(c.ApprovedAmount.Decimal)
	}
	score := c.FraudScore
	ev.FraudScore = &score
	ev.FraudRiskLevel = c.FraudRiskLevel
	if c.RejectionReason != "" {
		ev.AdditionalInfo = map[string]string{"rejectionReason": c.RejectionReason}
	}

	p.send(ctx, domain.TopicClaimEvents, c.ID, ev)
}

// PublishCase announces an underwriting case change on TopicUnderwritingEvents.
func (p *Publisher) PublishCase(ctx context.Context, eventType domain.EventType, uc *domain.UnderwritingCase) {
	ev := p.envelope(eventType, uc.CustomerID)
	ev.PolicyID = uc.PolicyID
	ev.CaseID = uc.ID
	ev.CaseNumber = uc.CaseNumber
	score := uc.RiskScore
	ev.RiskScore = &score
	ev.RiskLevel = uc.RiskLevel
	ev.Decision = uc.Decision
	ev.RecommendedPremium = decimalPtr(uc.RecommendedPremium)

	p.send(ctx, domain.TopicUnderwritingEvents, uc.ID, ev)
}

// PublishPolicy announces a policy change on TopicPolicyEvents.
func (p *Publisher) PublishPolicy(ctx context.Context, eventType domain.EventType, pol *domain.Policy) {
	ev := p.envelope(eventType, pol.CustomerID)
	ev.PolicyID = pol.ID
	ev.PolicyNumber = pol.PolicyNumber
	ev.PolicyStatus = pol.Status
	ev.Premium = decimalPtr(pol.Premium)
	if pol.CancellationReason != "" {
		ev.AdditionalInfo = map[string]string{"cancellationReason": pol.CancellationReason}
	}

	p.send(ctx, domain.TopicPolicyEvents, pol.ID, ev)
}

func (p *Publisher) envelope(eventType domain.EventType, customerID int64) *domain.InsuranceEvent {
	return &domain.InsuranceEvent{
		EventID:    uuid.New().String(),
		EventType:  eventType,
		Timestamp:  p.clock(),
		Source:     p.source,
		CustomerID: customerID,
	}
}

func (p *Publisher) send(ctx context.Context, topic string, aggregateID int64, ev *domain.InsuranceEvent) {
	payload, err := json.Marshal(ev)
	if err == nil {
		err = p.bus.Publish(ctx, topic, strconv.FormatInt(aggregateID, 10), payload)
	}
	p.metrics.RecordEventPublished(topic, err)

	if err != nil {
		slog.Warn("failed to publish event",
			"topic", topic,
			"event_type", ev.EventType,
			"event_id", ev.EventID,
			"error", err,
		)
		return
	}

	slog.Debug("event published",
		"topic", topic,
		"event_type", ev.EventType,
		"event_id", ev.EventID,
	)
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}
