// Package metrics exposes Prometheus instruments for adjudication outcomes.
// Every method is safe to call on a nil *Metrics.
package metrics

import (
	"errors"
	"time"

	"github.com/opensource-finance/adjudicator/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeOK            = "ok"
	OutcomeNotFound      = "not_found"
	OutcomeInvalidState  = "invalid_state"
	OutcomeInvalidAmount = "invalid_amount"
	OutcomeValidation    = "validation"
	OutcomeConflict      = "conflict"
	OutcomeError         = "error"
)

// OutcomeFor classifies err for use as a label value.
func OutcomeFor(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, domain.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, domain.ErrInvalidState):
		return OutcomeInvalidState
	case errors.Is(err, domain.ErrInvalidAmount):
		return OutcomeInvalidAmount
	case errors.Is(err, domain.ErrValidation):
		return OutcomeValidation
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrLockNotObtained):
		return OutcomeConflict
	default:
		return OutcomeError
	}
}

// Metrics holds the adjudicator's instruments.
type Metrics struct {
	ClaimsFiled         *prometheus.CounterVec
	FraudScore          prometheus.Histogram
	ClaimTransitions    *prometheus.CounterVec
	UnderwritingCases   *prometheus.CounterVec
	CaseReviews         *prometheus.CounterVec
	PolicyOperations    *prometheus.CounterVec
	EventsPublished     *prometheus.CounterVec
	IntakeMessages      *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New registers all instruments with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ClaimsFiled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "adjudicator_claims_filed_total",
			Help: "Claims filed, by fraud tier and landing status",
		}, []string{"fraud_level", "status"}),
		FraudScore: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "adjudicator_fraud_score",
			Help:    "Fraud score assigned at filing",
			Buckets: []float64{0, 0.1, 0.25, 0.5, 0.75, 1},
		}),
		ClaimTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "adjudicator_claim_transitions_total",
			Help: "Claim lifecycle operations, by operation and outcome",
		}, []string{"operation", "outcome"}),
		UnderwritingCases: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "adjudicator_underwriting_cases_total",
			Help: "Underwriting cases created, by risk tier and automated decision",
		}, []string{"risk_level", "decision"}),
		CaseReviews: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "adjudicator_underwriting_reviews_total",
			Help: "Manual underwriting reviews, by decision",
		}, []string{"decision"}),
		PolicyOperations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "adjudicator_policy_operations_total",
			Help: "Policy operations, by operation and outcome",
		}, []string{"operation", "outcome"}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "adjudicator_events_published_total",
			Help: "Events published to the bus, by topic and outcome",
		}, []string{"topic", "outcome"}),
		IntakeMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "adjudicator_intake_messages_total",
			Help: "Claim intake messages consumed, by outcome",
		}, []string{"outcome"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "adjudicator_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"method", "route", "status"}),
	}
}

// RecordClaimFiled counts a filed claim and observes its score.
func (m *Metrics) RecordClaimFiled(level, status string, score float64) {
	if m == nil {
		return
	}
	m.ClaimsFiled.WithLabelValues(level, status).Inc()
	m.FraudScore.Observe(score)
}

// RecordClaimTransition counts a lifecycle operation.
func (m *Metrics) RecordClaimTransition(operation, outcome string) {
	if m == nil {
		return
	}
	m.ClaimTransitions.WithLabelValues(operation, outcome).Inc()
}

// RecordCaseCreated counts an automated underwriting decision.
func (m *Metrics) RecordCaseCreated(level, decision string) {
	if m == nil {
		return
	}
	m.UnderwritingCases.WithLabelValues(level, decision).Inc()
}

// RecordCaseReviewed counts a manual review.
func (m *Metrics) RecordCaseReviewed(decision string) {
	if m == nil {
		return
	}
	m.CaseReviews.WithLabelValues(decision).Inc()
}

// RecordPolicyOperation counts a policy operation.
func (m *Metrics) RecordPolicyOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.PolicyOperations.WithLabelValues(operation, outcome).Inc()
}

// RecordEventPublished counts a publish attempt.
func (m *Metrics) RecordEventPublished(topic string, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	m.EventsPublished.WithLabelValues(topic, outcome).Inc()
}

// RecordIntake counts a consumed intake message.
func (m *Metrics) RecordIntake(outcome string) {
	if m == nil {
		return
	}
	m.IntakeMessages.WithLabelValues(outcome).Inc()
}

// ObserveHTTPRequest records request latency.
// Call with time.Now() at the start of the request.
func (m *Metrics) ObserveHTTPRequest(method, route, status string, start time.Time) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
}
