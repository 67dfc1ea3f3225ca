package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/opensource-finance/adjudicator/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOutcomeFor(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, OutcomeOK},
		{domain.ErrClaimNotFound, OutcomeNotFound},
		{&domain.StateError{Entity: "claim", Operation: "settle", Status: "UNDER_REVIEW"}, OutcomeInvalidState},
		{&domain.AmountError{}, OutcomeInvalidAmount},
		{domain.NewValidationError("status", "unknown"), OutcomeValidation},
		{fmt.Errorf("wrapped: %w", domain.ErrConflict), OutcomeConflict},
		{domain.ErrLockNotObtained, OutcomeConflict},
		{errors.New("boom"), OutcomeError},
	}

	for _, tt := range tests {
		if got := OutcomeFor(tt.err); got != tt.want {
			t.Errorf("OutcomeFor(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestMetricsRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordClaimFiled("HIGH", "INVESTIGATING", 0.55)
	m.RecordClaimFiled("HIGH", "INVESTIGATING", 0.6)
	m.RecordClaimTransition("approve", OutcomeOK)
	m.RecordEventPublished(domain.TopicClaimEvents, errors.New("broker down"))

	if got := testutil.ToFloat64(m.ClaimsFiled.WithLabelValues("HIGH", "INVESTIGATING")); got != 2 {
		t.Errorf("expected 2 filed claims, got %v", got)
	}
	if got := testutil.ToFloat64(m.ClaimTransitions.WithLabelValues("approve", OutcomeOK)); got != 1 {
		t.Errorf("expected 1 transition, got %v", got)
	}
	if got := testutil.ToFloat64(m.EventsPublished.WithLabelValues(domain.TopicClaimEvents, OutcomeError)); got != 1 {
		t.Errorf("expected 1 failed publish, got %v", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordClaimFiled("LOW", "UNDER_REVIEW", 0)
	m.RecordClaimTransition("settle", OutcomeOK)
	m.RecordCaseCreated("HIGH", "REFERRED")
	m.RecordCaseReviewed("DECLINED")
	m.RecordPolicyOperation("create", OutcomeOK)
	m.RecordEventPublished("topic", nil)
	m.RecordIntake(OutcomeOK)
	m.ObserveHTTPRequest("GET", "/health", "200", time.Now())
}
