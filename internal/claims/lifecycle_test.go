package claims

import (
	"errors"
	"testing"

	"github.com/opensource-finance/adjudicator/internal/domain"
)

func TestTransitionTable(t *testing.T) {
	// want[op][from] is the resulting status, or "" when the operation is refused.
	want := map[Operation]map[domain.ClaimStatus]domain.ClaimStatus{
		OpFile: {
			domain.ClaimSubmitted: domain.ClaimUnderReview,
		},
		OpApprove: {
			domain.ClaimSubmitted:     domain.ClaimApproved,
			domain.ClaimUnderReview:   domain.ClaimApproved,
			domain.ClaimInvestigating: domain.ClaimApproved,
			domain.ClaimRejected:      domain.ClaimApproved,
		},
		OpSettle: {
			domain.ClaimApproved: domain.ClaimSettled,
		},
		OpReject: {
			domain.ClaimSubmitted:     domain.ClaimRejected,
			domain.ClaimUnderReview:   domain.ClaimRejected,
			domain.ClaimInvestigating: domain.ClaimRejected,
			domain.ClaimApproved:      domain.ClaimRejected,
			domain.ClaimSettled:       domain.ClaimRejected,
			domain.ClaimRejected:      domain.ClaimRejected,
		},
	}

	for _, op := range Operations {
		for _, from := range domain.ClaimStatuses {
			expected, allowed := want[op][from]

			got, err := Next(from, op)
			if allowed {
				if err != nil {
					t.Errorf("%s from %s: unexpected error %v", op, from, err)
				} else if got != expected {
					t.Errorf("%s from %s: got %s, want %s", op, from, got, expected)
				}
			} else {
				var serr *domain.StateError
				if !errors.As(err, &serr) {
					t.Errorf("%s from %s: expected StateError, got %v", op, from, err)
					continue
				}
				if !errors.Is(err, domain.ErrInvalidState) {
					t.Errorf("%s from %s: expected ErrInvalidState", op, from)
				}
				if serr.Status != string(from) {
					t.Errorf("%s from %s: error carries status %s", op, from, serr.Status)
				}
			}

			if Allowed(from, op) != allowed {
				t.Errorf("Allowed(%s, %s) = %v, want %v", from, op, !allowed, allowed)
			}
		}
	}
}

func TestRejectIsUnguarded(t *testing.T) {
	for _, from := range domain.ClaimStatuses {
		if !Allowed(from, OpReject) {
			t.Errorf("reject must be allowed from %s", from)
		}
	}
}

func TestRoute(t *testing.T) {
	tests := []struct {
		level domain.FraudRiskLevel
		want  domain.ClaimStatus
	}{
		{domain.FraudLow, domain.ClaimUnderReview},
		{domain.FraudMedium, domain.ClaimUnderReview},
		{domain.FraudHigh, domain.ClaimInvestigating},
		{domain.FraudCritical, domain.ClaimInvestigating},
		{"UNKNOWN", domain.ClaimInvestigating},
	}

	for _, tt := range tests {
		if got := Route(tt.level); got != tt.want {
			t.Errorf("Route(%s) = %s, want %s", tt.level, got, tt.want)
		}
	}

	for _, level := range domain.FraudRiskLevels {
		if _, ok := filingRoutes[level]; !ok {
			t.Errorf("no filing route for tier %s", level)
		}
	}
}
