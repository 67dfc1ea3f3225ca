// Package claims implements the claim lifecycle: filing, approval, settlement and rejection.
package claims

import (
	"github.com/opensource-finance/adjudicator/internal/domain"
)

// Operation is a lifecycle operation applied to a claim.
type Operation string

const (
	OpFile    Operation = "file"
	OpApprove Operation = "approve"
	OpSettle  Operation = "settle"
	OpReject  Operation = "reject"
)

// Operations lists every lifecycle operation.
var Operations = []Operation{OpFile, OpApprove, OpSettle, OpReject}

// transitions maps (operation, current status) to the resulting status.
// A missing entry means the operation is not allowed from that status.
//
// Approve accepts anything that is not already APPROVED or SETTLED, so a claim
// can be approved without finishing investigation. Reject has no guard at all.
var transitions = map[Operation]map[domain.ClaimStatus]domain.ClaimStatus{
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

// filingRoutes picks where a freshly filed claim lands for each fraud tier.
var filingRoutes = map[domain.FraudRiskLevel]domain.ClaimStatus{
	domain.FraudLow:      domain.ClaimUnderReview,
	domain.FraudMedium:   domain.ClaimUnderReview,
	domain.FraudHigh:     domain.ClaimInvestigating,
	domain.FraudCritical: domain.ClaimInvestigating,
}

// Next returns the status op leads to from the given status, or a
// *domain.StateError when the table does not allow it.
func Next(from domain.ClaimStatus, op Operation) (domain.ClaimStatus, error) {
	to, ok := transitions[op][from]
	if !ok {
		return "", &domain.StateError{Entity: "claim", Operation: string(op), Status: string(from)}
	}
	return to, nil
}

// Allowed reports whether op may be applied in the given status.
func Allowed(from domain.ClaimStatus, op Operation) bool {
	_, ok := transitions[op][from]
	return ok
}

// Route returns the post-filing status for a fraud tier.
func Route(level domain.FraudRiskLevel) domain.ClaimStatus {
	if to, ok := filingRoutes[level]; ok {
		return to
	}
	// An unknown tier is treated as the most severe.
	return domain.ClaimInvestigating
}
