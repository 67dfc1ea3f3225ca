package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RiskLevel is the tier derived from an underwriting risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY_HIGH"
)

// RiskLevels lists every risk tier from lowest to highest.
var RiskLevels = []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskVeryHigh}

// Decision is the outcome of an underwriting case.
type Decision string

const (
	// DecisionPending is never produced automatically.
	DecisionPending  Decision = "PENDING"
	DecisionApproved Decision = "APPROVED"
	DecisionReferred Decision = "REFERRED"
	// DecisionDeclined is reachable only through manual review.
	DecisionDeclined Decision = "DECLINED"
)

// Decisions lists every underwriting decision.
var Decisions = []Decision{DecisionPending, DecisionApproved, DecisionReferred, DecisionDeclined}

// Valid reports whether d is a known decision.
func (d Decision) Valid() bool {
	for _, known := range Decisions {
		if d == known {
			return true
		}
	}
	return false
}

// UnderwritingCase is a risk assessment tied to a policy.
type UnderwritingCase struct {
	ID                    int64               `json:"id"`
	CaseNumber            string              `json:"caseNumber"`
	PolicyID              int64               `json:"policyId"`
	CustomerID            int64               `json:"customerId"`
	RiskScore             float64             `json:"riskScore"`
	RiskLevel             RiskLevel           `json:"riskLevel"`
	Decision              Decision            `json:"decision"`
	BasePremium           decimal.NullDecimal `json:"basePremium"`
	RecommendedPremium    decimal.Decimal     `json:"recommendedPremium"`
	UnderwriterNotes      string              `json:"underwriterNotes,omitempty"`
	AssignedUnderwriterID *int64              `json:"assignedUnderwriterId,omitempty"`
	Version               int64               `json:"version"`
	CreatedAt             time.Time           `json:"createdAt"`
	UpdatedAt             time.Time           `json:"updatedAt"`
}

// Clone returns a copy of uc that shares no pointers with it.
func (uc *UnderwritingCase) Clone() *UnderwritingCase {
	cp := *uc
	if uc.AssignedUnderwriterID != nil {
		id := *uc.AssignedUnderwriterID
		cp.AssignedUnderwriterID = &id
	}
	return &cp
}
