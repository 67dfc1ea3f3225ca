// Package domain defines the core types shared across the adjudicator.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClaimStatus is the lifecycle status of a claim.
type ClaimStatus string

const (
	// ClaimSubmitted is transient: filing routes a claim out of it immediately.
	ClaimSubmitted     ClaimStatus = "SUBMITTED"
	ClaimUnderReview   ClaimStatus = "UNDER_REVIEW"
	ClaimInvestigating ClaimStatus = "INVESTIGATING"
	ClaimApproved      ClaimStatus = "APPROVED"
	ClaimSettled       ClaimStatus = "SETTLED"
	ClaimRejected      ClaimStatus = "REJECTED"
)

// ClaimStatuses lists every claim status in lifecycle order.
var ClaimStatuses = []ClaimStatus{
	ClaimSubmitted,
	ClaimUnderReview,
	ClaimInvestigating,
	ClaimApproved,
	ClaimSettled,
	ClaimRejected,
}

// Valid reports whether s is a known status.
func (s ClaimStatus) Valid() bool {
	for _, known := range ClaimStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further forward progress is possible.
// Reject remains available from terminal states.
func (s ClaimStatus) Terminal() bool {
	return s == ClaimSettled || s == ClaimRejected
}

// ClaimType categorises a claim. It carries no behaviour in adjudication.
type ClaimType string

const (
	ClaimMedical         ClaimType = "MEDICAL"
	ClaimHospitalization ClaimType = "HOSPITALIZATION"
	ClaimAccident        ClaimType = "ACCIDENT"
	ClaimPropertyDamage  ClaimType = "PROPERTY_DAMAGE"
	ClaimTheft           ClaimType = "THEFT"
	ClaimLiability       ClaimType = "LIABILITY"
	ClaimDeath           ClaimType = "DEATH"
	ClaimDisability      ClaimType = "DISABILITY"
	ClaimOther           ClaimType = "OTHER"
)

// FraudRiskLevel is the tier derived from a fraud score.
type FraudRiskLevel string

const (
	FraudLow      FraudRiskLevel = "LOW"
	FraudMedium   FraudRiskLevel = "MEDIUM"
	FraudHigh     FraudRiskLevel = "HIGH"
	FraudCritical FraudRiskLevel = "CRITICAL"
)

// FraudRiskLevels lists every fraud tier from lowest to highest.
var FraudRiskLevels = []FraudRiskLevel{FraudLow, FraudMedium, FraudHigh, FraudCritical}

// Claim is a customer request for payment under a policy.
type Claim struct {
	ID                  int64               `json:"id"`
	ClaimNumber         string              `json:"claimNumber"`
	PolicyID            int64               `json:"policyId"`
	CustomerID          int64               `json:"customerId"`
	ClaimType           ClaimType           `json:"claimType"`
	ClaimAmount         decimal.Decimal     `json:"claimAmount"`
	ApprovedAmount      decimal.NullDecimal `json:"approvedAmount"`
	Status              ClaimStatus         `json:"status"`
	IncidentDate        time.Time           `json:"incidentDate"`
	IncidentDescription string              `json:"incidentDescription,omitempty"`
	IncidentLocation    string              `json:"incidentLocation,omitempty"`
	FraudScore          float64             `json:"fraudScore"`
	FraudRiskLevel      FraudRiskLevel      `json:"fraudRiskLevel"`
	AssignedAdjusterID  *int64              `json:"assignedAdjusterId,omitempty"`
	AdjusterNotes       string              `json:"adjusterNotes,omitempty"`
	RejectionReason     string              `json:"rejectionReason,omitempty"`
	FiledDate           time.Time           `json:"filedDate"`
	AssessmentDate      *time.Time          `json:"assessmentDate,omitempty"`
	SettlementDate      *time.Time          `json:"settlementDate,omitempty"`
	Version             int64               `json:"version"`
	CreatedAt           time.Time           `json:"createdAt"`
	UpdatedAt           time.Time           `json:"updatedAt"`
}

// Clone returns a copy of c that shares no pointers with it.
func (c *Claim) Clone() *Claim {
	cp := *c
	if c.AssignedAdjusterID != nil {
		id := *c.AssignedAdjusterID
		cp.AssignedAdjusterID = &id
	}
	if c.AssessmentDate != nil {
		d := *c.AssessmentDate
		cp.AssessmentDate = &d
	}
	if c.SettlementDate != nil {
		d := *c.SettlementDate
		cp.SettlementDate = &d
	}
	return &cp
}
