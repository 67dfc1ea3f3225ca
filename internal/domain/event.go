package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType names a state change published on the bus.
type EventType string

const (
	EventClaimFiled    EventType = "CLAIM_FILED"
	EventClaimApproved EventType = "CLAIM_APPROVED"
	EventClaimSettled  EventType = "CLAIM_SETTLED"
	EventClaimRejected EventType = "CLAIM_REJECTED"

	EventCaseCreated  EventType = "UNDERWRITING_CASE_CREATED"
	EventCaseReviewed EventType = "UNDERWRITING_CASE_REVIEWED"

	EventPolicyCreated   EventType = "POLICY_CREATED"
	EventPolicyActivated EventType = "POLICY_ACTIVATED"
	EventPolicyRenewed   EventType = "POLICY_RENEWED"
	EventPolicyCancelled EventType = "POLICY_CANCELLED"
)

// InsuranceEvent is the envelope published after every state change.
// Only the fields relevant to the event's aggregate are populated.
type InsuranceEvent struct {
	EventID   string    `json:"eventId"`
	EventType EventType `json:"eventType"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`

	CustomerID int64 `json:"customerId,omitempty"`

	PolicyID     int64            `json:"policyId,omitempty"`
	PolicyNumber string           `json:"policyNumber,omitempty"`
	PolicyStatus PolicyStatus     `json:"policyStatus,omitempty"`
	Premium      *decimal.Decimal `json:"premium,omitempty"`

	ClaimID        int64            `json:"claimId,omitempty"`
	ClaimNumber    string           `json:"claimNumber,omitempty"`
	ClaimStatus    ClaimStatus      `json:"claimStatus,omitempty"`
	ClaimAmount    *decimal.Decimal `json:"claimAmount,omitempty"`
	ApprovedAmount *decimal.Decimal `json:"approvedAmount,omitempty"`
	FraudScore     *float64         `json:"fraudScore,omitempty"`
	FraudRiskLevel FraudRiskLevel   `json:"fraudRiskLevel,omitempty"`

	CaseID             int64            `json:"caseId,omitempty"`
	CaseNumber         string           `json:"caseNumber,omitempty"`
	RiskScore          *float64         `json:"riskScore,omitempty"`
	RiskLevel          RiskLevel        `json:"riskLevel,omitempty"`
	Decision           Decision         `json:"decision,omitempty"`
	RecommendedPremium *decimal.Decimal `json:"recommendedPremium,omitempty"`

	AdditionalInfo map[string]string `json:"additionalInfo,omitempty"`
}
