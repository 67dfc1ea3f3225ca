package request

import (
	"github.com/opensource-finance/adjudicator/internal/claims"
	"github.com/opensource-finance/adjudicator/internal/domain"
	"github.com/opensource-finance/adjudicator/internal/policy"
	"github.com/opensource-finance/adjudicator/internal/underwriting"
	"github.com/shopspring/decimal"
)

// FileClaim is the body of POST /api/claims and of intake messages.
type FileClaim struct {
	PolicyID            int64            `json:"policyId" validate:"required"`
	CustomerID          int64            `json:"customerId" validate:"required"`
	ClaimType           domain.ClaimType `json:"claimType" validate:"required,oneof=MEDICAL HOSPITALIZATION ACCIDENT PROPERTY_DAMAGE THEFT LIABILITY DEATH DISABILITY OTHER"`
	ClaimAmount         decimal.Decimal  `json:"claimAmount" validate:"gte=0.01"`
	IncidentDate        Date             `json:"incidentDate" validate:"required,notfuture"`
	IncidentDescription string           `json:"incidentDescription" validate:"max=2000"`
	IncidentLocation    string           `json:"incidentLocation" validate:"max=500"`
}

// ToService converts the payload for claims.Service.File.
func (r FileClaim) ToService() claims.FileRequest {
	return claims.FileRequest{
		PolicyID:            r.PolicyID,
		CustomerID:          r.CustomerID,
		ClaimType:           r.ClaimType,
		ClaimAmount:         r.ClaimAmount,
		IncidentDate:        r.IncidentDate.Time,
		IncidentDescription: r.IncidentDescription,
		IncidentLocation:    r.IncidentLocation,
	}
}

// ApproveClaim is the body of POST /api/claims/{id}/approve.
type ApproveClaim struct {
	ApprovedAmount decimal.Decimal `json:"approvedAmount" validate:"gt=0"`
	AdjusterNotes  string          `json:"adjusterNotes" validate:"max=2000"`
	AdjusterID     *int64          `json:"adjusterId,omitempty"`
}

// ToService converts the payload for claims.Service.Approve.
func (r ApproveClaim) ToService() claims.ApproveRequest {
	return claims.ApproveRequest{
		ApprovedAmount: r.ApprovedAmount,
		Notes:          r.AdjusterNotes,
		AdjusterID:     r.AdjusterID,
	}
}

// RejectClaim is the body of POST /api/claims/{id}/reject.
type RejectClaim struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

// CreateCase is the body of POST /api/underwriting/cases.
type CreateCase struct {
	PolicyID    int64               `json:"policyId" validate:"required"`
	CustomerID  int64               `json:"customerId" validate:"required"`
	BasePremium decimal.NullDecimal `json:"basePremium" validate:"omitempty,gte=0"`
}

// ToService converts the payload for underwriting.Service.Create.
func (r CreateCase) ToService() underwriting.CreateRequest {
	return underwriting.CreateRequest{
		PolicyID:    r.PolicyID,
		CustomerID:  r.CustomerID,
		BasePremium: r.BasePremium,
	}
}

// ReviewCase is the body of POST /api/underwriting/cases/{id}/review.
type ReviewCase struct {
	Decision      domain.Decision `json:"decision" validate:"required,oneof=PENDING APPROVED REFERRED DECLINED"`
	Notes         string          `json:"notes" validate:"max=2000"`
	UnderwriterID *int64          `json:"underwriterId,omitempty"`
}

// ToService converts the payload for underwriting.Service.Review.
func (r ReviewCase) ToService() underwriting.ReviewRequest {
	return underwriting.ReviewRequest{
		Decision:      r.Decision,
		Notes:         r.Notes,
		UnderwriterID: r.UnderwriterID,
	}
}

// CreatePolicy is the body of POST /api/policies.
type CreatePolicy struct {
	CustomerID       int64                   `json:"customerId" validate:"required"`
	ProductType      domain.ProductType      `json:"productType" validate:"required,oneof=LIFE HEALTH AUTO HOME TRAVEL"`
	Premium          decimal.Decimal         `json:"premium" validate:"gt=0"`
	CoverageAmount   decimal.Decimal         `json:"coverageAmount" validate:"gt=0"`
	StartDate        Date                    `json:"startDate" validate:"required"`
	EndDate          Date                    `json:"endDate" validate:"required"`
	Description      string                  `json:"description" validate:"max=2000"`
	Beneficiary      string                  `json:"beneficiary" validate:"max=200"`
	PaymentFrequency domain.PaymentFrequency `json:"paymentFrequency" validate:"omitempty,oneof=MONTHLY QUARTERLY SEMI_ANNUAL ANNUAL"`
}

// ToService converts the payload for policy.Service.Create.
func (r CreatePolicy) ToService() policy.CreateRequest {
	return policy.CreateRequest{
		CustomerID:       r.CustomerID,
		ProductType:      r.ProductType,
		Premium:          r.Premium,
		CoverageAmount:   r.CoverageAmount,
		StartDate:        r.StartDate.Time,
		EndDate:          r.EndDate.Time,
		Description:      r.Description,
		Beneficiary:      r.Beneficiary,
		PaymentFrequency: r.PaymentFrequency,
	}
}

// CancelPolicy is the body of POST /api/policies/{id}/cancel.
type CancelPolicy struct {
	Reason string `json:"reason" validate:"max=1000"`
}
