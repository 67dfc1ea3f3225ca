package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PolicyStatus is the administrative status of a policy.
type PolicyStatus string

const (
	PolicyDraft     PolicyStatus = "DRAFT"
	PolicyActive    PolicyStatus = "ACTIVE"
	PolicyCancelled PolicyStatus = "CANCELLED"
	PolicyExpired   PolicyStatus = "EXPIRED"
)

// ProductType is the insurance product a policy is written under.
type ProductType string

const (
	ProductLife   ProductType = "LIFE"
	ProductHealth ProductType = "HEALTH"
	ProductAuto   ProductType = "AUTO"
	ProductHome   ProductType = "HOME"
	ProductTravel ProductType = "TRAVEL"
)

// PaymentFrequency is how often the premium is collected.
type PaymentFrequency string

const (
	PayMonthly    PaymentFrequency = "MONTHLY"
	PayQuarterly  PaymentFrequency = "QUARTERLY"
	PaySemiAnnual PaymentFrequency = "SEMI_ANNUAL"
	PayAnnual     PaymentFrequency = "ANNUAL"
)

// Policy is an insurance contract held by a customer.
type Policy struct {
	ID                 int64            `json:"id"`
	PolicyNumber       string           `json:"policyNumber"`
	CustomerID         int64            `json:"customerId"`
	ProductType        ProductType      `json:"productType"`
	Premium            decimal.Decimal  `json:"premium"`
	CoverageAmount     decimal.Decimal  `json:"coverageAmount"`
	StartDate          time.Time        `json:"startDate"`
	EndDate            time.Time        `json:"endDate"`
	Status             PolicyStatus     `json:"status"`
	Description        string           `json:"description,omitempty"`
	Beneficiary        string           `json:"beneficiary,omitempty"`
	PaymentFrequency   PaymentFrequency `json:"paymentFrequency,omitempty"`
	CancellationReason string           `json:"cancellationReason,omitempty"`
	Version            int64            `json:"version"`
	CreatedAt          time.Time        `json:"createdAt"`
	UpdatedAt          time.Time        `json:"updatedAt"`
}
