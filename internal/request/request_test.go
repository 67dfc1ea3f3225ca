package request

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/opensource-finance/adjudicator/internal/domain"
	"github.com/shopspring/decimal"
)

var today = time.Date(2025, 5, 20, 9, 30, 0, 0, time.UTC)

func newTestValidator() *Validator {
	return NewValidator(func() time.Time { return today })
}

func validClaim() FileClaim {
	return FileClaim{
		PolicyID:            1,
		CustomerID:          2,
		ClaimType:           domain.ClaimTheft,
		ClaimAmount:         decimal.RequireFromString("1200.00"),
		IncidentDate:        NewDate(today.AddDate(0, 0, -3)),
		IncidentDescription: "Bicycle taken from the shed overnight",
		IncidentLocation:    "Lisbon",
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	return verr.Fields
}

func TestFileClaimValidation(t *testing.T) {
	v := newTestValidator()

	t.Run("Valid", func(t *testing.T) {
		if err := v.Struct(validClaim()); err != nil {
			t.Errorf("expected valid claim, got %v", err)
		}
	})

	t.Run("EmptyDescription", func(t *testing.T) {
		c := validClaim()
		c.IncidentDescription = ""
		if err := v.Struct(c); err != nil {
			t.Errorf("an empty description is scored, not rejected; got %v", err)
		}
	})

	t.Run("IncidentToday", func(t *testing.T) {
		c := validClaim()
		c.IncidentDate = NewDate(today)
		if err := v.Struct(c); err != nil {
			t.Errorf("an incident today must be accepted, got %v", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(*FileClaim)
		field  string
	}{
		{"MissingPolicy", func(c *FileClaim) { c.PolicyID = 0 }, "policyId"},
		{"MissingCustomer", func(c *FileClaim) { c.CustomerID = 0 }, "customerId"},
		{"MissingType", func(c *FileClaim) { c.ClaimType = "" }, "claimType"},
		{"UnknownType", func(c *FileClaim) { c.ClaimType = "FLOOD" }, "claimType"},
		{"ZeroAmount", func(c *FileClaim) { c.ClaimAmount = decimal.Zero }, "claimAmount"},
		{"BelowOneCent", func(c *FileClaim) { c.ClaimAmount = decimal.RequireFromString("0.009") }, "claimAmount"},
		{"FutureIncident", func(c *FileClaim) { c.IncidentDate = NewDate(today.AddDate(0, 0, 1)) }, "incidentDate"},
		{"MissingIncidentDate", func(c *FileClaim) { c.IncidentDate = Date{} }, "incidentDate"},
		{"DescriptionTooLong", func(c *FileClaim) { c.IncidentDescription = strings.Repeat("x", 2001) }, "incidentDescription"},
		{"LocationTooLong", func(c *FileClaim) { c.IncidentLocation = strings.Repeat("x", 501) }, "incidentLocation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validClaim()
			tt.mutate(&c)

			fields := fieldsOf(t, v.Struct(c))
			if _, ok := fields[tt.field]; !ok {
				t.Errorf("expected %s to fail, got %v", tt.field, fields)
			}
		})
	}
}

func TestApproveAndRejectValidation(t *testing.T) {
	v := newTestValidator()

	if err := v.Struct(ApproveClaim{ApprovedAmount: decimal.NewFromInt(10)}); err != nil {
		t.Errorf("expected valid approval, got %v", err)
	}
	fields := fieldsOf(t, v.Struct(ApproveClaim{ApprovedAmount: decimal.Zero}))
	if fields["approvedAmount"] != "must be greater than 0" {
		t.Errorf("unexpected message %q", fields["approvedAmount"])
	}

	fields = fieldsOf(t, v.Struct(RejectClaim{}))
	if fields["reason"] != "is required" {
		t.Errorf("unexpected message %q", fields["reason"])
	}
}

func TestUnderwritingValidation(t *testing.T) {
	v := newTestValidator()

	t.Run("BasePremiumOptional", func(t *testing.T) {
		if err := v.Struct(CreateCase{PolicyID: 1, CustomerID: 1}); err != nil {
			t.Errorf("expected valid case without premium, got %v", err)
		}
	})

	t.Run("NegativeBasePremium", func(t *testing.T) {
		req := CreateCase{
			PolicyID:    1,
			CustomerID:  1,
			BasePremium: decimal.NewNullDecimal(decimal.NewFromInt(-1)),
		}
		if _, ok := fieldsOf(t, v.Struct(req))["basePremium"]; !ok {
			t.Error("expected basePremium to fail")
		}
	})

	t.Run("DecisionOutsideSet", func(t *testing.T) {
		fields := fieldsOf(t, v.Struct(ReviewCase{Decision: "MAYBE"}))
		if _, ok := fields["decision"]; !ok {
			t.Errorf("expected decision to fail, got %v", fields)
		}
	})

	t.Run("EveryDecisionAccepted", func(t *testing.T) {
		for _, d := range domain.Decisions {
			if err := v.Struct(ReviewCase{Decision: d}); err != nil {
				t.Errorf("decision %s rejected: %v", d, err)
			}
		}
	})
}

func TestPolicyValidation(t *testing.T) {
	v := newTestValidator()

	req := CreatePolicy{
		CustomerID:     1,
		ProductType:    domain.ProductAuto,
		Premium:        decimal.NewFromInt(50),
		CoverageAmount: decimal.NewFromInt(10000),
		StartDate:      NewDate(today),
		EndDate:        NewDate(today.AddDate(1, 0, 0)),
	}
	if err := v.Struct(req); err != nil {
		t.Fatalf("expected valid policy, got %v", err)
	}

	req.Premium = decimal.Zero
	req.PaymentFrequency = "WEEKLY"
	fields := fieldsOf(t, v.Struct(req))
	if len(fields) != 2 {
		t.Errorf("expected premium and paymentFrequency to fail, got %v", fields)
	}
}

func TestDateJSON(t *testing.T) {
	var body struct {
		D Date `json:"d"`
	}

	if err := json.Unmarshal([]byte(`{"d":"2025-03-01"}`), &body); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !body.D.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date %v", body.D)
	}

	if err := json.Unmarshal([]byte(`{"d":"2025-03-01T22:15:00Z"}`), &body); err != nil {
		t.Fatalf("Unmarshal of timestamp failed: %v", err)
	}
	if body.D.Hour() != 0 || body.D.Day() != 1 {
		t.Errorf("expected truncation to the day, got %v", body.D)
	}

	if err := json.Unmarshal([]byte(`{"d":"01/03/2025"}`), &body); err == nil {
		t.Error("expected error for unsupported layout")
	}

	out, _ := json.Marshal(body)
	if string(out) != `{"d":"2025-03-01"}` {
		t.Errorf("unexpected encoding %s", out)
	}
}
