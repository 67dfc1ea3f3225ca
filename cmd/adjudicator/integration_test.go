//go:build integration

// End-to-end tests against a running adjudicator.
//
// Start the service, then run:
//
//	ADJUDICATOR_TEST_URL=http://localhost:8080 go test -tags=integration ./cmd/adjudicator/...
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/opensource-finance/adjudicator/internal/domain"
)

func baseURL() string {
	if url := os.Getenv("ADJUDICATOR_TEST_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

// uniqueCustomer returns an id no earlier run has used, so prior settlements are zero.
func uniqueCustomer() int64 {
	return time.Now().UnixNano() / 1000
}

func call(t *testing.T, method, path string, body any, wantStatus int, out any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, baseURL()+path, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: expected status %d, got %d: %s", method, path, wantStatus, resp.StatusCode, respBody)
	}
	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			t.Fatalf("failed to unmarshal response: %v (body: %s)", err, respBody)
		}
	}
}

func claimBody(customerID int64, amount string, daysAgo int, description, location string) map[string]any {
	return map[string]any{
		"policyId":            42,
		"customerId":          customerID,
		"claimType":           "PROPERTY_DAMAGE",
		"claimAmount":         amount,
		"incidentDate":        time.Now().UTC().AddDate(0, 0, -daysAgo).Format("2006-01-02"),
		"incidentDescription": description,
		"incidentLocation":    location,
	}
}

func TestCleanClaimSettles(t *testing.T) {
	customer := uniqueCustomer()

	var claim domain.Claim
	call(t, http.MethodPost, "/api/claims",
		claimBody(customer, "2500.00", 5, "Storm blew the garden shed roof onto the car", "Porto"),
		http.StatusCreated, &claim)

	if claim.FraudRiskLevel != domain.FraudLow || claim.Status != domain.ClaimUnderReview {
		t.Fatalf("expected LOW/UNDER_REVIEW, got %s/%s", claim.FraudRiskLevel, claim.Status)
	}

	call(t, http.MethodPost, fmt.Sprintf("/api/claims/%d/approve", claim.ID),
		map[string]any{"approvedAmount": "2400.00", "adjusterNotes": "Deductible applied"},
		http.StatusOK, &claim)
	if claim.Status != domain.ClaimApproved {
		t.Fatalf("expected APPROVED, got %s", claim.Status)
	}

	call(t, http.MethodPost, fmt.Sprintf("/api/claims/%d/settle", claim.ID), nil, http.StatusOK, &claim)
	if claim.Status != domain.ClaimSettled || claim.SettlementDate == nil {
		t.Fatalf("expected SETTLED with settlement date, got %s", claim.Status)
	}

	var byNumber domain.Claim
	call(t, http.MethodGet, "/api/claims/number/"+claim.ClaimNumber, nil, http.StatusOK, &byNumber)
	if byNumber.ID != claim.ID {
		t.Errorf("expected claim %d by number, got %d", claim.ID, byNumber.ID)
	}
}

func TestSuspiciousClaimIsInvestigated(t *testing.T) {
	var claim domain.Claim
	call(t, http.MethodPost, "/api/claims",
		claimBody(uniqueCustomer(), "150000", 200, "stolen", " "),
		http.StatusCreated, &claim)

	if claim.FraudScore != 0.5 || claim.FraudRiskLevel != domain.FraudHigh {
		t.Errorf("expected 0.5/HIGH, got %v/%s", claim.FraudScore, claim.FraudRiskLevel)
	}
	if claim.Status != domain.ClaimInvestigating {
		t.Errorf("expected INVESTIGATING, got %s", claim.Status)
	}
}

func TestPriorSettlementsRaiseScore(t *testing.T) {
	customer := uniqueCustomer()
	description := "Burst pipe flooded the basement storage area"

	for i := 0; i < 2; i++ {
		var claim domain.Claim
		call(t, http.MethodPost, "/api/claims", claimBody(customer, "1000", 3, description, "Braga"), http.StatusCreated, &claim)
		call(t, http.MethodPost, fmt.Sprintf("/api/claims/%d/approve", claim.ID),
			map[string]any{"approvedAmount": "1000"}, http.StatusOK, nil)
		call(t, http.MethodPost, fmt.Sprintf("/api/claims/%d/settle", claim.ID), nil, http.StatusOK, nil)
	}

	var third domain.Claim
	call(t, http.MethodPost, "/api/claims", claimBody(customer, "1000", 3, description, "Braga"), http.StatusCreated, &third)
	if third.FraudScore != 0.15 {
		t.Errorf("expected 0.15 after two settlements, got %v", third.FraudScore)
	}
}

func TestIllegalTransitions(t *testing.T) {
	var claim domain.Claim
	call(t, http.MethodPost, "/api/claims",
		claimBody(uniqueCustomer(), "800", 1, "Cracked windscreen from a stone on the motorway", "Faro"),
		http.StatusCreated, &claim)

	var errResp struct {
		CurrentStatus string `json:"currentStatus"`
	}
	call(t, http.MethodPost, fmt.Sprintf("/api/claims/%d/settle", claim.ID), nil, http.StatusConflict, &errResp)
	if errResp.CurrentStatus != string(domain.ClaimUnderReview) {
		t.Errorf("expected currentStatus UNDER_REVIEW, got %q", errResp.CurrentStatus)
	}

	call(t, http.MethodPost, fmt.Sprintf("/api/claims/%d/approve", claim.ID),
		map[string]any{"approvedAmount": "900"}, http.StatusUnprocessableEntity, nil)

	call(t, http.MethodPost, fmt.Sprintf("/api/claims/%d/reject", claim.ID),
		map[string]any{"reason": "Not covered"}, http.StatusOK, &claim)
	if claim.Status != domain.ClaimRejected {
		t.Errorf("expected REJECTED, got %s", claim.Status)
	}
}

func TestUnderwritingQuote(t *testing.T) {
	var uc domain.UnderwritingCase
	call(t, http.MethodPost, "/api/underwriting/cases",
		map[string]any{"policyId": 42, "customerId": uniqueCustomer(), "basePremium": "100"},
		http.StatusCreated, &uc)

	if uc.RiskLevel != domain.RiskHigh || uc.Decision != domain.DecisionReferred {
		t.Errorf("expected HIGH/REFERRED, got %s/%s", uc.RiskLevel, uc.Decision)
	}
	if uc.RecommendedPremium.StringFixed(2) != "130.00" {
		t.Errorf("expected 130.00, got %s", uc.RecommendedPremium)
	}
}

func TestValidationErrors(t *testing.T) {
	var errResp struct {
		ValidationErrors map[string]string `json:"validationErrors"`
	}
	call(t, http.MethodPost, "/api/claims", map[string]any{"claimAmount": "0"}, http.StatusBadRequest, &errResp)

	for _, field := range []string{"policyId", "customerId", "claimType", "claimAmount", "incidentDate"} {
		if _, ok := errResp.ValidationErrors[field]; !ok {
			t.Errorf("expected validation error for %s, got %v", field, errResp.ValidationErrors)
		}
	}
}
