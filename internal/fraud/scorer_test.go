package fraud

import (
	"reflect"
	"testing"
	"time"

	"github.com/opensource-finance/adjudicator/internal/domain"
	"github.com/shopspring/decimal"
)

var filed = time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)

// cleanFacts scores 0.0: no history, small amount, timely, complete.
func cleanFacts() Facts {
	return Facts{
		ClaimAmount:         decimal.RequireFromString("5000.00"),
		IncidentDate:        filed.AddDate(0, 0, -10),
		FiledDate:           filed,
		IncidentLocation:    "221B Baker Street, London",
		IncidentDescription: "Rear-ended at a red light by a delivery van",
		PriorSettledClaims:  0,
	}
}

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := NewScorer()
	if err != nil {
		t.Fatalf("failed to create scorer: %v", err)
	}
	return s
}

func mustScore(t *testing.T, s *Scorer, f Facts) Assessment {
	t.Helper()
	a, err := s.Score(f)
	if err != nil {
		t.Fatalf("score failed: %v", err)
	}
	return a
}

func TestScoreCleanClaim(t *testing.T) {
	s := newTestScorer(t)

	f := cleanFacts()
	f.PriorSettledClaims = 1
	f.ClaimAmount = decimal.RequireFromString("50000.00")
	f.IncidentDate = filed.AddDate(0, 0, -90)

	a := mustScore(t, s, f)
	if a.Score != 0.0 {
		t.Errorf("expected score 0.0, got %v", a.Score)
	}
	if a.Level != domain.FraudLow {
		t.Errorf("expected LOW, got %s", a.Level)
	}
	if len(a.Reasons()) != 0 {
		t.Errorf("expected no reasons, got %v", a.Reasons())
	}
}

func TestScoreEverySignalFires(t *testing.T) {
	s := newTestScorer(t)

	f := Facts{
		ClaimAmount:         decimal.RequireFromString("150000.00"),
		IncidentDate:        filed.AddDate(0, 0, -200),
		FiledDate:           filed,
		IncidentLocation:    "   ",
		IncidentDescription: "car hit",
		PriorSettledClaims:  4,
	}

	a := mustScore(t, s, f)
	if a.Score != 0.80 {
		t.Errorf("expected score 0.80, got %v", a.Score)
	}
	if a.Level != domain.FraudCritical {
		t.Errorf("expected CRITICAL, got %s", a.Level)
	}
	if len(a.Reasons()) != 5 {
		t.Errorf("expected 5 reasons, got %d", len(a.Reasons()))
	}
}

func TestSignalBoundaries(t *testing.T) {
	s := newTestScorer(t)

	tests := []struct {
		name   string
		modify func(*Facts)
		want   float64
	}{
		{"one prior settled", func(f *Facts) { f.PriorSettledClaims = 1 }, 0},
		{"two prior settled", func(f *Facts) { f.PriorSettledClaims = 2 }, 0.15},
		{"three prior settled", func(f *Facts) { f.PriorSettledClaims = 3 }, 0.15},
		{"four prior settled", func(f *Facts) { f.PriorSettledClaims = 4 }, 0.30},
		{"filed after 90 days", func(f *Facts) { f.IncidentDate = filed.AddDate(0, 0, -90) }, 0},
		{"filed after 91 days", func(f *Facts) { f.IncidentDate = filed.AddDate(0, 0, -91) }, 0.08},
		{"filed after 180 days", func(f *Facts) { f.IncidentDate = filed.AddDate(0, 0, -180) }, 0.08},
		{"filed after 181 days", func(f *Facts) { f.IncidentDate = filed.AddDate(0, 0, -181) }, 0.15},
		{"amount 50000", func(f *Facts) { f.ClaimAmount = decimal.RequireFromString("50000.00") }, 0},
		{"amount 50000.01", func(f *Facts) { f.ClaimAmount = decimal.RequireFromString("50000.01") }, 0.10},
		{"amount 100000", func(f *Facts) { f.ClaimAmount = decimal.RequireFromString("100000.00") }, 0.10},
		{"amount 100000.01", func(f *Facts) { f.ClaimAmount = decimal.RequireFromString("100000.01") }, 0.20},
		{"empty location", func(f *Facts) { f.IncidentLocation = "" }, 0.05},
		{"whitespace location", func(f *Facts) { f.IncidentLocation = " \t\n" }, 0.05},
		{"empty description", func(f *Facts) { f.IncidentDescription = "" }, 0.10},
		{"19 char description", func(f *Facts) { f.IncidentDescription = "abcdefghijklmnopqrs" }, 0.10},
		{"20 char description", func(f *Facts) { f.IncidentDescription = "abcdefghijklmnopqrst" }, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := cleanFacts()
			tt.modify(&f)
			a := mustScore(t, s, f)
			if a.Score != tt.want {
				t.Errorf("expected score %v, got %v", tt.want, a.Score)
			}
		})
	}
}

func TestScoreLandsExactlyOnTierBoundary(t *testing.T) {
	s := newTestScorer(t)

	// 0.30 + 0.15 + 0.05 must be exactly 0.50.
	f := cleanFacts()
	f.PriorSettledClaims = 5
	f.IncidentDate = filed.AddDate(0, 0, -200)
	f.IncidentLocation = ""

	a := mustScore(t, s, f)
	if a.Score != 0.50 {
		t.Errorf("expected score 0.50, got %v", a.Score)
	}
	if a.Level != domain.FraudHigh {
		t.Errorf("expected HIGH, got %s", a.Level)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	s := newTestScorer(t)

	f := cleanFacts()
	f.PriorSettledClaims = 2
	f.IncidentLocation = ""

	first := mustScore(t, s, f)
	second := mustScore(t, s, f)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expected identical assessments, got %+v and %+v", first, second)
	}
}

func TestScoreIsCapped(t *testing.T) {
	s, err := newScorer([]Signal{
		{ID: "a", Expression: "0.7"},
		{ID: "b", Expression: "0.7"},
	})
	if err != nil {
		t.Fatalf("failed to create scorer: %v", err)
	}

	a := mustScore(t, s, cleanFacts())
	if a.Score != 1.0 {
		t.Errorf("expected score capped at 1.0, got %v", a.Score)
	}
	if a.Level != domain.FraudCritical {
		t.Errorf("expected CRITICAL, got %s", a.Level)
	}
}

func TestCompileErrors(t *testing.T) {
	t.Run("InvalidSyntax", func(t *testing.T) {
		_, err := newScorer([]Signal{{ID: "bad", Expression: "this is not valid CEL !!!"}})
		if err == nil {
			t.Error("expected compile error")
		}
	})

	t.Run("NonDoubleResult", func(t *testing.T) {
		_, err := newScorer([]Signal{{ID: "bool", Expression: "amount > 1.0"}})
		if err == nil {
			t.Error("expected output type error")
		}
	})

	t.Run("UnknownVariable", func(t *testing.T) {
		_, err := newScorer([]Signal{{ID: "unknown", Expression: "velocity * 1.0"}})
		if err == nil {
			t.Error("expected undeclared reference error")
		}
	})
}

func TestLevelFor(t *testing.T) {
	tests := []struct {
		score float64
		want  domain.FraudRiskLevel
	}{
		{0.0, domain.FraudLow},
		{0.24, domain.FraudLow},
		{0.25, domain.FraudMedium},
		{0.49, domain.FraudMedium},
		{0.50, domain.FraudHigh},
		{0.74, domain.FraudHigh},
		{0.75, domain.FraudCritical},
		{1.0, domain.FraudCritical},
	}

	for _, tt := range tests {
		if got := LevelFor(tt.score); got != tt.want {
			t.Errorf("LevelFor(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}

	seen := make(map[domain.FraudRiskLevel]bool)
	for _, tt := range tests {
		seen[tt.want] = true
	}
	for _, level := range domain.FraudRiskLevels {
		if !seen[level] {
			t.Errorf("tier %s is not reachable", level)
		}
	}
}

func TestFactsFor(t *testing.T) {
	c := &domain.Claim{
		ClaimAmount:         decimal.RequireFromString("1200.50"),
		IncidentDate:        filed.AddDate(0, 0, -3),
		FiledDate:           filed,
		IncidentLocation:    "Harbour Road",
		IncidentDescription: "Water damage from a burst pipe",
	}

	f := FactsFor(c, 7)
	if f.PriorSettledClaims != 7 {
		t.Errorf("expected 7 prior claims, got %d", f.PriorSettledClaims)
	}
	if !f.ClaimAmount.Equal(c.ClaimAmount) {
		t.Errorf("expected amount %s, got %s", c.ClaimAmount, f.ClaimAmount)
	}
}
