package fraud

import (
	"github.com/opensource-finance/adjudicator/internal/domain"
	"github.com/shopspring/decimal"
)

// MaxScore caps the summed signal contributions.
var MaxScore = decimal.NewFromInt(1)

// SignalResult is the contribution of one signal to a score.
type SignalResult struct {
	SignalID     string  `json:"signalId"`
	Factor       string  `json:"factor"`
	Contribution float64 `json:"contribution"`
	Reason       string  `json:"reason,omitempty"`
}

// Assessment is the scorer's verdict on one claim.
type Assessment struct {
	Score   float64               `json:"fraudScore"`
	Level   domain.FraudRiskLevel `json:"fraudRiskLevel"`
	Signals []SignalResult        `json:"signals"`
}

// Reasons lists the descriptions of the signals that fired.
func (a Assessment) Reasons() []string {
	var reasons []string
	for _, s := range a.Signals {
		if s.Reason != "" {
			reasons = append(reasons, s.Reason)
		}
	}
	return reasons
}

// fraudTiers are inclusive lower bounds, highest first.
var fraudTiers = []struct {
	floor float64
	level domain.FraudRiskLevel
}{
	{0.75, domain.FraudCritical},
	{0.50, domain.FraudHigh},
	{0.25, domain.FraudMedium},
}

// LevelFor maps a fraud score to its tier.
func LevelFor(score float64) domain.FraudRiskLevel {
	for _, t := range fraudTiers {
		if score >= t.floor {
			return t.level
		}
	}
	return domain.FraudLow
}

// aggregate sums contributions in decimal so tier boundaries are hit exactly.
func aggregate(results []SignalResult) Assessment {
	sum := decimal.Zero
	for _, r := range results {
		sum = sum.Add(decimal.NewFromFloat(r.Contribution))
	}
	if sum.GreaterThan(MaxScore) {
		sum = MaxScore
	}

	score, _ := sum.Float64()
	return Assessment{
		Score:   score,
		Level:   LevelFor(score),
		Signals: results,
	}
}
