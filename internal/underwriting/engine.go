// Package underwriting scores underwriting cases, derives the automated
// decision and the risk-loaded premium, and records manual reviews.
package underwriting

import (
	"math"

	"github.com/opensource-finance/adjudicator/internal/domain"
	"github.com/shopspring/decimal"
)

// PlaceholderRiskScore is the risk score every case receives until a real
// model is supplied through RiskModel.
const PlaceholderRiskScore = 0.5

// Facts are the case inputs available to a risk model.
type Facts struct {
	PolicyID    int64
	CustomerID  int64
	BasePremium decimal.NullDecimal
}

// RiskModel computes a risk score in [0, 1].
type RiskModel interface {
	Score(f Facts) float64
}

// ConstantRiskModel returns the same score for every case.
type ConstantRiskModel float64

// Score implements RiskModel.
func (m ConstantRiskModel) Score(Facts) float64 {
	return float64(m)
}

// riskTiers is ordered from the highest inclusive lower bound down.
var riskTiers = []struct {
	min   float64
	level domain.RiskLevel
}{
	{0.75, domain.RiskVeryHigh},
	{0.50, domain.RiskHigh},
	{0.25, domain.RiskMedium},
	{0, domain.RiskLow},
}

// TierFor maps a risk score to its tier.
func TierFor(score float64) domain.RiskLevel {
	for _, t := range riskTiers {
		if score >= t.min {
			return t.level
		}
	}
	return domain.RiskLow
}

// autoDecisions never yields DECLINED; that is reachable by manual review only.
var autoDecisions = map[domain.RiskLevel]domain.Decision{
	domain.RiskLow:      domain.DecisionApproved,
	domain.RiskMedium:   domain.DecisionApproved,
	domain.RiskHigh:     domain.DecisionReferred,
	domain.RiskVeryHigh: domain.DecisionReferred,
}

// AutoDecide returns the automated decision for a tier.
func AutoDecide(level domain.RiskLevel) domain.Decision {
	if d, ok := autoDecisions[level]; ok {
		return d
	}
	return domain.DecisionReferred
}

var loadingFactors = map[domain.RiskLevel]decimal.Decimal{
	domain.RiskLow:      decimal.RequireFromString("1.00"),
	domain.RiskMedium:   decimal.RequireFromString("1.15"),
	domain.RiskHigh:     decimal.RequireFromString("1.30"),
	domain.RiskVeryHigh: decimal.RequireFromString("1.50"),
}

// LoadingFactor returns the premium multiplier for a tier.
func LoadingFactor(level domain.RiskLevel) decimal.Decimal {
	if f, ok := loadingFactors[level]; ok {
		return f
	}
	return loadingFactors[domain.RiskVeryHigh]
}

// RecommendedPremium loads base by the tier's factor, rounded to cents.
// A missing base premium yields zero.
func RecommendedPremium(base decimal.NullDecimal, level domain.RiskLevel) decimal.Decimal {
	if !base.Valid {
		return decimal.Zero
	}
	return base.Decimal.Mul(LoadingFactor(level)).Round(2)
}

// Evaluation is the automated outcome for one case.
type Evaluation struct {
	RiskScore          float64             `json:"riskScore"`
	RiskLevel          domain.RiskLevel    `json:"riskLevel"`
	Decision           domain.Decision     `json:"decision"`
	BasePremium        decimal.NullDecimal `json:"basePremium"`
	LoadingFactor      decimal.Decimal     `json:"loadingFactor"`
	RecommendedPremium decimal.Decimal     `json:"recommendedPremium"`
}

// Engine evaluates cases. It is immutable and safe for concurrent use.
type Engine struct {
	model RiskModel
}

// NewEngine creates an engine. A nil model uses the placeholder score.
func NewEngine(model RiskModel) *Engine {
	if model == nil {
		model = ConstantRiskModel(PlaceholderRiskScore)
	}
	return &Engine{model: model}
}

// Evaluate scores f and derives tier, decision and premium.
func (e *Engine) Evaluate(f Facts) Evaluation {
	score := e.model.Score(f)
	switch {
	case math.IsNaN(score), score > 1:
		// An unusable score is treated as the riskiest.
		score = 1
	case score < 0:
		score = 0
	}

	level := TierFor(score)
	return Evaluation{
		RiskScore:          score,
		RiskLevel:          level,
		Decision:           AutoDecide(level),
		BasePremium:        f.BasePremium,
		LoadingFactor:      LoadingFactor(level),
		RecommendedPremium: RecommendedPremium(f.BasePremium, level),
	}
}
