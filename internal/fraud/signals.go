package fraud

// Signal is one additive fraud indicator expressed in CEL.
// The expression must evaluate to a double: the score increment it contributes.
type Signal struct {
	ID          string `json:"id"`
	Factor      string `json:"factor"`
	Description string `json:"description"`
	Expression  string `json:"expression"`
}

// Factors group signals the way adjusters reason about them.
const (
	FactorClaimFrequency     = "claim_frequency"
	FactorLateFiling         = "late_filing"
	FactorHighAmount         = "high_amount"
	FactorMissingInformation = "missing_information"
)

// Variables available to signal expressions.
const (
	VarPriorSettled = "prior_settled"
	VarDaysToFile   = "days_to_file"
	VarAmount       = "amount"
	VarLocation     = "location"
	VarDescription  = "description"
)

// BuiltinSignals returns the adjudication fraud signals.
func BuiltinSignals() []Signal {
	return []Signal{
		{
			ID:          "prior-settled-claims",
			Factor:      FactorClaimFrequency,
			Description: "customer has a history of settled claims",
			Expression:  "prior_settled > 3 ? 0.30 : (prior_settled > 1 ? 0.15 : 0.0)",
		},
		{
			ID:          "late-filing",
			Factor:      FactorLateFiling,
			Description: "claim filed long after the incident",
			Expression:  "days_to_file > 180 ? 0.15 : (days_to_file > 90 ? 0.08 : 0.0)",
		},
		{
			ID:          "high-amount",
			Factor:      FactorHighAmount,
			Description: "claimed amount is unusually large",
			Expression:  "amount > 100000.0 ? 0.20 : (amount > 50000.0 ? 0.10 : 0.0)",
		},
		{
			ID:          "missing-location",
			Factor:      FactorMissingInformation,
			Description: "incident location is blank",
			Expression:  "location.trim() == '' ? 0.05 : 0.0",
		},
		{
			ID:          "short-description",
			Factor:      FactorMissingInformation,
			Description: "incident description is under 20 characters",
			Expression:  "size(description) < 20 ? 0.10 : 0.0",
		},
	}
}
