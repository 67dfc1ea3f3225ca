package domain

// Number prefixes for human-readable identifiers.
const (
	PrefixClaim  = "CLM"
	PrefixPolicy = "POL"
	PrefixCase   = "UW"
)

// NumberGenerator issues human-readable identifiers.
// A number is assigned once, on first persistence, and never changes.
type NumberGenerator interface {
	Next(prefix string) string
}
