package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Error taxonomy. Callers discriminate with errors.Is.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidState  = errors.New("invalid state")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrValidation    = errors.New("validation failed")
	ErrConflict      = errors.New("concurrent modification")
)

var (
	ErrClaimNotFound  = fmt.Errorf("claim %w", ErrNotFound)
	ErrCaseNotFound   = fmt.Errorf("underwriting case %w", ErrNotFound)
	ErrPolicyNotFound = fmt.Errorf("policy %w", ErrNotFound)
)

// StateError reports an operation the record's current status disallows.
type StateError struct {
	Entity    string
	Operation string
	Status    string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s %s in status %s", e.Operation, e.Entity, e.Status)
}

func (e *StateError) Unwrap() error { return ErrInvalidState }

// AmountError reports an approved amount above the claimed amount.
type AmountError struct {
	Approved decimal.Decimal
	Claimed  decimal.Decimal
}

func (e *AmountError) Error() string {
	return fmt.Sprintf("approved amount %s exceeds claim amount %s", e.Approved.StringFixed(2), e.Claimed.StringFixed(2))
}

func (e *AmountError) Unwrap() error { return ErrInvalidAmount }

// ValidationError maps field names to the rule each one failed.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, rule string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: rule}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
