// Package fraud provides the CEL based claim fraud scorer.
package fraud

import (
	"fmt"
	"time"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/ext"
	"github.com/opensource-finance/adjudicator/internal/domain"
	"github.com/shopspring/decimal"
)

// Facts are the inputs the scorer reads from a claim and the customer's history.
type Facts struct {
	ClaimAmount         decimal.Decimal
	IncidentDate        time.Time
	FiledDate           time.Time
	IncidentLocation    string
	IncidentDescription string
	PriorSettledClaims  int64
}

// FactsFor extracts scoring facts from a claim.
func FactsFor(c *domain.Claim, priorSettled int64) Facts {
	return Facts{
		ClaimAmount:         c.ClaimAmount,
		IncidentDate:        c.IncidentDate,
		FiledDate:           c.FiledDate,
		IncidentLocation:    c.IncidentLocation,
		IncidentDescription: c.IncidentDescription,
		PriorSettledClaims:  priorSettled,
	}
}

// Scorer evaluates compiled fraud signals. It is immutable and safe for concurrent use.
type Scorer struct {
	signals []compiledSignal
}

type compiledSignal struct {
	Signal
	program cel.Program
}

// NewScorer compiles the builtin signals.
func NewScorer() (*Scorer, error) {
	return newScorer(BuiltinSignals())
}

func newScorer(signals []Signal) (*Scorer, error) {
	env, err := cel.NewEnv(
		ext.Strings(),
		cel.Variable(VarPriorSettled, cel.IntType),
		cel.Variable(VarDaysToFile, cel.IntType),
		cel.Variable(VarAmount, cel.DoubleType),
		cel.Variable(VarLocation, cel.StringType),
		cel.Variable(VarDescription, cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	s := &Scorer{signals: make([]compiledSignal, 0, len(signals))}
	for _, sig := range signals {
		compiled, err := compileSignal(env, sig)
		if err != nil {
			return nil, err
		}
		s.signals = append(s.signals, compiled)
	}
	return s, nil
}

func compileSignal(env *cel.Env, sig Signal) (compiledSignal, error) {
	ast, issues := env.Compile(sig.Expression)
	if issues != nil && issues.Err() != nil {
		return compiledSignal{}, fmt.Errorf("failed to compile signal %s: %w", sig.ID, issues.Err())
	}

	if ast.OutputType() != cel.DoubleType {
		return compiledSignal{}, fmt.Errorf("signal %s: expression must return double, got %s", sig.ID, ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return compiledSignal{}, fmt.Errorf("failed to create program for signal %s: %w", sig.ID, err)
	}

	return compiledSignal{Signal: sig, program: program}, nil
}

// Signals returns the signal definitions in evaluation order.
func (s *Scorer) Signals() []Signal {
	out := make([]Signal, len(s.signals))
	for i, c := range s.signals {
		out[i] = c.Signal
	}
	return out
}

// Score evaluates every signal against f. Given equal facts it always returns an
// equal assessment. An error means a signal produced a non-double value at runtime.
func (s *Scorer) Score(f Facts) (Assessment, error) {
	amount, _ := f.ClaimAmount.Float64()
	activation := map[string]any{
		VarPriorSettled: f.PriorSettledClaims,
		VarDaysToFile:   domain.DaysBetween(f.IncidentDate, f.FiledDate),
		VarAmount:       amount,
		VarLocation:     f.IncidentLocation,
		VarDescription:  f.IncidentDescription,
	}

	results := make([]SignalResult, 0, len(s.signals))
	for _, sig := range s.signals {
		out, _, err := sig.program.Eval(activation)
		if err != nil {
			return Assessment{}, fmt.Errorf("signal %s: %w", sig.ID, err)
		}
		v, ok := out.(types.Double)
		if !ok {
			return Assessment{}, fmt.Errorf("signal %s: unexpected result type %v", sig.ID, out.Type())
		}

		result := SignalResult{
			SignalID:     sig.ID,
			Factor:       sig.Factor,
			Contribution: float64(v),
		}
		if result.Contribution > 0 {
			result.Reason = sig.Description
		}
		results = append(results, result)
	}

	return aggregate(results), nil
}
