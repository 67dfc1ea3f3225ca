package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/opensource-finance/adjudicator/internal/domain"
	"github.com/opensource-finance/adjudicator/internal/fraud"
	"github.com/opensource-finance/adjudicator/internal/request"
	"github.com/opensource-finance/adjudicator/internal/underwriting"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// newScoreCommand scores a hypothetical claim without touching storage.
func newScoreCommand() *cobra.Command {
	var (
		amount       string
		incidentDate string
		filedDate    string
		location     string
		description  string
		priorSettled int64
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute the fraud score of a claim",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			claimAmount, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid --amount %q: %w", amount, err)
			}
			incident, err := time.Parse(request.DateLayout, incidentDate)
			if err != nil {
				return fmt.Errorf("invalid --incident-date: %w", err)
			}
			filed := domain.DateOf(domain.SystemClock())
			if filedDate != "" {
				if filed, err = time.Parse(request.DateLayout, filedDate); err != nil {
					return fmt.Errorf("invalid --filed-date: %w", err)
				}
			}

			scorer, err := fraud.NewScorer()
			if err != nil {
				return err
			}
			assessment, err := scorer.Score(fraud.Facts{
				ClaimAmount:         claimAmount,
				IncidentDate:        incident,
				FiledDate:           filed,
				IncidentLocation:    location,
				IncidentDescription: description,
				PriorSettledClaims:  priorSettled,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), assessment)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&amount, "amount", "", "claimed amount")
	flags.StringVar(&incidentDate, "incident-date", "", "incident date (YYYY-MM-DD)")
	flags.StringVar(&filedDate, "filed-date", "", "filing date (YYYY-MM-DD, default today)")
	flags.StringVar(&location, "location", "", "incident location")
	flags.StringVar(&description, "description", "", "incident description")
	flags.Int64Var(&priorSettled, "prior-settled", 0, "customer's previously settled claims")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("incident-date")

	return cmd
}

// newQuoteCommand runs the automated underwriting assessment.
func newQuoteCommand() *cobra.Command {
	var basePremium string

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Compute risk tier, decision and recommended premium",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var base decimal.NullDecimal
			if basePremium != "" {
				d, err := decimal.NewFromString(basePremium)
				if err != nil {
					return fmt.Errorf("invalid --base-premium %q: %w", basePremium, err)
				}
				base = decimal.NewNullDecimal(d)
			}

			eval := underwriting.NewEngine(nil).Evaluate(underwriting.Facts{BasePremium: base})
			return printJSON(cmd.OutOrStdout(), eval)
		},
	}

	cmd.Flags().StringVar(&basePremium, "base-premium", "", "base premium to load")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
