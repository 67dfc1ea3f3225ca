// Package cli implements the adjudicator command line.
package cli

import (
	"fmt"

	"github.com/opensource-finance/adjudicator/internal/config"
	"github.com/opensource-finance/adjudicator/internal/domain"
	"github.com/spf13/cobra"
)

// BuildInfo identifies the running binary. Values are set via ldflags.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
}

// Execute runs the command line with os.Args.
func Execute(info BuildInfo) error {
	return NewRootCommand(info).Execute()
}

// NewRootCommand builds the command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "adjudicator",
		Short: "Adjudicator - insurance claims, underwriting and policy service",
		Long: `Adjudicator runs the claims lifecycle with fraud scoring, automated
underwriting with premium loading, and policy administration.

Configuration is read from built-in defaults, an optional YAML file and
ADJUDICATOR_* environment variables, in increasing precedence.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")

	load := func() (*domain.Config, error) {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		return cfg, nil
	}

	root.AddCommand(
		newServeCommand(info, load),
		newScoreCommand(),
		newQuoteCommand(),
		newConfigCommand(load),
		newVersionCommand(info),
	)

	return root
}

func newVersionCommand(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "adjudicator %s (commit %s, built %s)\n",
				info.Version, info.Commit, info.BuildDate)
			return err
		},
	}
}
