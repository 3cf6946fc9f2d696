package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/gopricer/internal/ruleset"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a rule file",
	Long: `Validate every rule and the collection as a whole: unique ids, dense
priorities, non-overlapping duration brackets, unique rate-grid cells and
catalog references. All problems are listed, not just the first.

Examples:
  pricer validate
  pricer validate staging-rules.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.RulesFile
		if len(args) == 1 {
			path = args[0]
		}

		doc, err := ruleset.Load(path)
		if err != nil {
			problems := findings(err)
			for _, e := range problems {
				fmt.Fprintf(cmd.ErrOrStderr(), "  - %v\n", e)
			}
			return fmt.Errorf("%s is invalid (%d problems)", path, len(problems))
		}

		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rules OK\n", path, len(doc.Rules))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// findings flattens joined errors into one entry per problem.
func findings(err error) []error {
	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		return []error{err}
	}
	var out []error
	for _, e := range joined.Unwrap() {
		out = append(out, findings(e)...)
	}
	return out
}
