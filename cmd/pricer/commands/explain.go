package commands

import (
	"github.com/spf13/cobra"

	"github.com/TimurManjosov/gopricer/internal/cli"
	"github.com/TimurManjosov/gopricer/internal/engine"
)

var explainBooking bookingFlags

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Show why each rule was or was not selected for a booking",
	Long: `Walk the rules in priority order and report, for each one, whether it was
selected, eligible but outranked, disabled, outside its rental window or
rejected by one of its conditions.

Examples:
  pricer explain --store store_1 --channel web --pickup 2025-07-10 --days 3
  pricer explain --country CN --pickup 2025-12-24 --format yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := explainBooking.context()
		if err != nil {
			return err
		}
		doc, err := loadRules()
		if err != nil {
			return err
		}

		traces := engine.Explain(doc.Rules, ctx, now(), loc)
		if quiet {
			return nil
		}
		return cli.PrintTraces(cmd.OutOrStdout(), traces, cli.OutputFormat(format))
	},
}

func init() {
	rootCmd.AddCommand(explainCmd)
	explainBooking.register(explainCmd)
}
