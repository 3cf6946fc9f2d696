package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/gopricer/internal/cli"
	"github.com/TimurManjosov/gopricer/internal/engine"
)

// errNoPrice makes the exit status non-zero when a quote has no usable price.
var errNoPrice = errors.New("no price available")

var (
	quoteBooking bookingFlags
	quoteSIPP    string
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Price a car model for a booking",
	Long: `Select the rule that applies to the booking and look up the price of the
car model for the rental length in that rule's rate grid.

A missing price in the selected rule is reported as such; lower-precedence
rules are never consulted.

Examples:
  pricer quote --store store_1 --channel web --pickup 2025-07-10 --return 2025-07-13 --sipp CDAR
  pricer quote --store store_1 --pickup 2025-07-10 --days 9 --sipp SFAR --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := quoteBooking.context()
		if err != nil {
			return err
		}
		doc, err := loadRules()
		if err != nil {
			return err
		}

		q := engine.QuotePrice(doc.Rules, ctx, quoteSIPP, now(), loc)
		logQuote(q)

		if !quiet {
			if err := cli.PrintQuote(cmd.OutOrStdout(), q, cli.OutputFormat(format)); err != nil {
				return err
			}
		}
		if !q.Found() {
			return fmt.Errorf("%w: %s", errNoPrice, q.Price.Reason)
		}
		return nil
	},
}

func logQuote(q engine.Quote) {
	if len(q.Selection.TiedRuleIDs) > 0 {
		logger.Warn().
			Strs("rule_ids", q.Selection.TiedRuleIDs).
			Int("priority", q.Selection.Rule.Priority).
			Msg("eligible rules share a priority, first in list order wins")
	}
	ev := logger.Debug().
		Str("sipp", q.SIPPCode).
		Int("days", q.DurationDays).
		Int("candidates", q.Selection.Candidates).
		Str("reason", string(q.Price.Reason))
	if q.Selection.Found() {
		ev = ev.Str("rule_id", q.Selection.Rule.ID)
	}
	ev.Msg("quote computed")
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteBooking.register(quoteCmd)
	quoteCmd.Flags().StringVar(&quoteSIPP, "sipp", "", "Car model SIPP code")
	_ = quoteCmd.MarkFlagRequired("sipp")
}
