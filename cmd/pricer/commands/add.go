package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/gopricer/internal/audit"
	"github.com/TimurManjosov/gopricer/internal/rules"
)

var (
	addID        string
	addBrackets  []string
	addStores    []string
	addChannels  []string
	addRentalRng string
	addDisabled  bool
)

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Append a new rule with the lowest precedence",
	Long: `Append a rule at the end of the list (priority N+1). Prices are added
afterwards with set-price.

Examples:
  pricer add "Summer web promo" --brackets 1,2-5,6-15 --channels web --rental 2025-07-01..2025-08-31
  pricer add "Airport base" --id airport_base --stores store_1 --disabled`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r := rules.PricingRule{
			ID:     addID,
			Name:   args[0],
			Status: rules.StatusEnabled,
			Conditions: rules.Condition{
				ApplicableStores: addStores,
				SourceChannels:   addChannels,
			},
		}
		if addDisabled {
			r.Status = rules.StatusDisabled
		}
		for _, s := range addBrackets {
			b, err := parseBracket(s)
			if err != nil {
				return err
			}
			r.Conditions.RentalDurationBrackets = append(r.Conditions.RentalDurationBrackets, b)
		}
		if addRentalRng != "" {
			rng, err := parseDateRange(addRentalRng)
			if err != nil {
				return err
			}
			r.Conditions.RentalDateRange = &rng
		}

		doc, err := loadRules()
		if err != nil {
			return err
		}
		if doc.Rules, err = rules.Insert(doc.Rules, r); err != nil {
			return err
		}
		if err := saveRules(doc); err != nil {
			return err
		}
		added := doc.Rules[len(doc.Rules)-1]
		recordEdit(cmd.Context(), audit.ActionCreated, nil, &added)
		return printRules(cmd, doc)
	},
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVar(&addID, "id", "", "Rule id (generated when empty)")
	addCmd.Flags().StringSliceVar(&addBrackets, "brackets", nil, "Duration brackets, e.g. 1,2-5,6-15")
	addCmd.Flags().StringSliceVar(&addStores, "stores", nil, "Applicable store ids")
	addCmd.Flags().StringSliceVar(&addChannels, "channels", nil, "Source channel ids")
	addCmd.Flags().StringVar(&addRentalRng, "rental", "", "Rental date window, e.g. 2025-07-01..2025-08-31")
	addCmd.Flags().BoolVar(&addDisabled, "disabled", false, "Create the rule disabled")
}

// parseBracket accepts "N" or "FROM-TO".
func parseBracket(s string) (rules.Bracket, error) {
	from, to, found := strings.Cut(strings.TrimSpace(s), "-")
	if !found {
		to = from
	}
	f, err := strconv.Atoi(strings.TrimSpace(from))
	if err != nil {
		return rules.Bracket{}, fmt.Errorf("%w: %q", rules.ErrInvalidBracket, s)
	}
	t, err := strconv.Atoi(strings.TrimSpace(to))
	if err != nil {
		return rules.Bracket{}, fmt.Errorf("%w: %q", rules.ErrInvalidBracket, s)
	}
	return rules.Bracket{From: f, To: t}, nil
}

// parseDateRange accepts "START..END".
func parseDateRange(s string) (rules.DateRange, error) {
	start, end, found := strings.Cut(s, "..")
	if !found {
		return rules.DateRange{}, fmt.Errorf("%w: %q, want START..END", rules.ErrInvalidDateRange, s)
	}
	var (
		rng rules.DateRange
		err error
	)
	if rng.Start, err = rules.ParseDate(strings.TrimSpace(start)); err != nil {
		return rules.DateRange{}, err
	}
	if rng.End, err = rules.ParseDate(strings.TrimSpace(end)); err != nil {
		return rules.DateRange{}, err
	}
	return rng, nil
}
