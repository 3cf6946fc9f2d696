package commands

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/TimurManjosov/gopricer/internal/audit"
	"github.com/TimurManjosov/gopricer/internal/rules"
)

var (
	setPriceSIPP    string
	setPriceBracket string
	setPriceAmount  string
)

var setPriceCmd = &cobra.Command{
	Use:   "set-price <rule-id>",
	Short: "Set one cell of a rule's rate grid",
	Long: `Set the price of a car model for one of the rule's duration brackets.
The car model row is added to the grid when it does not exist yet.

Examples:
  pricer set-price summer_promo --sipp CDAR --bracket 2-5 --price 380
  pricer set-price summer_promo --sipp SFAR --bracket 1 --price 120.50`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bracket, err := parseBracket(setPriceBracket)
		if err != nil {
			return err
		}
		price, err := decimal.NewFromString(setPriceAmount)
		if err != nil {
			return fmt.Errorf("invalid price %q: %w", setPriceAmount, err)
		}

		doc, err := loadRules()
		if err != nil {
			return err
		}
		idx := rules.IndexOf(doc.Rules, args[0])
		if idx < 0 {
			return fmt.Errorf("%w: %q", rules.ErrRuleNotFound, args[0])
		}
		before := doc.Rules[idx].Clone()
		edited, err := rules.SetPrice(before, setPriceSIPP, bracket, price)
		if err != nil {
			return err
		}
		if doc.Rules, err = rules.Replace(doc.Rules, edited); err != nil {
			return err
		}

		if err := saveRules(doc); err != nil {
			return err
		}
		recordEdit(cmd.Context(), audit.ActionPriced, &before, ruleByID(doc.Rules, edited.ID))
		return printRules(cmd, doc)
	},
}

func init() {
	rootCmd.AddCommand(setPriceCmd)

	setPriceCmd.Flags().StringVar(&setPriceSIPP, "sipp", "", "Car model SIPP code")
	setPriceCmd.Flags().StringVar(&setPriceBracket, "bracket", "", "Duration bracket, e.g. 2-5 or 1")
	setPriceCmd.Flags().StringVar(&setPriceAmount, "price", "", "Price for the bracket")
	_ = setPriceCmd.MarkFlagRequired("sipp")
	_ = setPriceCmd.MarkFlagRequired("bracket")
	_ = setPriceCmd.MarkFlagRequired("price")
}
