package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/gopricer/internal/audit"
	"github.com/TimurManjosov/gopricer/internal/rules"
)

var moveCmd = &cobra.Command{
	Use:   "move <rule-id> <position>",
	Short: "Move a rule to a new position",
	Long: `Move a rule to the given 1-based position. The rules in between shift by
one and every priority is rewritten to match the new order.

Examples:
  pricer move summer_promo 1`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		position, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid position %q: %w", args[1], err)
		}

		doc, err := loadRules()
		if err != nil {
			return err
		}
		from := rules.IndexOf(doc.Rules, id)
		if from < 0 {
			return fmt.Errorf("%w: %q", rules.ErrRuleNotFound, id)
		}
		before := ruleByID(doc.Rules, id)
		moved, err := rules.Move(doc.Rules, from, position-1)
		if err != nil {
			return err
		}
		doc.Rules = moved

		if err := saveRules(doc); err != nil {
			return err
		}
		recordEdit(cmd.Context(), audit.ActionMoved, before, ruleByID(doc.Rules, id))
		return printRules(cmd, doc)
	},
}

func init() {
	rootCmd.AddCommand(moveCmd)
}
