package commands

import (
	"github.com/spf13/cobra"

	"github.com/TimurManjosov/gopricer/internal/audit"
	"github.com/TimurManjosov/gopricer/internal/rules"
)

var removeCmd = &cobra.Command{
	Use:     "remove <rule-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a rule and close the priority gap",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadRules()
		if err != nil {
			return err
		}
		before := ruleByID(doc.Rules, args[0])
		if before == nil {
			logger.Warn().Str("rule_id", args[0]).Msg("rule not found, nothing removed")
		}
		remaining, err := rules.Remove(doc.Rules, args[0])
		if err != nil {
			return err
		}
		doc.Rules = remaining

		if err := saveRules(doc); err != nil {
			return err
		}
		if before != nil {
			recordEdit(cmd.Context(), audit.ActionDeleted, before, nil)
		}
		return printRules(cmd, doc)
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
