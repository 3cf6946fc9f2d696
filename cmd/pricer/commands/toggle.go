package commands

import (
	"github.com/spf13/cobra"

	"github.com/TimurManjosov/gopricer/internal/audit"
	"github.com/TimurManjosov/gopricer/internal/rules"
)

var toggleCmd = &cobra.Command{
	Use:   "toggle <rule-id>",
	Short: "Enable or disable a rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadRules()
		if err != nil {
			return err
		}
		before := ruleByID(doc.Rules, args[0])
		toggled, err := rules.ToggleStatus(doc.Rules, args[0])
		if err != nil {
			return err
		}
		doc.Rules = toggled

		if err := saveRules(doc); err != nil {
			return err
		}
		recordEdit(cmd.Context(), audit.ActionToggled, before, ruleByID(doc.Rules, args[0]))
		return printRules(cmd, doc)
	},
}

func init() {
	rootCmd.AddCommand(toggleCmd)
}
