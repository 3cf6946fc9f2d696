package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TimurManjosov/gopricer/internal/rules"
)

var (
	listSearch      string
	listEnabledOnly bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List pricing rules in priority order",
	Long: `List the rules of the rule file in priority order. The lifecycle column is
recomputed for today in the configured timezone.

Examples:
  pricer list
  pricer list --search summer
  pricer list --enabled-only --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := loadRules()
		if err != nil {
			return err
		}

		doc.Rules = rules.FilterByName(doc.Rules, listSearch)
		if listEnabledOnly {
			enabled := doc.Rules[:0]
			for _, r := range doc.Rules {
				if r.Enabled() {
					enabled = append(enabled, r)
				}
			}
			doc.Rules = enabled
		}

		if !quiet && len(doc.Rules) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No rules found")
			return nil
		}
		return printRules(cmd, doc)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listSearch, "search", "", "Only rules whose name contains this text (case-insensitive)")
	listCmd.Flags().BoolVar(&listEnabledOnly, "enabled-only", false, "Show only enabled rules")
}
