package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/TimurManjosov/gopricer/internal/audit"
	"github.com/TimurManjosov/gopricer/internal/cli"
	"github.com/TimurManjosov/gopricer/internal/config"
	"github.com/TimurManjosov/gopricer/internal/logging"
	"github.com/TimurManjosov/gopricer/internal/rules"
	"github.com/TimurManjosov/gopricer/internal/ruleset"
)

var (
	// Global flags; empty values fall back to the environment.
	rulesFile string
	timezone  string
	logLevel  string
	format    string
	quiet     bool

	cfg     *config.Config
	logger  zerolog.Logger
	loc     *time.Location
	auditor *audit.Service

	// now is replaced in tests.
	now = time.Now
)

var rootCmd = &cobra.Command{
	Use:   "pricer",
	Short: "Evaluate and maintain car-rental pricing rules",
	Long: `Pricer selects the pricing rule that applies to a booking and resolves
the price of a car model from that rule's rate grid.

Rules live in a YAML or JSON file (RULES_FILE or --rules). Lower priority
numbers win; priorities are kept dense (1..N) by every editing command.

Examples:
  pricer list --search summer
  pricer quote --store store_1 --channel web --country HK --pickup 2025-07-10 --return 2025-07-13 --sipp CDAR
  pricer explain --store store_1 --pickup 2025-07-10 --days 3
  pricer move summer_promo 1
  pricer update summer_promo --weekdays sat,sun --origin exclude:US
  pricer monitor`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if rulesFile != "" {
			c.RulesFile = rulesFile
		}
		if timezone != "" {
			c.Timezone = timezone
		}
		if logLevel != "" {
			c.LogLevel = logLevel
		}
		if err := c.Validate(); err != nil {
			return err
		}
		l, err := c.Location()
		if err != nil {
			return err
		}
		cfg, loc = c, l
		logger = logging.New(c.LogLevel, c.LogFormat, os.Stderr)

		sinks := []audit.Sink{audit.LogSink{Logger: logger}}
		if c.AuditFile != "" {
			sinks = append(sinks, &audit.FileSink{Path: c.AuditFile})
		}
		auditor = audit.NewService(logger, nil, sinks...)
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules", "", "Rule file (overrides RULES_FILE)")
	rootCmd.PersistentFlags().StringVar(&timezone, "timezone", "", "Zone defining calendar days (overrides TIMEZONE)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
}

func loadRules() (*ruleset.Document, error) {
	doc, err := ruleset.Load(cfg.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	logger.Debug().Str("file", cfg.RulesFile).Int("rules", len(doc.Rules)).Msg("rules loaded")
	return doc, nil
}

func saveRules(doc *ruleset.Document) error {
	if err := ruleset.Save(cfg.RulesFile, doc); err != nil {
		return fmt.Errorf("save rules: %w", err)
	}
	logger.Info().Str("file", cfg.RulesFile).Int("rules", len(doc.Rules)).Msg("rules saved")
	return nil
}

func printRules(cmd *cobra.Command, doc *ruleset.Document) error {
	if quiet {
		return nil
	}
	rs := rules.RefreshLifecycles(doc.Rules, now(), loc)
	return cli.PrintRules(cmd.OutOrStdout(), rs, cli.OutputFormat(format))
}

// recordEdit audits a saved change to one rule. before is nil for a new
// rule and after is nil for a deleted one.
func recordEdit(ctx context.Context, action string, before, after *rules.PricingRule) {
	id := ""
	switch {
	case after != nil:
		id = after.ID
	case before != nil:
		id = before.ID
	}
	auditor.Log(ctx, audit.NewEventBuilder(audit.CurrentActor()).
		ForRule(id).
		WithAction(action).
		WithChanges(audit.ComputeChanges(before, after)).
		Build())
}

// ruleByID returns a copy of the rule with the given id, or nil.
func ruleByID(rs []rules.PricingRule, id string) *rules.PricingRule {
	if i := rules.IndexOf(rs, id); i >= 0 {
		r := rs[i].Clone()
		return &r
	}
	return nil
}
