package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/TimurManjosov/gopricer/internal/monitor"
	"github.com/TimurManjosov/gopricer/internal/telemetry"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch the rule file and expose rule metrics",
	Long: `Load the rule file, republish it whenever it changes and serve /metrics and
/healthz on METRICS_ADDR. A rule file that fails validation is logged and
ignored; the last valid rules stay published.

Rule gauges and lifecycle transitions are refreshed every MONITOR_INTERVAL.

Examples:
  pricer monitor
  RULES_FILE=/etc/pricer/rules.yaml METRICS_ADDR=:9100 pricer monitor`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		telemetry.Init()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		m := monitor.New(monitor.Options{
			RulesFile: cfg.RulesFile,
			Interval:  cfg.MonitorInterval,
			Location:  loc,
			Logger:    logger,
			Now:       now,
		})

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return monitor.Serve(ctx, cfg.MetricsAddr, logger) })
		g.Go(func() error { return m.Run(ctx) })

		logger.Info().Str("file", cfg.RulesFile).Dur("interval", cfg.MonitorInterval).Msg("monitor started")
		err := g.Wait()
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Info().Msg("monitor stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}
