package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"FactorBench/internal/backtest"
	"FactorBench/internal/notifier"
	"FactorBench/internal/strategy"
)

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one walk-forward backtest and write its artifacts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			col, err := backtest.CollectorFromConfig(cfg)
			if err != nil {
				return err
			}
			rec := openRecorder(cfg)
			defer rec.Close()

			ctx := cmd.Context()
			summary, runErr := backtest.NewPipeline(cfg, col, rec, nil).Execute(ctx)

			if tn := openNotifier(cfg); tn != nil {
				var text string
				if runErr != nil {
					text = notifier.FormatFailure(summary.RunID, runErr)
				} else {
					text = notifier.FormatRunSummary(summary)
				}
				if err := tn.SendWithRetry(ctx, text, 3); err != nil {
					log.Error().Err(err).Msg("send run summary")
				}
			}
			if runErr != nil {
				return runErr
			}

			for _, c := range summary.ByCost {
				log.Info().
					Float64("cost_bps", c.CostBps).
					Float64("mean_daily", c.MeanDaily).
					Float64("vol_daily", c.VolDaily).
					Float64("sharpe", c.Sharpe).
					Msg("out-of-sample performance")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Done. Results in: %s\n", summary.OutputDir)
			return nil
		},
	}
}

func factorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "factors",
		Short: "List the built-in factors",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, name := range strategy.DefaultRegistry().Names() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
