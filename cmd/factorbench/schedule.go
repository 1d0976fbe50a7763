package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"FactorBench/internal/backtest"
	"FactorBench/internal/metrics"
	"FactorBench/internal/notifier"
	"FactorBench/internal/scheduler"
)

func scheduleCmd() *cobra.Command {
	var runOnStart bool
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run backtests on the configured cron schedule until interrupted",
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
			// One metrics registry for the daemon so counters accumulate across runs.
			pipe := backtest.NewPipeline(cfg, col, rec, metrics.New())

			var sender notifier.Sender
			tn := openNotifier(cfg)
			if tn != nil {
				sender = tn
			}
			sched := scheduler.NewScheduler(ctx, pipe.Execute, sender)
			if err := sched.Register(cfg.Schedule.Cron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			if tn != nil {
				go tn.StartPolling(ctx, sched.HandleCommand)
				log.Info().Msg("telegram polling started")
			}
			if runOnStart {
				go sched.RunNow()
			}

			log.Info().Msg("factorbench scheduler running, press Ctrl+C to stop")
			<-ctx.Done()
			log.Info().Msg("shutdown signal received, stopping")
			return nil
		},
	}
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", false, "run one backtest immediately")
	return cmd
}
