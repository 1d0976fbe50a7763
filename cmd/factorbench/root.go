package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"FactorBench/internal/config"
	"FactorBench/internal/notifier"
	"FactorBench/internal/recorder"
)

// Execute builds the command tree and runs it.
func Execute(ctx context.Context) error {
	root := &cobra.Command{
		Use:           "factorbench",
		Short:         "Walk-forward factor combination and long/short portfolio backtests",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "configs/config.yaml", "path to the YAML config")
	root.AddCommand(runCmd(), scheduleCmd(), factorsCmd())
	return root.ExecuteContext(ctx)
}

// loadConfig reads, validates and applies logging settings from --config.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if v := os.Getenv("CONFIG_PATH"); v != "" && !cmd.Flags().Changed("config") {
		path = v
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	setupLogging(cfg)
	log.Info().Str("config", path).Msg("config loaded")
	return cfg, nil
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Log.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// openRecorder returns the SQLite recorder when configured, falling back to a no-op
// recorder if it cannot be opened.
func openRecorder(cfg *config.Config) recorder.Recorder {
	if cfg.Reporting.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Reporting.SQLitePath)
	if err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}

// openNotifier returns nil when Telegram is not configured.
func openNotifier(cfg *config.Config) *notifier.TelegramNotifier {
	if !cfg.TelegramEnabled() {
		return nil
	}
	return notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
}
