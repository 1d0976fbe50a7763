package backtest

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"FactorBench/internal/allocator"
	"FactorBench/internal/collector"
	"FactorBench/internal/config"
	"FactorBench/internal/metrics"
	"FactorBench/internal/model"
	"FactorBench/internal/recorder"
	"FactorBench/internal/report"
)

// AllocatorStateFile is the allocator snapshot written next to the run artifacts.
const AllocatorStateFile = "allocator_state.json"

// Pipeline runs one complete backtest: load panels, evaluate splits, write artifacts,
// record results and export metrics.
type Pipeline struct {
	Cfg       *config.Config
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Metrics   *metrics.Recorder
	Now       func() time.Time
}

// CollectorFromConfig builds the collector for the configured data provider.
func CollectorFromConfig(cfg *config.Config) (*collector.Collector, error) {
	var start, end time.Time
	var err error
	if cfg.Data.Start != "" {
		if start, err = time.Parse(time.DateOnly, cfg.Data.Start); err != nil {
			return nil, fmt.Errorf("data.start: %w", err)
		}
	}
	if cfg.Data.End != "" {
		if end, err = time.Parse(time.DateOnly, cfg.Data.End); err != nil {
			return nil, fmt.Errorf("data.end: %w", err)
		}
	}

	var p collector.Provider
	switch cfg.Data.Provider {
	case "csv":
		p = &collector.CSVProvider{Path: cfg.Data.Path}
	case "yahoo":
		p = collector.NewYahooProvider(cfg.Proxy)
	case "synthetic":
		p = &collector.SyntheticProvider{Symbols: cfg.Data.Synthetic.Symbols, Seed: cfg.Data.Synthetic.Seed}
	default:
		return nil, fmt.Errorf("unknown data provider %q", cfg.Data.Provider)
	}
	return collector.NewCollector(p, cfg.Data.Tickers, start, end), nil
}

// NewPipeline wires a pipeline. A nil recorder falls back to the no-op recorder.
func NewPipeline(cfg *config.Config, col *collector.Collector, rec recorder.Recorder, m *metrics.Recorder) *Pipeline {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Pipeline{Cfg: cfg, Collector: col, Recorder: rec, Metrics: m, Now: time.Now}
}

// Execute performs one run. The returned summary is non-nil whenever a run id was
// assigned, even on failure.
func (p *Pipeline) Execute(ctx context.Context) (*model.RunSummary, error) {
	started := p.Now()
	runID := uuid.NewString()
	summary := &model.RunSummary{RunID: runID, Method: p.Cfg.Combination.Method}
	logger := log.With().Str("run_id", runID).Logger()

	evt := &recorder.RunEvent{
		RunID:     runID,
		StartedAt: started,
		Method:    p.Cfg.Combination.Method,
		Factors:   p.Cfg.Factors.Enabled,
		Status:    recorder.StatusRunning,
	}
	if err := p.Recorder.RecordRun(evt); err != nil {
		logger.Error().Err(err).Msg("record run start")
	}

	res, outDir, err := p.execute(ctx, runID, started)
	evt.FinishedAt = p.Now()
	if err != nil {
		evt.Status, evt.Note = recorder.StatusFailed, err.Error()
		p.finish(evt, "failed")
		logger.Error().Err(err).Msg("backtest failed")
		return summary, err
	}

	evt.Status, evt.Splits = recorder.StatusOK, len(res.Splits)
	p.finish(evt, "ok")

	summary = res.Summary(runID, p.Cfg.Combination.Method, p.Cfg.Costs.BpsList, evt.FinishedAt.Sub(started))
	summary.OutputDir = outDir
	logger.Info().Str("dir", outDir).Dur("elapsed", summary.Elapsed).Msg("backtest finished")
	return summary, nil
}

func (p *Pipeline) execute(ctx context.Context, runID string, started time.Time) (*Result, string, error) {
	opts, err := OptionsFromConfig(p.Cfg)
	if err != nil {
		return nil, "", err
	}

	prices, volumes, err := p.Collector.Collect(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("collect: %w", err)
	}

	res, err := NewRunner(opts, p.Metrics).Run(ctx, prices, volumes)
	if err != nil {
		return nil, "", err
	}

	outDir := filepath.Join(p.Cfg.Reporting.OutputDir, started.Format("20060102_150405")+"_"+runID[:8])
	w, err := report.NewWriter(outDir)
	if err != nil {
		return nil, "", err
	}
	if err := w.WriteAll(&report.Bundle{
		RunID:       runID,
		Method:      p.Cfg.Combination.Method,
		Factors:     res.Factors,
		Performance: res.Performance,
		Gross:       res.Gross,
		Metadata:    p.Cfg.Redacted(),
		CreatedAt:   started,
	}); err != nil {
		return nil, "", err
	}
	if res.Allocator != nil {
		if err := allocator.SaveState(filepath.Join(outDir, AllocatorStateFile), *res.Allocator); err != nil {
			return nil, "", fmt.Errorf("save allocator state: %w", err)
		}
	}

	// SQLite writes are best effort.
	if err := p.Recorder.RecordFactorQuality(runID, res.Factors); err != nil {
		log.Error().Err(err).Msg("record factor quality")
	}
	if err := p.Recorder.RecordPerformance(runID, res.Performance); err != nil {
		log.Error().Err(err).Msg("record performance")
	}
	if err := p.Recorder.RecordDailyReturns(runID, res.Gross); err != nil {
		log.Error().Err(err).Msg("record daily returns")
	}
	return res, outDir, nil
}

func (p *Pipeline) finish(evt *recorder.RunEvent, status string) {
	if err := p.Recorder.RecordRun(evt); err != nil {
		log.Error().Err(err).Msg("record run finish")
	}
	p.Metrics.RecordRun(status, float64(evt.FinishedAt.Unix()))
	if path := p.Cfg.Metrics.Textfile; path != "" {
		if err := p.Metrics.WriteTextfile(path); err != nil {
			log.Error().Err(err).Msg("write metrics")
		}
	}
}
