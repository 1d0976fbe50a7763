package backtest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FactorBench/internal/allocator"
	"FactorBench/internal/config"
	"FactorBench/internal/recorder"
	"FactorBench/internal/report"
)

func loadConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestPipelineSyntheticOnline(t *testing.T) {
	dir := t.TempDir()
	cfg := loadConfig(t, `
data:
  provider: synthetic
  start: "2014-01-01"
  end: "2019-06-30"
  synthetic:
    symbols: 24
    seed: 11
factors:
  enabled: [mom_12_1, rev_1m, vol_20d]
combination:
  method: online
portfolio:
  max_abs_weight: 0.2
costs:
  bps_list: [0, 10]
telegram:
  bot_token: secret-token
  chat_id: "1"
reporting:
  output_dir: `+filepath.Join(dir, "runs")+`
metrics:
  textfile: `+filepath.Join(dir, "factorbench.prom")+`
`)

	col, err := CollectorFromConfig(cfg)
	require.NoError(t, err)
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(dir, "bench.db"))
	require.NoError(t, err)
	defer rec.Close()

	summary, err := NewPipeline(cfg, col, rec, nil).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "online", summary.Method)
	assert.GreaterOrEqual(t, summary.Splits, 6)
	assert.Len(t, summary.ByCost, 2)
	assert.Len(t, summary.Latest, 3)

	for _, f := range []string{
		report.FactorICFile, report.PerformanceFile, report.GrossReturnsFile,
		report.EquityFile, report.MarkdownFile, report.MetadataFile, AllocatorStateFile,
	} {
		assert.FileExists(t, filepath.Join(summary.OutputDir, f))
	}

	meta, err := os.ReadFile(filepath.Join(summary.OutputDir, report.MetadataFile))
	require.NoError(t, err)
	assert.NotContains(t, string(meta), "secret-token")
	assert.Contains(t, string(meta), `"bps_list"`)

	st, err := allocator.LoadState(filepath.Join(summary.OutputDir, AllocatorStateFile))
	require.NoError(t, err)
	assert.Equal(t, []string{"mom_12_1", "rev_1m", "vol_20d"}, st.Factors)
	assert.Equal(t, summary.Splits-cfg.Combination.Online.WarmupSplits, st.Steps)

	status, _, err := rec.RunStatus(summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, recorder.StatusOK, status)

	prom, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `factorbench_runs_total{status="ok"} 1`)
}

func TestPipelineRecordsFailure(t *testing.T) {
	dir := t.TempDir()
	cfg := loadConfig(t, `
data:
  provider: synthetic
  start: "2022-01-01"
  end: "2023-12-31"
factors:
  enabled: [rev_5d]
reporting:
  output_dir: `+filepath.Join(dir, "runs")+`
`)
	col, err := CollectorFromConfig(cfg)
	require.NoError(t, err)
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(dir, "bench.db"))
	require.NoError(t, err)
	defer rec.Close()

	summary, err := NewPipeline(cfg, col, rec, nil).Execute(context.Background())
	require.ErrorIs(t, err, ErrTooFewSplits)
	require.NotNil(t, summary)

	status, _, err := rec.RunStatus(summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, recorder.StatusFailed, status)
}

func TestCollectorFromConfigRejectsBadDate(t *testing.T) {
	cfg := &config.Config{}
	cfg.Data.Provider = "synthetic"
	cfg.Data.Start = "01/02/2020"
	_, err := CollectorFromConfig(cfg)
	assert.Error(t, err)
}
