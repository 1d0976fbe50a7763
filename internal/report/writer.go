package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"

	"FactorBench/internal/model"
)

// Artifact file names.
const (
	FactorICFile     = "factor_ic_summary.csv"
	PerformanceFile  = "portfolio_perf_by_split.csv"
	GrossReturnsFile = "portfolio_daily_returns_gross.csv"
	EquityFile       = "equity_gross.csv"
	MarkdownFile     = "report.md"
	MetadataFile     = "metadata.json"
)

// Bundle is everything a run hands to the writer.
type Bundle struct {
	RunID       string
	Method      string
	Factors     []model.FactorRecord
	Performance []model.PerformanceRow
	Gross       model.Series
	Metadata    any // serialized verbatim under "config"
	CreatedAt   time.Time
}

// Writer persists run artifacts into a directory.
type Writer struct {
	Dir string
}

// NewWriter creates the output directory if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Writer{Dir: dir}, nil
}

// WriteAll writes every artifact and returns the first error.
func (w *Writer) WriteAll(b *Bundle) error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{FactorICFile, func() error { return w.WriteFactorIC(b.Factors) }},
		{PerformanceFile, func() error { return w.WritePerformance(b.Performance) }},
		{GrossReturnsFile, func() error { return w.WriteReturns(GrossReturnsFile, b.Gross) }},
		{EquityFile, func() error { return w.WriteReturns(EquityFile, Equity(b.Gross)) }},
		{MarkdownFile, func() error { return w.WriteMarkdown(b) }},
		{MetadataFile, func() error { return w.WriteMetadata(b) }},
	}
	for _, s := range steps {
		if err := s.fn(); err != nil {
			return fmt.Errorf("write %s: %w", s.name, err)
		}
	}
	log.Info().Str("dir", w.Dir).Int("artifacts", len(steps)).Msg("report written")
	return nil
}

// WriteFactorIC writes one row per split and factor.
func (w *Writer) WriteFactorIC(recs []model.FactorRecord) error {
	n := len(recs)
	splits := make([]int, n)
	factors := make([]string, n)
	mean, std, ir := make([]float64, n), make([]float64, n), make([]float64, n)
	count := make([]int, n)
	orient, weight := make([]float64, n), make([]float64, n)
	for i, r := range recs {
		splits[i] = r.Split
		factors[i] = r.Factor
		mean[i], std[i], ir[i] = r.TrainICMean, r.TrainICStd, r.TrainICIR
		count[i] = r.TrainN
		orient[i], weight[i] = r.Orientation, r.Weight
	}
	df := dataframe.New(
		series.New(splits, series.Int, "split"),
		series.New(factors, series.String, "factor"),
		series.New(mean, series.Float, "train_ic_mean"),
		series.New(std, series.Float, "train_ic_std"),
		series.New(ir, series.Float, "train_ic_ir"),
		series.New(count, series.Int, "train_n"),
		series.New(orient, series.Float, "orientation"),
		series.New(weight, series.Float, "weight"),
	)
	return w.writeCSV(FactorICFile, df)
}

// WritePerformance writes one row per split and cost level.
func (w *Writer) WritePerformance(rows []model.PerformanceRow) error {
	n := len(rows)
	splits := make([]int, n)
	starts, ends := make([]string, n), make([]string, n)
	cost, mean, vol, sharpe := make([]float64, n), make([]float64, n), make([]float64, n), make([]float64, n)
	days := make([]int, n)
	for i, r := range rows {
		splits[i] = r.Split
		starts[i] = r.TestStart.Format(time.DateOnly)
		ends[i] = r.TestEnd.Format(time.DateOnly)
		cost[i], mean[i], vol[i], sharpe[i] = r.CostBps, r.MeanDaily, r.VolDaily, r.Sharpe
		days[i] = r.Days
	}
	df := dataframe.New(
		series.New(splits, series.Int, "split"),
		series.New(starts, series.String, "test_start"),
		series.New(ends, series.String, "test_end"),
		series.New(cost, series.Float, "cost_bps"),
		series.New(mean, series.Float, "mean_daily"),
		series.New(vol, series.Float, "vol_daily"),
		series.New(sharpe, series.Float, "sharpe"),
		series.New(days, series.Int, "days"),
	)
	return w.writeCSV(PerformanceFile, df)
}

// WriteReturns writes a dated series as date,<name>.
func (w *Writer) WriteReturns(file string, s model.Series) error {
	dates := make([]string, s.Len())
	for i, d := range s.Dates {
		dates[i] = d.Format(time.DateOnly)
	}
	name := s.Name
	if name == "" {
		name = "value"
	}
	df := dataframe.New(
		series.New(dates, series.String, "date"),
		series.New(s.Values, series.Float, name),
	)
	return w.writeCSV(file, df)
}

func (w *Writer) writeCSV(file string, df dataframe.DataFrame) error {
	if df.Err != nil {
		return df.Err
	}
	f, err := os.Create(filepath.Join(w.Dir, file))
	if err != nil {
		return err
	}
	defer f.Close()
	return df.WriteCSV(f)
}

// WriteMarkdown renders the factor and cost summaries as Markdown tables.
func (w *Writer) WriteMarkdown(b *Bundle) error {
	var sb strings.Builder
	sb.WriteString("# FactorBench report\n\n")
	sb.WriteString(fmt.Sprintf("- Run: `%s`\n", b.RunID))
	sb.WriteString(fmt.Sprintf("- Method: %s\n", b.Method))
	if b.Gross.Len() > 0 {
		sb.WriteString(fmt.Sprintf("- Out-of-sample: %s to %s (%d days)\n",
			b.Gross.Dates[0].Format(time.DateOnly), b.Gross.Dates[b.Gross.Len()-1].Format(time.DateOnly), b.Gross.Len()))
		eq := Equity(b.Gross)
		sb.WriteString(fmt.Sprintf("- Gross growth of 1: %.4f\n", eq.Values[eq.Len()-1]))
	}

	sb.WriteString("\n## IC summary by factor\n\n")
	ft := table.NewWriter()
	ft.AppendHeader(table.Row{"factor", "mean train IC", "mean train IR", "mean weight", "splits"})
	for _, f := range SummarizeFactors(b.Factors) {
		ft.AppendRow(table.Row{f.Factor, num(f.MeanIC, 4), num(f.MeanIR, 3), num(f.MeanWeight, 3), f.Splits})
	}
	sb.WriteString(ft.RenderMarkdown())

	sb.WriteString("\n\n## Performance by cost level\n\n")
	ct := table.NewWriter()
	ct.AppendHeader(table.Row{"cost (bps)", "mean daily", "mean vol", "splits"})
	for _, c := range SummarizeCosts(b.Performance) {
		ct.AppendRow(table.Row{fmt.Sprintf("%g", c.CostBps), num(c.MeanDaily, 6), num(c.VolDaily, 6), c.Splits})
	}
	sb.WriteString(ct.RenderMarkdown())
	sb.WriteString("\n")

	return os.WriteFile(filepath.Join(w.Dir, MarkdownFile), []byte(sb.String()), 0o644)
}

// WriteMetadata records the run identity and the effective configuration.
func (w *Writer) WriteMetadata(b *Bundle) error {
	created := b.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	meta := struct {
		RunID     string    `json:"run_id"`
		Method    string    `json:"method"`
		CreatedAt time.Time `json:"created_at"`
		Splits    int       `json:"splits"`
		Config    any       `json:"config,omitempty"`
	}{
		RunID:     b.RunID,
		Method:    b.Method,
		CreatedAt: created.UTC(),
		Splits:    countSplits(b.Performance),
		Config:    b.Metadata,
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	return os.WriteFile(filepath.Join(w.Dir, MetadataFile), data, 0o644)
}

func countSplits(rows []model.PerformanceRow) int {
	seen := make(map[int]bool)
	for _, r := range rows {
		seen[r.Split] = true
	}
	return len(seen)
}

func num(v float64, prec int) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", prec, v)
}
