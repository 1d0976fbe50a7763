package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"FactorBench/internal/model"
)

// FormatRunSummary formats a finished backtest run into a Telegram HTML message.
func FormatRunSummary(s *model.RunSummary) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>FactorBench run</b> | %s\n\n", time.Now().Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Method: %s | Splits: %d\n", html.EscapeString(s.Method), s.Splits))
	if !s.Start.IsZero() {
		b.WriteString(fmt.Sprintf("Out-of-sample: %s → %s\n", s.Start.Format(time.DateOnly), s.End.Format(time.DateOnly)))
	}
	b.WriteString(fmt.Sprintf("Run: <code>%s</code> (%s)\n\n", s.RunID, s.Elapsed.Round(time.Second)))

	if len(s.ByCost) > 0 {
		b.WriteString("📈 <b>Performance</b>\n")
		t := table.NewWriter()
		t.AppendHeader(table.Row{"bps", "mean", "vol", "sharpe"})
		for _, c := range s.ByCost {
			t.AppendRow(table.Row{
				fmt.Sprintf("%g", c.CostBps),
				fmtPct(c.MeanDaily),
				fmtPct(c.VolDaily),
				fmtNum(c.Sharpe),
			})
		}
		b.WriteString("<pre>" + html.EscapeString(t.Render()) + "</pre>\n\n")
	}

	if len(s.Latest) > 0 {
		b.WriteString(FormatFactorWeights(s.Latest))
	}
	if s.OutputDir != "" {
		b.WriteString(fmt.Sprintf("\nArtifacts: <code>%s</code>", html.EscapeString(s.OutputDir)))
	}
	return b.String()
}

// FormatFactorWeights lists the latest split's combination weights.
func FormatFactorWeights(ws []model.FactorWeight) string {
	var b strings.Builder
	b.WriteString("⚖️ <b>Latest weights</b>\n")
	t := table.NewWriter()
	t.AppendHeader(table.Row{"factor", "weight", "ic", "side"})
	for _, w := range ws {
		side := "+"
		if w.Orientation < 0 {
			side = "-"
		}
		t.AppendRow(table.Row{w.Factor, fmtNum(w.Weight), fmtNum(w.TrainICMean), side})
	}
	b.WriteString("<pre>" + html.EscapeString(t.Render()) + "</pre>\n")
	return b.String()
}

// FormatFailure formats a failed run.
func FormatFailure(runID string, err error) string {
	return fmt.Sprintf("❌ <b>FactorBench run failed</b>\nRun: <code>%s</code>\n%s", runID, html.EscapeString(err.Error()))
}

func fmtNum(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", v)
}

func fmtPct(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f%%", v*100)
}
