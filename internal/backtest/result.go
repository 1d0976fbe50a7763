package backtest

import (
	"time"

	"FactorBench/internal/allocator"
	"FactorBench/internal/model"
)

// Result is the outcome of one walk-forward run.
type Result struct {
	Splits      []model.Split
	Factors     []model.FactorRecord
	Performance []model.PerformanceRow
	Gross       model.Series             // stitched out-of-sample gross returns
	Net         map[float64]model.Series // stitched net returns per cost level
	Latest      []model.FactorWeight     // weights used in the last split
	Allocator   *allocator.State         // nil unless the online method ran
}

// ByCost summarizes the stitched net returns at each cost level, in the given order.
func (r *Result) ByCost(costs []float64) []model.CostSummary {
	out := make([]model.CostSummary, 0, len(costs))
	for _, bps := range costs {
		s, ok := r.Net[bps]
		if !ok {
			continue
		}
		mean, vol, sharpe := DailyStats(s.Values)
		out = append(out, model.CostSummary{CostBps: bps, MeanDaily: mean, VolDaily: vol, Sharpe: sharpe, Days: s.Len()})
	}
	return out
}

// Summary condenses the result for notifications.
func (r *Result) Summary(runID, method string, costs []float64, elapsed time.Duration) *model.RunSummary {
	s := &model.RunSummary{
		RunID:   runID,
		Method:  method,
		Splits:  len(r.Splits),
		Latest:  r.Latest,
		ByCost:  r.ByCost(costs),
		Elapsed: elapsed,
	}
	if n := r.Gross.Len(); n > 0 {
		s.Start, s.End = r.Gross.Dates[0], r.Gross.Dates[n-1]
	}
	return s
}
