package report

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"

	"FactorBench/internal/calculator"
	"FactorBench/internal/model"
)

// FactorSummary averages one factor's training IC statistics across splits.
type FactorSummary struct {
	Factor     string
	MeanIC     float64
	MeanIR     float64
	MeanWeight float64
	Splits     int
}

// CostSummary averages per-split performance at one cost level.
type CostSummary struct {
	CostBps   float64
	MeanDaily float64
	VolDaily  float64
	Splits    int
}

func nanMean(v []float64) float64 {
	v = calculator.DropNaN(v)
	if len(v) == 0 {
		return math.NaN()
	}
	return stat.Mean(v, nil)
}

// SummarizeFactors groups records by factor, sorted by mean IC descending with
// undefined means last.
func SummarizeFactors(recs []model.FactorRecord) []FactorSummary {
	type acc struct{ ic, ir, w []float64 }
	groups := make(map[string]*acc)
	var order []string
	for _, r := range recs {
		g, ok := groups[r.Factor]
		if !ok {
			g = &acc{}
			groups[r.Factor] = g
			order = append(order, r.Factor)
		}
		g.ic = append(g.ic, r.TrainICMean)
		g.ir = append(g.ir, r.TrainICIR)
		g.w = append(g.w, r.Weight)
	}

	out := make([]FactorSummary, 0, len(order))
	for _, f := range order {
		g := groups[f]
		out = append(out, FactorSummary{
			Factor:     f,
			MeanIC:     nanMean(g.ic),
			MeanIR:     nanMean(g.ir),
			MeanWeight: nanMean(g.w),
			Splits:     len(g.ic),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].MeanIC, out[j].MeanIC
		if math.IsNaN(b) {
			return !math.IsNaN(a)
		}
		return !math.IsNaN(a) && a > b
	})
	return out
}

// SummarizeCosts groups performance rows by cost level in ascending cost order.
func SummarizeCosts(rows []model.PerformanceRow) []CostSummary {
	means := make(map[float64][]float64)
	vols := make(map[float64][]float64)
	var costs []float64
	for _, r := range rows {
		if _, ok := means[r.CostBps]; !ok {
			costs = append(costs, r.CostBps)
		}
		means[r.CostBps] = append(means[r.CostBps], r.MeanDaily)
		vols[r.CostBps] = append(vols[r.CostBps], r.VolDaily)
	}
	slices.Sort(costs)

	out := make([]CostSummary, 0, len(costs))
	for _, c := range costs {
		out = append(out, CostSummary{
			CostBps:   c,
			MeanDaily: nanMean(means[c]),
			VolDaily:  nanMean(vols[c]),
			Splits:    len(means[c]),
		})
	}
	return out
}

// Equity compounds a return series into a growth-of-one curve.
func Equity(returns model.Series) model.Series {
	out := model.Series{Name: "equity", Dates: returns.Dates, Values: make([]float64, returns.Len())}
	level := 1.0
	for i, r := range returns.Values {
		if !math.IsNaN(r) {
			level *= 1 + r
		}
		out.Values[i] = level
	}
	return out
}
