package portfolio

import (
	"math"

	"FactorBench/internal/calculator"
	"FactorBench/internal/model"
)

const (
	// NeutralTolerance bounds |sum of weights| on a traded date.
	NeutralTolerance = 1e-6
	// CapTolerance bounds how far |weight| may exceed MaxAbsWeight.
	CapTolerance = 1e-9
	// DefaultMinNames is the smallest cross-section that gets a portfolio.
	DefaultMinNames = 10
)

// Params controls long/short construction.
type Params struct {
	LongQuantile  float64 // fraction of names in the long bucket
	ShortQuantile float64 // fraction of names in the short bucket
	GrossExposure float64 // target long + |short|
	MaxAbsWeight  float64 // per-name cap
	MinNames      int     // rows with fewer valid scores stay flat; 0 means DefaultMinNames
}

// Build converts a score panel into market-neutral long/short weights, one row per date.
// Rows are independent. A row is either all zero or sums to zero with every
// |weight| <= MaxAbsWeight; legs are only ever scaled down so the cap always holds.
func Build(scores *model.Panel, p Params) *model.Panel {
	if p.MinNames <= 0 {
		p.MinNames = DefaultMinNames
	}
	out := model.NewPanelLike(scores)
	for i, row := range scores.Values {
		out.Values[i] = buildRow(row, p)
	}
	return out
}

func buildRow(scores []float64, p Params) []float64 {
	w := make([]float64, len(scores))

	valid := calculator.DropNaN(scores)
	if len(valid) < p.MinNames {
		return w
	}
	lo := calculator.Quantile(valid, p.ShortQuantile)
	hi := calculator.Quantile(valid, 1-p.LongQuantile)

	var longs, shorts []int
	for j, s := range scores {
		if math.IsNaN(s) {
			continue
		}
		inLong, inShort := s >= hi, s <= lo
		if inLong && inShort {
			// Buckets overlap only when the cross-section is degenerate (heavy ties).
			return w
		}
		if inLong {
			longs = append(longs, j)
		}
		if inShort {
			shorts = append(shorts, j)
		}
	}
	if len(longs) == 0 || len(shorts) == 0 {
		return w
	}

	longW := math.Min(1/float64(len(longs)), p.MaxAbsWeight)
	shortW := math.Min(1/float64(len(shorts)), p.MaxAbsWeight)
	longSum := longW * float64(len(longs))
	shortSum := shortW * float64(len(shorts))
	if longSum <= 0 || shortSum <= 0 {
		return w
	}

	leg := math.Min(math.Min(longSum, shortSum), p.GrossExposure/2)
	for _, j := range longs {
		w[j] = longW * leg / longSum
	}
	for _, j := range shorts {
		w[j] = -shortW * leg / shortSum
	}
	for j := range w {
		w[j] = math.Max(-p.MaxAbsWeight, math.Min(p.MaxAbsWeight, w[j]))
	}
	return w
}
