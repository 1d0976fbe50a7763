package calculator

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"FactorBench/internal/model"
)

// WinsorizeCS clips each row to its [pct, 1-pct] quantiles. pct <= 0 is a no-op.
func WinsorizeCS(p *model.Panel, pct float64) *model.Panel {
	if pct <= 0 {
		return p.Clone()
	}
	out := model.NewPanelLike(p)
	for i, row := range p.Values {
		lo := Quantile(row, pct)
		hi := Quantile(row, 1-pct)
		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			out.Values[i][j] = math.Min(math.Max(v, lo), hi)
		}
	}
	return out
}

// ZScoreCS standardizes each row by its mean and sample standard deviation.
// Rows with fewer than two values or zero dispersion become all NaN.
func ZScoreCS(p *model.Panel) *model.Panel {
	out := model.NewPanelLike(p)
	for i, row := range p.Values {
		x := DropNaN(row)
		if len(x) < 2 {
			continue
		}
		mu, sd := stat.MeanStdDev(x, nil)
		if sd == 0 || math.IsNaN(sd) {
			continue
		}
		for j, v := range row {
			if !math.IsNaN(v) {
				out.Values[i][j] = (v - mu) / sd
			}
		}
	}
	return out
}

// RankCS replaces each row by percentile ranks in (0, 1].
func RankCS(p *model.Panel) *model.Panel {
	out := model.NewPanelLike(p)
	for i, row := range p.Values {
		cols := make([]int, 0, len(row))
		vals := make([]float64, 0, len(row))
		for j, v := range row {
			if !math.IsNaN(v) {
				cols = append(cols, j)
				vals = append(vals, v)
			}
		}
		n := float64(len(vals))
		for k, r := range Rank(vals) {
			out.Values[i][cols[k]] = r / n
		}
	}
	return out
}

// EWMSmooth applies a per-symbol exponential moving average y = (1-alpha)·y + alpha·x.
// A missing input carries the previous smoothed value, and the weight of that value keeps
// decaying by (1-alpha) per missing row, so the next observation counts for more after a gap.
// alpha <= 0 is a no-op.
func EWMSmooth(p *model.Panel, alpha float64) *model.Panel {
	if alpha <= 0 {
		return p.Clone()
	}
	out := model.NewPanelLike(p)
	for j := 0; j < p.Cols(); j++ {
		prev, oldWt := math.NaN(), 1.0
		for i := 0; i < p.Rows(); i++ {
			x := p.Values[i][j]
			switch {
			case math.IsNaN(prev):
				prev = x
			default:
				oldWt *= 1 - alpha
				if !math.IsNaN(x) {
					prev = (oldWt*prev + alpha*x) / (oldWt + alpha)
					oldWt = 1
				}
			}
			out.Values[i][j] = prev
		}
	}
	return out
}
