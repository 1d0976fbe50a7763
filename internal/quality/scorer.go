package quality

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"FactorBench/internal/calculator"
	"FactorBench/internal/model"
)

// MinCrossSection is the number of symbols with both a signal and a return required
// for a date's rank IC to be defined.
const MinCrossSection = 3

// RankICDaily computes the per-date Spearman correlation between signal and forward
// return over the dates and symbols both panels share. Undefined dates are NaN.
func RankICDaily(signal, fwd *model.Panel) model.Series {
	s, f := model.Align(signal, fwd)
	out := model.Series{Name: "rank_ic", Dates: s.Dates, Values: make([]float64, s.Rows())}
	x := make([]float64, 0, s.Cols())
	y := make([]float64, 0, s.Cols())
	for i := range s.Values {
		x, y = x[:0], y[:0]
		for j, v := range s.Values[i] {
			r := f.Values[i][j]
			if math.IsNaN(v) || math.IsNaN(r) {
				continue
			}
			x = append(x, v)
			y = append(y, r)
		}
		if len(x) < MinCrossSection {
			out.Values[i] = math.NaN()
			continue
		}
		out.Values[i] = calculator.Spearman(x, y)
	}
	return out
}

// Summary holds the mean, sample deviation and information ratio of a daily IC series.
type Summary struct {
	Mean float64
	Std  float64
	IR   float64
	N    int
}

// Summarize aggregates the defined values of an IC series.
func Summarize(ic model.Series) Summary {
	v := calculator.DropNaN(ic.Values)
	if len(v) == 0 {
		return Summary{Mean: math.NaN(), Std: math.NaN(), IR: math.NaN()}
	}
	mean := stat.Mean(v, nil)
	std := math.NaN()
	if len(v) > 1 {
		std = stat.StdDev(v, nil)
	}
	ir := math.NaN()
	if std > 0 {
		ir = mean / std
	}
	return Summary{Mean: mean, Std: std, IR: ir, N: len(v)}
}

// Score rates a factor over the training window [start, end]. Orientation is +1 unless
// the mean IC is defined and negative; an undefined mean scores zero magnitude.
func Score(signal, fwd *model.Panel, start, end time.Time) model.QualityScore {
	sum := Summarize(RankICDaily(signal.Between(start, end), fwd.Between(start, end)))
	q := model.QualityScore{
		Mean:        sum.Mean,
		Std:         sum.Std,
		IR:          sum.IR,
		N:           sum.N,
		Orientation: 1,
	}
	if !math.IsNaN(sum.Mean) {
		q.Magnitude = math.Abs(sum.Mean)
		if sum.Mean < 0 {
			q.Orientation = -1
		}
	}
	return q
}
