package calculator

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"

	"FactorBench/internal/model"
)

var errWindow = errors.New("window must be positive")

// RollingMean computes the per-symbol mean over the trailing window rows.
// A window containing any NaN yields NaN.
func RollingMean(p *model.Panel, window int) (*model.Panel, error) {
	return rolling(p, window, func(x []float64) float64 { return stat.Mean(x, nil) })
}

// RollingStd computes the per-symbol sample standard deviation over the trailing window rows.
func RollingStd(p *model.Panel, window int) (*model.Panel, error) {
	if window < 2 {
		return nil, errors.New("std window must be at least 2")
	}
	return rolling(p, window, func(x []float64) float64 { return stat.StdDev(x, nil) })
}

func rolling(p *model.Panel, window int, agg func([]float64) float64) (*model.Panel, error) {
	if window <= 0 {
		return nil, errWindow
	}
	out := model.NewPanelLike(p)
	buf := make([]float64, window)
	for j := 0; j < p.Cols(); j++ {
		for i := window - 1; i < p.Rows(); i++ {
			ok := true
			for k := 0; k < window; k++ {
				v := p.Values[i-window+1+k][j]
				if math.IsNaN(v) {
					ok = false
					break
				}
				buf[k] = v
			}
			if ok {
				out.Values[i][j] = agg(buf)
			}
		}
	}
	return out, nil
}

// RollingMeanMinPeriods averages the non-NaN values among the trailing window rows,
// requiring at least minPeriods of them.
func RollingMeanMinPeriods(p *model.Panel, window, minPeriods int) (*model.Panel, error) {
	if window <= 0 {
		return nil, errWindow
	}
	if minPeriods < 1 {
		minPeriods = 1
	}
	out := model.NewPanelLike(p)
	for j := 0; j < p.Cols(); j++ {
		for i := 0; i < p.Rows(); i++ {
			sum, n := 0.0, 0
			for k := max(0, i-window+1); k <= i; k++ {
				if v := p.Values[k][j]; !math.IsNaN(v) {
					sum += v
					n++
				}
			}
			if n >= minPeriods {
				out.Values[i][j] = sum / float64(n)
			}
		}
	}
	return out, nil
}
