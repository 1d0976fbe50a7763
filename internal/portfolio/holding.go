package portfolio

import (
	"errors"
	"fmt"
	"math"

	"FactorBench/internal/calculator"
	"FactorBench/internal/model"
)

// EffectiveWeights models staggered holding: a sub-portfolio formed at t becomes active
// at t+delayDays, and the held book on each date is the mean of the last horizonDays
// active sub-portfolios (at least one observation).
func EffectiveWeights(sub *model.Panel, delayDays, horizonDays int) (*model.Panel, error) {
	if delayDays < 0 {
		return nil, fmt.Errorf("delay days must be non-negative, got %d", delayDays)
	}
	if horizonDays <= 0 {
		return nil, errors.New("horizon days must be positive")
	}
	return calculator.RollingMeanMinPeriods(calculator.Shift(sub, delayDays), horizonDays, 1)
}

// Returns attributes each date's return to the weights held at the previous date, so a
// weight never earns a return observed on the day it was formed. Only dates and symbols
// present in both panels count; missing terms are skipped.
func Returns(eff, dailyReturns *model.Panel) model.Series {
	w, r := model.Align(eff, dailyReturns)
	held := calculator.Shift(w, 1)
	out := model.Series{Name: "portfolio_ret", Dates: w.Dates, Values: make([]float64, w.Rows())}
	for i := range held.Values {
		sum := 0.0
		for j, x := range held.Values[i] {
			if y := r.Values[i][j]; !math.IsNaN(x) && !math.IsNaN(y) {
				sum += x * y
			}
		}
		out.Values[i] = sum
	}
	return out
}

// Turnover is half the summed absolute weight change from the previous date.
// The first date has zero turnover.
func Turnover(weights *model.Panel) model.Series {
	out := model.Series{Name: "turnover", Dates: weights.Dates, Values: make([]float64, weights.Rows())}
	for i := 1; i < weights.Rows(); i++ {
		sum := 0.0
		for j, cur := range weights.Values[i] {
			prev := weights.Values[i-1][j]
			if math.IsNaN(cur) || math.IsNaN(prev) {
				continue
			}
			sum += math.Abs(cur - prev)
		}
		out.Values[i] = 0.5 * sum
	}
	return out
}

// ApplyCosts subtracts a linear cost of costBps basis points per unit of turnover.
// Dates without a turnover observation carry no cost.
func ApplyCosts(returns model.Series, weights *model.Panel, costBps float64) model.Series {
	cost := Turnover(weights).Reindex(returns.Dates, 0)
	out := model.Series{
		Name:   fmt.Sprintf("net_ret_%gbps", costBps),
		Dates:  returns.Dates,
		Values: make([]float64, returns.Len()),
	}
	for i, r := range returns.Values {
		out.Values[i] = r - costBps/10000*cost.Values[i]
	}
	return out
}
