package calculator

import (
	"math"

	"FactorBench/internal/model"
)

// Shift moves rows down by n (n > 0 lags, n < 0 leads). Vacated rows are NaN.
func Shift(p *model.Panel, n int) *model.Panel {
	out := model.NewPanelLike(p)
	rows := p.Rows()
	for i := 0; i < rows; i++ {
		src := i - n
		if src < 0 || src >= rows {
			continue
		}
		copy(out.Values[i], p.Values[src])
	}
	return out
}

// Ratio returns a/b - 1 cell by cell; NaN when either side is missing or b is zero.
func Ratio(a, b *model.Panel) *model.Panel {
	return model.Combine(a, b, func(x, y float64) float64 {
		if math.IsNaN(x) || math.IsNaN(y) || y == 0 {
			return math.NaN()
		}
		return x/y - 1
	})
}

// PctChange computes the close-to-close simple return.
func PctChange(prices *model.Panel) *model.Panel {
	return Ratio(prices, Shift(prices, 1))
}

// ForwardReturn is the return realized from t+delay to t+delay+horizon, stamped at t.
func ForwardReturn(prices *model.Panel, delay, horizon int) *model.Panel {
	return Ratio(Shift(prices, -(delay+horizon)), Shift(prices, -delay))
}

// Momentum is the return from t-(skip+lookback) to t-skip.
func Momentum(prices *model.Panel, lookback, skip int) *model.Panel {
	return Ratio(Shift(prices, skip), Shift(prices, skip+lookback))
}

// Reversal is the negated trailing n-day return.
func Reversal(prices *model.Panel, n int) *model.Panel {
	return Ratio(prices, Shift(prices, n)).Map(func(v float64) float64 { return -v })
}
