package quality

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FactorBench/internal/model"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// forward builds a forward-return panel that increases with the symbol index on every date.
func forward(days, names int) *model.Panel {
	syms := make([]string, names)
	for j := range syms {
		syms[j] = string(rune('A' + j))
	}
	p := model.NewPanel(model.NBusinessDays(start, days), syms)
	for i := range p.Values {
		for j := range p.Values[i] {
			p.Values[i][j] = 0.001*float64(j+1) + 0.0001*float64(i)
		}
	}
	return p
}

func TestRankICDailyPerfectSignal(t *testing.T) {
	fwd := forward(5, 6)
	// Monotone transform keeps ranks.
	sig := fwd.Map(func(v float64) float64 { return math.Exp(100 * v) })

	ic := RankICDaily(sig, fwd)
	require.Equal(t, 5, ic.Len())
	for _, v := range ic.Values {
		assert.InDelta(t, 1.0, v, 1e-12)
	}
}

func TestRankICDailyUndefinedDates(t *testing.T) {
	fwd := forward(3, 4)
	sig := fwd.Clone()
	// Day 0 keeps only two usable names.
	sig.Values[0][0] = math.NaN()
	fwd.Values[0][1] = math.NaN()
	// Day 1 has no cross-sectional variance in the signal.
	sig.Values[1] = []float64{1, 1, 1, 1}

	ic := RankICDaily(sig, fwd)
	assert.True(t, math.IsNaN(ic.Values[0]))
	assert.True(t, math.IsNaN(ic.Values[1]))
	assert.InDelta(t, 1.0, ic.Values[2], 1e-12)
}

func TestRankICDailyAlignsAxes(t *testing.T) {
	fwd := forward(4, 5)
	sig := fwd.Select(fwd.Dates[1:], []string{"E", "D", "C", "B", "Z"})

	ic := RankICDaily(sig, fwd)
	assert.Equal(t, fwd.Dates[1:], ic.Dates)
	for _, v := range ic.Values {
		assert.InDelta(t, 1.0, v, 1e-12)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(model.Series{Values: []float64{0.1, math.NaN(), 0.3}})
	assert.InDelta(t, 0.2, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(0.02), s.Std, 1e-12)
	assert.InDelta(t, 0.2/math.Sqrt(0.02), s.IR, 1e-9)
	assert.Equal(t, 2, s.N)

	one := Summarize(model.Series{Values: []float64{0.5}})
	assert.Equal(t, 0.5, one.Mean)
	assert.True(t, math.IsNaN(one.Std))
	assert.True(t, math.IsNaN(one.IR))

	empty := Summarize(model.Series{Values: []float64{math.NaN()}})
	assert.True(t, math.IsNaN(empty.Mean))
	assert.Equal(t, 0, empty.N)
}

func TestScoreOrientation(t *testing.T) {
	fwd := forward(20, 5)
	inverse := fwd.Map(func(v float64) float64 { return -v })

	q := Score(inverse, fwd, fwd.Dates[0], fwd.Dates[9])
	assert.InDelta(t, -1.0, q.Mean, 1e-12)
	assert.Equal(t, -1.0, q.Orientation)
	assert.InDelta(t, 1.0, q.Magnitude, 1e-12)
	assert.Equal(t, 10, q.N)

	q = Score(fwd, fwd, fwd.Dates[0], fwd.Dates[9])
	assert.Equal(t, 1.0, q.Orientation)
	assert.InDelta(t, 1.0, q.Magnitude, 1e-12)
}

func TestScoreUndefined(t *testing.T) {
	fwd := forward(10, 5)
	empty := model.NewPanelLike(fwd)

	q := Score(empty, fwd, fwd.Dates[0], fwd.Dates[9])
	assert.True(t, math.IsNaN(q.Mean))
	assert.Equal(t, 1.0, q.Orientation)
	assert.Equal(t, 0.0, q.Magnitude)
	assert.Equal(t, 0, q.N)
}
