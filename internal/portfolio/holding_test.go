package portfolio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FactorBench/internal/model"
)

func single(values ...float64) *model.Panel {
	p := model.NewPanel(model.NBusinessDays(start, len(values)), []string{"A"})
	for i, v := range values {
		p.Values[i][0] = v
	}
	return p
}

func TestEffectiveWeightsStaggersHoldings(t *testing.T) {
	eff, err := EffectiveWeights(single(1, 0, 0, 0), 1, 2)
	require.NoError(t, err)

	col := eff.Column(0)
	assert.True(t, math.IsNaN(col[0]))
	assert.Equal(t, []float64{1, 0.5, 0}, col[1:])
}

func TestEffectiveWeightsRejectsBadParams(t *testing.T) {
	_, err := EffectiveWeights(single(1), -1, 1)
	assert.Error(t, err)
	_, err = EffectiveWeights(single(1), 0, 0)
	assert.Error(t, err)
}

func TestReturnsUseHeldWeights(t *testing.T) {
	eff := single(math.NaN(), 1, 0.5, 0)
	rets := single(0.1, 0.2, 0.3, 0.4)

	out := Returns(eff, rets)
	require.Equal(t, 4, out.Len())
	assert.InDeltaSlice(t, []float64{0, 0, 0.3, 0.2}, out.Values, 1e-12)
}

func TestReturnsIgnoresSameDayMove(t *testing.T) {
	// Weight formed on day 1 must not earn day 1's jump.
	eff := single(0, 1, 1)
	rets := single(0, 5, 0.01)

	out := Returns(eff, rets)
	assert.InDeltaSlice(t, []float64{0, 0, 0.01}, out.Values, 1e-12)
}

func TestTurnover(t *testing.T) {
	w := model.NewPanel(model.NBusinessDays(start, 4), []string{"A", "B"})
	w.Values = [][]float64{{0, 0}, {0.5, -0.5}, {0.5, -0.5}, {-0.5, math.NaN()}}

	assert.Equal(t, []float64{0, 0.5, 0, 0.5}, Turnover(w).Values)
}

func TestApplyCosts(t *testing.T) {
	w := model.NewPanel(model.NBusinessDays(start, 4), []string{"A", "B"})
	w.Values = [][]float64{{0, 0}, {0.5, -0.5}, {0.5, -0.5}, {-0.5, 0.5}}
	rets := model.Series{Dates: w.Dates, Values: []float64{0.01, 0.01, 0.01, 0.01}}

	net := ApplyCosts(rets, w, 10)
	assert.Equal(t, "net_ret_10bps", net.Name)
	assert.InDeltaSlice(t, []float64{0.01, 0.0095, 0.01, 0.009}, net.Values, 1e-12)

	free := ApplyCosts(rets, w, 0)
	assert.Equal(t, rets.Values, free.Values)
}
