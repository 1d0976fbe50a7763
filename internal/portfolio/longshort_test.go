package portfolio

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"FactorBench/internal/model"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func scorePanel(rows ...[]float64) *model.Panel {
	syms := make([]string, len(rows[0]))
	for j := range syms {
		syms[j] = string(rune('A'+j%26)) + string(rune('a'+j/26))
	}
	p := model.NewPanel(model.NBusinessDays(start, len(rows)), syms)
	for i, r := range rows {
		copy(p.Values[i], r)
	}
	return p
}

func ramp(n int) []float64 {
	out := make([]float64, n)
	for j := range out {
		out[j] = float64(j + 1)
	}
	return out
}

var defaultParams = Params{LongQuantile: 0.1, ShortQuantile: 0.1, GrossExposure: 1, MaxAbsWeight: 0.05, MinNames: 10}

func TestBuildCappedLegs(t *testing.T) {
	w := Build(scorePanel(ramp(20)), defaultParams).Values[0]

	for j, x := range w {
		switch {
		case j >= 18:
			assert.InDelta(t, 0.05, x, 1e-12, "long %d", j)
		case j <= 1:
			assert.InDelta(t, -0.05, x, 1e-12, "short %d", j)
		default:
			assert.Equal(t, 0.0, x)
		}
	}
	assert.InDelta(t, 0, floats.Sum(w), NeutralTolerance)
}

func TestBuildReachesGrossWhenCapAllows(t *testing.T) {
	p := defaultParams
	p.MaxAbsWeight = 1
	w := Build(scorePanel(ramp(20)), p).Values[0]

	assert.InDelta(t, 0.25, w[19], 1e-12)
	assert.InDelta(t, -0.25, w[0], 1e-12)
	assert.InDelta(t, 1.0, floats.Norm(w, 1), 1e-12)
}

func TestBuildFlatRows(t *testing.T) {
	few := ramp(5)
	tied := make([]float64, 20)
	for j := range tied {
		tied[j] = 0.7
	}
	sparse := ramp(20)
	for j := 0; j < 12; j++ {
		sparse[j] = math.NaN()
	}

	out := Build(scorePanel(few, few, few), defaultParams)
	for _, r := range out.Values {
		assert.Equal(t, []float64{0, 0, 0, 0, 0}, r)
	}
	for name, r := range map[string][]float64{"tied": tied, "sparse": sparse} {
		w := Build(scorePanel(r), defaultParams).Values[0]
		for _, x := range w {
			assert.Equal(t, 0.0, x, name)
		}
	}
}

func TestBuildMissingScoresGetZeroWeight(t *testing.T) {
	r := ramp(25)
	r[24] = math.NaN()
	w := Build(scorePanel(r), defaultParams).Values[0]
	assert.Equal(t, 0.0, w[24])
	assert.Greater(t, w[23], 0.0)
}

func TestBuildInvariantsOnRandomScores(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	rows := make([][]float64, 60)
	for i := range rows {
		rows[i] = make([]float64, 40)
		for j := range rows[i] {
			if rng.Float64() < 0.15 {
				rows[i][j] = math.NaN()
				continue
			}
			rows[i][j] = rng.NormFloat64()
		}
	}
	params := []Params{
		defaultParams,
		{LongQuantile: 0.3, ShortQuantile: 0.2, GrossExposure: 2, MaxAbsWeight: 0.08, MinNames: 10},
		{LongQuantile: 0.5, ShortQuantile: 0.5, GrossExposure: 1, MaxAbsWeight: 1},
	}
	for _, p := range params {
		out := Build(scorePanel(rows...), p)
		require.Equal(t, 60, out.Rows())
		for i, w := range out.Values {
			assert.InDelta(t, 0, floats.Sum(w), NeutralTolerance, "row %d", i)
			for _, x := range w {
				assert.LessOrEqual(t, math.Abs(x), p.MaxAbsWeight+CapTolerance)
			}
			assert.LessOrEqual(t, floats.Norm(w, 1), p.GrossExposure+1e-9)
		}
	}
}
