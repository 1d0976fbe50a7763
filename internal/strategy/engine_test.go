package strategy

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FactorBench/internal/allocator"
	"FactorBench/internal/model"
)

func TestParseMethod(t *testing.T) {
	for _, s := range []string{"equal", "ic_weighted", "online"} {
		m, err := ParseMethod(s)
		require.NoError(t, err)
		assert.Equal(t, Method(s), m)
	}
	_, err := ParseMethod("best")
	assert.True(t, errors.Is(err, ErrUnknownMethod))
}

func TestEqualWeights(t *testing.T) {
	c, err := NewCombiner(MethodEqual, 4, nil, 0)
	require.NoError(t, err)
	w, err := c.Weights(0, []float64{0.3, 0, 0, 0.1})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.25, 0.25, 0.25, 0.25}, w, 1e-12)
}

func TestICWeightedWeights(t *testing.T) {
	c, err := NewCombiner(MethodICWeighted, 3, nil, 0)
	require.NoError(t, err)

	w, err := c.Weights(0, []float64{0.03, 0.01, 0})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.75, 0.25, 0}, w, 1e-12)

	w, err = c.Weights(1, []float64{0, 0, 0})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}, w, 1e-12, "zero quality falls back to equal")
}

func TestOnlineWeightsWarmUpThenStep(t *testing.T) {
	alloc, err := allocator.New(2, 1, 0.5, 0.5)
	require.NoError(t, err)
	c, err := NewCombiner(MethodOnline, 2, alloc, 1)
	require.NoError(t, err)

	w, err := c.Weights(0, []float64{0.1, 0})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, w, 1e-12)
	assert.Equal(t, 0, alloc.Steps(), "warmup splits do not update the allocator")

	w, err = c.Weights(1, []float64{0.1, 0})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.5125, 0.4875}, w, 1e-12)
	assert.Equal(t, 1, alloc.Steps())
}

func TestCombinerRejectsBadInput(t *testing.T) {
	_, err := NewCombiner(MethodOnline, 2, nil, 0)
	assert.Error(t, err)
	_, err = NewCombiner(MethodEqual, 0, nil, 0)
	assert.Error(t, err)
	_, err = NewCombiner(Method("nope"), 2, nil, 0)
	assert.True(t, errors.Is(err, ErrUnknownMethod))

	c, err := NewCombiner(MethodEqual, 2, nil, 0)
	require.NoError(t, err)
	_, err = c.Weights(0, []float64{1})
	assert.True(t, errors.Is(err, allocator.ErrShapeMismatch))
}

func TestCombineScores(t *testing.T) {
	dates := model.NBusinessDays(testStart, 1)
	a := model.NewPanel(dates, []string{"X", "Y", "Z"})
	b := model.NewPanel(dates, []string{"X", "Y", "Z"})
	a.Values[0] = []float64{1, math.NaN(), math.NaN()}
	b.Values[0] = []float64{2, 4, math.NaN()}

	out := CombineScores([]*model.Panel{a, b}, []float64{1, -1}, []float64{0.5, 0.25})
	assert.InDelta(t, 0.0, out.At(0, 0), 1e-12)
	assert.InDelta(t, -1.0, out.At(0, 1), 1e-12)
	assert.True(t, math.IsNaN(out.At(0, 2)))

	assert.Nil(t, CombineScores(nil, nil, nil))
}
