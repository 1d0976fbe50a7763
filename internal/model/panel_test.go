package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func samplePanel() *Panel {
	p := NewPanel([]time.Time{day("2024-01-02"), day("2024-01-03"), day("2024-01-04")}, []string{"A", "B"})
	p.Values = [][]float64{{1, 2}, {3, 4}, {5, 6}}
	return p
}

func TestNewPanelFillsNaN(t *testing.T) {
	p := NewPanel([]time.Time{day("2024-01-02")}, []string{"A", "B"})
	assert.Equal(t, 1, p.Rows())
	assert.Equal(t, 2, p.Cols())
	assert.True(t, math.IsNaN(p.At(0, 0)))
	assert.True(t, math.IsNaN(p.At(0, 1)))
}

func TestBetweenIsInclusive(t *testing.T) {
	p := samplePanel()

	sub := p.Between(day("2024-01-03"), day("2024-01-04"))
	require.Equal(t, 2, sub.Rows())
	assert.Equal(t, day("2024-01-03"), sub.Dates[0])
	assert.Equal(t, []float64{5, 6}, sub.Values[1])

	sub.Set(0, 0, 99)
	assert.Equal(t, 3.0, p.At(1, 0), "Between copies rows")

	assert.Equal(t, 0, p.Between(day("2025-01-01"), day("2025-12-31")).Rows())
	assert.Equal(t, 3, p.Between(day("2023-01-01"), day("2025-01-01")).Rows())
}

func TestSelectFillsMissingWithNaN(t *testing.T) {
	p := samplePanel()
	out := p.Select([]time.Time{day("2024-01-04"), day("2024-01-10")}, []string{"B", "Z"})

	assert.Equal(t, 6.0, out.At(0, 0))
	assert.True(t, math.IsNaN(out.At(0, 1)))
	assert.True(t, math.IsNaN(out.At(1, 0)))
}

func TestAlignKeepsCommonAxes(t *testing.T) {
	a := samplePanel()
	b := NewPanel([]time.Time{day("2024-01-04"), day("2024-01-03")}, []string{"C", "A"})
	b.Values = [][]float64{{7, 8}, {9, 10}}

	x, y := Align(a, b)
	assert.Equal(t, []time.Time{day("2024-01-03"), day("2024-01-04")}, x.Dates)
	assert.Equal(t, []string{"A"}, x.Symbols)
	assert.Equal(t, x.Dates, y.Dates)
	assert.Equal(t, [][]float64{{3}, {5}}, x.Values)
	assert.Equal(t, [][]float64{{10}, {8}}, y.Values)
}

func TestCloneIsDeep(t *testing.T) {
	p := samplePanel()
	c := p.Clone()
	c.Set(0, 0, -1)
	assert.Equal(t, 1.0, p.At(0, 0))
}

func TestPanelsFromSeries(t *testing.T) {
	series := []PriceSeries{
		{Symbol: "A", DailyBars: []OHLCV{
			{Time: day("2024-01-03"), Close: 11, Volume: 100},
			{Time: day("2024-01-02"), Close: 10, Volume: 90},
		}},
		{Symbol: "B", DailyBars: []OHLCV{
			{Time: day("2024-01-03"), Close: 20, Volume: 5},
		}},
	}
	prices, volumes := PanelsFromSeries(series)

	assert.Equal(t, []time.Time{day("2024-01-02"), day("2024-01-03")}, prices.Dates)
	assert.Equal(t, []string{"A", "B"}, prices.Symbols)
	assert.Equal(t, 10.0, prices.At(0, 0))
	assert.True(t, math.IsNaN(prices.At(0, 1)))
	assert.Equal(t, 20.0, prices.At(1, 1))
	assert.Equal(t, 100.0, volumes.At(1, 0))
}

func TestSeriesReindex(t *testing.T) {
	s := Series{Name: "r", Dates: []time.Time{day("2024-01-02"), day("2024-01-04")}, Values: []float64{1, 2}}
	out := s.Reindex([]time.Time{day("2024-01-02"), day("2024-01-03"), day("2024-01-04")}, 0)
	assert.Equal(t, []float64{1, 0, 2}, out.Values)
	assert.Equal(t, "r", out.Name)
}

func TestSplitString(t *testing.T) {
	s := Split{
		TrainStart: day("2020-01-01"), TrainEnd: day("2022-12-27"),
		TestStart: day("2023-01-01"), TestEnd: day("2023-01-31"),
	}
	assert.Equal(t, "train[2020-01-01..2022-12-27] test[2023-01-01..2023-01-31]", s.String())
}
