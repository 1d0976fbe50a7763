package calculator

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Quantile returns the q-quantile of values using linear interpolation between
// closest ranks. NaN values are ignored; an empty input yields NaN.
func Quantile(values []float64, q float64) float64 {
	s := DropNaN(values)
	if len(s) == 0 {
		return math.NaN()
	}
	sort.Float64s(s)
	h := q * float64(len(s)-1)
	lo := int(math.Floor(h))
	if lo >= len(s)-1 {
		return s[len(s)-1]
	}
	if lo < 0 {
		return s[0]
	}
	return s[lo] + (h-float64(lo))*(s[lo+1]-s[lo])
}

// Rank assigns 1-based ranks, averaging tied values.
func Rank(values []float64) []float64 {
	n := len(values)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case values[a] < values[b]:
			return -1
		case values[a] > values[b]:
			return 1
		}
		return 0
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		k := i
		for k+1 < n && values[order[k+1]] == values[order[i]] {
			k++
		}
		avg := float64(i+k)/2 + 1
		for m := i; m <= k; m++ {
			ranks[order[m]] = avg
		}
		i = k + 1
	}
	return ranks
}

// Spearman is the Pearson correlation of the average ranks of x and y.
// It returns NaN when either side has no rank variance.
func Spearman(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return math.NaN()
	}
	rx, ry := Rank(x), Rank(y)
	if stat.Variance(rx, nil) == 0 || stat.Variance(ry, nil) == 0 {
		return math.NaN()
	}
	return stat.Correlation(rx, ry, nil)
}

// DropNaN returns a copy of values without NaN entries.
func DropNaN(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
