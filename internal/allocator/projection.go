package allocator

import (
	"slices"

	"gonum.org/v1/gonum/floats"
)

// ProjectL1Ball returns the Euclidean projection of v onto {x >= 0, sum(x) <= z}.
// Negative entries are clipped first; a vector already inside the set is returned unchanged.
// When no valid threshold exists the budget is spread uniformly.
func ProjectL1Ball(v []float64, z float64) []float64 {
	w := make([]float64, len(v))
	for i, x := range v {
		w[i] = max(x, 0)
	}
	if len(w) == 0 || floats.Sum(w) <= z {
		return w
	}

	u := slices.Clone(w)
	slices.SortFunc(u, func(a, b float64) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	})
	css := make([]float64, len(u))
	floats.CumSum(css, u)

	rho := -1
	for i := range u {
		if u[i]*float64(i+1) > css[i]-z {
			rho = i
		}
	}
	if rho < 0 {
		for i := range w {
			w[i] = z / float64(len(w))
		}
		return w
	}

	theta := (css[rho] - z) / float64(rho+1)
	for i := range w {
		w[i] = max(w[i]-theta, 0)
	}
	return w
}
