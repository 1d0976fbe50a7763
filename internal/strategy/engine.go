package strategy

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"FactorBench/internal/allocator"
	"FactorBench/internal/model"
)

// ErrUnknownMethod is returned for an unsupported combination method name.
var ErrUnknownMethod = errors.New("unknown combination method")

// Method names how per-factor weights are chosen for a split.
type Method string

const (
	MethodEqual      Method = "equal"
	MethodICWeighted Method = "ic_weighted"
	MethodOnline     Method = "online"
)

// ParseMethod validates a configured method name.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodEqual, MethodICWeighted, MethodOnline:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Combiner chooses factor weights split by split. For the online method it drives an
// allocator owned by the caller; splits must be fed in order.
type Combiner struct {
	method Method
	alloc  *allocator.Allocator
	warmup int
	k      int
}

// NewCombiner builds a combiner over k factors. alloc is required only for MethodOnline.
func NewCombiner(method Method, k int, alloc *allocator.Allocator, warmupSplits int) (*Combiner, error) {
	if k <= 0 {
		return nil, errors.New("no factors to combine")
	}
	if method == MethodOnline && alloc == nil {
		return nil, errors.New("online combination requires an allocator")
	}
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}
	return &Combiner{method: method, alloc: alloc, warmup: warmupSplits, k: k}, nil
}

// Weights returns the combination weights for split index si given the split's
// per-factor quality magnitudes.
func (c *Combiner) Weights(si int, magnitudes []float64) ([]float64, error) {
	if len(magnitudes) != c.k {
		return nil, fmt.Errorf("%w: got %d magnitudes, want %d", allocator.ErrShapeMismatch, len(magnitudes), c.k)
	}
	switch c.method {
	case MethodEqual:
		return uniform(c.k), nil
	case MethodICWeighted:
		total := floats.Sum(magnitudes)
		if !(total > 0) {
			return uniform(c.k), nil
		}
		w := make([]float64, c.k)
		floats.ScaleTo(w, 1/total, magnitudes)
		return w, nil
	case MethodOnline:
		if si < c.warmup {
			return uniform(c.k), nil
		}
		return c.alloc.Step(magnitudes)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, c.method)
}

func uniform(k int) []float64 {
	w := make([]float64, k)
	for i := range w {
		w[i] = 1 / float64(k)
	}
	return w
}

// CombineScores sums orientation[j]·weights[j]·signals[j] cell by cell. Missing cells are
// skipped; a cell missing in every signal stays NaN. All signals must share axes.
func CombineScores(signals []*model.Panel, orientation, weights []float64) *model.Panel {
	if len(signals) == 0 {
		return nil
	}
	out := model.NewPanelLike(signals[0])
	for k, s := range signals {
		c := orientation[k] * weights[k]
		for i, row := range s.Values {
			for j, v := range row {
				if math.IsNaN(v) {
					continue
				}
				if cur := out.Values[i][j]; math.IsNaN(cur) {
					out.Values[i][j] = c * v
				} else {
					out.Values[i][j] = cur + c*v
				}
			}
		}
	}
	return out
}
