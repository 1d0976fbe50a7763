package allocator

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// ErrShapeMismatch is returned when a quality vector does not match the allocator size.
var ErrShapeMismatch = errors.New("quality vector length mismatch")

// Allocator keeps a nonnegative factor weight vector bounded by an L1 budget and
// moves it toward higher-quality factors once per eligible split.
//
// The zero value is not usable; construct with New. Step is the only mutator besides
// Restore, and there is no undo: callers skipping warmup splits must not call Step.
type Allocator struct {
	weights []float64
	budget  float64
	eta     float64
	tau     float64
	steps   int
}

// New creates an allocator for k factors with uniform budget/k initial weights.
func New(k int, budget, eta, tau float64) (*Allocator, error) {
	if k <= 0 {
		return nil, errors.New("allocator needs at least one factor")
	}
	if budget <= 0 {
		return nil, errors.New("l1 budget must be positive")
	}
	if tau < 0 || tau > 1 {
		return nil, fmt.Errorf("tau must be in [0, 1], got %g", tau)
	}
	w := make([]float64, k)
	for i := range w {
		w[i] = budget / float64(k)
	}
	return &Allocator{weights: w, budget: budget, eta: eta, tau: tau}, nil
}

// Step applies one projected ascent update with turnover smoothing and returns a copy
// of the new weights.
func (a *Allocator) Step(quality []float64) ([]float64, error) {
	if len(quality) != len(a.weights) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrShapeMismatch, len(quality), len(a.weights))
	}

	proposal := make([]float64, len(a.weights))
	floats.AddScaledTo(proposal, a.weights, a.eta, quality)
	proposal = ProjectL1Ball(proposal, a.budget)

	next := make([]float64, len(a.weights))
	floats.ScaleTo(next, 1-a.tau, a.weights)
	floats.AddScaled(next, a.tau, proposal)

	a.weights = ProjectL1Ball(next, a.budget)
	a.steps++
	return a.Weights(), nil
}

// Weights returns a copy of the current weights.
func (a *Allocator) Weights() []float64 {
	return slices.Clone(a.weights)
}

// Steps returns how many updates have been applied.
func (a *Allocator) Steps() int { return a.steps }

// Budget returns the L1 budget.
func (a *Allocator) Budget() float64 { return a.budget }
