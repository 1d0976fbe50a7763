package strategy

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"FactorBench/internal/calculator"
	"FactorBench/internal/model"
)

// ErrUnknownFactor is returned when a configured factor has no registered formula.
var ErrUnknownFactor = errors.New("unknown factor")

// FactorFunc computes a raw signal panel from aligned price and volume panels.
// Values at date t may only depend on inputs at or before t.
type FactorFunc func(prices, volumes *model.Panel) (*model.Panel, error)

// Registry maps factor names to formulas.
type Registry map[string]FactorFunc

// DefaultRegistry returns the built-in daily factor library.
func DefaultRegistry() Registry {
	return Registry{
		"mom_12_1":       mom121,
		"rev_1m":         reversal(21),
		"rev_5d":         reversal(5),
		"vol_20d":        vol20d,
		"vol_change_20d": volChange20d,
		"dollar_volume":  dollarVolume,
		"volume_z_20d":   volumeZ20d,
	}
}

// Names returns the registered factor names, sorted.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for n := range r {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Validate checks that every name is registered.
func (r Registry) Validate(names []string) error {
	for _, n := range names {
		if _, ok := r[n]; !ok {
			return fmt.Errorf("%w: %s (available: %s)", ErrUnknownFactor, n, strings.Join(r.Names(), ", "))
		}
	}
	return nil
}

// Cross-sectional scaling applied as the last normalization step.
const (
	ScaleZScore = "zscore"
	ScaleRank   = "rank"
)

// NormalizeParams controls the signal pipeline applied after a raw formula.
type NormalizeParams struct {
	EWMAlpha     float64
	WinsorizePct float64
	Scale        string // ScaleZScore when empty
}

// Compute evaluates the named factor and normalizes it: EWM smoothing,
// cross-sectional winsorization, then cross-sectional z-score or percentile rank.
func (r Registry) Compute(name string, prices, volumes *model.Panel, np NormalizeParams) (*model.Panel, error) {
	fn, ok := r[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFactor, name)
	}
	raw, err := fn(prices, volumes)
	if err != nil {
		return nil, fmt.Errorf("factor %s: %w", name, err)
	}
	raw = calculator.EWMSmooth(raw, np.EWMAlpha)
	raw = calculator.WinsorizeCS(raw, np.WinsorizePct)
	if np.Scale == ScaleRank {
		return calculator.RankCS(raw), nil
	}
	return calculator.ZScoreCS(raw), nil
}

// mom121 is 12-1 momentum: the return from t-273 to t-21.
func mom121(prices, _ *model.Panel) (*model.Panel, error) {
	return calculator.Momentum(prices, 252, 21), nil
}

func reversal(n int) FactorFunc {
	return func(prices, _ *model.Panel) (*model.Panel, error) {
		return calculator.Reversal(prices, n), nil
	}
}

// vol20d is the 20-day realized volatility of daily returns.
func vol20d(prices, _ *model.Panel) (*model.Panel, error) {
	return calculator.RollingStd(calculator.PctChange(prices), 20)
}

func volChange20d(prices, volumes *model.Panel) (*model.Panel, error) {
	v, err := vol20d(prices, volumes)
	if err != nil {
		return nil, err
	}
	return calculator.Ratio(v, calculator.Shift(v, 20)), nil
}

func dollarVolume(prices, volumes *model.Panel) (*model.Panel, error) {
	return model.Combine(prices, volumes, func(p, v float64) float64 { return p * v }), nil
}

// volumeZ20d is the volume z-score against its trailing 20-day mean and deviation.
func volumeZ20d(_, volumes *model.Panel) (*model.Panel, error) {
	mu, err := calculator.RollingMean(volumes, 20)
	if err != nil {
		return nil, err
	}
	sd, err := calculator.RollingStd(volumes, 20)
	if err != nil {
		return nil, err
	}
	out := model.NewPanelLike(volumes)
	for i := range out.Values {
		for j := range out.Values[i] {
			s := sd.Values[i][j]
			if s == 0 || math.IsNaN(s) {
				continue
			}
			out.Values[i][j] = (volumes.Values[i][j] - mu.Values[i][j]) / s
		}
	}
	return out, nil
}
