package collector

import (
	"context"
	"time"

	"FactorBench/internal/model"
)

// Provider loads daily bars for a symbol universe. A zero start or end leaves that side
// of the range open. Symbols may be empty when the source defines its own universe.
type Provider interface {
	Load(ctx context.Context, symbols []string, start, end time.Time) ([]model.PriceSeries, error)
	Name() string
}

func inRange(t, start, end time.Time) bool {
	if !start.IsZero() && t.Before(start) {
		return false
	}
	if !end.IsZero() && t.After(end) {
		return false
	}
	return true
}
