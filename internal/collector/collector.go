package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"FactorBench/internal/model"
)

// ErrNoData is returned when a provider yields no usable bars.
var ErrNoData = errors.New("no price data")

// Collector orchestrates loading and pivoting bars into aligned panels.
type Collector struct {
	Provider Provider
	Symbols  []string
	Start    time.Time
	End      time.Time
}

// NewCollector creates a new Collector.
func NewCollector(p Provider, symbols []string, start, end time.Time) *Collector {
	return &Collector{Provider: p, Symbols: symbols, Start: start, End: end}
}

// Collect loads bars and returns close and volume panels on a shared date index.
// Non-positive or non-finite closes are treated as missing.
func (c *Collector) Collect(ctx context.Context) (prices, volumes *model.Panel, err error) {
	series, err := c.Provider.Load(ctx, c.Symbols, c.Start, c.End)
	if err != nil {
		return nil, nil, fmt.Errorf("%s load: %w", c.Provider.Name(), err)
	}

	kept := series[:0]
	for _, s := range series {
		if len(s.DailyBars) == 0 {
			log.Warn().Str("provider", c.Provider.Name()).Str("symbol", s.Symbol).Msg("no bars, skipping symbol")
			continue
		}
		kept = append(kept, s)
	}
	if len(kept) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", c.Provider.Name(), ErrNoData)
	}

	prices, volumes = model.PanelsFromSeries(kept)
	dropped := 0
	for i := range prices.Values {
		for j, v := range prices.Values[i] {
			if !math.IsNaN(v) && (v <= 0 || math.IsInf(v, 0)) {
				prices.Values[i][j] = math.NaN()
				dropped++
			}
		}
	}
	if dropped > 0 {
		log.Warn().Int("cells", dropped).Msg("invalid closes replaced with NaN")
	}

	log.Info().
		Str("provider", c.Provider.Name()).
		Int("symbols", prices.Cols()).
		Int("dates", prices.Rows()).
		Msg("panels collected")
	return prices, volumes, nil
}
