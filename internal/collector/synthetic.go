package collector

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"FactorBench/internal/model"
)

// SyntheticProvider generates a reproducible geometric random walk for every symbol on
// business days. Used for demos and tests when no market data is at hand.
type SyntheticProvider struct {
	Symbols int
	Seed    int64
	Drift   float64 // daily log drift
	Vol     float64 // daily log volatility; 0 means 0.02
}

func (p *SyntheticProvider) Name() string { return "synthetic" }

func (p *SyntheticProvider) Load(ctx context.Context, symbols []string, start, end time.Time) ([]model.PriceSeries, error) {
	if start.IsZero() || end.IsZero() {
		return nil, fmt.Errorf("synthetic provider needs an explicit start and end")
	}
	if len(symbols) == 0 {
		for i := 0; i < p.Symbols; i++ {
			symbols = append(symbols, fmt.Sprintf("SYN%03d", i))
		}
	}
	vol := p.Vol
	if vol == 0 {
		vol = 0.02
	}

	rng := rand.New(rand.NewSource(p.Seed))
	days := model.BusinessDays(start, end)
	out := make([]model.PriceSeries, 0, len(symbols))
	for _, sym := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		price := 50 + 100*rng.Float64()
		baseVol := 1e5 * (1 + 9*rng.Float64())
		bars := make([]model.OHLCV, len(days))
		for i, d := range days {
			price *= math.Exp(p.Drift + vol*rng.NormFloat64())
			bars[i] = model.OHLCV{
				Time:   d,
				Open:   price,
				High:   price,
				Low:    price,
				Close:  price,
				Volume: baseVol * math.Exp(0.3*rng.NormFloat64()),
			}
		}
		out = append(out, model.PriceSeries{Symbol: sym, DailyBars: bars, FetchedAt: time.Now()})
	}
	return out, nil
}
