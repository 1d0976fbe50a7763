package collector

import (
	"context"
	"fmt"
	"math"
	"os"
	"slices"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"FactorBench/internal/model"
)

// CSVProvider reads a long-format file with columns date,symbol,close[,volume].
// Dates use the YYYY-MM-DD layout. A missing volume column yields NaN volumes.
type CSVProvider struct {
	Path string
}

func (p *CSVProvider) Name() string { return "csv" }

func (p *CSVProvider) Load(ctx context.Context, symbols []string, start, end time.Time) ([]model.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(p.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	df := dataframe.ReadCSV(f, dataframe.WithTypes(map[string]series.Type{
		"date":   series.String,
		"symbol": series.String,
		"close":  series.Float,
		"volume": series.Float,
	}))
	if df.Err != nil {
		return nil, fmt.Errorf("parse csv: %w", df.Err)
	}
	names := df.Names()
	for _, col := range []string{"date", "symbol", "close"} {
		if !slices.Contains(names, col) {
			return nil, fmt.Errorf("csv %s: missing column %q", p.Path, col)
		}
	}

	dates := df.Col("date").Records()
	syms := df.Col("symbol").Records()
	closes := df.Col("close").Float()
	vols := make([]float64, len(closes))
	if slices.Contains(names, "volume") {
		vols = df.Col("volume").Float()
	} else {
		for i := range vols {
			vols[i] = math.NaN()
		}
	}

	want := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		want[s] = true
	}

	bySymbol := make(map[string]*model.PriceSeries)
	var order []string
	for i := range dates {
		sym := syms[i]
		if len(want) > 0 && !want[sym] {
			continue
		}
		t, err := time.Parse(time.DateOnly, dates[i])
		if err != nil {
			return nil, fmt.Errorf("csv row %d: bad date %q: %w", i+2, dates[i], err)
		}
		if !inRange(t, start, end) {
			continue
		}
		ps, ok := bySymbol[sym]
		if !ok {
			ps = &model.PriceSeries{Symbol: sym, FetchedAt: time.Now()}
			bySymbol[sym] = ps
			order = append(order, sym)
		}
		ps.DailyBars = append(ps.DailyBars, model.OHLCV{Time: t, Close: closes[i], Volume: vols[i]})
	}

	slices.Sort(order)
	out := make([]model.PriceSeries, 0, len(order))
	for _, sym := range order {
		out = append(out, *bySymbol[sym])
	}
	return out, nil
}
