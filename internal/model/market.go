package model

import "time"

// OHLCV represents a single daily bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds raw bars for one symbol as returned by a data source.
type PriceSeries struct {
	Symbol    string
	DailyBars []OHLCV
	FetchedAt time.Time
}

// PanelsFromSeries pivots per-symbol bars into aligned close and volume panels over the
// union of all bar dates. Dates missing for a symbol stay NaN.
func PanelsFromSeries(series []PriceSeries) (prices, volumes *Panel) {
	var dates []time.Time
	symbols := make([]string, 0, len(series))
	for _, s := range series {
		symbols = append(symbols, s.Symbol)
		for _, b := range s.DailyBars {
			dates = append(dates, b.Time)
		}
	}
	dates = UniqueSorted(dates)

	prices = NewPanel(dates, symbols)
	volumes = NewPanel(dates, symbols)
	di := prices.DateIndex()
	for j, s := range series {
		for _, b := range s.DailyBars {
			i := di[Day(b.Time)]
			prices.Values[i][j] = b.Close
			volumes.Values[i][j] = b.Volume
		}
	}
	return prices, volumes
}
