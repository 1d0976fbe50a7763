package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"FactorBench/internal/model"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooProvider loads daily bars symbol by symbol from the Yahoo Finance chart API.
type YahooProvider struct {
	Client    *http.Client
	BaseURL   string
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooProvider creates a new Yahoo Finance provider.
func NewYahooProvider(proxyURL string) *YahooProvider {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &YahooProvider{
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		BaseURL: yahooBaseURL,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
	}
}

func (f *YahooProvider) Name() string { return "yahoo" }

func (f *YahooProvider) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// chartResponse is the subset of the v8 chart payload we read. Nulls mark missing bars.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// value returns vals[i] and whether it was present and non-null.
func value(vals []*float64, i int) (float64, bool) {
	if i >= len(vals) || vals[i] == nil {
		return 0, false
	}
	return *vals[i], true
}

// bars converts the chart columns into daily bars, preferring the adjusted close.
func (r chartResult) bars() ([]model.OHLCV, error) {
	if len(r.Indicators.Quote) == 0 {
		return nil, errors.New("no quote block")
	}
	q := r.Indicators.Quote[0]
	var adj []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}

	out := make([]model.OHLCV, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		c, ok := value(q.Close, i)
		if !ok {
			continue
		}
		if a, ok := value(adj, i); ok && a > 0 {
			c = a
		}
		v, ok := value(q.Volume, i)
		if !ok {
			v = math.NaN()
		}
		out = append(out, model.OHLCV{
			Time:   model.Day(time.Unix(ts, 0).UTC()),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: v,
		})
	}
	slices.SortFunc(out, func(a, b model.OHLCV) int { return a.Time.Compare(b.Time) })
	return out, nil
}

// FetchDailyBars returns daily bars for symbol between start and end, oldest first.
// Closes are dividend and split adjusted when Yahoo provides adjclose.
func (f *YahooProvider) FetchDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(end.AddDate(0, 0, 1).Unix(), 10))
	q.Set("events", "div,split")
	u := fmt.Sprintf("%s/v8/finance/chart/%s?%s", f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("yahoo %s: status %d: %s", symbol, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var chart chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("yahoo %s decode: %w", symbol, err)
	}
	if e := chart.Chart.Error; e != nil {
		return nil, fmt.Errorf("yahoo %s: %s: %s", symbol, e.Code, e.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}
	bars, err := chart.Chart.Result[0].bars()
	if err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}
	return bars, nil
}

// Load fetches every symbol in turn. A failing symbol is logged and skipped so one bad
// ticker does not sink the run.
func (f *YahooProvider) Load(ctx context.Context, symbols []string, start, end time.Time) ([]model.PriceSeries, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("yahoo: no symbols requested")
	}
	if start.IsZero() {
		start = time.Now().AddDate(-10, 0, 0)
	}
	if end.IsZero() {
		end = time.Now()
	}

	out := make([]model.PriceSeries, 0, len(symbols))
	for _, sym := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bars, err := f.FetchDailyBars(ctx, sym, start, end)
		if err != nil {
			log.Warn().Err(err).Str("symbol", sym).Msg("yahoo fetch failed, skipping symbol")
			continue
		}
		out = append(out, model.PriceSeries{Symbol: sym, DailyBars: bars, FetchedAt: time.Now()})
	}
	return out, nil
}
