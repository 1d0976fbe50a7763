package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"

	"FactorBench/internal/allocator"
	"FactorBench/internal/calculator"
	"FactorBench/internal/metrics"
	"FactorBench/internal/model"
	"FactorBench/internal/portfolio"
	"FactorBench/internal/quality"
	"FactorBench/internal/strategy"
	"FactorBench/internal/validation"
)

// TradingDays annualizes daily statistics.
const TradingDays = 252

// ErrTooFewSplits is returned when the date range yields fewer splits than required.
var ErrTooFewSplits = errors.New("too few walk-forward splits")

// ErrPanelMismatch is returned when prices and volumes differ in dates or symbols.
var ErrPanelMismatch = errors.New("prices and volumes must share dates and symbols")

// Runner evaluates factor combinations over walk-forward splits.
type Runner struct {
	Opts     Options
	Registry strategy.Registry
	Metrics  *metrics.Recorder // optional
}

// NewRunner creates a runner over the default factor registry.
func NewRunner(opts Options, m *metrics.Recorder) *Runner {
	return &Runner{Opts: opts, Registry: strategy.DefaultRegistry(), Metrics: m}
}

// Run executes the full walk-forward loop. prices and volumes must share axes.
// Splits are processed strictly in order because the online allocator carries state.
func (r *Runner) Run(ctx context.Context, prices, volumes *model.Panel) (*Result, error) {
	o := r.Opts
	if volumes == nil ||
		!slices.EqualFunc(prices.Dates, volumes.Dates, time.Time.Equal) ||
		!slices.Equal(prices.Symbols, volumes.Symbols) {
		return nil, ErrPanelMismatch
	}
	if len(o.Factors) == 0 {
		return nil, errors.New("no factors enabled")
	}
	if len(o.CostBps) == 0 {
		return nil, errors.New("no cost levels configured")
	}
	if err := r.Registry.Validate(o.Factors); err != nil {
		return nil, err
	}

	alloc, err := r.newAllocator()
	if err != nil {
		return nil, err
	}
	combiner, err := strategy.NewCombiner(o.Method, len(o.Factors), alloc, o.Online.WarmupSplits)
	if err != nil {
		return nil, err
	}

	splits, err := validation.Generate(prices.Dates, o.TrainYears, o.TestMonths, o.EmbargoDays)
	if err != nil {
		return nil, err
	}
	minSplits := o.MinSplits
	if minSplits <= 0 {
		minSplits = 6
	}
	if len(splits) < minSplits {
		return nil, fmt.Errorf("%w: got %d, need %d; expand the date range or reduce train_years",
			ErrTooFewSplits, len(splits), minSplits)
	}

	dailyRet := calculator.PctChange(prices)
	fwd := calculator.WinsorizeCS(calculator.ForwardReturn(prices, o.LabelDelay, o.LabelHorizon), o.LabelWinsorize)

	signals := make([]*model.Panel, len(o.Factors))
	for k, name := range o.Factors {
		s, err := r.Registry.Compute(name, prices, volumes, o.Normalize)
		if err != nil {
			return nil, err
		}
		signals[k] = s
	}
	log.Info().
		Int("splits", len(splits)).
		Strs("factors", o.Factors).
		Str("method", string(o.Method)).
		Msg("walk-forward started")

	res := &Result{Splits: splits, Net: make(map[float64]model.Series)}
	gross := newStitcher()
	net := make(map[float64]*stitcher, len(o.CostBps))
	for _, bps := range o.CostBps {
		net[bps] = newStitcher()
	}

	for si, sp := range splits {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("split %d: %w", si, err)
		}
		started := time.Now()

		magnitudes := make([]float64, len(o.Factors))
		orientation := make([]float64, len(o.Factors))
		scores := make([]model.QualityScore, len(o.Factors))
		for k := range o.Factors {
			q := quality.Score(signals[k], fwd, sp.TrainStart, sp.TrainEnd)
			scores[k] = q
			magnitudes[k] = q.Magnitude
			orientation[k] = q.Orientation
		}

		weights, err := combiner.Weights(si, magnitudes)
		if err != nil {
			return nil, fmt.Errorf("split %d weights: %w", si, err)
		}
		for k, name := range o.Factors {
			res.Factors = append(res.Factors, model.FactorRecord{
				Split:       si,
				Factor:      name,
				TrainICMean: scores[k].Mean,
				TrainICStd:  scores[k].Std,
				TrainICIR:   scores[k].IR,
				TrainN:      scores[k].N,
				Orientation: orientation[k],
				Weight:      weights[k],
			})
		}

		test := make([]*model.Panel, len(signals))
		for k, s := range signals {
			test[k] = s.Between(sp.TestStart, sp.TestEnd)
		}
		combined := strategy.CombineScores(test, orientation, weights)
		sub := portfolio.Build(combined, o.Portfolio)
		eff, err := portfolio.EffectiveWeights(sub, o.LabelDelay, o.LabelHorizon)
		if err != nil {
			return nil, fmt.Errorf("split %d holding: %w", si, err)
		}
		grossRet := portfolio.Returns(eff, dailyRet)
		gross.add(grossRet)

		basis := sub
		if o.TurnoverBasis == BasisEffective {
			basis = eff
		}
		for _, bps := range o.CostBps {
			n := portfolio.ApplyCosts(grossRet, basis, bps)
			net[bps].add(n)
			mean, vol, sharpe := DailyStats(n.Values)
			res.Performance = append(res.Performance, model.PerformanceRow{
				Split:     si,
				TestStart: sp.TestStart,
				TestEnd:   sp.TestEnd,
				CostBps:   bps,
				MeanDaily: mean,
				VolDaily:  vol,
				Sharpe:    sharpe,
				Days:      n.Len(),
			})
		}

		if r.Metrics != nil {
			r.Metrics.RecordSplit(time.Since(started).Seconds())
		}
		log.Debug().
			Int("split", si).
			Str("window", sp.String()).
			Floats64("weights", weights).
			Int("test_days", grossRet.Len()).
			Msg("split evaluated")
	}

	res.Gross = gross.series("gross_ret")
	for _, bps := range o.CostBps {
		res.Net[bps] = net[bps].series(fmt.Sprintf("net_ret_%gbps", bps))
	}
	last := len(splits) - 1
	for _, rec := range res.Factors {
		if rec.Split == last {
			res.Latest = append(res.Latest, model.FactorWeight{
				Factor:      rec.Factor,
				Weight:      rec.Weight,
				TrainICMean: rec.TrainICMean,
				Orientation: rec.Orientation,
			})
		}
	}
	if alloc != nil {
		st := alloc.Snapshot(o.Factors)
		res.Allocator = &st
	}
	if r.Metrics != nil {
		for _, fw := range res.Latest {
			r.Metrics.RecordFactor(fw.Factor, fw.Weight, fw.TrainICMean)
		}
		for _, c := range res.ByCost(o.CostBps) {
			r.Metrics.RecordSharpe(c.CostBps, c.Sharpe)
		}
	}

	log.Info().
		Int("splits", len(splits)).
		Int("oos_days", res.Gross.Len()).
		Msg("walk-forward finished")
	return res, nil
}

func (r *Runner) newAllocator() (*allocator.Allocator, error) {
	o := r.Opts
	if o.Method != strategy.MethodOnline {
		return nil, nil
	}
	alloc, err := allocator.New(len(o.Factors), o.Online.Budget, o.Online.Eta, o.Online.Tau)
	if err != nil {
		return nil, err
	}
	if o.Online.ResumeFrom == "" {
		return alloc, nil
	}
	st, err := allocator.LoadState(o.Online.ResumeFrom)
	if err != nil {
		return nil, fmt.Errorf("load allocator state: %w", err)
	}
	if !slices.Equal(st.Factors, o.Factors) {
		return nil, fmt.Errorf("%w: saved state covers %v, run uses %v", allocator.ErrShapeMismatch, st.Factors, o.Factors)
	}
	if err := alloc.Restore(*st); err != nil {
		return nil, err
	}
	log.Info().Str("path", o.Online.ResumeFrom).Int("steps", st.Steps).Msg("allocator resumed")
	return alloc, nil
}

// DailyStats returns the mean, sample deviation and annualized Sharpe of daily returns.
// Deviation needs two observations; Sharpe needs a positive deviation.
func DailyStats(v []float64) (mean, vol, sharpe float64) {
	x := calculator.DropNaN(v)
	mean, vol, sharpe = math.NaN(), math.NaN(), math.NaN()
	if len(x) == 0 {
		return
	}
	mean = stat.Mean(x, nil)
	if len(x) < 2 {
		return
	}
	vol = stat.StdDev(x, nil)
	if vol > 0 {
		sharpe = mean / vol * math.Sqrt(TradingDays)
	}
	return
}

// stitcher concatenates per-split return series. When test windows overlap, the first
// split to cover a date wins.
type stitcher struct {
	seen   map[time.Time]bool
	dates  []time.Time
	values []float64
}

func newStitcher() *stitcher {
	return &stitcher{seen: make(map[time.Time]bool)}
}

func (s *stitcher) add(x model.Series) {
	for i, d := range x.Dates {
		if s.seen[d] {
			continue
		}
		s.seen[d] = true
		s.dates = append(s.dates, d)
		s.values = append(s.values, x.Values[i])
	}
}

func (s *stitcher) series(name string) model.Series {
	idx := make([]int, len(s.dates))
	for i := range idx {
		idx[i] = i
	}
	slices.SortFunc(idx, func(a, b int) int { return s.dates[a].Compare(s.dates[b]) })
	out := model.Series{Name: name, Dates: make([]time.Time, len(idx)), Values: make([]float64, len(idx))}
	for k, i := range idx {
		out.Dates[k] = s.dates[i]
		out.Values[k] = s.values[i]
	}
	return out
}
