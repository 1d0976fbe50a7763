package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder collects run metrics on its own registry so they can be dumped in the
// node_exporter textfile format after a batch run.
type Recorder struct {
	reg *prometheus.Registry

	runsTotal     *prometheus.CounterVec
	splitsTotal   prometheus.Counter
	splitDuration prometheus.Histogram
	factorWeight  *prometheus.GaugeVec
	factorICMean  *prometheus.GaugeVec
	sharpe        *prometheus.GaugeVec
	lastRunTime   prometheus.Gauge
}

// New creates a metrics recorder backed by a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factorbench_runs_total",
				Help: "Total number of backtest runs by outcome",
			},
			[]string{"status"},
		),
		splitsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "factorbench_splits_evaluated_total",
			Help: "Total number of walk-forward splits evaluated",
		}),
		splitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "factorbench_split_duration_seconds",
			Help:    "Duration of one split evaluation in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		factorWeight: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "factorbench_factor_weight",
				Help: "Combination weight of a factor in the latest split",
			},
			[]string{"factor"},
		),
		factorICMean: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "factorbench_factor_train_ic_mean",
				Help: "Training-window mean rank IC of a factor in the latest split",
			},
			[]string{"factor"},
		),
		sharpe: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "factorbench_sharpe",
				Help: "Annualized Sharpe of the stitched out-of-sample returns",
			},
			[]string{"cost_bps"},
		),
		lastRunTime: f.NewGauge(prometheus.GaugeOpts{
			Name: "factorbench_last_run_timestamp_seconds",
			Help: "Unix time of the last completed run",
		}),
	}
}

// RecordRun counts a finished run and stamps its completion time.
func (r *Recorder) RecordRun(status string, unixTime float64) {
	r.runsTotal.WithLabelValues(status).Inc()
	if unixTime > 0 {
		r.lastRunTime.Set(unixTime)
	}
}

// RecordSplit records one evaluated split and its duration in seconds.
func (r *Recorder) RecordSplit(seconds float64) {
	r.splitsTotal.Inc()
	r.splitDuration.Observe(seconds)
}

// RecordFactor records a factor's latest weight and training IC.
func (r *Recorder) RecordFactor(factor string, weight, icMean float64) {
	r.factorWeight.WithLabelValues(factor).Set(weight)
	r.factorICMean.WithLabelValues(factor).Set(icMean)
}

// RecordSharpe records the overall Sharpe at a cost level.
func (r *Recorder) RecordSharpe(costBps, sharpe float64) {
	r.sharpe.WithLabelValues(strconv.FormatFloat(costBps, 'g', -1, 64)).Set(sharpe)
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// WriteTextfile atomically writes all metrics to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
