package model

import "time"

// QualityScore summarizes one factor's training-window rank IC.
type QualityScore struct {
	Mean        float64 // NaN when no date had a defined IC
	Std         float64
	IR          float64
	N           int
	Magnitude   float64 // |Mean|, or 0 when undefined
	Orientation float64 // +1 or -1
}

// FactorRecord is one row of the factor IC summary: a factor's quality in one split.
type FactorRecord struct {
	Split       int
	Factor      string
	TrainICMean float64
	TrainICStd  float64
	TrainICIR   float64
	TrainN      int
	Orientation float64
	Weight      float64 // combination weight assigned for the split's test window
}

// PerformanceRow aggregates one split's net daily returns at one cost level.
type PerformanceRow struct {
	Split     int
	TestStart time.Time
	TestEnd   time.Time
	CostBps   float64
	MeanDaily float64
	VolDaily  float64
	Sharpe    float64 // annualized, NaN when VolDaily is not positive
	Days      int
}

// CostSummary aggregates the stitched out-of-sample net returns at one cost level.
type CostSummary struct {
	CostBps   float64
	MeanDaily float64
	VolDaily  float64
	Sharpe    float64
	Days      int
}

// FactorWeight is a factor's combination weight and training IC in the latest split.
type FactorWeight struct {
	Factor      string
	Weight      float64
	TrainICMean float64
	Orientation float64
}

// RunSummary is the compact outcome of one backtest run, used for notifications.
type RunSummary struct {
	RunID     string
	Method    string
	Start     time.Time // first test date
	End       time.Time // last test date
	Splits    int
	Latest    []FactorWeight
	ByCost    []CostSummary
	OutputDir string
	Elapsed   time.Duration
}
