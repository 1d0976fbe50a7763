package recorder

import (
	"time"

	"FactorBench/internal/model"
)

// Run status values.
const (
	StatusRunning = "RUNNING"
	StatusOK      = "OK"
	StatusFailed  = "FAILED"
)

// RunEvent describes one backtest run. It is written when the run starts and again
// when it finishes.
type RunEvent struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Method     string
	Factors    []string
	Splits     int
	Status     string // "RUNNING", "OK" or "FAILED"
	Note       string
}

// Recorder persists backtest results for later analysis.
type Recorder interface {
	RecordRun(evt *RunEvent) error
	RecordFactorQuality(runID string, recs []model.FactorRecord) error
	RecordPerformance(runID string, rows []model.PerformanceRow) error
	RecordDailyReturns(runID string, s model.Series) error
	Close() error
}
