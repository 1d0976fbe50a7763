package recorder

import "FactorBench/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *RunEvent) error                                { return nil }
func (n *NoopRecorder) RecordFactorQuality(_ string, _ []model.FactorRecord) error { return nil }
func (n *NoopRecorder) RecordPerformance(_ string, _ []model.PerformanceRow) error { return nil }
func (n *NoopRecorder) RecordDailyReturns(_ string, _ model.Series) error          { return nil }
func (n *NoopRecorder) Close() error                                               { return nil }
