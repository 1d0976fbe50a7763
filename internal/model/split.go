package model

import (
	"fmt"
	"time"
)

// Split is one walk-forward train/test window pair. Values are never mutated after creation.
type Split struct {
	TrainStart time.Time
	TrainEnd   time.Time
	TestStart  time.Time
	TestEnd    time.Time
}

func (s Split) String() string {
	return fmt.Sprintf("train[%s..%s] test[%s..%s]",
		s.TrainStart.Format(time.DateOnly), s.TrainEnd.Format(time.DateOnly),
		s.TestStart.Format(time.DateOnly), s.TestEnd.Format(time.DateOnly))
}
