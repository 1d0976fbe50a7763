package model

import (
	"slices"
	"time"
)

// Series is a dated sequence of values, e.g. a daily portfolio return stream.
type Series struct {
	Name   string
	Dates  []time.Time
	Values []float64
}

// Len returns the number of observations.
func (s Series) Len() int { return len(s.Values) }

// Reindex returns the series values at the given dates, using fill where a date is absent.
func (s Series) Reindex(dates []time.Time, fill float64) Series {
	idx := make(map[time.Time]int, len(s.Dates))
	for i, d := range s.Dates {
		idx[d] = i
	}
	out := Series{Name: s.Name, Dates: slices.Clone(dates), Values: make([]float64, len(dates))}
	for i, d := range dates {
		if k, ok := idx[d]; ok {
			out.Values[i] = s.Values[k]
		} else {
			out.Values[i] = fill
		}
	}
	return out
}
