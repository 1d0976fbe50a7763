package model

import (
	"slices"
	"time"
)

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BusinessDays returns every Monday–Friday between start and end, inclusive.
func BusinessDays(start, end time.Time) []time.Time {
	var out []time.Time
	for d := Day(start); !d.After(Day(end)); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			out = append(out, d)
		}
	}
	return out
}

// NBusinessDays returns n consecutive business days starting at or after start.
func NBusinessDays(start time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	for d := Day(start); len(out) < n; d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			out = append(out, d)
		}
	}
	return out
}

// UniqueSorted normalizes dates to UTC days, sorts them and drops duplicates.
func UniqueSorted(dates []time.Time) []time.Time {
	out := make([]time.Time, len(dates))
	for i, d := range dates {
		out[i] = Day(d)
	}
	slices.SortFunc(out, func(a, b time.Time) int { return a.Compare(b) })
	return slices.CompactFunc(out, func(a, b time.Time) bool { return a.Equal(b) })
}
