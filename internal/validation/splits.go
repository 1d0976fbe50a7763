package validation

import (
	"errors"
	"fmt"
	"time"

	"FactorBench/internal/model"
)

// MinDates is the smallest date index accepted for walk-forward evaluation,
// roughly two years of daily observations.
const MinDates = 400

// ErrInsufficientData is returned when the date index is too short for meaningful splits.
var ErrInsufficientData = errors.New("insufficient data for walk-forward splits")

// ErrInvalidParams is returned for non-positive split lengths or an embargo shorter than one day.
var ErrInvalidParams = errors.New("invalid split parameters")

// Generate builds monthly walk-forward splits. Each first-of-month date in the range
// anchors a test window of testMonths; training ends embargoDays calendar days before
// the anchor and spans trainYears. Candidates that do not fit inside the date range are
// dropped, so the result warms up and cools down at the boundaries.
func Generate(dates []time.Time, trainYears, testMonths, embargoDays int) ([]model.Split, error) {
	idx := model.UniqueSorted(dates)
	if len(idx) < MinDates {
		return nil, fmt.Errorf("%w: %d dates, need at least %d", ErrInsufficientData, len(idx), MinDates)
	}
	if trainYears <= 0 || testMonths <= 0 || embargoDays < 1 {
		return nil, fmt.Errorf("%w: train_years=%d test_months=%d embargo_days=%d",
			ErrInvalidParams, trainYears, testMonths, embargoDays)
	}

	first, last := idx[0], idx[len(idx)-1]
	var splits []model.Split
	for _, anchor := range monthStarts(first, last) {
		trainEnd := anchor.AddDate(0, 0, -embargoDays)
		trainStart := addYears(trainEnd, -trainYears)
		testEnd := anchor.AddDate(0, testMonths, -1)
		if trainStart.Before(first) || testEnd.After(last) {
			continue
		}
		splits = append(splits, model.Split{
			TrainStart: trainStart,
			TrainEnd:   trainEnd,
			TestStart:  anchor,
			TestEnd:    testEnd,
		})
	}
	return splits, nil
}

// monthStarts lists the first day of every month falling within [first, last].
func monthStarts(first, last time.Time) []time.Time {
	m := time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.UTC)
	if m.Before(first) {
		m = m.AddDate(0, 1, 0)
	}
	var out []time.Time
	for ; !m.After(last); m = m.AddDate(0, 1, 0) {
		out = append(out, m)
	}
	return out
}

// addYears shifts t by n calendar years, clamping Feb 29 to Feb 28 instead of rolling over.
func addYears(t time.Time, n int) time.Time {
	y := t.Year() + n
	d := t.Day()
	if t.Month() == time.February && d == 29 && !isLeap(y) {
		d = 28
	}
	return time.Date(y, t.Month(), d, 0, 0, 0, 0, time.UTC)
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}
