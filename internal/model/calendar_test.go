package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBusinessDaysSkipsWeekends(t *testing.T) {
	// 2024-01-05 is a Friday.
	days := BusinessDays(day("2024-01-05"), day("2024-01-09"))
	assert.Equal(t, []time.Time{day("2024-01-05"), day("2024-01-08"), day("2024-01-09")}, days)
}

func TestNBusinessDays(t *testing.T) {
	days := NBusinessDays(day("2024-01-06"), 3)
	assert.Equal(t, []time.Time{day("2024-01-08"), day("2024-01-09"), day("2024-01-10")}, days)
}

func TestUniqueSorted(t *testing.T) {
	in := []time.Time{
		day("2024-01-03"),
		time.Date(2024, 1, 2, 15, 30, 0, 0, time.UTC),
		day("2024-01-02"),
	}
	assert.Equal(t, []time.Time{day("2024-01-02"), day("2024-01-03")}, UniqueSorted(in))
}
