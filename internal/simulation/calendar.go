package simulation

import (
	"math"
	"time"
)

// IsWorkingDay reports whether t falls on Monday through Friday.
func IsWorkingDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return true
}

// AddWorkingDays advances start by the given number of working days,
// stepping one calendar day at a time and counting only Monday-Friday.
// Fractional inputs are rounded to the nearest whole day (half away from
// zero) before stepping; zero or negative counts return start unchanged.
func AddWorkingDays(start time.Time, days float64) time.Time {
	steps := int(math.Round(days))
	if steps <= 0 {
		return start
	}

	current := start
	added := 0
	for added < steps {
		current = current.AddDate(0, 0, 1)
		if IsWorkingDay(current) {
			added++
		}
	}
	return current
}

// sameDay reports whether a and b fall on the same calendar date,
// ignoring clock time and location offsets within a day.
func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
