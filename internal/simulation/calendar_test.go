package simulation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/andresuchdata/inbound-planner/internal/simulation"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsWorkingDay_WeekdaysOnly(t *testing.T) {
	// GIVEN: one full week starting Monday 2026-01-05
	// THEN: Monday through Friday are working days, Saturday and Sunday are not

	monday := date(2026, time.January, 5)
	for i := 0; i < 5; i++ {
		d := monday.AddDate(0, 0, i)
		assert.True(t, simulation.IsWorkingDay(d), "%s should be a working day", d.Weekday())
	}
	assert.False(t, simulation.IsWorkingDay(monday.AddDate(0, 0, 5)), "Saturday is not a working day")
	assert.False(t, simulation.IsWorkingDay(monday.AddDate(0, 0, 6)), "Sunday is not a working day")
}

func TestAddWorkingDays_SkipsWeekend(t *testing.T) {
	// GIVEN: Monday 2026-01-05
	// WHEN: advancing 5 working days
	// THEN: the intervening weekend is skipped and we land on the next Monday

	monday := date(2026, time.January, 5)
	got := simulation.AddWorkingDays(monday, 5)
	assert.Equal(t, date(2026, time.January, 12), got)
	assert.Equal(t, time.Monday, got.Weekday())
}

func TestAddWorkingDays_FromFriday(t *testing.T) {
	// GIVEN: Friday 2026-01-09
	// WHEN: advancing 1 working day
	// THEN: Saturday and Sunday are skipped, landing on Monday

	friday := date(2026, time.January, 9)
	assert.Equal(t, date(2026, time.January, 12), simulation.AddWorkingDays(friday, 1))
}

func TestAddWorkingDays_StartOnWeekend(t *testing.T) {
	// GIVEN: Saturday 2026-01-10
	// WHEN: advancing 1 working day
	// THEN: the first counted step is Monday

	saturday := date(2026, time.January, 10)
	assert.Equal(t, date(2026, time.January, 12), simulation.AddWorkingDays(saturday, 1))
}

func TestAddWorkingDays_CrossesMultipleWeekends(t *testing.T) {
	// GIVEN: Monday 2026-01-05
	// WHEN: advancing 12 working days
	// THEN: two weekends are skipped (12 working days = 16 calendar days)

	monday := date(2026, time.January, 5)
	assert.Equal(t, date(2026, time.January, 21), simulation.AddWorkingDays(monday, 12))
}

func TestAddWorkingDays_FractionalRounding(t *testing.T) {
	// GIVEN: fractional working-day counts
	// THEN: the step count is rounded to the nearest integer,
	// halves rounding away from zero

	monday := date(2026, time.January, 5)

	// 5.85 rounds to 6 steps: Tue..Fri, skip weekend, Mon, Tue.
	assert.Equal(t, date(2026, time.January, 13), simulation.AddWorkingDays(monday, 5.85))

	// 1.4 rounds down to 1 step.
	assert.Equal(t, date(2026, time.January, 6), simulation.AddWorkingDays(monday, 1.4))

	// 1.5 rounds up to 2 steps.
	assert.Equal(t, date(2026, time.January, 7), simulation.AddWorkingDays(monday, 1.5))
}

func TestAddWorkingDays_ZeroAndNegative(t *testing.T) {
	// GIVEN: zero or negative counts
	// THEN: the start date is returned unchanged

	monday := date(2026, time.January, 5)
	assert.Equal(t, monday, simulation.AddWorkingDays(monday, 0))
	assert.Equal(t, monday, simulation.AddWorkingDays(monday, -3))
	assert.Equal(t, monday, simulation.AddWorkingDays(monday, 0.4))
}
