package simulation_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/inbound-planner/internal/domain"
	"github.com/andresuchdata/inbound-planner/internal/simulation"
)

func arrivals(day time.Time, n int) []domain.DailyArrivalEvent {
	evs := make([]domain.DailyArrivalEvent, n)
	for i := range evs {
		evs[i] = domain.DailyArrivalEvent{
			Date:     day,
			SKUCode:  fmt.Sprintf("SKU-%04d", i),
			Quantity: 10,
		}
	}
	return evs
}

func TestDailyCounts_ZeroFillsQuietDays(t *testing.T) {
	// GIVEN: a full week with arrivals on Monday only
	// WHEN: the event stream is rolled up per day
	// THEN: every calendar day of the range is present, quiet days at zero

	monday := date(2026, time.January, 5)
	run := &simulation.ScenarioRun{
		Scenario: domain.Scenario{ReorderThreshold: 20, TargetDOI: 30},
		Range:    domain.DateRange{Start: monday, End: monday.AddDate(0, 0, 6)},
		Events:   arrivals(monday, 3),
	}

	daily := simulation.DailyCounts(run, 2)

	require.Len(t, daily, 7)
	assert.Equal(t, monday, daily[0].Date)
	assert.Equal(t, "Monday", daily[0].Weekday)
	assert.Equal(t, 3, daily[0].SKUCount)
	assert.True(t, daily[0].Overload, "3 arrivals exceed capacity 2")
	for _, d := range daily[1:] {
		assert.Zero(t, d.SKUCount)
		assert.False(t, d.Overload)
	}
}

func TestDailyCounts_DistinctSKUsNotEventCount(t *testing.T) {
	// GIVEN: two arrivals recorded for the same SKU on one day
	// THEN: the day's workload counts the SKU once

	monday := date(2026, time.January, 5)
	run := &simulation.ScenarioRun{
		Range: domain.DateRange{Start: monday, End: monday},
		Events: []domain.DailyArrivalEvent{
			{Date: monday, SKUCode: "SKU-A", Quantity: 5},
			{Date: monday, SKUCode: "SKU-A", Quantity: 7},
			{Date: monday, SKUCode: "SKU-B", Quantity: 3},
		},
	}

	daily := simulation.DailyCounts(run, 360)
	require.Len(t, daily, 1)
	assert.Equal(t, 2, daily[0].SKUCount)
}

func TestSummarize_KnownWorkload(t *testing.T) {
	// GIVEN: Mon 3 arrivals, Tue 0, Wed 1 with daily capacity 2
	// THEN: every summary metric matches the hand-computed value

	monday := date(2026, time.January, 5)
	events := arrivals(monday, 3)
	events = append(events, domain.DailyArrivalEvent{
		Date: monday.AddDate(0, 0, 2), SKUCode: "SKU-0000", Quantity: 4,
	})

	run := &simulation.ScenarioRun{
		Scenario:    domain.Scenario{ReorderThreshold: 20, TargetDOI: 30},
		Range:       domain.DateRange{Start: monday, End: monday.AddDate(0, 0, 2)},
		Events:      events,
		TotalOrders: 4,
		DOISum:      45,
		SKUDays:     9,
	}

	s := simulation.Summarize(run, 2, 10)

	assert.Equal(t, "RT20_DOI30", s.Scenario)
	assert.Equal(t, 20, s.ReorderThreshold)
	assert.Equal(t, 30, s.TargetDOI)

	// Daily counts are [3, 0, 1].
	assert.InDelta(t, 4.0/3.0, s.AvgDailySKUs, 1e-9)
	assert.Equal(t, 3, s.MaxDailySKUs)
	assert.InDelta(t, 1.0, s.MedianDailySKUs, 1e-9)
	assert.InDelta(t, 1.5275252316, s.StdDevDailySKUs, 1e-6)

	assert.Equal(t, 1, s.DaysOverCapacity)
	assert.InDelta(t, 100.0/3.0, s.PctDaysOverCapacity, 1e-9)
	assert.InDelta(t, (4.0/3.0)/2.0*100, s.CapacityUtilizationPct, 1e-9)

	assert.Equal(t, 4, s.TotalOrders)
	assert.InDelta(t, 5.0, s.AvgDOI, 1e-9)

	// Monday-first weekday buckets: only Monday overloaded.
	assert.Equal(t, [7]int{1, 0, 0, 0, 0, 0, 0}, s.OverloadByWeekday)
	assert.InDelta(t, 3.0, s.AvgByWeekday[0], 1e-9)
	assert.InDelta(t, 0.0, s.AvgByWeekday[1], 1e-9)
	assert.InDelta(t, 1.0, s.AvgByWeekday[2], 1e-9)

	// Three distinct SKUs arrived against a total capacity of 10.
	assert.Equal(t, 3, s.TotalUniqueSKUs)
	assert.InDelta(t, 30.0, s.TotalCapacityUtilizationPct, 1e-9)
}

func TestSummarize_UnderCapacityNeverOverloads(t *testing.T) {
	// GIVEN: a scenario whose busiest day stays below the daily limit
	// THEN: days over capacity and its percentage are both zero

	monday := date(2026, time.January, 5)
	run := &simulation.ScenarioRun{
		Range:  domain.DateRange{Start: monday, End: monday.AddDate(0, 0, 13)},
		Events: arrivals(monday.AddDate(0, 0, 3), 5),
	}

	s := simulation.Summarize(run, 360, 5100)

	assert.Equal(t, 5, s.MaxDailySKUs)
	assert.Less(t, s.MaxDailySKUs, 360)
	assert.Zero(t, s.DaysOverCapacity)
	assert.Zero(t, s.PctDaysOverCapacity)
}

func TestSummarize_ArrivalBinsRightClosed(t *testing.T) {
	// GIVEN: daily counts sitting exactly on and just past bin edges
	// THEN: edge values fall in the lower bin (right-closed bins) and the
	//       zero-arrival day lands in the first bin

	monday := date(2026, time.January, 5)
	events := arrivals(monday, 30)                     // 0-30 bin
	events = append(events, arrivals(monday.AddDate(0, 0, 1), 31)...)  // 31-90 bin
	events = append(events, arrivals(monday.AddDate(0, 0, 2), 721)...) // 720+ bin
	// Thursday has no arrivals.

	run := &simulation.ScenarioRun{
		Range:  domain.DateRange{Start: monday, End: monday.AddDate(0, 0, 3)},
		Events: events,
	}

	s := simulation.Summarize(run, 360, 5100)

	assert.Equal(t, [8]int{2, 1, 0, 0, 0, 0, 0, 1}, s.BinCounts)
}

func TestSummarize_SundaysExcludedFromBinsOnly(t *testing.T) {
	// GIVEN: a week whose only arrivals land on Sunday
	// THEN: the histogram ignores Sunday but the weekday averages and
	//       overload buckets still see it

	monday := date(2026, time.January, 5)
	sunday := monday.AddDate(0, 0, 6)
	run := &simulation.ScenarioRun{
		Range:  domain.DateRange{Start: monday, End: sunday},
		Events: arrivals(sunday, 40),
	}

	s := simulation.Summarize(run, 20, 5100)

	// Six non-Sunday days, all quiet, land in the first bin.
	assert.Equal(t, [8]int{6, 0, 0, 0, 0, 0, 0, 0}, s.BinCounts)

	// Sunday still shows up in the weekday views.
	assert.Equal(t, 1, s.OverloadByWeekday[6])
	assert.InDelta(t, 40.0, s.AvgByWeekday[6], 1e-9)
	assert.Equal(t, 1, s.DaysOverCapacity)
}
