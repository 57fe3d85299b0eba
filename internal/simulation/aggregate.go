package simulation

import (
	"time"

	"github.com/andresuchdata/inbound-planner/internal/domain"
)

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// DailyCounts rolls a run's event stream into one row per calendar day:
// the count of distinct SKUs that received stock that day. Every day of
// the range appears, zero-filled, so averages cover quiet days too.
func DailyCounts(run *ScenarioRun, dailyCapacity int) []domain.DailyCount {
	perDay := make(map[string]map[string]struct{})
	for _, ev := range run.Events {
		key := dateKey(ev.Date)
		if perDay[key] == nil {
			perDay[key] = make(map[string]struct{})
		}
		perDay[key][ev.SKUCode] = struct{}{}
	}

	days := run.Range.Days()
	counts := make([]domain.DailyCount, len(days))
	for i, day := range days {
		n := len(perDay[dateKey(day)])
		counts[i] = domain.DailyCount{
			Date:     day,
			Weekday:  day.Weekday().String(),
			SKUCount: n,
			Overload: n > dailyCapacity,
		}
	}
	return counts
}

// Summarize reduces one scenario run into its summary metrics. Pure over
// the run's event stream; no cross-scenario state is consulted.
func Summarize(run *ScenarioRun, dailyCapacity, totalCapacity int) domain.ScenarioSummary {
	daily := DailyCounts(run, dailyCapacity)
	counts := make([]int, len(daily))
	for i, d := range daily {
		counts[i] = d.SKUCount
	}

	summary := domain.ScenarioSummary{
		Scenario:         run.Scenario.Name(),
		ReorderThreshold: run.Scenario.ReorderThreshold,
		TargetDOI:        run.Scenario.TargetDOI,
		TotalOrders:      run.TotalOrders,
	}

	// 1. Central tendency and spread of the daily workload.
	summary.AvgDailySKUs = meanInts(counts)
	for _, c := range counts {
		if c > summary.MaxDailySKUs {
			summary.MaxDailySKUs = c
		}
	}
	summary.MedianDailySKUs = medianInts(counts)
	summary.StdDevDailySKUs = sampleStdDev(counts)

	// 2. Capacity pressure: overload days and utilization of the daily limit.
	for _, d := range daily {
		if d.Overload {
			summary.DaysOverCapacity++
		}
	}
	if len(daily) > 0 {
		summary.PctDaysOverCapacity = float64(summary.DaysOverCapacity) / float64(len(daily)) * 100
	}
	summary.CapacityUtilizationPct = summary.AvgDailySKUs / float64(dailyCapacity) * 100

	// 3. Average coverage across every SKU-day of the run.
	if run.SKUDays > 0 {
		summary.AvgDOI = run.DOISum / float64(run.SKUDays)
	}

	// 4. Weekday buckets: overload count and mean arrivals per weekday,
	// quiet days included via the zero-filled daily rows.
	var byWeekday [7][]int
	for _, d := range daily {
		idx := domain.WeekdayIndex(d.Date.Weekday())
		byWeekday[idx] = append(byWeekday[idx], d.SKUCount)
		if d.Overload {
			summary.OverloadByWeekday[idx]++
		}
	}
	for i, bucket := range byWeekday {
		summary.AvgByWeekday[i] = meanInts(bucket)
	}

	// 5. Histogram of daily workload, Sundays excluded. Bins are
	// right-closed and the first bin includes zero-arrival days.
	for _, d := range daily {
		if d.Date.Weekday() == time.Sunday {
			continue
		}
		summary.BinCounts[arrivalBin(d.SKUCount)]++
	}

	// 6. Distinct SKUs that arrived at least once, against the total limit.
	arrived := make(map[string]struct{})
	for _, ev := range run.Events {
		arrived[ev.SKUCode] = struct{}{}
	}
	summary.TotalUniqueSKUs = len(arrived)
	summary.TotalCapacityUtilizationPct = float64(summary.TotalUniqueSKUs) / float64(totalCapacity) * 100

	return summary
}

// arrivalBin returns the histogram bucket index for a daily arrival count.
func arrivalBin(count int) int {
	for i, edge := range domain.ArrivalBinUpperEdges {
		if count <= edge {
			return i
		}
	}
	return len(domain.ArrivalBinUpperEdges)
}
