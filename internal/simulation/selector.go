package simulation

import "github.com/andresuchdata/inbound-planner/internal/domain"

// SelectBest ranks scenario summaries and returns the winner: fewest days
// over capacity, ties broken by lower average daily workload, then lower
// reorder threshold, then lower target DOI. Pure and idempotent; the input
// is never mutated. ok is false for an empty collection.
func SelectBest(summaries []domain.ScenarioSummary) (best domain.ScenarioSummary, ok bool) {
	if len(summaries) == 0 {
		return domain.ScenarioSummary{}, false
	}

	best = summaries[0]
	for _, s := range summaries[1:] {
		if ranksAbove(s, best) {
			best = s
		}
	}
	return best, true
}

func ranksAbove(a, b domain.ScenarioSummary) bool {
	if a.DaysOverCapacity != b.DaysOverCapacity {
		return a.DaysOverCapacity < b.DaysOverCapacity
	}
	if a.AvgDailySKUs != b.AvgDailySKUs {
		return a.AvgDailySKUs < b.AvgDailySKUs
	}
	if a.ReorderThreshold != b.ReorderThreshold {
		return a.ReorderThreshold < b.ReorderThreshold
	}
	return a.TargetDOI < b.TargetDOI
}
