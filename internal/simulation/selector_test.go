package simulation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/inbound-planner/internal/domain"
	"github.com/andresuchdata/inbound-planner/internal/simulation"
)

func summary(rt, doi, daysOver int, avg float64) domain.ScenarioSummary {
	return domain.ScenarioSummary{
		Scenario:         domain.Scenario{ReorderThreshold: rt, TargetDOI: doi}.Name(),
		ReorderThreshold: rt,
		TargetDOI:        doi,
		DaysOverCapacity: daysOver,
		AvgDailySKUs:     avg,
	}
}

func TestSelectBest_FewestOverloadDaysWins(t *testing.T) {
	// GIVEN: three scenarios with different overload-day counts
	// THEN: the one with the fewest wins, regardless of its average

	best, ok := simulation.SelectBest([]domain.ScenarioSummary{
		summary(10, 20, 5, 10),
		summary(11, 25, 2, 300),
		summary(12, 30, 8, 1),
	})

	require.True(t, ok)
	assert.Equal(t, "RT11_DOI25", best.Scenario)
}

func TestSelectBest_TieBrokenByLowerAverage(t *testing.T) {
	// GIVEN: two scenarios tied on overload days
	// THEN: the lower average daily workload wins

	best, ok := simulation.SelectBest([]domain.ScenarioSummary{
		summary(10, 20, 3, 250.5),
		summary(14, 40, 3, 180.25),
	})

	require.True(t, ok)
	assert.Equal(t, "RT14_DOI40", best.Scenario)
}

func TestSelectBest_TieBrokenByLowerThreshold(t *testing.T) {
	// GIVEN: scenarios tied on overload days and average
	// THEN: the lower reorder threshold wins

	best, ok := simulation.SelectBest([]domain.ScenarioSummary{
		summary(15, 20, 3, 100),
		summary(12, 35, 3, 100),
		summary(18, 25, 3, 100),
	})

	require.True(t, ok)
	assert.Equal(t, 12, best.ReorderThreshold)
}

func TestSelectBest_FinalTieBrokenByLowerTargetDOI(t *testing.T) {
	// GIVEN: scenarios identical on every preceding criterion
	// THEN: the lower target DOI wins, keeping selection deterministic

	best, ok := simulation.SelectBest([]domain.ScenarioSummary{
		summary(12, 40, 3, 100),
		summary(12, 25, 3, 100),
	})

	require.True(t, ok)
	assert.Equal(t, 25, best.TargetDOI)
}

func TestSelectBest_EmptyCollection(t *testing.T) {
	_, ok := simulation.SelectBest(nil)
	assert.False(t, ok)
}

func TestSelectBest_PureAndIdempotent(t *testing.T) {
	// GIVEN: the same collection ranked twice
	// THEN: both calls agree and the input is left untouched

	input := []domain.ScenarioSummary{
		summary(10, 20, 4, 50),
		summary(11, 30, 1, 75),
		summary(12, 25, 1, 60),
	}
	snapshot := make([]domain.ScenarioSummary, len(input))
	copy(snapshot, input)

	first, ok := simulation.SelectBest(input)
	require.True(t, ok)
	second, ok := simulation.SelectBest(input)
	require.True(t, ok)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, input)
	assert.Equal(t, "RT12_DOI25", first.Scenario)
}
