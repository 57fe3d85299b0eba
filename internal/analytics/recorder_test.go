package analytics_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/inbound-planner/internal/analytics"
	"github.com/andresuchdata/inbound-planner/internal/domain"
	"github.com/andresuchdata/inbound-planner/internal/sink"
)

func artifactRun(id string) domain.Run {
	completed := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	return domain.Run{
		ID:     id,
		Status: domain.RunCompleted,
		Params: domain.RunParams{
			Grid: domain.GridSpec{RTStart: 5, RTStop: 5, DOIStart: 10, DOIStop: 11},
			Range: domain.DateRange{
				Start: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
			},
			DailyCapacity: 2,
			TotalCapacity: 10,
		},
		TotalScenarios:     2,
		CompletedScenarios: 2,
		EligibleSKUs:       3,
		ExcludedSKUs:       1,
		BestScenario:       "RT5_DOI10",
		StartedAt:          time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		CompletedAt:        &completed,
	}
}

// artifactSummary uses only values exact at two decimals so the comparison
// table roundtrips without loss.
func artifactSummary(scenario string, rt, doi int) domain.ScenarioSummary {
	return domain.ScenarioSummary{
		Scenario:               scenario,
		ReorderThreshold:       rt,
		TargetDOI:              doi,
		AvgDailySKUs:           3.25,
		MaxDailySKUs:           6,
		StdDevDailySKUs:        1.5,
		DaysOverCapacity:       2,
		PctDaysOverCapacity:    6.25,
		CapacityUtilizationPct: 98.5,
		TotalOrders:            40,
		AvgDOI:                 42.75,
		TotalUniqueSKUs:        3,
	}
}

func writeRunDir(t *testing.T, baseDir string, run domain.Run, summaries []domain.ScenarioSummary, best *domain.ScenarioSummary) string {
	t.Helper()

	rs, err := sink.NewRunSink(baseDir, run.ID, false)
	require.NoError(t, err)

	if summaries != nil {
		require.NoError(t, rs.WriteComparison(summaries))
	}
	if best != nil {
		require.NoError(t, rs.WriteBestScenario(*best))
	}
	require.NoError(t, rs.WriteRunManifest(run))

	return rs.Dir()
}

// ===== ARTIFACT LOADING =====

func TestLoadRunArtifacts_ReadsManifestAndComparison(t *testing.T) {
	// GIVEN a finished run directory with two scenarios and a best artifact
	run := artifactRun("20260302_090000")
	first := artifactSummary("RT5_DOI10", 5, 10)
	second := artifactSummary("RT5_DOI11", 5, 11)
	second.TotalOrders = 38
	dir := writeRunDir(t, t.TempDir(), run, []domain.ScenarioSummary{first, second}, &first)

	// WHEN the artifacts are loaded
	artifacts, err := analytics.LoadRunArtifacts(dir)

	// THEN the manifest and every comparison row come back
	require.NoError(t, err)
	assert.Equal(t, run.ID, artifacts.Run.ID)
	assert.Equal(t, domain.RunCompleted, artifacts.Run.Status)
	assert.Equal(t, "RT5_DOI10", artifacts.Run.BestScenario)
	assert.Equal(t, 3, artifacts.Run.EligibleSKUs)

	require.Len(t, artifacts.Scenarios, 2)
	row := artifacts.Scenarios[0]
	assert.Equal(t, run.ID, row.RunID)
	assert.Equal(t, "RT5_DOI10", row.Scenario)
	assert.Equal(t, 5, row.ReorderThreshold)
	assert.Equal(t, 10, row.TargetDOI)
	assert.Equal(t, 3.25, row.AvgDailySKUs)
	assert.Equal(t, 6, row.MaxDailySKUs)
	assert.Equal(t, 1.5, row.StdDevDailySKUs)
	assert.Equal(t, 2, row.DaysOverCapacity)
	assert.Equal(t, 6.25, row.PctDaysOverCapacity)
	assert.Equal(t, 98.5, row.CapacityUtilization)
	assert.Equal(t, 40, row.TotalOrders)
	assert.True(t, row.IsBest)
	assert.False(t, artifacts.Scenarios[1].IsBest)
	assert.Equal(t, 38, artifacts.Scenarios[1].TotalOrders)

	// AND the best artifact carries the full summary
	require.NotNil(t, artifacts.Best)
	assert.Equal(t, first, *artifacts.Best)
}

func TestLoadRunArtifacts_FailedRunHasManifestOnly(t *testing.T) {
	// GIVEN a run that failed before any scenario finished
	run := artifactRun("20260302_100000")
	run.Status = domain.RunFailed
	run.Error = "stock csv: missing required column"
	run.BestScenario = ""
	dir := writeRunDir(t, t.TempDir(), run, nil, nil)

	// WHEN the artifacts are loaded
	artifacts, err := analytics.LoadRunArtifacts(dir)

	// THEN the manifest alone is enough
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, artifacts.Run.Status)
	assert.Empty(t, artifacts.Scenarios)
	assert.Nil(t, artifacts.Best)
}

func TestLoadRunArtifacts_MissingManifestFails(t *testing.T) {
	// GIVEN a directory that is not a run directory
	dir := t.TempDir()

	// WHEN the artifacts are loaded
	_, err := analytics.LoadRunArtifacts(dir)

	// THEN the load is rejected
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a run directory")
}

func TestLoadRunArtifacts_RejectsUnknownComparisonLayout(t *testing.T) {
	// GIVEN a run directory whose comparison table lost a column
	run := artifactRun("20260302_110000")
	dir := writeRunDir(t, t.TempDir(), run, []domain.ScenarioSummary{artifactSummary("RT5_DOI10", 5, 10)}, nil)

	mangled := "Scenario,Reorder_Threshold\nRT5_DOI10,5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, sink.ComparisonFileName), []byte(mangled), 0o644))

	// WHEN the artifacts are loaded
	_, err := analytics.LoadRunArtifacts(dir)

	// THEN the unknown layout is rejected instead of recorded as zeros
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing column")
}
