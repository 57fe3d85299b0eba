package sink_test

import (
	"archive/zip"
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/inbound-planner/internal/domain"
	"github.com/andresuchdata/inbound-planner/internal/simulation"
	"github.com/andresuchdata/inbound-planner/internal/sink"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestSink(t *testing.T, withTraces bool) *sink.RunSink {
	t.Helper()
	s, err := sink.NewRunSink(t.TempDir(), "20260825_140000", withTraces)
	require.NoError(t, err)
	return s
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestNewRunSink_SuffixesCollidingRunID(t *testing.T) {
	// GIVEN: two runs started within the same second
	// THEN: the second gets a numeric suffix instead of clobbering the first

	base := t.TempDir()
	first, err := sink.NewRunSink(base, "20260825_140000", false)
	require.NoError(t, err)
	second, err := sink.NewRunSink(base, "20260825_140000", false)
	require.NoError(t, err)

	assert.Equal(t, "20260825_140000", first.RunID())
	assert.Equal(t, "20260825_140000_2", second.RunID())
	assert.NotEqual(t, first.Dir(), second.Dir())
}

func TestWriteScenario_DailyCSV(t *testing.T) {
	s := newTestSink(t, false)
	scenario := domain.Scenario{ReorderThreshold: 15, TargetDOI: 25}
	monday := date(2026, time.January, 5)

	run := &simulation.ScenarioRun{Scenario: scenario}
	daily := []domain.DailyCount{
		{Date: monday, Weekday: "Monday", SKUCount: 380, Overload: true},
		{Date: monday.AddDate(0, 0, 1), Weekday: "Tuesday", SKUCount: 12, Overload: false},
	}

	require.NoError(t, s.WriteScenario(run, daily, domain.ScenarioSummary{Scenario: scenario.Name()}))

	records := readCSV(t, filepath.Join(s.Dir(), "scenario_RT15_DOI25_daily.csv"))
	require.Len(t, records, 3)
	assert.Equal(t, []string{"date", "unique_skus_arrived", "day_of_week", "is_overload"}, records[0])
	assert.Equal(t, []string{"2026-01-05", "380", "Monday", "true"}, records[1])
	assert.Equal(t, []string{"2026-01-06", "12", "Tuesday", "false"}, records[2])
}

func TestWriteScenario_TraceOnlyWhenEnabled(t *testing.T) {
	scenario := domain.Scenario{ReorderThreshold: 10, TargetDOI: 20}
	trace := []domain.TraceRow{{
		Date:           date(2026, time.January, 5),
		SKUCode:        "SKU-A",
		ProductName:    "Alpha",
		LeadTimeDays:   5,
		StockBeginning: 100,
		Sales:          10,
		StockEnding:    90,
		DOI:            9,
		OrderPlaced:    true,
		OrderQuantity:  268.5,
		OnOrderCount:   1,
	}}
	run := &simulation.ScenarioRun{Scenario: scenario, Trace: trace}

	withoutTraces := newTestSink(t, false)
	require.NoError(t, withoutTraces.WriteScenario(run, nil, domain.ScenarioSummary{}))
	_, err := os.Stat(filepath.Join(withoutTraces.Dir(), "scenario_RT10_DOI20_detailed.csv"))
	assert.True(t, os.IsNotExist(err))

	withTraces := newTestSink(t, true)
	require.NoError(t, withTraces.WriteScenario(run, nil, domain.ScenarioSummary{}))

	records := readCSV(t, filepath.Join(withTraces.Dir(), "scenario_RT10_DOI20_detailed.csv"))
	require.Len(t, records, 2)
	assert.Equal(t, "268.5", records[1][10], "order_quantity column")
	assert.Equal(t, "0", records[1][11], "in-transit qty excludes today's order")
	assert.Equal(t, "1", records[1][12])
}

func TestWriteComparison_ColumnsAndRounding(t *testing.T) {
	s := newTestSink(t, false)

	summary := domain.ScenarioSummary{
		Scenario:               "RT10_DOI20",
		ReorderThreshold:       10,
		TargetDOI:              20,
		AvgDailySKUs:           123.456,
		MaxDailySKUs:           380,
		DaysOverCapacity:       7,
		PctDaysOverCapacity:    7.6086,
		CapacityUtilizationPct: 34.293,
		TotalOrders:            1512,
		StdDevDailySKUs:        45.6789,
		OverloadByWeekday:      [7]int{3, 0, 1, 0, 2, 1, 0},
		AvgByWeekday:           [7]float64{210.5, 80, 95.125, 60, 150.333, 40, 10},
	}

	require.NoError(t, s.WriteComparison([]domain.ScenarioSummary{summary}))

	records := readCSV(t, filepath.Join(s.Dir(), sink.ComparisonFileName))
	require.Len(t, records, 2)

	header := records[0]
	require.Len(t, header, 24)
	assert.Equal(t, "Scenario", header[0])
	assert.Equal(t, "StDev_Daily_SKUs", header[9])
	assert.Equal(t, "Overload_Monday", header[10])
	assert.Equal(t, "Overload_Sunday", header[16])
	assert.Equal(t, "Avg_Monday", header[17])
	assert.Equal(t, "Avg_Sunday", header[23])

	row := records[1]
	assert.Equal(t, "RT10_DOI20", row[0])
	assert.Equal(t, "123.46", row[3])
	assert.Equal(t, "380", row[4])
	assert.Equal(t, "7", row[5])
	assert.Equal(t, "7.61", row[6])
	assert.Equal(t, "34.29", row[7])
	assert.Equal(t, "1512", row[8])
	assert.Equal(t, "45.68", row[9])
	assert.Equal(t, "3", row[10])
	assert.Equal(t, "210.50", row[17])
	assert.Equal(t, "95.13", row[19])
}

func TestRunManifest_RoundTrip(t *testing.T) {
	s := newTestSink(t, false)

	run := domain.Run{
		ID:             s.RunID(),
		Status:         domain.RunCompleted,
		TotalScenarios: 9,
		BestScenario:   "RT12_DOI20",
		StartedAt:      date(2026, time.August, 25),
	}
	require.NoError(t, s.WriteRunManifest(run))

	got, err := sink.ReadRunManifest(s.Dir())
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, domain.RunCompleted, got.Status)
	assert.Equal(t, "RT12_DOI20", got.BestScenario)
}

func TestBundle_PackagesEveryArtifactOnce(t *testing.T) {
	s := newTestSink(t, false)

	require.NoError(t, s.WriteComparison(nil))
	require.NoError(t, s.WriteBestScenario(domain.ScenarioSummary{Scenario: "RT10_DOI20"}))
	require.NoError(t, s.WriteRunManifest(domain.Run{ID: s.RunID()}))

	bundlePath, err := s.Bundle()
	require.NoError(t, err)

	zr, err := zip.OpenReader(bundlePath)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{
		sink.BestFileName,
		sink.ComparisonFileName,
		sink.ManifestFileName,
	}, names)

	// Rebundling replaces the bundle without nesting it.
	_, err = s.Bundle()
	require.NoError(t, err)
	zr2, err := zip.OpenReader(bundlePath)
	require.NoError(t, err)
	defer zr2.Close()
	assert.Len(t, zr2.File, 3)
}
