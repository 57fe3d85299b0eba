// internal/analytics/recorder.go
package analytics

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/andresuchdata/inbound-planner/internal/domain"
	"github.com/andresuchdata/inbound-planner/internal/repository/postgres"
	"github.com/andresuchdata/inbound-planner/internal/sink"
)

// Columns of the comparison table the recorder depends on. The weekday
// breakdown columns are deliberately not persisted.
var requiredComparisonColumns = []string{
	"Scenario",
	"Reorder_Threshold",
	"Target_DOI",
	"Avg_Daily_SKUs",
	"Max_Daily_SKUs",
	"Days_Over_Capacity",
	"Pct_Days_Over_Capacity",
	"Capacity_Utilization_Pct",
	"Total_Orders",
	"StDev_Daily_SKUs",
}

// RunArtifacts is the on-disk state of one finished run.
type RunArtifacts struct {
	Run       domain.Run
	Scenarios []domain.ScenarioRecord
	Best      *domain.ScenarioSummary
}

// LoadRunArtifacts reads a run directory without touching the database.
// The manifest is mandatory; the comparison table and best artifact are
// absent for runs that failed before any scenario finished.
func LoadRunArtifacts(dir string) (*RunArtifacts, error) {
	run, err := sink.ReadRunManifest(dir)
	if err != nil {
		return nil, fmt.Errorf("not a run directory: %w", err)
	}

	scenarios, err := readComparisonRows(filepath.Join(dir, sink.ComparisonFileName), run)
	if err != nil {
		return nil, err
	}

	artifacts := &RunArtifacts{Run: run, Scenarios: scenarios}

	if _, err := os.Stat(filepath.Join(dir, sink.BestFileName)); err == nil {
		best, err := sink.ReadBestScenario(dir)
		if err != nil {
			return nil, err
		}
		artifacts.Best = &best
	}

	return artifacts, nil
}

// RunRecorder loads finished run artifacts from disk into the history
// database. It backfills runs produced by the CLI, which writes artifacts
// but has no database connection of its own.
type RunRecorder struct {
	db *sql.DB
}

func NewRunRecorder(db *sql.DB) *RunRecorder {
	return &RunRecorder{db: db}
}

// EnsureSchema creates the history tables when they do not exist yet.
func (r *RunRecorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, postgres.HistorySchema); err != nil {
		return fmt.Errorf("failed to create history schema: %w", err)
	}
	return nil
}

// RecordRunDir loads one run directory into the database.
func (r *RunRecorder) RecordRunDir(ctx context.Context, dir string) error {
	artifacts, err := LoadRunArtifacts(dir)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	record := domain.NewRunRecord(artifacts.Run)

	runQuery := `
		INSERT INTO runs (
			run_id, status, rt_start, rt_stop, doi_start, doi_stop,
			start_date, end_date, daily_capacity, total_capacity,
			eligible_skus, excluded_skus, total_scenarios,
			completed_scenarios, failed_scenarios, best_scenario,
			from_cache, error, started_at, completed_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)
		ON CONFLICT (run_id)
		DO UPDATE SET
			status = EXCLUDED.status,
			eligible_skus = EXCLUDED.eligible_skus,
			excluded_skus = EXCLUDED.excluded_skus,
			completed_scenarios = EXCLUDED.completed_scenarios,
			failed_scenarios = EXCLUDED.failed_scenarios,
			best_scenario = EXCLUDED.best_scenario,
			from_cache = EXCLUDED.from_cache,
			error = EXCLUDED.error,
			completed_at = EXCLUDED.completed_at,
			updated_at = NOW()
	`

	_, err = tx.ExecContext(ctx, runQuery,
		record.RunID, record.Status,
		record.RTStart, record.RTStop, record.DOIStart, record.DOIStop,
		record.StartDate, record.EndDate,
		record.DailyCapacity, record.TotalCapacity,
		record.EligibleSKUs, record.ExcludedSKUs, record.TotalScenarios,
		record.CompletedScenarios, record.FailedScenarios, record.BestScenario,
		record.FromCache, record.Error, record.StartedAt, record.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert run: %w", err)
	}

	// The comparison table does not carry avg DOI or arrived SKU counts,
	// so the conflict clause leaves those columns untouched on rows the
	// server already wrote with full data.
	scenarioQuery := `
		INSERT INTO scenario_summaries (
			run_id, scenario, reorder_threshold, target_doi,
			avg_daily_skus, max_daily_skus, std_daily_skus,
			days_over_capacity, pct_days_over_capacity, capacity_utilization,
			total_orders, avg_doi, total_unique_skus, is_best
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, 0, $12
		)
		ON CONFLICT (run_id, scenario)
		DO UPDATE SET
			avg_daily_skus = EXCLUDED.avg_daily_skus,
			max_daily_skus = EXCLUDED.max_daily_skus,
			std_daily_skus = EXCLUDED.std_daily_skus,
			days_over_capacity = EXCLUDED.days_over_capacity,
			pct_days_over_capacity = EXCLUDED.pct_days_over_capacity,
			capacity_utilization = EXCLUDED.capacity_utilization,
			total_orders = EXCLUDED.total_orders,
			is_best = EXCLUDED.is_best
	`

	stmt, err := tx.PrepareContext(ctx, scenarioQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, s := range artifacts.Scenarios {
		_, err := stmt.ExecContext(ctx,
			s.RunID, s.Scenario, s.ReorderThreshold, s.TargetDOI,
			s.AvgDailySKUs, s.MaxDailySKUs, s.StdDevDailySKUs,
			s.DaysOverCapacity, s.PctDaysOverCapacity, s.CapacityUtilization,
			s.TotalOrders, s.IsBest,
		)
		if err != nil {
			return fmt.Errorf("failed to insert scenario summary: %w", err)
		}
	}

	// The best artifact carries the full summary, so the winning row can
	// be enriched with the two columns the comparison table lacks.
	if artifacts.Best != nil {
		_, err := tx.ExecContext(ctx,
			`UPDATE scenario_summaries SET avg_doi = $1, total_unique_skus = $2 WHERE run_id = $3 AND scenario = $4`,
			artifacts.Best.AvgDOI, artifacts.Best.TotalUniqueSKUs,
			artifacts.Run.ID, artifacts.Best.Scenario,
		)
		if err != nil {
			return fmt.Errorf("failed to enrich best scenario: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Recorded run %s with %d scenario rows from %s", artifacts.Run.ID, len(artifacts.Scenarios), dir)

	return nil
}

// RecordAll scans an output root and records every run directory found,
// returning how many were recorded.
func (r *RunRecorder) RecordAll(ctx context.Context, root string) (int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return 0, fmt.Errorf("failed to read output root: %w", err)
	}

	recorded := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, sink.ManifestFileName)); err != nil {
			log.Printf("Skipping %s: no run manifest", entry.Name())
			continue
		}
		if err := r.RecordRunDir(ctx, dir); err != nil {
			return recorded, fmt.Errorf("failed to record %s: %w", entry.Name(), err)
		}
		recorded++
	}

	return recorded, nil
}

// readComparisonRows parses the comparison table into scenario records.
// A missing file is not an error; failed runs never produce one.
func readComparisonRows(path string, run domain.Run) ([]domain.ScenarioRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open comparison table: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colMap := make(map[string]int)
	for i, col := range header {
		colMap[col] = i
	}
	for _, col := range requiredComparisonColumns {
		if _, ok := colMap[col]; !ok {
			return nil, fmt.Errorf("comparison table missing column %q", col)
		}
	}

	var rows []domain.ScenarioRecord
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading record: %w", err)
		}

		scenario := record[colMap["Scenario"]]
		threshold, _ := strconv.Atoi(record[colMap["Reorder_Threshold"]])
		targetDOI, _ := strconv.Atoi(record[colMap["Target_DOI"]])
		avgDaily, _ := strconv.ParseFloat(record[colMap["Avg_Daily_SKUs"]], 64)
		maxDaily, _ := strconv.Atoi(record[colMap["Max_Daily_SKUs"]])
		overDays, _ := strconv.Atoi(record[colMap["Days_Over_Capacity"]])
		pctOver, _ := strconv.ParseFloat(record[colMap["Pct_Days_Over_Capacity"]], 64)
		utilization, _ := strconv.ParseFloat(record[colMap["Capacity_Utilization_Pct"]], 64)
		totalOrders, _ := strconv.Atoi(record[colMap["Total_Orders"]])
		stdDaily, _ := strconv.ParseFloat(record[colMap["StDev_Daily_SKUs"]], 64)

		rows = append(rows, domain.ScenarioRecord{
			RunID:               run.ID,
			Scenario:            scenario,
			ReorderThreshold:    threshold,
			TargetDOI:           targetDOI,
			AvgDailySKUs:        avgDaily,
			MaxDailySKUs:        maxDaily,
			StdDevDailySKUs:     stdDaily,
			DaysOverCapacity:    overDays,
			PctDaysOverCapacity: pctOver,
			CapacityUtilization: utilization,
			TotalOrders:         totalOrders,
			IsBest:              run.BestScenario != "" && scenario == run.BestScenario,
		})
	}

	return rows, nil
}
