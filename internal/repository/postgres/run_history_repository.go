package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/inbound-planner/internal/domain"
	"github.com/jmoiron/sqlx"
)

const (
	defaultListLimit = 50
	defaultBestLimit = 20
)

type runHistoryRepository struct {
	db *DB
}

func NewRunHistoryRepository(db *DB) *runHistoryRepository {
	return &runHistoryRepository{db: db}
}

// EnsureSchema creates the history tables when they do not exist yet.
// Safe to call on every startup.
func (r *runHistoryRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, HistorySchema); err != nil {
		return fmt.Errorf("failed to create history schema: %w", err)
	}
	return nil
}

func (r *runHistoryRepository) SaveRun(ctx context.Context, run domain.Run, summaries []domain.ScenarioSummary) error {
	record := domain.NewRunRecord(run)
	scenarios := make([]domain.ScenarioRecord, 0, len(summaries))
	for _, s := range summaries {
		isBest := run.BestScenario != "" && s.Scenario == run.BestScenario
		scenarios = append(scenarios, domain.NewScenarioRecord(run.ID, s, isBest))
	}
	return r.SaveRecords(ctx, record, scenarios)
}

func (r *runHistoryRepository) SaveRecords(ctx context.Context, run domain.RunRecord, scenarios []domain.ScenarioRecord) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
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

		_, err := tx.ExecContext(
			ctx,
			runQuery,
			run.RunID,
			run.Status,
			run.RTStart,
			run.RTStop,
			run.DOIStart,
			run.DOIStop,
			run.StartDate,
			run.EndDate,
			run.DailyCapacity,
			run.TotalCapacity,
			run.EligibleSKUs,
			run.ExcludedSKUs,
			run.TotalScenarios,
			run.CompletedScenarios,
			run.FailedScenarios,
			run.BestScenario,
			run.FromCache,
			run.Error,
			run.StartedAt,
			run.CompletedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert run: %w", err)
		}

		scenarioQuery := `
			INSERT INTO scenario_summaries (
				run_id, scenario, reorder_threshold, target_doi,
				avg_daily_skus, max_daily_skus, std_daily_skus,
				days_over_capacity, pct_days_over_capacity, capacity_utilization,
				total_orders, avg_doi, total_unique_skus, is_best
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
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
				avg_doi = EXCLUDED.avg_doi,
				total_unique_skus = EXCLUDED.total_unique_skus,
				is_best = EXCLUDED.is_best
		`

		stmt, err := tx.PrepareContext(ctx, scenarioQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, s := range scenarios {
			_, err := stmt.ExecContext(
				ctx,
				s.RunID,
				s.Scenario,
				s.ReorderThreshold,
				s.TargetDOI,
				s.AvgDailySKUs,
				s.MaxDailySKUs,
				s.StdDevDailySKUs,
				s.DaysOverCapacity,
				s.PctDaysOverCapacity,
				s.CapacityUtilization,
				s.TotalOrders,
				s.AvgDOI,
				s.TotalUniqueSKUs,
				s.IsBest,
			)
			if err != nil {
				return fmt.Errorf("failed to insert scenario summary: %w", err)
			}
		}

		return nil
	})
}

func (r *runHistoryRepository) ListRuns(ctx context.Context, limit, offset int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT
			run_id, status, rt_start, rt_stop, doi_start, doi_stop,
			start_date, end_date, daily_capacity, total_capacity,
			eligible_skus, excluded_skus, total_scenarios,
			completed_scenarios, failed_scenarios, best_scenario,
			from_cache, error, started_at, completed_at
		FROM runs
		ORDER BY started_at DESC, run_id DESC
		LIMIT $1 OFFSET $2
	`

	var runs []domain.RunRecord
	if err := sqlx.SelectContext(ctx, r.db, &runs, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

func (r *runHistoryRepository) GetRun(ctx context.Context, runID string) (*domain.RunRecord, error) {
	query := `
		SELECT
			run_id, status, rt_start, rt_stop, doi_start, doi_stop,
			start_date, end_date, daily_capacity, total_capacity,
			eligible_skus, excluded_skus, total_scenarios,
			completed_scenarios, failed_scenarios, best_scenario,
			from_cache, error, started_at, completed_at
		FROM runs
		WHERE run_id = $1
	`

	var run domain.RunRecord
	if err := sqlx.GetContext(ctx, r.db, &run, query, runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

func (r *runHistoryRepository) GetScenarios(ctx context.Context, runID string) ([]domain.ScenarioRecord, error) {
	query := `
		SELECT
			run_id, scenario, reorder_threshold, target_doi,
			avg_daily_skus, max_daily_skus, std_daily_skus,
			days_over_capacity, pct_days_over_capacity, capacity_utilization,
			total_orders, avg_doi, total_unique_skus, is_best
		FROM scenario_summaries
		WHERE run_id = $1
		ORDER BY reorder_threshold, target_doi
	`

	var scenarios []domain.ScenarioRecord
	if err := sqlx.SelectContext(ctx, r.db, &scenarios, query, runID); err != nil {
		return nil, fmt.Errorf("failed to get scenarios: %w", err)
	}
	return scenarios, nil
}

func (r *runHistoryRepository) GetBestScenarios(ctx context.Context, limit int) ([]domain.ScenarioRecord, error) {
	if limit <= 0 {
		limit = defaultBestLimit
	}

	query := `
		SELECT
			s.run_id, s.scenario, s.reorder_threshold, s.target_doi,
			s.avg_daily_skus, s.max_daily_skus, s.std_daily_skus,
			s.days_over_capacity, s.pct_days_over_capacity, s.capacity_utilization,
			s.total_orders, s.avg_doi, s.total_unique_skus, s.is_best
		FROM scenario_summaries s
		JOIN runs r ON r.run_id = s.run_id
		WHERE s.is_best
		ORDER BY r.started_at DESC, s.run_id DESC
		LIMIT $1
	`

	var scenarios []domain.ScenarioRecord
	if err := sqlx.SelectContext(ctx, r.db, &scenarios, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get best scenarios: %w", err)
	}
	return scenarios, nil
}
