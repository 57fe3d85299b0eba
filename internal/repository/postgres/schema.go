package postgres

// HistorySchema bootstraps the run history tables. Both the API server and
// the offline artifact recorder write these tables, so the definition lives
// in one place.
const HistorySchema = `
	CREATE TABLE IF NOT EXISTS runs (
		run_id              TEXT PRIMARY KEY,
		status              TEXT NOT NULL,
		rt_start            INTEGER NOT NULL,
		rt_stop             INTEGER NOT NULL,
		doi_start           INTEGER NOT NULL,
		doi_stop            INTEGER NOT NULL,
		start_date          DATE NOT NULL,
		end_date            DATE NOT NULL,
		daily_capacity      INTEGER NOT NULL,
		total_capacity      INTEGER NOT NULL,
		eligible_skus       INTEGER NOT NULL DEFAULT 0,
		excluded_skus       INTEGER NOT NULL DEFAULT 0,
		total_scenarios     INTEGER NOT NULL DEFAULT 0,
		completed_scenarios INTEGER NOT NULL DEFAULT 0,
		failed_scenarios    INTEGER NOT NULL DEFAULT 0,
		best_scenario       TEXT NOT NULL DEFAULT '',
		from_cache          BOOLEAN NOT NULL DEFAULT FALSE,
		error               TEXT NOT NULL DEFAULT '',
		started_at          TIMESTAMPTZ NOT NULL,
		completed_at        TIMESTAMPTZ,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS scenario_summaries (
		run_id                 TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
		scenario               TEXT NOT NULL,
		reorder_threshold      INTEGER NOT NULL,
		target_doi             INTEGER NOT NULL,
		avg_daily_skus         DOUBLE PRECISION NOT NULL,
		max_daily_skus         INTEGER NOT NULL,
		std_daily_skus         DOUBLE PRECISION NOT NULL,
		days_over_capacity     INTEGER NOT NULL,
		pct_days_over_capacity DOUBLE PRECISION NOT NULL,
		capacity_utilization   DOUBLE PRECISION NOT NULL,
		total_orders           INTEGER NOT NULL,
		avg_doi                DOUBLE PRECISION NOT NULL,
		total_unique_skus      INTEGER NOT NULL,
		is_best                BOOLEAN NOT NULL DEFAULT FALSE,
		created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (run_id, scenario)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs (started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_scenario_summaries_best ON scenario_summaries (run_id) WHERE is_best;
`
