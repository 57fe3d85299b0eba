package repository

import (
	"context"

	"github.com/andresuchdata/inbound-planner/internal/domain"
)

// RunHistoryRepository persists finished runs and their per-scenario
// comparison rows for cross-run reporting.
type RunHistoryRepository interface {
	SaveRun(ctx context.Context, run domain.Run, summaries []domain.ScenarioSummary) error
	SaveRecords(ctx context.Context, run domain.RunRecord, scenarios []domain.ScenarioRecord) error
	ListRuns(ctx context.Context, limit, offset int) ([]domain.RunRecord, error)
	GetRun(ctx context.Context, runID string) (*domain.RunRecord, error)
	GetScenarios(ctx context.Context, runID string) ([]domain.ScenarioRecord, error)
	GetBestScenarios(ctx context.Context, limit int) ([]domain.ScenarioRecord, error)
}
