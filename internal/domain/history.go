package domain

import "time"

// RunRecord is the persisted, flattened view of one run for history queries.
type RunRecord struct {
	RunID              string     `json:"run_id" db:"run_id"`
	Status             string     `json:"status" db:"status"`
	RTStart            int        `json:"rt_start" db:"rt_start"`
	RTStop             int        `json:"rt_stop" db:"rt_stop"`
	DOIStart           int        `json:"doi_start" db:"doi_start"`
	DOIStop            int        `json:"doi_stop" db:"doi_stop"`
	StartDate          time.Time  `json:"start_date" db:"start_date"`
	EndDate            time.Time  `json:"end_date" db:"end_date"`
	DailyCapacity      int        `json:"daily_capacity" db:"daily_capacity"`
	TotalCapacity      int        `json:"total_capacity" db:"total_capacity"`
	EligibleSKUs       int        `json:"eligible_skus" db:"eligible_skus"`
	ExcludedSKUs       int        `json:"excluded_skus" db:"excluded_skus"`
	TotalScenarios     int        `json:"total_scenarios" db:"total_scenarios"`
	CompletedScenarios int        `json:"completed_scenarios" db:"completed_scenarios"`
	FailedScenarios    int        `json:"failed_scenarios" db:"failed_scenarios"`
	BestScenario       string     `json:"best_scenario" db:"best_scenario"`
	FromCache          bool       `json:"from_cache" db:"from_cache"`
	Error              string     `json:"error,omitempty" db:"error"`
	StartedAt          time.Time  `json:"started_at" db:"started_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// ScenarioRecord is the persisted comparison row of one scenario.
type ScenarioRecord struct {
	RunID               string  `json:"run_id" db:"run_id"`
	Scenario            string  `json:"scenario" db:"scenario"`
	ReorderThreshold    int     `json:"reorder_threshold" db:"reorder_threshold"`
	TargetDOI           int     `json:"target_doi" db:"target_doi"`
	AvgDailySKUs        float64 `json:"avg_daily_skus" db:"avg_daily_skus"`
	MaxDailySKUs        int     `json:"max_daily_skus" db:"max_daily_skus"`
	StdDevDailySKUs     float64 `json:"std_daily_skus" db:"std_daily_skus"`
	DaysOverCapacity    int     `json:"days_over_capacity" db:"days_over_capacity"`
	PctDaysOverCapacity float64 `json:"pct_days_over_capacity" db:"pct_days_over_capacity"`
	CapacityUtilization float64 `json:"capacity_utilization" db:"capacity_utilization"`
	TotalOrders         int     `json:"total_orders" db:"total_orders"`
	AvgDOI              float64 `json:"avg_doi" db:"avg_doi"`
	TotalUniqueSKUs     int     `json:"total_unique_skus" db:"total_unique_skus"`
	IsBest              bool    `json:"is_best" db:"is_best"`
}

// NewRunRecord flattens a run for persistence.
func NewRunRecord(run Run) RunRecord {
	return RunRecord{
		RunID:              run.ID,
		Status:             string(run.Status),
		RTStart:            run.Params.Grid.RTStart,
		RTStop:             run.Params.Grid.RTStop,
		DOIStart:           run.Params.Grid.DOIStart,
		DOIStop:            run.Params.Grid.DOIStop,
		StartDate:          run.Params.Range.Start,
		EndDate:            run.Params.Range.End,
		DailyCapacity:      run.Params.DailyCapacity,
		TotalCapacity:      run.Params.TotalCapacity,
		EligibleSKUs:       run.EligibleSKUs,
		ExcludedSKUs:       run.ExcludedSKUs,
		TotalScenarios:     run.TotalScenarios,
		CompletedScenarios: run.CompletedScenarios,
		FailedScenarios:    run.FailedScenarios,
		BestScenario:       run.BestScenario,
		FromCache:          run.FromCache,
		Error:              run.Error,
		StartedAt:          run.StartedAt,
		CompletedAt:        run.CompletedAt,
	}
}

// NewScenarioRecord flattens one scenario summary for persistence.
func NewScenarioRecord(runID string, s ScenarioSummary, isBest bool) ScenarioRecord {
	return ScenarioRecord{
		RunID:               runID,
		Scenario:            s.Scenario,
		ReorderThreshold:    s.ReorderThreshold,
		TargetDOI:           s.TargetDOI,
		AvgDailySKUs:        s.AvgDailySKUs,
		MaxDailySKUs:        s.MaxDailySKUs,
		StdDevDailySKUs:     s.StdDevDailySKUs,
		DaysOverCapacity:    s.DaysOverCapacity,
		PctDaysOverCapacity: s.PctDaysOverCapacity,
		CapacityUtilization: s.CapacityUtilizationPct,
		TotalOrders:         s.TotalOrders,
		AvgDOI:              s.AvgDOI,
		TotalUniqueSKUs:     s.TotalUniqueSKUs,
		IsBest:              isBest,
	}
}
