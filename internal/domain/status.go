package domain

import "strings"

// OrderStatus is the lifecycle state of a purchase order.
type OrderStatus string

const (
	OrderPending OrderStatus = "pending"
	OrderArrived OrderStatus = "arrived"
)

// RunStatus is the lifecycle state of a sweep run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCanceled  RunStatus = "canceled"
)

// Terminal reports whether the run has finished, successfully or not.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunCompleted, RunFailed, RunCanceled:
		return true
	}
	return false
}

// ParseRunStatus returns the status for a label (case-insensitive).
func ParseRunStatus(label string) (RunStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case string(RunPending):
		return RunPending, true
	case string(RunRunning):
		return RunRunning, true
	case string(RunCompleted):
		return RunCompleted, true
	case string(RunFailed):
		return RunFailed, true
	case string(RunCanceled):
		return RunCanceled, true
	}
	return "", false
}

// ScenarioStatus is the outcome of a single grid cell.
type ScenarioStatus string

const (
	ScenarioCompleted ScenarioStatus = "completed"
	ScenarioFailed    ScenarioStatus = "failed"
	// ScenarioSkipped marks cells abandoned by a canceled sweep.
	ScenarioSkipped ScenarioStatus = "skipped"
)
