package simulation

import (
	"errors"
	"fmt"

	"github.com/andresuchdata/inbound-planner/internal/domain"
)

// ErrNoEligibleSKUs signals that every SKU was excluded before the sweep
// could start. Fatal: no scenario can run.
var ErrNoEligibleSKUs = errors.New("no eligible SKUs: every row was excluded (qpd missing or <= 0)")

// InvalidInputError rejects malformed input before any simulation starts.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func invalidInput(field, format string, args ...interface{}) *InvalidInputError {
	return &InvalidInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ScenarioError isolates a fault to a single grid cell; the sweep reports
// the cell as failed and continues.
type ScenarioError struct {
	Scenario domain.Scenario
	Err      error
}

func (e *ScenarioError) Error() string {
	return fmt.Sprintf("scenario %s: %v", e.Scenario.Name(), e.Err)
}

func (e *ScenarioError) Unwrap() error {
	return e.Err
}
