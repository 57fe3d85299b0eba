package simulation

import (
	"github.com/andresuchdata/inbound-planner/internal/domain"
)

// Input is the immutable, pre-validated dataset one sweep operates on. The
// loader filters out SKUs with missing or non-positive qpd before it gets
// here; Validate enforces the remaining contract at the engine boundary.
type Input struct {
	SKUs          []domain.SKU
	Grid          domain.GridSpec
	Range         domain.DateRange
	DailyCapacity int
	TotalCapacity int
}

// Validate checks the engine input contract. Malformed shape returns an
// *InvalidInputError; an empty SKU set returns ErrNoEligibleSKUs. No
// partial results are produced after a validation failure.
func (in Input) Validate() error {
	if in.Grid.RTStop < in.Grid.RTStart {
		return invalidInput("grid", "reorder threshold range is inverted (%d..%d)", in.Grid.RTStart, in.Grid.RTStop)
	}
	if in.Grid.DOIStop < in.Grid.DOIStart {
		return invalidInput("grid", "target DOI range is inverted (%d..%d)", in.Grid.DOIStart, in.Grid.DOIStop)
	}
	if in.Range.Start.IsZero() || in.Range.End.IsZero() {
		return invalidInput("date_range", "start and end dates are required")
	}
	if in.Range.End.Before(in.Range.Start) {
		return invalidInput("date_range", "end date %s is before start date %s",
			in.Range.End.Format("2006-01-02"), in.Range.Start.Format("2006-01-02"))
	}
	if in.DailyCapacity <= 0 {
		return invalidInput("daily_capacity", "must be a positive integer, got %d", in.DailyCapacity)
	}
	if in.TotalCapacity <= 0 {
		return invalidInput("total_capacity", "must be a positive integer, got %d", in.TotalCapacity)
	}

	seen := make(map[string]struct{}, len(in.SKUs))
	for _, sku := range in.SKUs {
		if sku.Code == "" {
			return invalidInput("sku_code", "empty SKU code")
		}
		if _, dup := seen[sku.Code]; dup {
			return invalidInput("sku_code", "duplicate SKU code %q", sku.Code)
		}
		seen[sku.Code] = struct{}{}
		if sku.QPD <= 0 {
			return invalidInput("qpd", "SKU %q has non-positive qpd %v; the loader must exclude it", sku.Code, sku.QPD)
		}
		if sku.LeadTimeDays <= 0 {
			return invalidInput("lead_time_days", "SKU %q has non-positive lead time %d", sku.Code, sku.LeadTimeDays)
		}
	}

	if len(in.SKUs) == 0 {
		return ErrNoEligibleSKUs
	}

	return nil
}
