package simulation

import (
	"context"
	"sort"

	"github.com/andresuchdata/inbound-planner/internal/domain"
)

// ScenarioRun is the raw outcome of simulating one grid cell: the arrival
// event stream plus the running totals the aggregator needs. Trace is only
// populated when the caller asks for it; for large grids it dominates memory.
type ScenarioRun struct {
	Scenario    domain.Scenario
	Range       domain.DateRange
	Events      []domain.DailyArrivalEvent
	Trace       []domain.TraceRow
	TotalOrders int
	DOISum      float64
	SKUDays     int
}

// RunScenario simulates one scenario across the full date range. Every
// ledger is advanced in lock-step, one calendar day at a time, weekends
// included; only arrival scheduling skips weekends. SKUs are processed in
// code order so two runs over the same input produce identical output.
//
// The context is checked once per simulated day; a canceled run returns
// ctx.Err() with no partial result.
func RunScenario(ctx context.Context, scenario domain.Scenario, skus []domain.SKU, dateRange domain.DateRange, withTrace bool) (*ScenarioRun, error) {
	// The input slice is shared read-only across workers; sort a copy.
	ordered := make([]domain.SKU, len(skus))
	copy(ordered, skus)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Code < ordered[j].Code })

	ledgers := make([]*Ledger, len(ordered))
	for i, sku := range ordered {
		ledgers[i] = NewLedger(sku)
	}

	days := dateRange.Days()
	run := &ScenarioRun{
		Scenario: scenario,
		Range:    dateRange,
	}
	if withTrace {
		run.Trace = make([]domain.TraceRow, 0, len(days)*len(ledgers))
	}

	for _, today := range days {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		for _, ledger := range ledgers {
			out := ledger.AdvanceDay(today, scenario.ReorderThreshold, scenario.TargetDOI)

			if out.Arrived && out.Received != 0 {
				run.Events = append(run.Events, domain.DailyArrivalEvent{
					Date:     today,
					SKUCode:  ledger.SKU().Code,
					Quantity: out.Received,
				})
			}
			if out.Ordered {
				run.TotalOrders++
			}
			run.DOISum += out.DOI
			run.SKUDays++

			if withTrace {
				sku := ledger.SKU()
				run.Trace = append(run.Trace, domain.TraceRow{
					Date:           today,
					SKUCode:        sku.Code,
					ProductName:    sku.Name,
					LeadTimeDays:   sku.LeadTimeDays,
					StockBeginning: out.StockBeginning,
					Sales:          sku.QPD,
					StockReceived:  out.Received,
					StockEnding:    out.StockEnding,
					DOI:            out.DOI,
					OrderPlaced:    out.Ordered,
					OrderQuantity:  out.OrderQuantity,
					OnOrderQty:     out.OnOrderQty,
					OnOrderCount:   out.OnOrderCount,
				})
			}
		}
	}

	return run, nil
}
