// internal/domain/models.go
package domain

import (
	"fmt"
	"time"
)

// SKU is one sellable item as observed on the snapshot date. Immutable for
// the duration of a sweep; the loader guarantees QPD > 0 and LeadTimeDays > 0.
type SKU struct {
	Code         string    `json:"sku_code"`
	Name         string    `json:"product_name"`
	InitialStock float64   `json:"initial_stock"`
	QPD          float64   `json:"qpd"`
	LeadTimeDays int       `json:"lead_time_days"`
	SnapshotDate time.Time `json:"snapshot_date"`
}

// Order is a single purchase order in flight for a SKU. A SKU has at most
// one pending order at any time.
type Order struct {
	OrderDate   time.Time   `json:"order_date"`
	Quantity    float64     `json:"quantity"`
	ArrivalDate time.Time   `json:"arrival_date"`
	Status      OrderStatus `json:"status"`
}

// Scenario is one (reorder threshold, target DOI) grid cell.
type Scenario struct {
	ReorderThreshold int `json:"reorder_threshold"`
	TargetDOI        int `json:"target_doi"`
}

// Name returns the canonical scenario label, e.g. "RT20_DOI30".
func (s Scenario) Name() string {
	return fmt.Sprintf("RT%d_DOI%d", s.ReorderThreshold, s.TargetDOI)
}

// GridSpec defines the inclusive parameter ranges of a sweep.
type GridSpec struct {
	RTStart  int `json:"rt_start"`
	RTStop   int `json:"rt_stop"`
	DOIStart int `json:"doi_start"`
	DOIStop  int `json:"doi_stop"`
}

// Scenarios expands the grid into the Cartesian product ordered by
// reorder threshold, then target DOI.
func (g GridSpec) Scenarios() []Scenario {
	scenarios := make([]Scenario, 0, g.Size())
	for rt := g.RTStart; rt <= g.RTStop; rt++ {
		for doi := g.DOIStart; doi <= g.DOIStop; doi++ {
			scenarios = append(scenarios, Scenario{ReorderThreshold: rt, TargetDOI: doi})
		}
	}
	return scenarios
}

// Size returns the number of grid cells.
func (g GridSpec) Size() int {
	rts := g.RTStop - g.RTStart + 1
	dois := g.DOIStop - g.DOIStart + 1
	if rts <= 0 || dois <= 0 {
		return 0
	}
	return rts * dois
}

// DateRange is an inclusive calendar date range.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days enumerates every calendar day in the range, weekends included.
func (r DateRange) Days() []time.Time {
	if r.End.Before(r.Start) {
		return nil
	}
	days := make([]time.Time, 0, r.NumDays())
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// NumDays returns the inclusive day count, 0 for inverted ranges.
func (r DateRange) NumDays() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return int(r.End.Sub(r.Start).Hours()/24) + 1
}

// DailyArrivalEvent records one SKU receiving stock on one simulated day.
// Only nonzero arrivals are emitted.
type DailyArrivalEvent struct {
	Date     time.Time `json:"date"`
	SKUCode  string    `json:"sku_code"`
	Quantity float64   `json:"quantity"`
}

// DailyCount is the workload of one simulated day: how many distinct SKUs
// had an arrival. Every day of the range is present, zero-filled.
type DailyCount struct {
	Date     time.Time `json:"date"`
	Weekday  string    `json:"day_of_week"`
	SKUCount int       `json:"unique_skus_arrived"`
	Overload bool      `json:"is_overload"`
}

// TraceRow is the per-SKU-per-day detailed simulation record.
type TraceRow struct {
	Date           time.Time `json:"date"`
	SKUCode        string    `json:"sku_code"`
	ProductName    string    `json:"product_name"`
	LeadTimeDays   int       `json:"lead_time_days"`
	StockBeginning float64   `json:"stock_beginning"`
	Sales          float64   `json:"sales"`
	StockReceived  float64   `json:"stock_received"`
	StockEnding    float64   `json:"stock_ending"`
	DOI            float64   `json:"doi"`
	OrderPlaced    bool      `json:"order_placed"`
	OrderQuantity  float64   `json:"order_quantity"`
	OnOrderQty     float64   `json:"orders_in_transit_qty"`
	OnOrderCount   int       `json:"orders_in_transit_count"`
}

// WeekdayNames orders weekday buckets Monday first, matching the reporting
// layout of the comparison summary.
var WeekdayNames = [7]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeekdayIndex maps time.Weekday to the Monday-first bucket index.
func WeekdayIndex(d time.Weekday) int {
	// time.Sunday is 0; shift so Monday is 0 and Sunday is 6.
	return (int(d) + 6) % 7
}

// ArrivalBinLabels are the daily-arrival histogram buckets. Bins are
// right-closed; the first bin includes zero-arrival days.
var ArrivalBinLabels = [8]string{"0-30", "31-90", "91-180", "181-270", "271-360", "361-540", "541-720", "720+"}

// ArrivalBinUpperEdges holds the inclusive upper edge of each bin except the
// open-ended last one.
var ArrivalBinUpperEdges = [7]int{30, 90, 180, 270, 360, 540, 720}

// ScenarioSummary is the immutable per-scenario report produced by the
// aggregator. Weekday arrays are Monday-first (see WeekdayNames).
type ScenarioSummary struct {
	Scenario                    string     `json:"scenario"`
	ReorderThreshold            int        `json:"reorder_threshold"`
	TargetDOI                   int        `json:"target_doi"`
	AvgDailySKUs                float64    `json:"avg_daily_skus"`
	MaxDailySKUs                int        `json:"max_daily_skus"`
	MedianDailySKUs             float64    `json:"median_daily_skus"`
	StdDevDailySKUs             float64    `json:"std_daily_skus"`
	DaysOverCapacity            int        `json:"days_over_capacity"`
	PctDaysOverCapacity         float64    `json:"pct_days_over_capacity"`
	CapacityUtilizationPct      float64    `json:"capacity_utilization"`
	TotalOrders                 int        `json:"total_orders"`
	AvgDOI                      float64    `json:"avg_doi"`
	TotalUniqueSKUs             int        `json:"total_unique_skus_arrived"`
	TotalCapacityUtilizationPct float64    `json:"total_capacity_utilization"`
	OverloadByWeekday           [7]int     `json:"overload_by_day"`
	AvgByWeekday                [7]float64 `json:"avg_arrivals_by_day"`
	BinCounts                   [8]int     `json:"bin_distribution"`
}

// ScenarioResult wraps a scenario outcome, successful or not.
type ScenarioResult struct {
	Scenario Scenario         `json:"scenario"`
	Status   ScenarioStatus   `json:"status"`
	Error    string           `json:"error,omitempty"`
	Summary  *ScenarioSummary `json:"summary,omitempty"`
}

// SweepResult is the full output of one grid sweep. Summaries are ordered
// by (reorder threshold, target DOI) regardless of completion order.
type SweepResult struct {
	Summaries []ScenarioSummary `json:"summaries"`
	Failed    []ScenarioResult  `json:"failed,omitempty"`
	Skipped   []Scenario        `json:"skipped,omitempty"`
	Best      *ScenarioSummary  `json:"best,omitempty"`
	Elapsed   time.Duration     `json:"elapsed_ns"`
}

// RunParams are the caller-supplied knobs of one sweep run.
type RunParams struct {
	Grid                GridSpec   `json:"grid"`
	Range               DateRange  `json:"range"`
	DailyCapacity       int        `json:"daily_capacity"`
	TotalCapacity       int        `json:"total_capacity"`
	DefaultLeadTimeDays int        `json:"default_lead_time_days"`
	SnapshotDate        *time.Time `json:"snapshot_date,omitempty"`
	SaveDetailedTraces  bool       `json:"save_detailed_traces"`
	Workers             int        `json:"workers"`
}

// Run tracks one sweep invocation end to end.
type Run struct {
	ID                 string     `json:"run_id"`
	Status             RunStatus  `json:"status"`
	Params             RunParams  `json:"params"`
	TotalScenarios     int        `json:"total_scenarios"`
	CompletedScenarios int        `json:"completed_scenarios"`
	FailedScenarios    int        `json:"failed_scenarios"`
	EligibleSKUs       int        `json:"eligible_skus"`
	ExcludedSKUs       int        `json:"excluded_skus"`
	BestScenario       string     `json:"best_scenario,omitempty"`
	FromCache          bool       `json:"from_cache"`
	OutputDir          string     `json:"output_dir,omitempty"`
	BundlePath         string     `json:"bundle_path,omitempty"`
	Error              string     `json:"error,omitempty"`
	StartedAt          time.Time  `json:"started_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// RunLogLine is one progress line of a run, sequenced for incremental polling.
type RunLogLine struct {
	Seq     int       `json:"seq"`
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}
