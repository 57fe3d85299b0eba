package sink

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"

	"github.com/andresuchdata/inbound-planner/internal/domain"
)

// ComparisonFileName is the scenario comparison table written once per run.
const ComparisonFileName = "comparison_summary.csv"

var comparisonHeader = []string{
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
	"Overload_Monday",
	"Overload_Tuesday",
	"Overload_Wednesday",
	"Overload_Thursday",
	"Overload_Friday",
	"Overload_Saturday",
	"Overload_Sunday",
	"Avg_Monday",
	"Avg_Tuesday",
	"Avg_Wednesday",
	"Avg_Thursday",
	"Avg_Friday",
	"Avg_Saturday",
	"Avg_Sunday",
}

// WriteComparison writes the cross-scenario comparison table. Callers pass
// summaries already ordered by (reorder threshold, target DOI); rows are
// written as given.
func (s *RunSink) WriteComparison(summaries []domain.ScenarioSummary) error {
	path := filepath.Join(s.dir, ComparisonFileName)
	return writeCSVFile(path, comparisonHeader, len(summaries), func(i int) []string {
		return comparisonRow(summaries[i])
	})
}

func comparisonRow(s domain.ScenarioSummary) []string {
	row := make([]string, 0, len(comparisonHeader))
	row = append(row,
		s.Scenario,
		strconv.Itoa(s.ReorderThreshold),
		strconv.Itoa(s.TargetDOI),
		format2dp(s.AvgDailySKUs),
		strconv.Itoa(s.MaxDailySKUs),
		strconv.Itoa(s.DaysOverCapacity),
		format2dp(s.PctDaysOverCapacity),
		format2dp(s.CapacityUtilizationPct),
		strconv.Itoa(s.TotalOrders),
		format2dp(s.StdDevDailySKUs),
	)
	for _, n := range s.OverloadByWeekday {
		row = append(row, strconv.Itoa(n))
	}
	for _, avg := range s.AvgByWeekday {
		row = append(row, format2dp(avg))
	}
	return row
}

// roundFloat rounds v to the given number of decimal places.
func roundFloat(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}

	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

func format2dp(v float64) string {
	return fmt.Sprintf("%.2f", roundFloat(v, 2))
}
