package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/inbound-planner/internal/domain"
	"github.com/andresuchdata/inbound-planner/internal/simulation"
)

// RunSink owns the artifact directory of one sweep run and writes every
// file the run produces: per-scenario daily counts and traces, the
// comparison summary, the best-scenario pick and the run manifest.
//
// WriteScenario is safe for concurrent use without locking because every
// scenario writes to files named after its own grid cell.
type RunSink struct {
	dir        string
	runID      string
	withTraces bool
}

// NewRunID returns a timestamp-based run identifier.
func NewRunID(now time.Time) string {
	return now.Format("20060102_150405")
}

// NewRunSink creates the run directory under baseDir. If a directory for
// runID already exists, a numeric suffix is appended until a free name is
// found, and the suffixed ID becomes the run's identifier.
func NewRunSink(baseDir, runID string, withTraces bool) (*RunSink, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	id := runID
	for attempt := 2; ; attempt++ {
		err := os.Mkdir(filepath.Join(baseDir, id), 0755)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to create run directory: %w", err)
		}
		id = fmt.Sprintf("%s_%d", runID, attempt)
	}

	return &RunSink{
		dir:        filepath.Join(baseDir, id),
		runID:      id,
		withTraces: withTraces,
	}, nil
}

// RunID returns the possibly-suffixed identifier of this run.
func (s *RunSink) RunID() string { return s.runID }

// Dir returns the run's artifact directory.
func (s *RunSink) Dir() string { return s.dir }

// WriteScenario persists one finished grid cell: its daily arrival counts
// and, when enabled, the full per-SKU-per-day trace.
func (s *RunSink) WriteScenario(run *simulation.ScenarioRun, daily []domain.DailyCount, summary domain.ScenarioSummary) error {
	if err := s.writeDailyCSV(run.Scenario, daily); err != nil {
		return err
	}
	if s.withTraces && len(run.Trace) > 0 {
		if err := s.writeTraceCSV(run.Scenario, run.Trace); err != nil {
			return err
		}
	}
	return nil
}

func (s *RunSink) writeDailyCSV(scenario domain.Scenario, daily []domain.DailyCount) error {
	path := filepath.Join(s.dir, fmt.Sprintf("scenario_%s_daily.csv", scenario.Name()))
	return writeCSVFile(path, []string{"date", "unique_skus_arrived", "day_of_week", "is_overload"},
		len(daily), func(i int) []string {
			d := daily[i]
			return []string{
				d.Date.Format("2006-01-02"),
				strconv.Itoa(d.SKUCount),
				d.Weekday,
				strconv.FormatBool(d.Overload),
			}
		})
}

func (s *RunSink) writeTraceCSV(scenario domain.Scenario, trace []domain.TraceRow) error {
	path := filepath.Join(s.dir, fmt.Sprintf("scenario_%s_detailed.csv", scenario.Name()))
	header := []string{
		"date", "sku_code", "product_name", "lead_time_days",
		"stock_beginning", "sales", "stock_received", "stock_ending", "doi",
		"order_placed", "order_quantity", "orders_in_transit_qty", "orders_in_transit_count",
	}
	return writeCSVFile(path, header, len(trace), func(i int) []string {
		r := trace[i]
		return []string{
			r.Date.Format("2006-01-02"),
			r.SKUCode,
			r.ProductName,
			strconv.Itoa(r.LeadTimeDays),
			formatFloat(r.StockBeginning),
			formatFloat(r.Sales),
			formatFloat(r.StockReceived),
			formatFloat(r.StockEnding),
			formatFloat(r.DOI),
			strconv.FormatBool(r.OrderPlaced),
			formatFloat(r.OrderQuantity),
			formatFloat(r.OnOrderQty),
			strconv.Itoa(r.OnOrderCount),
		}
	})
}

// writeCSVFile writes header plus n rows produced by rowAt, creating or
// truncating path.
func writeCSVFile(path string, header []string, n int, rowAt func(i int) []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := w.Write(rowAt(i)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", filepath.Base(path), err)
	}

	log.Debug().Str("path", path).Int("rows", n).Msg("sink: wrote CSV")
	return nil
}

// formatFloat renders a float the shortest way that round-trips.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
