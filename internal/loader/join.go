package loader

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/inbound-planner/internal/domain"
)

// Options tunes how the dataset is assembled.
type Options struct {
	// SnapshotDate selects which update date seeds the simulation. Nil
	// falls back to the earliest date present in the stock file, matching
	// the fallback used when the requested date has no rows.
	SnapshotDate *time.Time

	// DefaultLeadTimeDays fills SKUs whose active supplier has no lead
	// time entry. Must be positive.
	DefaultLeadTimeDays int
}

// Result is the assembled engine input plus the bookkeeping the caller
// reports back to the user.
type Result struct {
	SKUs          []domain.SKU
	SnapshotDate  time.Time
	UnmatchedSKUs []string // active SKUs joined without a lead time; default applied
	ExcludedSKUs  int      // dropped for missing or non-positive qpd
	TotalSKUs     int      // distinct SKUs surviving the join, before exclusion
}

type leadChoice struct {
	days    int
	matched bool
}

// Join assembles the three-file dataset the way the planning sheet does:
//
//  1. Lead times RIGHT JOIN active list on (sku_code, supplier). Every
//     active pair is kept; pairs without a lead time entry stay unmatched,
//     lead time rows without an active supplier are dropped.
//  2. Stock snapshot INNER JOIN the result on sku_code. Only SKUs present
//     in both the stock file and the active list survive.
//
// When a SKU has several active suppliers, the first one in active-list
// order decides its lead time. Rows are then narrowed to the snapshot date
// and reduced to one record per SKU; SKUs with missing or non-positive qpd
// are counted and dropped.
func Join(stock []StockRow, leads []LeadTimeRow, active []ActiveSupplierRow, opts Options) *Result {
	chosen := chooseLeads(leads, active)

	result := &Result{}

	joinedSKUs := make(map[string]struct{})
	for _, row := range stock {
		if _, ok := chosen[row.SKUCode]; ok {
			joinedSKUs[row.SKUCode] = struct{}{}
		}
	}
	result.TotalSKUs = len(joinedSKUs)

	result.SnapshotDate = pickSnapshotDate(stock, opts.SnapshotDate)

	unmatched := make(map[string]struct{})
	seen := make(map[string]struct{})
	for _, row := range stock {
		if !row.UpdateDate.Equal(result.SnapshotDate) {
			continue
		}
		lead, ok := chosen[row.SKUCode]
		if !ok {
			continue
		}
		if _, dup := seen[row.SKUCode]; dup {
			continue
		}
		seen[row.SKUCode] = struct{}{}

		if row.QPD <= 0 {
			result.ExcludedSKUs++
			continue
		}

		days := lead.days
		if !lead.matched || days <= 0 {
			days = opts.DefaultLeadTimeDays
			unmatched[row.SKUCode] = struct{}{}
		}

		result.SKUs = append(result.SKUs, domain.SKU{
			Code:         row.SKUCode,
			Name:         row.ProductName,
			InitialStock: row.Stock,
			QPD:          row.QPD,
			LeadTimeDays: days,
			SnapshotDate: result.SnapshotDate,
		})
	}

	finalize(result, unmatched)

	log.Info().
		Int("eligible", len(result.SKUs)).
		Int("excluded", result.ExcludedSKUs).
		Int("unmatched", len(result.UnmatchedSKUs)).
		Str("snapshot", result.SnapshotDate.Format("2006-01-02")).
		Msg("loader: dataset assembled")

	return result
}

// chooseLeads resolves one lead time per SKU: the first active supplier in
// list order wins, matched against the first lead time entry for that
// (sku, supplier) pair.
func chooseLeads(leads []LeadTimeRow, active []ActiveSupplierRow) map[string]leadChoice {
	type pair struct{ sku, supplier string }
	leadByPair := make(map[pair]int, len(leads))
	for _, row := range leads {
		key := pair{row.SKUCode, row.Supplier}
		if _, seen := leadByPair[key]; !seen {
			leadByPair[key] = row.LeadTimeDays
		}
	}

	chosen := make(map[string]leadChoice, len(active))
	for _, row := range active {
		if _, seen := chosen[row.SKUCode]; seen {
			continue
		}
		days, ok := leadByPair[pair{row.SKUCode, row.Supplier}]
		chosen[row.SKUCode] = leadChoice{days: days, matched: ok}
	}
	return chosen
}

// MergeRows runs the two joins without narrowing to a snapshot date: every
// stock row whose SKU has an active supplier is kept, all dates included,
// carrying the resolved lead time. Rows without a lead time entry come back
// with HasLeadTime false and their SKU codes are listed separately, sorted,
// for the unmatched report.
func MergeRows(stock []StockRow, leads []LeadTimeRow, active []ActiveSupplierRow) ([]MergedRow, []string) {
	chosen := chooseLeads(leads, active)

	rows := make([]MergedRow, 0, len(stock))
	unmatched := make(map[string]struct{})
	for _, row := range stock {
		lead, ok := chosen[row.SKUCode]
		if !ok {
			continue
		}
		if !lead.matched {
			unmatched[row.SKUCode] = struct{}{}
		}
		rows = append(rows, MergedRow{
			StockRow:     row,
			LeadTimeDays: lead.days,
			HasLeadTime:  lead.matched,
		})
	}

	codes := make([]string, 0, len(unmatched))
	for code := range unmatched {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return rows, codes
}

// BuildFromMerged assembles the engine input from a pre-joined dataset,
// applying the same snapshot narrowing and qpd exclusion as Join.
func BuildFromMerged(rows []MergedRow, opts Options) *Result {
	stock := make([]StockRow, len(rows))
	for i, row := range rows {
		stock[i] = row.StockRow
	}

	result := &Result{SnapshotDate: pickSnapshotDate(stock, opts.SnapshotDate)}

	joinedSKUs := make(map[string]struct{})
	for _, row := range rows {
		joinedSKUs[row.SKUCode] = struct{}{}
	}
	result.TotalSKUs = len(joinedSKUs)

	unmatched := make(map[string]struct{})
	seen := make(map[string]struct{})
	for _, row := range rows {
		if !row.UpdateDate.Equal(result.SnapshotDate) {
			continue
		}
		if _, dup := seen[row.SKUCode]; dup {
			continue
		}
		seen[row.SKUCode] = struct{}{}

		if row.QPD <= 0 {
			result.ExcludedSKUs++
			continue
		}

		days := row.LeadTimeDays
		if !row.HasLeadTime || days <= 0 {
			days = opts.DefaultLeadTimeDays
			unmatched[row.SKUCode] = struct{}{}
		}

		result.SKUs = append(result.SKUs, domain.SKU{
			Code:         row.SKUCode,
			Name:         row.ProductName,
			InitialStock: row.Stock,
			QPD:          row.QPD,
			LeadTimeDays: days,
			SnapshotDate: result.SnapshotDate,
		})
	}

	finalize(result, unmatched)
	return result
}

// pickSnapshotDate returns the requested date when the stock file has rows
// for it, otherwise the earliest date available.
func pickSnapshotDate(stock []StockRow, requested *time.Time) time.Time {
	var earliest time.Time
	requestedHasRows := false
	for _, row := range stock {
		if earliest.IsZero() || row.UpdateDate.Before(earliest) {
			earliest = row.UpdateDate
		}
		if requested != nil && row.UpdateDate.Equal(*requested) {
			requestedHasRows = true
		}
	}

	if requested != nil && requestedHasRows {
		return *requested
	}
	if requested != nil && !earliest.IsZero() {
		log.Warn().
			Str("requested", requested.Format("2006-01-02")).
			Str("fallback", earliest.Format("2006-01-02")).
			Msg("loader: no rows for requested snapshot date, using earliest")
	}
	return earliest
}

func finalize(result *Result, unmatched map[string]struct{}) {
	sort.Slice(result.SKUs, func(i, j int) bool { return result.SKUs[i].Code < result.SKUs[j].Code })

	result.UnmatchedSKUs = make([]string, 0, len(unmatched))
	for code := range unmatched {
		result.UnmatchedSKUs = append(result.UnmatchedSKUs, code)
	}
	sort.Strings(result.UnmatchedSKUs)
}
