package loader_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/inbound-planner/internal/loader"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const stockCSV = `sku_code,product_name,tanggal_update,stock,qpd,doi
SKU-A,Alpha Cream,2026-07-01,120,10,12
SKU-B,Bravo Serum,2026-07-01,80,4,20
SKU-C,Charlie Soap,2026-07-01,50,0,999
SKU-D,Delta Mask,2026-07-01,30,2.5,12
SKU-E,Echo Toner,2026-07-01,60,6,10
`

const leadCSV = `sku_code,supplier,lead_time_days
SKU-A,PT Maju,5
SKU-B,PT Sentosa,7
SKU-B,PT Kedua,12
SKU-X,PT Maju,9
`

const activeCSV = `sku_code,supplier
SKU-A,PT Maju
SKU-B,PT Sentosa
SKU-B,PT Kedua
SKU-C,PT Maju
SKU-D,PT Baru
SKU-Z,PT Maju
`

func readFixtures(t *testing.T) ([]loader.StockRow, []loader.LeadTimeRow, []loader.ActiveSupplierRow) {
	t.Helper()
	stock, err := loader.ReadStockRows(strings.NewReader(stockCSV))
	require.NoError(t, err)
	leads, err := loader.ReadLeadTimeRows(strings.NewReader(leadCSV))
	require.NoError(t, err)
	active, err := loader.ReadActiveSupplierRows(strings.NewReader(activeCSV))
	require.NoError(t, err)
	return stock, leads, active
}

// =============================================================================
// CSV PARSING
// =============================================================================

func TestReadStockRows_ParsesFields(t *testing.T) {
	rows, err := loader.ReadStockRows(strings.NewReader(stockCSV))
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.Equal(t, "SKU-A", rows[0].SKUCode)
	assert.Equal(t, "Alpha Cream", rows[0].ProductName)
	assert.Equal(t, date(2026, time.July, 1), rows[0].UpdateDate)
	assert.Equal(t, 120.0, rows[0].Stock)
	assert.Equal(t, 10.0, rows[0].QPD)
	assert.Equal(t, 2.5, rows[3].QPD)
}

func TestReadStockRows_AcceptsDatetimeStamps(t *testing.T) {
	csv := "sku_code,product_name,tanggal_update,stock,qpd,doi\n" +
		"SKU-A,Alpha,2026-07-01 08:30:00,10,1,10\n"

	rows, err := loader.ReadStockRows(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, date(2026, time.July, 1), rows[0].UpdateDate, "clock time is dropped")
}

func TestReadStockRows_MissingColumn(t *testing.T) {
	csv := "sku_code,product_name,stock\nSKU-A,Alpha,10\n"

	_, err := loader.ReadStockRows(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required column: tanggal_update")
}

func TestReadLeadTimeRows_FloatTolerant(t *testing.T) {
	csv := "sku_code,supplier,lead_time_days\nSKU-A,PT Maju,14.0\n"

	rows, err := loader.ReadLeadTimeRows(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 14, rows[0].LeadTimeDays)
}

// =============================================================================
// THREE-FILE JOIN
// =============================================================================

func TestJoin_ActiveListDrivesTheResult(t *testing.T) {
	// GIVEN: the three planning files
	// WHEN: joined
	// THEN: SKU-E (not active) and SKU-Z (no stock rows) are dropped, and
	//       SKU-X's lead time entry is ignored because it has no active
	//       supplier

	stock, leads, active := readFixtures(t)
	snapshot := date(2026, time.July, 1)

	result := loader.Join(stock, leads, active, loader.Options{
		SnapshotDate:        &snapshot,
		DefaultLeadTimeDays: 14,
	})

	codes := make([]string, 0, len(result.SKUs))
	for _, sku := range result.SKUs {
		codes = append(codes, sku.Code)
	}
	// SKU-C is active and stocked but has qpd 0.
	assert.Equal(t, []string{"SKU-A", "SKU-B", "SKU-D"}, codes)
	assert.Equal(t, 1, result.ExcludedSKUs)
	assert.Equal(t, 4, result.TotalSKUs, "SKU-A..D survive the join before exclusion")
}

func TestJoin_FirstActiveSupplierDecidesLeadTime(t *testing.T) {
	// GIVEN: SKU-B active with two suppliers (lead 7 and 12)
	// THEN: the first active-list entry wins

	stock, leads, active := readFixtures(t)
	snapshot := date(2026, time.July, 1)

	result := loader.Join(stock, leads, active, loader.Options{
		SnapshotDate:        &snapshot,
		DefaultLeadTimeDays: 14,
	})

	for _, sku := range result.SKUs {
		if sku.Code == "SKU-B" {
			assert.Equal(t, 7, sku.LeadTimeDays)
			return
		}
	}
	t.Fatal("SKU-B missing from join result")
}

func TestJoin_UnmatchedSKUGetsDefaultLeadTime(t *testing.T) {
	// GIVEN: SKU-D is active via PT Baru, which has no lead time entry
	// THEN: it gets the default and is reported as unmatched

	stock, leads, active := readFixtures(t)
	snapshot := date(2026, time.July, 1)

	result := loader.Join(stock, leads, active, loader.Options{
		SnapshotDate:        &snapshot,
		DefaultLeadTimeDays: 14,
	})

	assert.Equal(t, []string{"SKU-D"}, result.UnmatchedSKUs)
	for _, sku := range result.SKUs {
		if sku.Code == "SKU-D" {
			assert.Equal(t, 14, sku.LeadTimeDays)
		}
	}
}

func TestJoin_SnapshotFallsBackToEarliestDate(t *testing.T) {
	// GIVEN: stock rows on two dates and a requested date with no rows
	// THEN: the earliest available date seeds the simulation

	csv := `sku_code,product_name,tanggal_update,stock,qpd,doi
SKU-A,Alpha,2026-07-03,90,9,10
SKU-A,Alpha,2026-07-01,120,10,12
`
	stock, err := loader.ReadStockRows(strings.NewReader(csv))
	require.NoError(t, err)
	leads, err := loader.ReadLeadTimeRows(strings.NewReader("sku_code,supplier,lead_time_days\nSKU-A,PT Maju,5\n"))
	require.NoError(t, err)
	active, err := loader.ReadActiveSupplierRows(strings.NewReader("sku_code,supplier\nSKU-A,PT Maju\n"))
	require.NoError(t, err)

	requested := date(2026, time.August, 1)
	result := loader.Join(stock, leads, active, loader.Options{
		SnapshotDate:        &requested,
		DefaultLeadTimeDays: 14,
	})

	assert.Equal(t, date(2026, time.July, 1), result.SnapshotDate)
	require.Len(t, result.SKUs, 1)
	assert.Equal(t, 120.0, result.SKUs[0].InitialStock)
}

func TestJoin_RequestedDateNarrowsRows(t *testing.T) {
	// GIVEN: stock rows on two dates
	// WHEN: the later date is requested
	// THEN: only that date's values seed the SKUs

	csv := `sku_code,product_name,tanggal_update,stock,qpd,doi
SKU-A,Alpha,2026-07-01,120,10,12
SKU-A,Alpha,2026-07-03,90,9,10
`
	stock, err := loader.ReadStockRows(strings.NewReader(csv))
	require.NoError(t, err)
	leads, err := loader.ReadLeadTimeRows(strings.NewReader("sku_code,supplier,lead_time_days\nSKU-A,PT Maju,5\n"))
	require.NoError(t, err)
	active, err := loader.ReadActiveSupplierRows(strings.NewReader("sku_code,supplier\nSKU-A,PT Maju\n"))
	require.NoError(t, err)

	requested := date(2026, time.July, 3)
	result := loader.Join(stock, leads, active, loader.Options{
		SnapshotDate:        &requested,
		DefaultLeadTimeDays: 14,
	})

	require.Len(t, result.SKUs, 1)
	assert.Equal(t, 90.0, result.SKUs[0].InitialStock)
	assert.Equal(t, requested, result.SKUs[0].SnapshotDate)
}

// =============================================================================
// MERGED DATASET
// =============================================================================

func TestBuildFromMerged_AppliesDefaultsAndExclusions(t *testing.T) {
	csv := `sku_code,product_name,tanggal_update,stock,qpd,doi,lead_time_days
SKU-A,Alpha,2026-07-01,120,10,12,5
SKU-B,Bravo,2026-07-01,80,4,20,
SKU-C,Charlie,2026-07-01,50,,999,3
`
	rows, err := loader.ReadMergedRows(strings.NewReader(csv))
	require.NoError(t, err)

	result := loader.BuildFromMerged(rows, loader.Options{DefaultLeadTimeDays: 14})

	require.Len(t, result.SKUs, 2)
	assert.Equal(t, 5, result.SKUs[0].LeadTimeDays)
	assert.Equal(t, 14, result.SKUs[1].LeadTimeDays, "empty lead time falls back to default")
	assert.Equal(t, []string{"SKU-B"}, result.UnmatchedSKUs)
	assert.Equal(t, 1, result.ExcludedSKUs, "missing qpd excludes the SKU")
	assert.Equal(t, 3, result.TotalSKUs)
}

func TestMergeRows_KeepsEveryDate(t *testing.T) {
	multiDate := `sku_code,product_name,tanggal_update,stock,qpd,doi
SKU-A,Alpha Cream,2026-07-01,120,10,12
SKU-A,Alpha Cream,2026-07-02,110,10,11
`
	stock, err := loader.ReadStockRows(strings.NewReader(multiDate))
	require.NoError(t, err)
	leads, err := loader.ReadLeadTimeRows(strings.NewReader(leadCSV))
	require.NoError(t, err)
	active, err := loader.ReadActiveSupplierRows(strings.NewReader(activeCSV))
	require.NoError(t, err)

	rows, unmatched := loader.MergeRows(stock, leads, active)

	require.Len(t, rows, 2, "both update dates survive the join")
	assert.Empty(t, unmatched)
	for _, row := range rows {
		assert.Equal(t, 5, row.LeadTimeDays)
		assert.True(t, row.HasLeadTime)
	}
}

func TestMergeRows_ReportsUnmatchedSorted(t *testing.T) {
	stock, leads, active := readFixtures(t)

	rows, unmatched := loader.MergeRows(stock, leads, active)

	codes := make(map[string]bool)
	for _, row := range rows {
		codes[row.SKUCode] = true
	}
	assert.Equal(t, map[string]bool{"SKU-A": true, "SKU-B": true, "SKU-C": true, "SKU-D": true}, codes,
		"SKU-E has no active supplier, SKU-Z has no stock row")
	assert.Equal(t, []string{"SKU-C", "SKU-D"}, unmatched)
}

func TestWriteMergedRows_RoundTrips(t *testing.T) {
	stock, leads, active := readFixtures(t)
	rows, _ := loader.MergeRows(stock, leads, active)

	var buf bytes.Buffer
	require.NoError(t, loader.WriteMergedRows(&buf, rows, 14))

	parsed, err := loader.ReadMergedRows(&buf)
	require.NoError(t, err)
	require.Len(t, parsed, len(rows))

	byCode := make(map[string]loader.MergedRow)
	for _, row := range parsed {
		byCode[row.SKUCode] = row
	}
	assert.Equal(t, 5, byCode["SKU-A"].LeadTimeDays)
	assert.True(t, byCode["SKU-A"].HasLeadTime)
	assert.Equal(t, 14, byCode["SKU-C"].LeadTimeDays, "default fills the unmatched SKU")
	assert.True(t, byCode["SKU-C"].HasLeadTime)
	assert.InDelta(t, 2.5, byCode["SKU-D"].QPD, 1e-9, "fractional quantities survive the round trip")
}

func TestWriteMergedRows_ZeroDefaultLeavesCellEmpty(t *testing.T) {
	rows := []loader.MergedRow{{
		StockRow: loader.StockRow{SKUCode: "SKU-N", ProductName: "Nova", UpdateDate: date(2026, time.July, 1), Stock: 10, QPD: 1},
	}}

	var buf bytes.Buffer
	require.NoError(t, loader.WriteMergedRows(&buf, rows, 0))

	parsed, err := loader.ReadMergedRows(&buf)
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.False(t, parsed[0].HasLeadTime)
}
