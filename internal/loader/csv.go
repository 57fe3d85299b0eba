package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// StockRow is one line of the stock and sales snapshot file: one row per
// SKU per update date.
type StockRow struct {
	SKUCode     string
	ProductName string
	UpdateDate  time.Time
	Stock       float64
	QPD         float64
	DOI         float64
}

// LeadTimeRow maps one (SKU, supplier) pair to its lead time in working days.
type LeadTimeRow struct {
	SKUCode      string
	Supplier     string
	LeadTimeDays int
}

// ActiveSupplierRow is one entry of the active SKU list: the pairs that
// drive the dataset join.
type ActiveSupplierRow struct {
	SKUCode  string
	Supplier string
}

// MergedRow is one line of an already-joined dataset, the single-file
// shortcut accepted by the CLI.
type MergedRow struct {
	StockRow
	LeadTimeDays int
	HasLeadTime  bool
}

var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
	time.RFC3339,
}

// columns resolves header names to record indices.
type columns struct {
	index map[string]int
}

func readHeader(reader *csv.Reader, required ...string) (columns, error) {
	header, err := reader.Read()
	if err != nil {
		return columns{}, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := columns{index: make(map[string]int, len(header))}
	for i, col := range header {
		cols.index[strings.ToLower(strings.TrimSpace(col))] = i
	}

	for _, col := range required {
		if _, ok := cols.index[col]; !ok {
			return columns{}, fmt.Errorf("missing required column: %s", col)
		}
	}
	return cols, nil
}

func (c columns) value(record []string, name string) string {
	if idx, ok := c.index[name]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func (c columns) float(record []string, name string) float64 {
	val := c.value(record, name)
	if val == "" {
		return 0
	}
	f, _ := strconv.ParseFloat(val, 64)
	return f
}

func (c columns) integer(record []string, name string) int {
	val := c.value(record, name)
	if val == "" {
		return 0
	}
	// Handle float strings like "14.0".
	f, _ := strconv.ParseFloat(val, 64)
	return int(f)
}

func (c columns) date(record []string, name string) (time.Time, bool) {
	val := c.value(record, name)
	if val == "" {
		return time.Time{}, false
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, val); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func forEachRecord(reader *csv.Reader, fn func(record []string) error) error {
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read CSV record: %w", err)
		}
		if err := fn(record); err != nil {
			return err
		}
	}
}

// ReadStockRows parses the stock and sales snapshot file. Rows without a
// SKU code or a parseable update date are dropped.
func ReadStockRows(r io.Reader) ([]StockRow, error) {
	reader := csv.NewReader(r)
	cols, err := readHeader(reader, "sku_code", "product_name", "tanggal_update", "stock", "qpd")
	if err != nil {
		return nil, err
	}

	var rows []StockRow
	err = forEachRecord(reader, func(record []string) error {
		code := cols.value(record, "sku_code")
		updated, ok := cols.date(record, "tanggal_update")
		if code == "" || !ok {
			return nil
		}
		rows = append(rows, StockRow{
			SKUCode:     code,
			ProductName: cols.value(record, "product_name"),
			UpdateDate:  updated,
			Stock:       cols.float(record, "stock"),
			QPD:         cols.float(record, "qpd"),
			DOI:         cols.float(record, "doi"),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ReadLeadTimeRows parses the supplier lead time file. One SKU may appear
// once per supplier.
func ReadLeadTimeRows(r io.Reader) ([]LeadTimeRow, error) {
	reader := csv.NewReader(r)
	cols, err := readHeader(reader, "sku_code", "supplier", "lead_time_days")
	if err != nil {
		return nil, err
	}

	var rows []LeadTimeRow
	err = forEachRecord(reader, func(record []string) error {
		code := cols.value(record, "sku_code")
		if code == "" {
			return nil
		}
		rows = append(rows, LeadTimeRow{
			SKUCode:      code,
			Supplier:     cols.value(record, "supplier"),
			LeadTimeDays: cols.integer(record, "lead_time_days"),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ReadActiveSupplierRows parses the active SKU list.
func ReadActiveSupplierRows(r io.Reader) ([]ActiveSupplierRow, error) {
	reader := csv.NewReader(r)
	cols, err := readHeader(reader, "sku_code", "supplier")
	if err != nil {
		return nil, err
	}

	var rows []ActiveSupplierRow
	err = forEachRecord(reader, func(record []string) error {
		code := cols.value(record, "sku_code")
		if code == "" {
			return nil
		}
		rows = append(rows, ActiveSupplierRow{
			SKUCode:  code,
			Supplier: cols.value(record, "supplier"),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// WriteMergedRows writes a pre-joined dataset in the layout ReadMergedRows
// accepts. Rows without a matched lead time, or with a non-positive one,
// are written as defaultLeadTimeDays so the file stands on its own; pass 0
// to leave those cells empty instead.
func WriteMergedRows(w io.Writer, rows []MergedRow, defaultLeadTimeDays int) error {
	writer := csv.NewWriter(w)
	header := []string{"sku_code", "product_name", "tanggal_update", "stock", "qpd", "doi", "lead_time_days"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write merged header: %w", err)
	}

	for _, row := range rows {
		lead := ""
		switch {
		case row.HasLeadTime && row.LeadTimeDays > 0:
			lead = strconv.Itoa(row.LeadTimeDays)
		case defaultLeadTimeDays > 0:
			lead = strconv.Itoa(defaultLeadTimeDays)
		}
		record := []string{
			row.SKUCode,
			row.ProductName,
			row.UpdateDate.Format("2006-01-02"),
			strconv.FormatFloat(row.Stock, 'f', -1, 64),
			strconv.FormatFloat(row.QPD, 'f', -1, 64),
			strconv.FormatFloat(row.DOI, 'f', -1, 64),
			lead,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write merged row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush merged rows: %w", err)
	}
	return nil
}

// ReadMergedRows parses a pre-joined dataset that already carries lead
// times alongside the stock snapshot.
func ReadMergedRows(r io.Reader) ([]MergedRow, error) {
	reader := csv.NewReader(r)
	cols, err := readHeader(reader, "sku_code", "product_name", "tanggal_update", "stock", "qpd")
	if err != nil {
		return nil, err
	}

	var rows []MergedRow
	err = forEachRecord(reader, func(record []string) error {
		code := cols.value(record, "sku_code")
		updated, ok := cols.date(record, "tanggal_update")
		if code == "" || !ok {
			return nil
		}
		lead := cols.value(record, "lead_time_days")
		rows = append(rows, MergedRow{
			StockRow: StockRow{
				SKUCode:     code,
				ProductName: cols.value(record, "product_name"),
				UpdateDate:  updated,
				Stock:       cols.float(record, "stock"),
				QPD:         cols.float(record, "qpd"),
				DOI:         cols.float(record, "doi"),
			},
			LeadTimeDays: cols.integer(record, "lead_time_days"),
			HasLeadTime:  lead != "",
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
