package main

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/inbound-planner/internal/loader"
)

func joinFlags() []cli.Flag {
	flags := datasetFlags(true)
	return append(flags,
		&cli.StringFlag{
			Name:    "out",
			Usage:   "Destination path for the merged dataset CSV",
			Value:   "./merged_data.csv",
			EnvVars: []string{"PLANNER_MERGED_FILE"},
		},
		&cli.StringFlag{
			Name:  "unmatched-out",
			Usage: "Destination path for the unmatched SKU report",
			Value: "./unmatched_skus.csv",
		},
		&cli.IntFlag{
			Name:    "lead-time-days",
			Usage:   "Lead time written for SKUs without a lead time entry",
			Value:   14,
			EnvVars: []string{"SIM_DEFAULT_LEAD_TIME_DAYS"},
		},
	)
}

// runJoin performs the dataset join on its own, so operators can inspect
// the merged file and the unmatched SKUs before committing to a sweep. The
// output feeds back into `run --merged`.
func runJoin(c *cli.Context) error {
	stockFile, err := os.Open(c.String("stock"))
	if err != nil {
		return fmt.Errorf("failed to open stock file: %w", err)
	}
	defer stockFile.Close()
	stock, err := loader.ReadStockRows(stockFile)
	if err != nil {
		return fmt.Errorf("stock file: %w", err)
	}

	leadFile, err := os.Open(c.String("lead-times"))
	if err != nil {
		return fmt.Errorf("failed to open lead time file: %w", err)
	}
	defer leadFile.Close()
	leads, err := loader.ReadLeadTimeRows(leadFile)
	if err != nil {
		return fmt.Errorf("lead time file: %w", err)
	}

	activeFile, err := os.Open(c.String("active-suppliers"))
	if err != nil {
		return fmt.Errorf("failed to open active supplier file: %w", err)
	}
	defer activeFile.Close()
	active, err := loader.ReadActiveSupplierRows(activeFile)
	if err != nil {
		return fmt.Errorf("active supplier file: %w", err)
	}

	rows, unmatched := loader.MergeRows(stock, leads, active)
	if len(rows) == 0 {
		return fmt.Errorf("join produced no rows: no SKU appears in both the stock file and the active list")
	}

	outPath := c.String("out")
	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create merged file: %w", err)
	}
	defer out.Close()
	if err := loader.WriteMergedRows(out, rows, c.Int("lead-time-days")); err != nil {
		return err
	}

	skus := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		skus[row.SKUCode] = struct{}{}
	}
	fmt.Printf("Merged %d rows covering %d SKUs into %s\n", len(rows), len(skus), outPath)

	if len(unmatched) == 0 {
		fmt.Println("Every SKU has a lead time entry")
		return nil
	}

	reportPath := c.String("unmatched-out")
	if err := writeUnmatchedReport(reportPath, unmatched); err != nil {
		return err
	}
	fmt.Printf("%d SKUs have no lead time entry, default %d applied; report: %s\n",
		len(unmatched), c.Int("lead-time-days"), reportPath)
	return nil
}

func writeUnmatchedReport(path string, codes []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create unmatched report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"sku_code"}); err != nil {
		return fmt.Errorf("failed to write unmatched report: %w", err)
	}
	for _, code := range codes {
		if err := w.Write([]string{code}); err != nil {
			return fmt.Errorf("failed to write unmatched report: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush unmatched report: %w", err)
	}
	return nil
}
