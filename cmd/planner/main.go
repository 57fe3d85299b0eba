package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/inbound-planner/internal/cache"
	"github.com/andresuchdata/inbound-planner/internal/config"
	"github.com/andresuchdata/inbound-planner/internal/domain"
	"github.com/andresuchdata/inbound-planner/internal/service"
	"github.com/andresuchdata/inbound-planner/internal/sink"
	"github.com/andresuchdata/inbound-planner/internal/storage"
)

const cliDateLayout = "2006-01-02"

// datasetFlags names the three planner input files. The run command treats
// them as an alternative to --merged, the join command requires them.
func datasetFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "stock",
			Usage:    "Stock and sales snapshot CSV",
			Required: required,
			EnvVars:  []string{"PLANNER_STOCK_FILE"},
		},
		&cli.StringFlag{
			Name:     "lead-times",
			Usage:    "Lead time CSV, one row per (sku_code, supplier)",
			Required: required,
			EnvVars:  []string{"PLANNER_LEAD_TIME_FILE"},
		},
		&cli.StringFlag{
			Name:     "active-suppliers",
			Usage:    "Active supplier CSV driving the dataset join",
			Required: required,
			EnvVars:  []string{"PLANNER_ACTIVE_SUPPLIER_FILE"},
		},
	}
}

func runFlags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "merged",
			Usage:   "Pre-joined dataset CSV, replaces the three input files",
			EnvVars: []string{"PLANNER_MERGED_FILE"},
		},
	}
	flags = append(flags, datasetFlags(false)...)
	return append(flags,
		&cli.IntFlag{
			Name:     "rt-start",
			Usage:    "First reorder threshold of the grid (days)",
			Required: true,
		},
		&cli.IntFlag{
			Name:     "rt-stop",
			Usage:    "Last reorder threshold of the grid (days)",
			Required: true,
		},
		&cli.IntFlag{
			Name:     "doi-start",
			Usage:    "First target DOI of the grid (days)",
			Required: true,
		},
		&cli.IntFlag{
			Name:     "doi-stop",
			Usage:    "Last target DOI of the grid (days)",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "start",
			Usage:    "First simulated day (YYYY-MM-DD)",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "end",
			Usage:    "Last simulated day (YYYY-MM-DD)",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "snapshot-date",
			Usage: "Stock snapshot date to simulate from (YYYY-MM-DD, defaults to the earliest date in the file)",
		},
		&cli.IntFlag{
			Name:    "daily-capacity",
			Usage:   "Daily inbound SKU capacity (0 uses the configured default)",
			EnvVars: []string{"SIM_DAILY_CAPACITY"},
		},
		&cli.IntFlag{
			Name:    "total-capacity",
			Usage:   "Total inbound SKU capacity (0 uses the configured default)",
			EnvVars: []string{"SIM_TOTAL_CAPACITY"},
		},
		&cli.IntFlag{
			Name:    "lead-time-days",
			Usage:   "Lead time applied to SKUs without a lead time entry (0 uses the configured default)",
			EnvVars: []string{"SIM_DEFAULT_LEAD_TIME_DAYS"},
		},
		&cli.IntFlag{
			Name:    "workers",
			Usage:   "Concurrent scenario workers (0 uses the configured default)",
			EnvVars: []string{"SIM_WORKERS"},
		},
		&cli.StringFlag{
			Name:    "output-dir",
			Usage:   "Root directory for run artifacts (defaults to the configured output dir)",
			EnvVars: []string{"APP_OUTPUT_DIR"},
		},
		&cli.BoolFlag{
			Name:    "detailed",
			Usage:   "Write per-SKU detailed traces (large)",
			Value:   true,
			EnvVars: []string{"SIM_SAVE_DETAILED_TRACES"},
		},
		&cli.BoolFlag{
			Name:    "upload",
			Usage:   "Upload run artifacts to object storage after the sweep",
			EnvVars: []string{"PLANNER_UPLOAD"},
		},
		&cli.BoolFlag{
			Name:  "progress",
			Usage: "Show a progress bar while scenarios run",
			Value: true,
		},
	)
}

func runSweep(c *cli.Context) error {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := buildSweepRequest(c)
	if err != nil {
		return err
	}

	cfg := config.Load()

	// A dead redis should not block an offline sweep; fall back to the
	// noop cache and keep going.
	sweepCache, err := cache.NewSweepCache(cfg.Cache)
	if err != nil {
		log.Printf("warning: sweep cache unavailable, continuing without it: %v", err)
		sweepCache = cache.NewNoopSweepCache()
	}

	var store storage.ObjectStorage
	if c.Bool("upload") {
		if !cfg.Storage.Enabled {
			return fmt.Errorf("upload requested but object storage is not configured (set STORAGE_ENABLED and credentials)")
		}
		minioClient, err := storage.NewMinioClient(storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize object storage: %w", err)
		}
		bctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = minioClient.EnsureBucket(bctx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to ensure storage bucket: %w", err)
		}
		store = minioClient
	}

	outputDir := c.String("output-dir")
	if outputDir == "" {
		outputDir = cfg.App.OutputDir
	}
	planner := service.NewPlannerService(outputDir, cfg.Simulation, sweepCache, store)

	if c.Bool("progress") {
		bar := progressbar.Default(int64(req.Params.Grid.Size()))
		req.Progress = func(done, total int, scenario domain.Scenario, status domain.ScenarioStatus) {
			_ = bar.Add(1)
		}
	}

	run, result, err := planner.RunSweep(ctx, req)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	fmt.Printf("Run %s finished in %s: %d scenarios completed, %d failed, %d skipped\n",
		run.ID, result.Elapsed.Round(time.Millisecond), len(result.Summaries), len(result.Failed), len(result.Skipped))
	fmt.Printf("Comparison table: %s\n", filepath.Join(run.OutputDir, sink.ComparisonFileName))
	if result.Best != nil {
		fmt.Printf("Best scenario: %s (%d days over capacity, %.2f avg daily SKUs)\n",
			result.Best.Scenario, result.Best.DaysOverCapacity, result.Best.AvgDailySKUs)
	}
	if run.BundlePath != "" {
		fmt.Printf("Bundle: %s\n", run.BundlePath)
	}
	return nil
}

func buildSweepRequest(c *cli.Context) (service.SweepRequest, error) {
	var req service.SweepRequest

	req.MergedPath = c.String("merged")
	req.StockPath = c.String("stock")
	req.LeadPath = c.String("lead-times")
	req.ActivePath = c.String("active-suppliers")
	if req.MergedPath == "" && (req.StockPath == "" || req.LeadPath == "" || req.ActivePath == "") {
		return req, fmt.Errorf("either --merged or all of --stock, --lead-times and --active-suppliers are required")
	}

	grid := domain.GridSpec{
		RTStart:  c.Int("rt-start"),
		RTStop:   c.Int("rt-stop"),
		DOIStart: c.Int("doi-start"),
		DOIStop:  c.Int("doi-stop"),
	}
	if grid.RTStart < 1 || grid.RTStop < grid.RTStart {
		return req, fmt.Errorf("rt-start and rt-stop must define an ascending range from 1")
	}
	if grid.DOIStart < 1 || grid.DOIStop < grid.DOIStart {
		return req, fmt.Errorf("doi-start and doi-stop must define an ascending range from 1")
	}

	start, err := time.Parse(cliDateLayout, c.String("start"))
	if err != nil {
		return req, fmt.Errorf("start must be formatted as %s", cliDateLayout)
	}
	end, err := time.Parse(cliDateLayout, c.String("end"))
	if err != nil {
		return req, fmt.Errorf("end must be formatted as %s", cliDateLayout)
	}
	if end.Before(start) {
		return req, fmt.Errorf("end must not precede start")
	}

	req.Params = domain.RunParams{
		Grid:                grid,
		Range:               domain.DateRange{Start: start, End: end},
		DailyCapacity:       c.Int("daily-capacity"),
		TotalCapacity:       c.Int("total-capacity"),
		DefaultLeadTimeDays: c.Int("lead-time-days"),
		Workers:             c.Int("workers"),
		SaveDetailedTraces:  c.Bool("detailed"),
	}

	if raw := c.String("snapshot-date"); raw != "" {
		snapshot, err := time.Parse(cliDateLayout, raw)
		if err != nil {
			return req, fmt.Errorf("snapshot-date must be formatted as %s", cliDateLayout)
		}
		req.Params.SnapshotDate = &snapshot
	}

	return req, nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "planner",
		Usage: "Inbound capacity planning sweeps from the command line",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Sweep the scenario grid and write run artifacts",
				Flags:  runFlags(),
				Action: runSweep,
			},
			{
				Name:   "join",
				Usage:  "Join the three input files into a merged dataset without simulating",
				Flags:  joinFlags(),
				Action: runJoin,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
