// cmd/analytics/main.go
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/andresuchdata/inbound-planner/internal/analytics"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Parse command line flags
	dbURL := flag.String("db-url", os.Getenv("DATABASE_URL"), "Database connection string (defaults to DATABASE_URL)")
	runsDir := flag.String("runs-dir", "./data/runs", "Directory containing run artifact directories")
	runID := flag.String("run-id", "", "Record a single run directory instead of scanning runs-dir")
	flag.Parse()

	if *dbURL == "" {
		log.Fatal("Database URL is required (use -db-url flag or DATABASE_URL)")
	}

	// Initialize database connection
	db, err := sql.Open("pgx", *dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	recorder := analytics.NewRunRecorder(db)
	ctx := context.Background()

	if err := recorder.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to create history schema: %v", err)
	}

	start := time.Now()
	if *runID != "" {
		dir := filepath.Join(*runsDir, *runID)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			log.Fatalf("Run directory not found: %s", dir)
		}
		if err := recorder.RecordRunDir(ctx, dir); err != nil {
			log.Fatalf("Error recording %s: %v", dir, err)
		}
		log.Printf("Recorded run %s in %v", *runID, time.Since(start))
		return
	}

	count, err := recorder.RecordAll(ctx, *runsDir)
	if err != nil {
		log.Fatalf("Error recording runs: %v", err)
	}
	log.Printf("Recorded %d runs from %s in %v", count, *runsDir, time.Since(start))
}
