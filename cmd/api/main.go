package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/andresuchdata/inbound-planner/internal/cache"
	"github.com/andresuchdata/inbound-planner/internal/config"
	"github.com/andresuchdata/inbound-planner/internal/drive"
	"github.com/andresuchdata/inbound-planner/internal/repository/postgres"
	"github.com/andresuchdata/inbound-planner/internal/service"
	"github.com/andresuchdata/inbound-planner/internal/storage"
)

func main() {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	historyRepo := postgres.NewRunHistoryRepository(db)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := historyRepo.EnsureSchema(ctx); err != nil {
		cancel()
		log.Fatalf("Failed to bootstrap history schema: %v", err)
	}
	cancel()

	// Create router
	r := mux.NewRouter()

	// Register history routes
	history := &historyHandler{repo: historyRepo}
	history.registerRoutes(r)

	// Drive ingest only runs with credentials configured; the history
	// endpoints work without them.
	if cfg.Drive.CredentialsJSON != "" {
		driveService, err := drive.NewService(cfg.Drive.CredentialsJSON)
		if err != nil {
			log.Fatalf("Failed to initialize Google Drive service: %v", err)
		}

		sweepCache, err := cache.NewSweepCache(cfg.Cache)
		if err != nil {
			log.Fatalf("Failed to connect to redis: %v", err)
		}

		var store storage.ObjectStorage
		if cfg.Storage.Enabled {
			minioClient, err := storage.NewMinioClient(storage.Config{
				Endpoint:  cfg.Storage.Endpoint,
				AccessKey: cfg.Storage.AccessKey,
				SecretKey: cfg.Storage.SecretKey,
				Bucket:    cfg.Storage.Bucket,
				Region:    cfg.Storage.Region,
				UseSSL:    cfg.Storage.UseSSL,
			})
			if err != nil {
				log.Fatalf("Failed to initialize object storage: %v", err)
			}

			bctx, bcancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := minioClient.EnsureBucket(bctx); err != nil {
				bcancel()
				log.Fatalf("Failed to ensure storage bucket: %v", err)
			}
			bcancel()
			store = minioClient
		}

		planner := service.NewPlannerService(cfg.App.OutputDir, cfg.Simulation, sweepCache, store)
		ingest := drive.NewIngestService(drive.NewDownloader(driveService), planner, historyRepo, cfg.Drive.DownloadDir)

		driveHandler := drive.NewHandler(driveService, ingest)
		driveHandler.RegisterRoutes(r)
	} else {
		log.Printf("GOOGLE_DRIVE_CREDENTIALS_JSON not set, drive routes disabled")
	}

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server starting on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
