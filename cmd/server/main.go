package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/inbound-planner/internal/api"
	"github.com/andresuchdata/inbound-planner/internal/cache"
	"github.com/andresuchdata/inbound-planner/internal/config"
	"github.com/andresuchdata/inbound-planner/internal/service"
	"github.com/andresuchdata/inbound-planner/internal/storage"
	"github.com/andresuchdata/inbound-planner/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize sweep result cache
	sweepCache, err := cache.NewSweepCache(cfg.Cache)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}

	// Initialize object storage when configured
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

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := minioClient.EnsureBucket(ctx); err != nil {
			cancel()
			log.Fatalf("Failed to ensure storage bucket: %v", err)
		}
		cancel()
		store = minioClient
	}

	// Initialize services
	planner := service.NewPlannerService(cfg.App.OutputDir, cfg.Simulation, sweepCache, store)

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{Planner: planner}, cfg.Server.AllowedOrigins, cfg.App.UploadDir)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// In-flight sweeps keep running in the registry; the shutdown window
	// only covers open HTTP requests.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
