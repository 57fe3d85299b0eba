// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/inbound-planner/internal/api/handlers"
	"github.com/andresuchdata/inbound-planner/internal/api/middleware"
	"github.com/andresuchdata/inbound-planner/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Planner *service.PlannerService
}

func NewRouter(services *Services, allowedOrigins []string, uploadDir string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil && services.Planner != nil {
		runHandler := handlers.NewRunHandler(services.Planner, uploadDir)
		runsGroup := apiGroup.Group("/runs")
		{
			runsGroup.POST("", runHandler.CreateRun)
			runsGroup.GET("", runHandler.ListRuns)
			runsGroup.GET("/:id", runHandler.GetRun)
			runsGroup.GET("/:id/summary", runHandler.GetSummary)
			runsGroup.GET("/:id/best", runHandler.GetBest)
			runsGroup.GET("/:id/logs", runHandler.GetLogs)
			runsGroup.GET("/:id/download", runHandler.Download)
			runsGroup.DELETE("/:id", runHandler.CancelRun)
		}
		apiGroup.DELETE("/cache", runHandler.InvalidateCache)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
