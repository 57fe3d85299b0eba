// internal/api/handlers/run_handler.go
package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/inbound-planner/internal/domain"
	"github.com/andresuchdata/inbound-planner/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const formDateLayout = "2006-01-02"

type RunHandler struct {
	planner   *service.PlannerService
	uploadDir string
}

func NewRunHandler(planner *service.PlannerService, uploadDir string) *RunHandler {
	return &RunHandler{planner: planner, uploadDir: uploadDir}
}

// CreateRun accepts the sweep parameters plus either the three separate
// input files or a single pre-joined merged_file, and starts a background
// run.
func (h *RunHandler) CreateRun(c *gin.Context) {
	params, err := parseRunParams(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := service.SweepRequest{Params: params}
	if _, err := c.FormFile("merged_file"); err == nil {
		req.MergedPath, err = h.saveUpload(c, "merged_file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	} else {
		req.StockPath, err = h.saveUpload(c, "stock_file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req.LeadPath, err = h.saveUpload(c, "lead_time_file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req.ActivePath, err = h.saveUpload(c, "active_supplier_file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	id, err := h.planner.StartRun(req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start run", "details": err.Error()})
		return
	}

	log.Info().Str("run_id", id).Int("scenarios", params.Grid.Size()).Msg("run accepted")
	c.JSON(http.StatusAccepted, gin.H{
		"run_id": id,
		"status": string(domain.RunPending),
	})
}

// ListRuns returns every run of this process, newest first.
func (h *RunHandler) ListRuns(c *gin.Context) {
	c.JSON(http.StatusOK, h.planner.ListRuns())
}

// GetRun returns the current record of one run.
func (h *RunHandler) GetRun(c *gin.Context) {
	run, ok := h.planner.GetRun(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, run)
}

// GetSummary returns the per-scenario comparison of a finished run.
func (h *RunHandler) GetSummary(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.planner.GetRun(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	result, ok := h.planner.RunResult(id)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "run has no result yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run_id":    id,
		"summaries": result.Summaries,
		"failed":    result.Failed,
		"skipped":   result.Skipped,
	})
}

// GetBest returns the winning scenario of a finished run.
func (h *RunHandler) GetBest(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.planner.GetRun(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	result, ok := h.planner.RunResult(id)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "run has no result yet"})
		return
	}
	if result.Best == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no scenario completed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run_id": id,
		"best":   result.Best,
	})
}

// GetLogs returns the progress log, optionally only lines after a sequence
// number so clients can poll incrementally.
func (h *RunHandler) GetLogs(c *gin.Context) {
	id := c.Param("id")
	after := parseNonNegativeInt(c.Query("after"))
	lines, ok := h.planner.RunLogs(id, after)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run_id": id,
		"lines":  lines,
	})
}

// Download streams the zipped artifact bundle of a finished run.
func (h *RunHandler) Download(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.planner.GetRun(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	path, ok := h.planner.BundlePath(id)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "bundle not available yet"})
		return
	}
	c.FileAttachment(path, fmt.Sprintf("run_%s_bundle.zip", id))
}

// CancelRun requests cancellation of a live run.
func (h *RunHandler) CancelRun(c *gin.Context) {
	id := c.Param("id")
	run, ok := h.planner.GetRun(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	if !h.planner.CancelRun(id) {
		c.JSON(http.StatusConflict, gin.H{"error": "run already finished", "status": string(run.Status)})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"run_id": id, "status": "canceling"})
}

// InvalidateCache drops every memoized sweep result.
func (h *RunHandler) InvalidateCache(c *gin.Context) {
	if err := h.planner.InvalidateCache(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear cache", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cache cleared"})
}

func (h *RunHandler) saveUpload(c *gin.Context, field string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		return "", fmt.Errorf("%s is required", field)
	}

	name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(file.Filename))
	dest := filepath.Join(h.uploadDir, name)
	if err := c.SaveUploadedFile(file, dest); err != nil {
		log.Error().Err(err).Str("filename", file.Filename).Msg("failed to save uploaded file")
		return "", fmt.Errorf("failed to save %s", field)
	}
	return dest, nil
}

func parseRunParams(c *gin.Context) (domain.RunParams, error) {
	var params domain.RunParams

	rtStart, err := requiredFormInt(c, "rt_start")
	if err != nil {
		return params, err
	}
	rtStop, err := requiredFormInt(c, "rt_stop")
	if err != nil {
		return params, err
	}
	doiStart, err := requiredFormInt(c, "doi_start")
	if err != nil {
		return params, err
	}
	doiStop, err := requiredFormInt(c, "doi_stop")
	if err != nil {
		return params, err
	}
	params.Grid = domain.GridSpec{RTStart: rtStart, RTStop: rtStop, DOIStart: doiStart, DOIStop: doiStop}
	if rtStart > rtStop {
		return params, fmt.Errorf("rt_start must not exceed rt_stop")
	}
	if doiStart > doiStop {
		return params, fmt.Errorf("doi_start must not exceed doi_stop")
	}

	start, err := requiredFormDate(c, "start_date")
	if err != nil {
		return params, err
	}
	end, err := requiredFormDate(c, "end_date")
	if err != nil {
		return params, err
	}
	if end.Before(start) {
		return params, fmt.Errorf("end_date must not precede start_date")
	}
	params.Range = domain.DateRange{Start: start, End: end}

	if raw := strings.TrimSpace(c.PostForm("snapshot_date")); raw != "" {
		snapshot, err := time.Parse(formDateLayout, raw)
		if err != nil {
			return params, fmt.Errorf("snapshot_date must be YYYY-MM-DD")
		}
		params.SnapshotDate = &snapshot
	}

	// Optional knobs; zero falls through to the configured defaults.
	params.DailyCapacity = parseNonNegativeInt(c.PostForm("daily_capacity"))
	params.TotalCapacity = parseNonNegativeInt(c.PostForm("total_capacity"))
	params.DefaultLeadTimeDays = parseNonNegativeInt(c.PostForm("default_lead_time_days"))
	params.Workers = parseNonNegativeInt(c.PostForm("workers"))

	traces, err := strconv.ParseBool(c.DefaultPostForm("save_detailed_traces", "true"))
	if err != nil {
		return params, fmt.Errorf("save_detailed_traces must be a boolean")
	}
	params.SaveDetailedTraces = traces

	return params, nil
}

func requiredFormInt(c *gin.Context, field string) (int, error) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" {
		return 0, fmt.Errorf("%s is required", field)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", field)
	}
	return v, nil
}

func requiredFormDate(c *gin.Context, field string) (time.Time, error) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	d, err := time.Parse(formDateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD", field)
	}
	return d, nil
}

func parseNonNegativeInt(value string) int {
	if v, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && v >= 0 {
		return v
	}
	return 0
}
