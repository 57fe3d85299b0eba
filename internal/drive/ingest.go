package drive

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/inbound-planner/internal/domain"
	"github.com/andresuchdata/inbound-planner/internal/repository"
	"github.com/andresuchdata/inbound-planner/internal/service"
)

// IngestService pulls the planner input files from a Drive folder, runs a
// sweep over them, and records the outcome in the history database.
type IngestService struct {
	downloader  *Downloader
	planner     *service.PlannerService
	history     repository.RunHistoryRepository
	downloadDir string
}

// NewIngestService wires the ingest flow. The history repository may be nil
// when no database is configured; runs then only produce artifacts.
func NewIngestService(downloader *Downloader, planner *service.PlannerService, history repository.RunHistoryRepository, downloadDir string) *IngestService {
	return &IngestService{
		downloader:  downloader,
		planner:     planner,
		history:     history,
		downloadDir: downloadDir,
	}
}

// inputDatasets are the three planner inputs located in a download.
type inputDatasets struct {
	Stock           string
	LeadTime        string
	ActiveSuppliers string
}

// IngestFolder downloads every CSV and XLSX file from the folder, locates
// the stock, lead time and active supplier datasets by file name, and runs
// a sweep with the given parameters. Each ingest lands in its own
// timestamped directory so reruns never clobber earlier downloads.
func (s *IngestService) IngestFolder(ctx context.Context, folderID string, params domain.RunParams) (domain.Run, *domain.SweepResult, error) {
	dir := filepath.Join(s.downloadDir, time.Now().UTC().Format("20060102_150405"))

	paths, err := s.downloader.DownloadFolderCSV(ctx, DownloadOptions{
		FolderID:    folderID,
		DownloadDir: dir,
	})
	if err != nil {
		return domain.Run{}, nil, fmt.Errorf("failed to download folder: %w", err)
	}

	log.Info().Str("folder_id", folderID).Int("files", len(paths)).Msg("Drive folder downloaded")

	datasets, err := classifyDatasets(paths)
	if err != nil {
		return domain.Run{}, nil, err
	}

	run, result, err := s.planner.RunSweep(ctx, service.SweepRequest{
		Params:     params,
		StockPath:  datasets.Stock,
		LeadPath:   datasets.LeadTime,
		ActivePath: datasets.ActiveSuppliers,
	})
	if err != nil {
		return run, result, err
	}

	if s.history != nil && result != nil {
		if err := s.history.SaveRun(ctx, run, result.Summaries); err != nil {
			log.Warn().Err(err).Str("run_id", run.ID).Msg("failed to record run history")
		}
	}

	return run, result, nil
}

// classifyDatasets matches downloaded files to the three planner inputs by
// name. Lead time names are checked first so a file like
// "stock_lead_times.csv" does not land in the stock slot; the first match
// per slot wins.
func classifyDatasets(paths []string) (inputDatasets, error) {
	var ds inputDatasets
	for _, p := range paths {
		name := strings.ToLower(filepath.Base(p))
		switch {
		case strings.Contains(name, "lead"):
			if ds.LeadTime == "" {
				ds.LeadTime = p
			}
		case strings.Contains(name, "active"), strings.Contains(name, "supplier"):
			if ds.ActiveSuppliers == "" {
				ds.ActiveSuppliers = p
			}
		case strings.Contains(name, "stock"):
			if ds.Stock == "" {
				ds.Stock = p
			}
		}
	}

	var missing []string
	if ds.Stock == "" {
		missing = append(missing, "stock")
	}
	if ds.LeadTime == "" {
		missing = append(missing, "lead time")
	}
	if ds.ActiveSuppliers == "" {
		missing = append(missing, "active supplier")
	}
	if len(missing) > 0 {
		return ds, fmt.Errorf("folder has no %s dataset", strings.Join(missing, ", no "))
	}

	return ds, nil
}
