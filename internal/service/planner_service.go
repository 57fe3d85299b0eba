package service

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/andresuchdata/inbound-planner/internal/cache"
	"github.com/andresuchdata/inbound-planner/internal/config"
	"github.com/andresuchdata/inbound-planner/internal/domain"
	"github.com/andresuchdata/inbound-planner/internal/loader"
	"github.com/andresuchdata/inbound-planner/internal/simulation"
	"github.com/andresuchdata/inbound-planner/internal/sink"
	"github.com/andresuchdata/inbound-planner/internal/storage"
	"github.com/andresuchdata/inbound-planner/internal/sweep"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// uploadConcurrency bounds parallel artifact uploads per run.
const uploadConcurrency = 4

// SweepRequest names the input files and the run parameters. Either the
// three separate files or a single pre-joined MergedPath must be set;
// MergedPath wins when both are present. Numeric params left at zero fall
// back to the configured defaults; Progress, when set, receives every
// scenario completion.
type SweepRequest struct {
	Params     domain.RunParams
	MergedPath string
	StockPath  string
	LeadPath   string
	ActivePath string
	Progress   sweep.Progress
}

// PlannerService owns the full life of a sweep run: dataset loading, grid
// execution, artifact writing, archival and the in-process run registry.
type PlannerService struct {
	outputDir string
	defaults  config.SimulationConfig
	cache     cache.SweepCache
	store     storage.ObjectStorage
	registry  *runRegistry
}

// NewPlannerService wires the service. A nil cache degrades to the noop
// implementation; a nil store disables archival.
func NewPlannerService(outputDir string, defaults config.SimulationConfig, cacheImpl cache.SweepCache, store storage.ObjectStorage) *PlannerService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopSweepCache()
	}
	return &PlannerService{
		outputDir: outputDir,
		defaults:  defaults,
		cache:     cacheImpl,
		store:     store,
		registry:  newRunRegistry(),
	}
}

// RunSweep executes a sweep to completion and blocks until every artifact is
// on disk. A canceled context still returns the partial run record and
// result alongside the context error.
func (s *PlannerService) RunSweep(ctx context.Context, req SweepRequest) (domain.Run, *domain.SweepResult, error) {
	rs, run, err := s.prepare(req)
	if err != nil {
		return domain.Run{}, nil, err
	}
	return s.execute(ctx, rs, run, req)
}

// StartRun launches a sweep in the background and returns its run ID
// immediately. Progress is observable through GetRun and RunLogs; CancelRun
// stops it.
func (s *PlannerService) StartRun(req SweepRequest) (string, error) {
	rs, run, err := s.prepare(req)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.registry.setCancel(run.ID, cancel)

	go func() {
		defer cancel()
		if _, _, err := s.execute(ctx, rs, run, req); err != nil {
			log.Error().Err(err).Str("run_id", run.ID).Msg("planner: background run finished with error")
		}
	}()

	return run.ID, nil
}

// GetRun returns the current record of a run.
func (s *PlannerService) GetRun(id string) (domain.Run, bool) {
	return s.registry.get(id)
}

// ListRuns returns every run of this process, newest first.
func (s *PlannerService) ListRuns() []domain.Run {
	return s.registry.list()
}

// RunLogs returns the progress log lines with Seq greater than afterSeq.
func (s *PlannerService) RunLogs(id string, afterSeq int) ([]domain.RunLogLine, bool) {
	return s.registry.logsAfter(id, afterSeq)
}

// RunResult returns the in-memory sweep result of a finished run.
func (s *PlannerService) RunResult(id string) (*domain.SweepResult, bool) {
	return s.registry.result(id)
}

// CancelRun requests cancellation of a live run.
func (s *PlannerService) CancelRun(id string) bool {
	if !s.registry.cancelRun(id) {
		return false
	}
	s.registry.appendLog(id, "cancellation requested")
	return true
}

// BundlePath returns the downloadable bundle location once it exists.
func (s *PlannerService) BundlePath(id string) (string, bool) {
	run, ok := s.registry.get(id)
	if !ok || run.BundlePath == "" {
		return "", false
	}
	if _, err := os.Stat(run.BundlePath); err != nil {
		return "", false
	}
	return run.BundlePath, true
}

// InvalidateCache drops every memoized sweep result.
func (s *PlannerService) InvalidateCache(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}

func (s *PlannerService) prepare(req SweepRequest) (*sink.RunSink, domain.Run, error) {
	inputs := []string{req.StockPath, req.LeadPath, req.ActivePath}
	if req.MergedPath != "" {
		inputs = []string{req.MergedPath}
	}
	for _, p := range inputs {
		if _, err := os.Stat(p); err != nil {
			return nil, domain.Run{}, fmt.Errorf("input file not readable: %w", err)
		}
	}

	params := s.effectiveParams(req.Params)
	rs, err := sink.NewRunSink(s.outputDir, sink.NewRunID(time.Now()), params.SaveDetailedTraces)
	if err != nil {
		return nil, domain.Run{}, err
	}

	run := domain.Run{
		ID:             rs.RunID(),
		Status:         domain.RunPending,
		Params:         params,
		TotalScenarios: params.Grid.Size(),
		OutputDir:      rs.Dir(),
		StartedAt:      time.Now(),
	}
	s.registry.create(run)
	s.registry.appendLog(run.ID, fmt.Sprintf("run accepted: %d scenarios", run.TotalScenarios))
	return rs, run, nil
}

func (s *PlannerService) effectiveParams(p domain.RunParams) domain.RunParams {
	if p.DailyCapacity <= 0 {
		p.DailyCapacity = s.defaults.DailyCapacity
	}
	if p.TotalCapacity <= 0 {
		p.TotalCapacity = s.defaults.TotalCapacity
	}
	if p.DefaultLeadTimeDays <= 0 {
		p.DefaultLeadTimeDays = s.defaults.DefaultLeadTimeDays
	}
	if p.Workers <= 0 {
		p.Workers = s.defaults.Workers
	}
	return p
}

func (s *PlannerService) execute(ctx context.Context, rs *sink.RunSink, run domain.Run, req SweepRequest) (domain.Run, *domain.SweepResult, error) {
	id := run.ID
	s.registry.update(id, func(r *domain.Run) { r.Status = domain.RunRunning })
	s.registry.appendLog(id, "loading dataset")

	dataset, err := s.loadDataset(req, run.Params)
	if err != nil {
		return s.fail(id, err)
	}

	s.registry.update(id, func(r *domain.Run) {
		r.EligibleSKUs = len(dataset.SKUs)
		r.ExcludedSKUs = dataset.ExcludedSKUs
	})
	s.registry.appendLog(id, fmt.Sprintf("dataset assembled: %d eligible SKUs, %d excluded", len(dataset.SKUs), dataset.ExcludedSKUs))

	in := simulation.Input{
		SKUs:          dataset.SKUs,
		Grid:          run.Params.Grid,
		Range:         run.Params.Range,
		DailyCapacity: run.Params.DailyCapacity,
		TotalCapacity: run.Params.TotalCapacity,
	}
	if err := in.Validate(); err != nil {
		return s.fail(id, err)
	}

	var (
		result   *domain.SweepResult
		sweepErr error
	)
	if cached, ok := s.cachedResult(ctx, in); ok {
		result = cached
		s.registry.update(id, func(r *domain.Run) { r.FromCache = true })
		s.registry.appendLog(id, "sweep result served from cache")
	} else {
		result, sweepErr = s.runGrid(ctx, rs, id, in, run.Params, req.Progress)
		if result == nil {
			return s.fail(id, sweepErr)
		}
		if sweepErr == nil {
			if cerr := s.cache.SetResult(ctx, in, result); cerr != nil {
				log.Warn().Err(cerr).Msg("planner: cache set failed")
			}
		} else {
			s.registry.appendLog(id, "run canceled; keeping completed scenarios")
		}
	}

	canceled := sweepErr != nil
	now := time.Now()
	status := domain.RunCompleted
	if canceled {
		status = domain.RunCanceled
	}
	run = s.registry.update(id, func(r *domain.Run) {
		r.Status = status
		r.CompletedScenarios = len(result.Summaries)
		r.FailedScenarios = len(result.Failed)
		if result.Best != nil {
			r.BestScenario = result.Best.Scenario
		}
		r.BundlePath = filepath.Join(rs.Dir(), sink.BundleFileName)
		r.CompletedAt = &now
		if canceled {
			r.Error = sweepErr.Error()
		}
	})
	s.registry.setResult(id, result)

	if err := s.writeArtifacts(rs, run, result); err != nil {
		return s.fail(id, err)
	}

	if s.store != nil && !canceled {
		if err := s.uploadArtifacts(ctx, rs, id); err != nil {
			log.Warn().Err(err).Str("run_id", id).Msg("planner: artifact upload failed")
			s.registry.appendLog(id, "artifact upload failed: "+err.Error())
		} else {
			s.registry.appendLog(id, "artifacts archived to object storage")
		}
	}

	if result.Best != nil {
		s.registry.appendLog(id, "run finished: best scenario "+result.Best.Scenario)
	} else {
		s.registry.appendLog(id, "run finished: no scenario completed")
	}
	log.Info().
		Str("run_id", id).
		Str("status", string(status)).
		Int("scenarios", len(result.Summaries)).
		Dur("elapsed", result.Elapsed).
		Msg("planner: run finished")

	return run, result, sweepErr
}

func (s *PlannerService) loadDataset(req SweepRequest, params domain.RunParams) (*loader.Result, error) {
	opts := loader.Options{
		SnapshotDate:        params.SnapshotDate,
		DefaultLeadTimeDays: params.DefaultLeadTimeDays,
	}

	if req.MergedPath != "" {
		mergedFile, err := os.Open(req.MergedPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open merged file: %w", err)
		}
		defer mergedFile.Close()

		rows, err := loader.ReadMergedRows(mergedFile)
		if err != nil {
			return nil, fmt.Errorf("merged file: %w", err)
		}
		return loader.BuildFromMerged(rows, opts), nil
	}

	stockFile, err := os.Open(req.StockPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open stock file: %w", err)
	}
	defer stockFile.Close()

	leadFile, err := os.Open(req.LeadPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open lead time file: %w", err)
	}
	defer leadFile.Close()

	activeFile, err := os.Open(req.ActivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open active supplier file: %w", err)
	}
	defer activeFile.Close()

	stock, err := loader.ReadStockRows(stockFile)
	if err != nil {
		return nil, fmt.Errorf("stock file: %w", err)
	}
	leads, err := loader.ReadLeadTimeRows(leadFile)
	if err != nil {
		return nil, fmt.Errorf("lead time file: %w", err)
	}
	active, err := loader.ReadActiveSupplierRows(activeFile)
	if err != nil {
		return nil, fmt.Errorf("active supplier file: %w", err)
	}

	return loader.Join(stock, leads, active, opts), nil
}

func (s *PlannerService) cachedResult(ctx context.Context, in simulation.Input) (*domain.SweepResult, bool) {
	result, ok, err := s.cache.GetResult(ctx, in)
	if err != nil {
		log.Warn().Err(err).Msg("planner: cache get failed")
		return nil, false
	}
	return result, ok
}

func (s *PlannerService) runGrid(ctx context.Context, rs *sink.RunSink, id string, in simulation.Input, params domain.RunParams, extra sweep.Progress) (*domain.SweepResult, error) {
	total := in.Grid.Size()
	logEvery := total / 10
	if logEvery == 0 {
		logEvery = 1
	}

	progress := func(done, total int, scenario domain.Scenario, status domain.ScenarioStatus) {
		s.registry.update(id, func(r *domain.Run) { r.CompletedScenarios = done })
		if done%logEvery == 0 || done == total {
			s.registry.appendLog(id, fmt.Sprintf("progress: %d/%d scenarios", done, total))
		}
		if extra != nil {
			extra(done, total, scenario, status)
		}
	}

	sweeper := sweep.New(sweep.Config{
		Workers:            params.Workers,
		DailyCapacity:      in.DailyCapacity,
		TotalCapacity:      in.TotalCapacity,
		SaveDetailedTraces: params.SaveDetailedTraces,
	}, sweep.WithSink(rs), sweep.WithProgress(progress))

	return sweeper.Run(ctx, in)
}

func (s *PlannerService) writeArtifacts(rs *sink.RunSink, run domain.Run, result *domain.SweepResult) error {
	if err := rs.WriteComparison(result.Summaries); err != nil {
		return err
	}
	if result.Best != nil {
		if err := rs.WriteBestScenario(*result.Best); err != nil {
			return err
		}
	}
	if err := rs.WriteRunManifest(run); err != nil {
		return err
	}
	if _, err := rs.Bundle(); err != nil {
		return err
	}
	return nil
}

func (s *PlannerService) uploadArtifacts(ctx context.Context, rs *sink.RunSink, id string) error {
	entries, err := os.ReadDir(rs.Dir())
	if err != nil {
		return fmt.Errorf("failed to read run directory: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		g.Go(func() error {
			key := path.Join("runs", id, name)
			return s.store.UploadFile(ctx, key, filepath.Join(rs.Dir(), name))
		})
	}
	return g.Wait()
}

func (s *PlannerService) fail(id string, err error) (domain.Run, *domain.SweepResult, error) {
	now := time.Now()
	run := s.registry.update(id, func(r *domain.Run) {
		r.Status = domain.RunFailed
		r.Error = err.Error()
		r.CompletedAt = &now
	})
	s.registry.appendLog(id, "run failed: "+err.Error())
	log.Error().Err(err).Str("run_id", id).Msg("planner: run failed")
	return run, nil, err
}
