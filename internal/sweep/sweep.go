package sweep

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/inbound-planner/internal/domain"
	"github.com/andresuchdata/inbound-planner/internal/simulation"
)

// ScenarioSink receives per-scenario artifacts as workers complete cells.
// Implementations must be safe for concurrent use; the sweep calls it from
// several workers at once.
type ScenarioSink interface {
	WriteScenario(run *simulation.ScenarioRun, daily []domain.DailyCount, summary domain.ScenarioSummary) error
}

// Progress is invoked once per finished cell, from worker goroutines.
type Progress func(done, total int, scenario domain.Scenario, status domain.ScenarioStatus)

// Config sizes one sweep.
type Config struct {
	Workers            int
	DailyCapacity      int
	TotalCapacity      int
	SaveDetailedTraces bool
}

// Sweeper fans a scenario grid out over a fixed worker pool. Grid cells
// share nothing mutable: each worker owns the ledgers of the cell it is
// simulating, so the only synchronization is the final result collection.
type Sweeper struct {
	cfg        Config
	sink       ScenarioSink
	onProgress Progress
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithSink streams per-scenario daily counts and traces into sink as cells
// complete, instead of accumulating everything in memory.
func WithSink(sink ScenarioSink) Option {
	return func(s *Sweeper) { s.sink = sink }
}

// WithProgress registers a completion callback. It is called concurrently.
func WithProgress(fn Progress) Option {
	return func(s *Sweeper) { s.onProgress = fn }
}

// New creates a Sweeper. A worker count below 1 falls back to 1.
func New(cfg Config, opts ...Option) *Sweeper {
	s := &Sweeper{cfg: cfg}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run validates the input and simulates every grid cell on the worker pool.
// One failing cell is reported in the result and does not abort the rest.
// On cancellation the remaining cells are abandoned and listed as skipped;
// summaries of already-finished cells stay valid, so the partial result is
// returned together with ctx.Err().
func (s *Sweeper) Run(ctx context.Context, in simulation.Input) (*domain.SweepResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	scenarios := in.Grid.Scenarios()
	workers := s.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	log.Info().
		Int("scenarios", len(scenarios)).
		Int("skus", len(in.SKUs)).
		Int("workers", workers).
		Msg("sweep: starting scenario grid")

	started := time.Now()
	jobChan := make(chan domain.Scenario, len(scenarios))
	resultChan := make(chan domain.ScenarioResult, len(scenarios))
	var wg sync.WaitGroup
	var completed int64

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for scenario := range jobChan {
				res := s.runCell(ctx, scenario, in)
				resultChan <- res
				if s.onProgress != nil {
					done := atomic.AddInt64(&completed, 1)
					s.onProgress(int(done), len(scenarios), scenario, res.Status)
				}
			}
		}()
	}

	// The job channel is sized to hold the whole grid, so enqueueing never
	// blocks and cancellation is handled inside the cells themselves.
	for _, scenario := range scenarios {
		jobChan <- scenario
	}
	close(jobChan)

	wg.Wait()
	close(resultChan)

	result := &domain.SweepResult{}
	for res := range resultChan {
		switch res.Status {
		case domain.ScenarioCompleted:
			result.Summaries = append(result.Summaries, *res.Summary)
		case domain.ScenarioFailed:
			result.Failed = append(result.Failed, res)
		default:
			result.Skipped = append(result.Skipped, res.Scenario)
		}
	}

	// Completion order depends on scheduling; report in grid order.
	sort.Slice(result.Summaries, func(i, j int) bool {
		a, b := result.Summaries[i], result.Summaries[j]
		if a.ReorderThreshold != b.ReorderThreshold {
			return a.ReorderThreshold < b.ReorderThreshold
		}
		return a.TargetDOI < b.TargetDOI
	})
	sort.Slice(result.Failed, func(i, j int) bool {
		return scenarioLess(result.Failed[i].Scenario, result.Failed[j].Scenario)
	})
	sort.Slice(result.Skipped, func(i, j int) bool {
		return scenarioLess(result.Skipped[i], result.Skipped[j])
	})

	if best, ok := simulation.SelectBest(result.Summaries); ok {
		result.Best = &best
	}
	result.Elapsed = time.Since(started)

	log.Info().
		Int("completed", len(result.Summaries)).
		Int("failed", len(result.Failed)).
		Int("skipped", len(result.Skipped)).
		Dur("elapsed", result.Elapsed).
		Msg("sweep: finished")

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// runCell simulates one scenario. Panics and sink failures are converted
// into a failed result so the sweep keeps going.
func (s *Sweeper) runCell(ctx context.Context, scenario domain.Scenario, in simulation.Input) (res domain.ScenarioResult) {
	res = domain.ScenarioResult{Scenario: scenario}
	defer func() {
		if r := recover(); r != nil {
			serr := &simulation.ScenarioError{Scenario: scenario, Err: fmt.Errorf("panic: %v", r)}
			log.Error().Str("scenario", scenario.Name()).Msg("sweep: " + serr.Error())
			res = domain.ScenarioResult{
				Scenario: scenario,
				Status:   domain.ScenarioFailed,
				Error:    serr.Error(),
			}
		}
	}()

	run, err := simulation.RunScenario(ctx, scenario, in.SKUs, in.Range, s.cfg.SaveDetailedTraces)
	if err != nil {
		// RunScenario only fails on cancellation.
		res.Status = domain.ScenarioSkipped
		return res
	}

	summary := simulation.Summarize(run, s.cfg.DailyCapacity, s.cfg.TotalCapacity)

	if s.sink != nil {
		daily := simulation.DailyCounts(run, s.cfg.DailyCapacity)
		if err := s.sink.WriteScenario(run, daily, summary); err != nil {
			serr := &simulation.ScenarioError{Scenario: scenario, Err: err}
			log.Error().Err(err).Str("scenario", scenario.Name()).Msg("sweep: scenario sink write failed")
			res.Status = domain.ScenarioFailed
			res.Error = serr.Error()
			return res
		}
	}

	res.Status = domain.ScenarioCompleted
	res.Summary = &summary
	return res
}

func scenarioLess(a, b domain.Scenario) bool {
	if a.ReorderThreshold != b.ReorderThreshold {
		return a.ReorderThreshold < b.ReorderThreshold
	}
	return a.TargetDOI < b.TargetDOI
}
