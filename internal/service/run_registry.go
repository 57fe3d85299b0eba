package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/inbound-planner/internal/domain"
)

// maxRunLogLines caps the per-run progress log. Sequence numbers keep
// growing past the cap so pollers can detect the gap.
const maxRunLogLines = 500

type runEntry struct {
	run     domain.Run
	result  *domain.SweepResult
	cancel  context.CancelFunc
	logs    []domain.RunLogLine
	nextSeq int
}

// runRegistry tracks every run of this process, live and finished.
type runRegistry struct {
	mu   sync.RWMutex
	runs map[string]*runEntry
}

func newRunRegistry() *runRegistry {
	return &runRegistry{runs: make(map[string]*runEntry)}
}

func (r *runRegistry) create(run domain.Run) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = &runEntry{run: run, nextSeq: 1}
}

func (r *runRegistry) setCancel(id string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.runs[id]; ok {
		entry.cancel = cancel
	}
}

// update mutates the run record under the lock and returns the new value.
// Unknown IDs return the zero Run.
func (r *runRegistry) update(id string, mutate func(run *domain.Run)) domain.Run {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.runs[id]
	if !ok {
		return domain.Run{}
	}
	mutate(&entry.run)
	return entry.run
}

func (r *runRegistry) setResult(id string, result *domain.SweepResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.runs[id]; ok {
		entry.result = result
	}
}

func (r *runRegistry) appendLog(id, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.runs[id]
	if !ok {
		return
	}
	entry.logs = append(entry.logs, domain.RunLogLine{
		Seq:     entry.nextSeq,
		Time:    time.Now(),
		Message: message,
	})
	entry.nextSeq++
	if len(entry.logs) > maxRunLogLines {
		entry.logs = append([]domain.RunLogLine(nil), entry.logs[len(entry.logs)-maxRunLogLines:]...)
	}
}

func (r *runRegistry) get(id string) (domain.Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.runs[id]
	if !ok {
		return domain.Run{}, false
	}
	return entry.run, true
}

func (r *runRegistry) result(id string) (*domain.SweepResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.runs[id]
	if !ok || entry.result == nil {
		return nil, false
	}
	return entry.result, true
}

// list returns all runs, newest first.
func (r *runRegistry) list() []domain.Run {
	r.mu.RLock()
	defer r.mu.RUnlock()
	runs := make([]domain.Run, 0, len(r.runs))
	for _, entry := range r.runs {
		runs = append(runs, entry.run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.After(runs[j].StartedAt)
		}
		return runs[i].ID > runs[j].ID
	})
	return runs
}

// logsAfter returns a copy of the log lines with Seq greater than afterSeq.
func (r *runRegistry) logsAfter(id string, afterSeq int) ([]domain.RunLogLine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.runs[id]
	if !ok {
		return nil, false
	}
	lines := make([]domain.RunLogLine, 0, len(entry.logs))
	for _, line := range entry.logs {
		if line.Seq > afterSeq {
			lines = append(lines, line)
		}
	}
	return lines, true
}

// cancelRun fires the run's cancel func. Terminal runs report false.
func (r *runRegistry) cancelRun(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.runs[id]
	if !ok || entry.cancel == nil || entry.run.Status.Terminal() {
		return false
	}
	entry.cancel()
	return true
}
