package sink

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/andresuchdata/inbound-planner/internal/domain"
)

const (
	// BestFileName holds the winning scenario and its summary metrics.
	BestFileName = "best_scenario.json"
	// ManifestFileName is the run manifest with parameters and outcome.
	ManifestFileName = "run.json"
	// BundleFileName packages every artifact of the run for download.
	BundleFileName = "bundle.zip"
)

// selectionRule documents, inside the artifact itself, how the winner was
// picked. Kept in sync with simulation.SelectBest.
const selectionRule = "min days_over_capacity, then min avg_daily_skus, then min reorder_threshold, then min target_doi"

type bestArtifact struct {
	RunID         string                 `json:"run_id"`
	Scenario      string                 `json:"scenario"`
	SelectionRule string                 `json:"selection_rule"`
	Summary       domain.ScenarioSummary `json:"summary"`
}

// WriteBestScenario persists the selector's pick.
func (s *RunSink) WriteBestScenario(best domain.ScenarioSummary) error {
	return writeJSONFile(filepath.Join(s.dir, BestFileName), bestArtifact{
		RunID:         s.runID,
		Scenario:      best.Scenario,
		SelectionRule: selectionRule,
		Summary:       best,
	})
}

// WriteRunManifest persists the run record alongside its artifacts.
func (s *RunSink) WriteRunManifest(run domain.Run) error {
	return writeJSONFile(filepath.Join(s.dir, ManifestFileName), run)
}

// ReadRunManifest loads a run record back from an artifact directory.
func ReadRunManifest(dir string) (domain.Run, error) {
	var run domain.Run
	data, err := os.ReadFile(filepath.Join(dir, ManifestFileName))
	if err != nil {
		return run, fmt.Errorf("failed to read run manifest: %w", err)
	}
	if err := json.Unmarshal(data, &run); err != nil {
		return run, fmt.Errorf("failed to parse run manifest: %w", err)
	}
	return run, nil
}

// ReadBestScenario loads the winning scenario summary back from an
// artifact directory.
func ReadBestScenario(dir string) (domain.ScenarioSummary, error) {
	var artifact bestArtifact
	data, err := os.ReadFile(filepath.Join(dir, BestFileName))
	if err != nil {
		return artifact.Summary, fmt.Errorf("failed to read best scenario artifact: %w", err)
	}
	if err := json.Unmarshal(data, &artifact); err != nil {
		return artifact.Summary, fmt.Errorf("failed to parse best scenario artifact: %w", err)
	}
	return artifact.Summary, nil
}

// Bundle zips every artifact in the run directory into bundle.zip and
// returns its path. An existing bundle is rebuilt.
func (s *RunSink) Bundle() (string, error) {
	bundlePath := filepath.Join(s.dir, BundleFileName)

	f, err := os.Create(bundlePath)
	if err != nil {
		return "", fmt.Errorf("failed to create bundle: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("failed to list run directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == BundleFileName {
			continue
		}
		if err := addToZip(zw, s.dir, entry.Name()); err != nil {
			return "", err
		}
	}

	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("failed to finish bundle: %w", err)
	}
	return bundlePath, nil
}

func addToZip(zw *zip.Writer, dir, name string) error {
	src, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer src.Close()

	dst, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add %s to bundle: %w", name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy %s into bundle: %w", name, err)
	}
	return nil
}

func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
