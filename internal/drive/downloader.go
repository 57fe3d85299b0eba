package drive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DownloadOptions controls how files are pulled from a Drive folder.
type DownloadOptions struct {
	FolderID    string
	DownloadDir string
}

// Downloader wraps Service to materialize a Drive folder as local CSV files.
type Downloader struct {
	service *Service
}

func NewDownloader(s *Service) *Downloader {
	return &Downloader{service: s}
}

// DownloadFolderCSV downloads every non-trashed CSV and XLSX file from the
// folder into DownloadDir and returns the local CSV paths.
//
// CSV files are downloaded as is. XLSX files are downloaded first, then the
// first sheet is converted to CSV and the XLSX copy removed. Files with any
// other extension are skipped.
func (d *Downloader) DownloadFolderCSV(ctx context.Context, opts DownloadOptions) ([]string, error) {
	if opts.DownloadDir == "" {
		return nil, fmt.Errorf("download dir is required")
	}
	if err := os.MkdirAll(opts.DownloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}

	files, err := d.service.ListFiles(opts.FolderID)
	if err != nil {
		return nil, err
	}

	var localPaths []string
	for _, f := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		ext := strings.ToLower(filepath.Ext(f.Name))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}

		localPath := filepath.Join(opts.DownloadDir, f.Name)
		if err := d.downloadTo(f, localPath); err != nil {
			return nil, err
		}

		if ext == ".csv" {
			localPaths = append(localPaths, localPath)
			continue
		}

		csvPath := strings.TrimSuffix(localPath, filepath.Ext(localPath)) + ".csv"
		if err := convertXLSXToCSV(localPath, csvPath); err != nil {
			return nil, fmt.Errorf("failed to convert %s to csv: %w", f.Name, err)
		}
		_ = os.Remove(localPath)
		localPaths = append(localPaths, csvPath)
	}

	return localPaths, nil
}

func (d *Downloader) downloadTo(f *File, localPath string) error {
	out, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %w", localPath, err)
	}
	defer out.Close()

	if err := d.service.DownloadFile(f.ID, out); err != nil {
		return fmt.Errorf("failed to download %s: %w", f.Name, err)
	}
	return nil
}
