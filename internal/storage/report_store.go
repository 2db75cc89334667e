package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	reportPrefix = "plant_analysis_report_"
	reportExt    = ".pdf"
)

// ReportStore owns the directory that holds transient report files
type ReportStore struct {
	dir string
}

// NewReportStore does not touch the filesystem; call EnsureDir before use
func NewReportStore(dir string) *ReportStore {
	return &ReportStore{dir: dir}
}

// Dir returns the reports directory
func (s *ReportStore) Dir() string {
	return s.dir
}

// EnsureDir creates the reports directory if needed. Safe for concurrent callers.
func (s *ReportStore) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create reports dir %s: %w", s.dir, err)
	}
	return nil
}

// NewArtifactName returns the on-disk file path and the client-facing file
// name for a report created at now. The UUID token keeps two jobs in the same
// millisecond apart.
func (s *ReportStore) NewArtifactName(now time.Time) (path, downloadName string) {
	stamp := fmt.Sprintf("%d", now.UnixMilli())
	path = filepath.Join(s.dir, reportPrefix+stamp+"_"+uuid.NewString()+reportExt)
	downloadName = reportPrefix + stamp + reportExt
	return path, downloadName
}

// Create opens a new report file for writing. It fails if the file exists.
func (s *ReportStore) Create(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create report file: %w", err)
	}
	return f, nil
}

// Open opens a finished report for sending and returns its size
func (s *ReportStore) Open(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open report file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("stat report file: %w", err)
	}
	return f, info.Size(), nil
}

// Remove deletes a report file; a file that is already gone is not an error
func (s *ReportStore) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// SweepStale deletes report files older than maxAge, such as those left
// behind by a crash. It returns how many files were removed.
func (s *ReportStore) SweepStale(now time.Time, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read reports dir: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, reportPrefix) || !strings.HasSuffix(name, reportExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if err := s.Remove(filepath.Join(s.dir, name)); err == nil {
			removed++
		}
	}
	return removed, nil
}
