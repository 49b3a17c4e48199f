// Package ingest materializes RI reports into datasets of canonical columns.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/guimove/ricoverage/internal/model"
)

var (
	ErrNoHeader      = errors.New("report has no header row")
	ErrUnknownKind   = errors.New("unknown report kind")
	ErrSourceMissing = errors.New("report source not found")
)

// Source loads reports of a given kind.
type Source interface {
	// Load returns the report, or nil when this source has none of that kind.
	Load(ctx context.Context, kind model.ReportKind) (*model.Dataset, error)

	// Ping validates that the backend is reachable.
	Ping(ctx context.Context) error

	// BackendType names the backend, e.g. "csv".
	BackendType() string
}

// CSVSource reads reports from CSV files, one file per report kind.
type CSVSource struct {
	paths map[model.ReportKind]string
}

// NewCSVSource creates a source. Empty paths mean the report is not provided.
func NewCSVSource(paths map[model.ReportKind]string) *CSVSource {
	p := make(map[model.ReportKind]string, len(paths))
	for k, v := range paths {
		if v != "" {
			p[k] = v
		}
	}
	return &CSVSource{paths: p}
}

// Ping checks that every configured file exists.
func (s *CSVSource) Ping(ctx context.Context) error {
	for kind, path := range s.paths {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%s report %s: %w", kind, path, ErrSourceMissing)
		}
	}
	return nil
}

// BackendType returns "csv".
func (s *CSVSource) BackendType() string {
	return "csv"
}

// Load reads the file configured for kind.
func (s *CSVSource) Load(ctx context.Context, kind model.ReportKind) (*model.Dataset, error) {
	path, ok := s.paths[kind]
	if !ok {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s report: %w", kind, err)
	}
	defer f.Close()

	ds, err := ReadCSV(f, kind, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ds, nil
}

// StaticSource serves pre-built datasets. Used for tests and for reports
// fetched earlier in the same run.
type StaticSource struct {
	datasets map[model.ReportKind]*model.Dataset
}

// NewStaticSource creates a source from datasets keyed by kind.
func NewStaticSource(datasets map[model.ReportKind]*model.Dataset) *StaticSource {
	return &StaticSource{datasets: datasets}
}

func (s *StaticSource) Ping(ctx context.Context) error { return nil }

func (s *StaticSource) BackendType() string { return "static" }

func (s *StaticSource) Load(ctx context.Context, kind model.ReportKind) (*model.Dataset, error) {
	return s.datasets[kind], nil
}
