package report

import (
	"context"
	"io"

	"github.com/guimove/ricoverage/internal/model"
)

// Reporter formats and writes an analysis result to an output destination.
type Reporter interface {
	Report(ctx context.Context, result *model.AnalysisResult, meta ReportMeta) error
}

// ReportMeta contains contextual metadata for the report.
type ReportMeta struct {
	Title   string   `json:"title"`
	Sources []string `json:"sources,omitempty"` // input files or backends
	Start   string   `json:"start,omitempty"`   // YYYY-MM-DD
	End     string   `json:"end,omitempty"`
}

// Extension returns the file extension used when a report is written to disk.
func Extension(format string) string {
	switch format {
	case "json":
		return ".json"
	case "markdown":
		return ".md"
	case "html":
		return ".html"
	case "csv":
		return ".csv"
	case "prometheus":
		return ".prom"
	default:
		return ".txt"
	}
}

// NewReporter creates a reporter for the given format writing to w.
func NewReporter(format string, w io.Writer) Reporter {
	switch format {
	case "json":
		return &JSONReporter{w: w}
	case "markdown":
		return &MarkdownReporter{w: w}
	case "html":
		return &HTMLReporter{w: w}
	case "csv":
		return &CSVReporter{w: w}
	case "prometheus":
		return &PrometheusReporter{w: w}
	default:
		return &TableReporter{w: w}
	}
}
