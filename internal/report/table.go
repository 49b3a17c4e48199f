package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/guimove/ricoverage/internal/model"
)

// TableReporter outputs the result as formatted terminal tables.
type TableReporter struct {
	w io.Writer
}

func (r *TableReporter) Report(ctx context.Context, result *model.AnalysisResult, meta ReportMeta) error {
	title := meta.Title
	if title == "" {
		title = "RI Coverage Report"
	}

	// Header
	fmt.Fprintf(r.w, "\n")
	fmt.Fprintf(r.w, "%s\n", title)
	fmt.Fprintf(r.w, "%s\n", strings.Repeat("=", 60))
	fmt.Fprintf(r.w, "Run:         %s\n", result.RunID)
	fmt.Fprintf(r.w, "Generated:   %s\n", result.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(r.w, "Service:     %s\n", result.ServiceType)
	if meta.Start != "" {
		fmt.Fprintf(r.w, "Period:      %s to %s (%d days)\n", meta.Start, meta.End, result.Days)
	} else if result.Days > 0 {
		fmt.Fprintf(r.w, "Period:      %d days\n", result.Days)
	}
	for _, src := range meta.Sources {
		fmt.Fprintf(r.w, "Source:      %s\n", src)
	}
	fmt.Fprintf(r.w, "%s\n", strings.Repeat("=", 60))

	for _, s := range buildSections(result) {
		fmt.Fprintf(r.w, "\n%s\n%s\n", s.Title, strings.Repeat("-", len(s.Title)))
		if len(s.Rows) > 0 {
			tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, strings.Join(s.Headers, "\t"))
			for _, row := range s.Rows {
				fmt.Fprintln(tw, strings.Join(row, "\t"))
			}
			if err := tw.Flush(); err != nil {
				return fmt.Errorf("writing table: %w", err)
			}
		} else if len(s.Notes) == 0 {
			fmt.Fprintf(r.w, "No data.\n")
		}
		for _, n := range s.Notes {
			fmt.Fprintf(r.w, "%s\n", n)
		}
	}

	fmt.Fprintf(r.w, "\n")
	return nil
}
