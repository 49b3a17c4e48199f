package report

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/guimove/ricoverage/internal/model"
)

// MarkdownReporter outputs GitHub-flavored markdown tables.
type MarkdownReporter struct {
	w io.Writer
}

var mdEscaper = strings.NewReplacer("|", `\|`, "\n", " ")

func mdRow(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = mdEscaper.Replace(c)
	}
	return "| " + strings.Join(escaped, " | ") + " |"
}

func (r *MarkdownReporter) Report(ctx context.Context, result *model.AnalysisResult, meta ReportMeta) error {
	var b strings.Builder

	title := meta.Title
	if title == "" {
		title = "RI Coverage Report"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "- Run: `%s`\n", result.RunID)
	fmt.Fprintf(&b, "- Generated: %s\n", result.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "- Service: %s\n", result.ServiceType)
	if meta.Start != "" {
		fmt.Fprintf(&b, "- Period: %s to %s (%d days)\n", meta.Start, meta.End, result.Days)
	}
	for _, src := range meta.Sources {
		fmt.Fprintf(&b, "- Source: `%s`\n", src)
	}

	for _, s := range buildSections(result) {
		fmt.Fprintf(&b, "\n## %s\n\n", s.Title)
		if len(s.Rows) > 0 {
			b.WriteString(mdRow(s.Headers) + "\n")
			sep := make([]string, len(s.Headers))
			for i := range sep {
				sep[i] = "---"
			}
			b.WriteString("|" + strings.Join(sep, "|") + "|\n")
			for _, row := range s.Rows {
				b.WriteString(mdRow(row) + "\n")
			}
			if len(s.Notes) > 0 {
				b.WriteString("\n")
			}
		}
		for _, n := range s.Notes {
			fmt.Fprintf(&b, "%s\n", n)
		}
	}

	if _, err := io.WriteString(r.w, b.String()); err != nil {
		return fmt.Errorf("writing markdown: %w", err)
	}
	return nil
}
