package report

import (
	"context"
	"fmt"
	"html/template"
	"io"

	"github.com/guimove/ricoverage/internal/model"
)

// HTMLReporter outputs a standalone HTML page.
type HTMLReporter struct {
	w io.Writer
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 1em; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
th { background: #f0f0f0; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<ul>
<li>Run: <code>{{.Result.RunID}}</code></li>
<li>Generated: {{.Generated}}</li>
<li>Service: {{.Result.ServiceType}}</li>
{{- if .Meta.Start}}
<li>Period: {{.Meta.Start}} to {{.Meta.End}} ({{.Result.Days}} days)</li>
{{- end}}
{{- range .Meta.Sources}}
<li>Source: <code>{{.}}</code></li>
{{- end}}
</ul>
{{- range .Sections}}
<h2>{{.Title}}</h2>
{{- if .Rows}}
<table>
<tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr>
{{- range .Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
</table>
{{- end}}
{{- range .Notes}}
<p>{{.}}</p>
{{- end}}
{{- end}}
</body>
</html>
`))

type htmlData struct {
	Title     string
	Generated string
	Meta      ReportMeta
	Result    *model.AnalysisResult
	Sections  []section
}

func (r *HTMLReporter) Report(ctx context.Context, result *model.AnalysisResult, meta ReportMeta) error {
	title := meta.Title
	if title == "" {
		title = "RI Coverage Report"
	}
	data := htmlData{
		Title:     title,
		Generated: result.GeneratedAt.Format("2006-01-02 15:04:05 MST"),
		Meta:      meta,
		Result:    result,
		Sections:  buildSections(result),
	}
	if err := htmlTemplate.Execute(r.w, data); err != nil {
		return fmt.Errorf("rendering HTML report: %w", err)
	}
	return nil
}
