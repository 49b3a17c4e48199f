package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guimove/ricoverage/internal/model"
)

var (
	keyA = model.GroupKey{RegionCode: "us-east-1", Engine: "Aurora MySQL", BaseInstanceSize: "db.r6g.large"}
	keyB = model.GroupKey{RegionCode: "us-east-1", Engine: "SQL Server", BaseInstanceSize: "db.m5.xlarge"}
)

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func coverageResult() *model.AnalysisResult {
	a := model.NewCoverageResult(keyA, 5, 20)
	b := model.NewCoverageResult(keyB, 0, 0)
	overall := model.NewCoverageResult(model.GroupKey{}, 5, 20)
	return &model.AnalysisResult{
		RunID:       "run-1",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		TargetPct:   80,
		ServiceType: "RDS",
		Days:        31,
		Overall:     overall,
		ByRegion:    []model.CoverageResult{model.NewCoverageResult(model.GroupKey{RegionCode: "us-east-1"}, 5, 20)},
		ByEngine: []model.CoverageResult{
			model.NewCoverageResult(model.GroupKey{Engine: "Aurora MySQL"}, 5, 20),
			model.NewCoverageResult(model.GroupKey{Engine: "SQL Server"}, 0, 0),
		},
		Coverage: []model.CoverageResult{a, b},
		Recommendations: []model.RecommendationResult{{
			Key: keyA, CurrentCoveragePct: 25, Total: 20, Covered: 5, TargetCovered: 16,
			RequiredChange: 11, Action: model.ActionPurchase, GapMonthlyOnDemandCost: nd("2336"),
		}},
		Diagnostics: []model.Diagnostic{},
	}
}

func withCost(r *model.AnalysisResult) *model.AnalysisResult {
	r.CostEntries = []model.CostCoverageEntry{{
		Key: keyA, OnDemandEquivalentCost: nd("900"), RICost: nd("600"), UtilizationPct: nd("95.5"),
		Savings: nd("100"), RecommendedPurchaseCount: nd("2"), UncoveredOnDemandCost: nd("300"),
		CostCoveragePct: nd("75"),
	}}
	r.CostSummary = &model.CostSummary{
		Overall: model.CostRollUp{OnDemandEquivalentCost: nd("900"), UncoveredOnDemandCost: nd("300"), CostCoveragePct: nd("75")},
	}
	return r
}

func render(t *testing.T, format string, r *model.AnalysisResult) string {
	t.Helper()
	var buf bytes.Buffer
	meta := ReportMeta{Title: "RI Target Coverage Report", Sources: []string{"coverage.csv"}, Start: "2026-01-01", End: "2026-01-31"}
	require.NoError(t, NewReporter(format, &buf).Report(context.Background(), r, meta))
	return buf.String()
}

func TestTableReporter(t *testing.T) {
	out := render(t, "table", coverageResult())

	for _, want := range []string{
		"RI Target Coverage Report",
		"Period:      2026-01-01 to 2026-01-31 (31 days)",
		"Coverage by group",
		"25.00%",
		"no usage",
		"+11.00",
		"$2336.00",
		"Total to purchase: 11.00 base-size units",
		"Data quality warnings",
		"No data quality issues found.",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Cost coverage summary")
}

func TestTableReporter_Warnings(t *testing.T) {
	r := coverageResult()
	r.Diagnostics = []model.Diagnostic{
		{Kind: model.DiagUnknownRegion, Report: model.ReportCoverage, Line: 4, Message: `unknown region "Atlantis"`},
		{Kind: model.DiagUnknownRegion, Report: model.ReportCoverage, Line: 9, Message: `unknown region "Atlantis"`},
	}
	out := render(t, "table", r)

	assert.Contains(t, out, `unknown region "Atlantis"`)
	assert.Contains(t, out, "unknown-region: 2")
	assert.NotContains(t, out, "No data quality issues found.")
}

func TestTableReporter_CostOnly(t *testing.T) {
	r := withCost(&model.AnalysisResult{RunID: "run-2", Diagnostics: []model.Diagnostic{}})
	out := render(t, "table", r)

	assert.NotContains(t, out, "Overall coverage")
	assert.Contains(t, out, "Cost coverage summary")
	assert.Contains(t, out, "75.00%")
	assert.Contains(t, out, "$300.00")
}

func TestMarkdownReporter(t *testing.T) {
	r := withCost(coverageResult())
	r.Diagnostics = []model.Diagnostic{{Kind: model.DiagDroppedRow, Report: model.ReportUtilization, Message: "a|b"}}
	out := render(t, "markdown", r)

	assert.True(t, strings.HasPrefix(out, "# RI Target Coverage Report\n"))
	assert.Contains(t, out, "| Region | Engine | Base size | Total | Covered | Coverage |")
	assert.Contains(t, out, "|---|---|---|---|---|---|")
	assert.Contains(t, out, `a\|b`)
	assert.Contains(t, out, "## Cost coverage summary")
}

func TestHTMLReporter_Escapes(t *testing.T) {
	r := coverageResult()
	r.Diagnostics = []model.Diagnostic{{Kind: model.DiagDroppedRow, Report: model.ReportCoverage, Line: 2, Message: "<script>x</script>"}}
	out := render(t, "html", r)

	assert.Contains(t, out, "<h1>RI Target Coverage Report</h1>")
	assert.Contains(t, out, "<td>25.00%</td>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.NotContains(t, out, "<script>")
}

func TestCSVReporter(t *testing.T) {
	out := render(t, "csv", withCost(coverageResult()))

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, len(csvCoverageHeaders)+len(csvCostHeaders), len(records[0]))

	a := records[1]
	assert.Equal(t, []string{"us-east-1", "Aurora MySQL", "db.r6g.large", "20", "5", "25.00", "16", "11", "purchase", "2336"}, a[:10])
	assert.Equal(t, "75", a[len(a)-1])

	b := records[2]
	assert.Equal(t, "SQL Server", b[1])
	assert.Equal(t, "", b[5], "no usage renders as an empty cell")
	assert.Equal(t, "", b[len(b)-1])
}

func TestCSVReporter_NoCostColumns(t *testing.T) {
	out := render(t, "csv", coverageResult())
	header := strings.SplitN(out, "\n", 2)[0]
	assert.Equal(t, strings.Join(csvCoverageHeaders, ","), header)
}

func TestJSONReporter(t *testing.T) {
	out := render(t, "json", coverageResult())

	var decoded struct {
		Meta   ReportMeta `json:"meta"`
		Result struct {
			RunID    string `json:"run_id"`
			Coverage []struct {
				CoveragePct *float64 `json:"coverage_pct"`
			} `json:"coverage"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "RI Target Coverage Report", decoded.Meta.Title)
	assert.Equal(t, "run-1", decoded.Result.RunID)
	require.Len(t, decoded.Result.Coverage, 2)
	assert.Nil(t, decoded.Result.Coverage[1].CoveragePct)
}

func TestPrometheusReporter(t *testing.T) {
	out := render(t, "prometheus", withCost(coverageResult()))

	assert.Contains(t, out, "# TYPE ricoverage_coverage_percent gauge")
	assert.Contains(t, out, `ricoverage_coverage_percent{base_size="db.r6g.large",engine="Aurora MySQL",region="us-east-1"} 25`)
	assert.Contains(t, out, "ricoverage_target_coverage_percent 80")
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".md", Extension("markdown"))
	assert.Equal(t, ".prom", Extension("prometheus"))
	assert.Equal(t, ".txt", Extension("table"))
}
