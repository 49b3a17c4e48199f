package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guimove/ricoverage/internal/model"
)

func sampleResult() *model.AnalysisResult {
	key := model.GroupKey{RegionCode: "us-east-1", Engine: "Aurora MySQL", BaseInstanceSize: "db.r6g.large"}
	idle := model.GroupKey{RegionCode: "eu-west-1", Engine: "MySQL", BaseInstanceSize: "db.m5.large"}
	cov := model.NewCoverageResult(key, 5, 20)
	return &model.AnalysisResult{
		GeneratedAt: time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		TargetPct:   80,
		Overall:     cov,
		Coverage:    []model.CoverageResult{cov, model.NewCoverageResult(idle, 0, 0)},
		Recommendations: []model.RecommendationResult{
			{Key: key, RequiredChange: 11, Action: model.ActionPurchase},
		},
		CostEntries: []model.CostCoverageEntry{
			{Key: key, CostCoveragePct: decimal.NewNullDecimal(decimal.RequireFromString("75")),
				UncoveredOnDemandCost: decimal.NewNullDecimal(decimal.RequireFromString("300"))},
		},
		Diagnostics: []model.Diagnostic{
			{Kind: model.DiagUnknownRegion}, {Kind: model.DiagUnknownRegion}, {Kind: model.DiagDroppedRow},
		},
	}
}

func TestExporter_Observe(t *testing.T) {
	e := NewExporter()
	e.Observe(sampleResult())

	l := []string{"us-east-1", "Aurora MySQL", "db.r6g.large"}
	assert.Equal(t, 25.0, testutil.ToFloat64(e.coveragePct.WithLabelValues(l...)))
	assert.Equal(t, 20.0, testutil.ToFloat64(e.totalUnits.WithLabelValues(l...)))
	assert.Equal(t, 11.0, testutil.ToFloat64(e.requiredChange.WithLabelValues(l...)))
	assert.Equal(t, 75.0, testutil.ToFloat64(e.costCoveragePct.WithLabelValues(l...)))
	assert.Equal(t, 300.0, testutil.ToFloat64(e.uncoveredCost.WithLabelValues(l...)))
	assert.Equal(t, 2.0, testutil.ToFloat64(e.diagnostics.WithLabelValues("unknown-region")))
	assert.Equal(t, 80.0, testutil.ToFloat64(e.targetPct))
	assert.Equal(t, 11.0, testutil.ToFloat64(e.purchaseTotal))

	// the idle group has totals but no percentage series
	assert.Equal(t, 1, testutil.CollectAndCount(e.coveragePct))
	assert.Equal(t, 2, testutil.CollectAndCount(e.totalUnits))
}

func TestExporter_WriteTextfile(t *testing.T) {
	e := NewExporter()
	e.Observe(sampleResult())

	path := filepath.Join(t.TempDir(), "ricoverage.prom")
	require.NoError(t, e.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, "ricoverage_overall_coverage_percent 25"), text)
	assert.True(t, strings.Contains(text, `ricoverage_diagnostics{kind="dropped-row"} 1`), text)
}

func TestExporter_Gather(t *testing.T) {
	e := NewExporter()
	e.Observe(&model.AnalysisResult{TargetPct: 50})

	mfs, err := e.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["ricoverage_target_coverage_percent"])
	assert.False(t, names["ricoverage_coverage_percent"], "empty vectors are not gathered")
}
