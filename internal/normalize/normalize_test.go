package normalize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guimove/ricoverage/internal/model"
)

var amountCols = []string{
	model.ColRegion, model.ColEngine, model.ColInstanceClass,
	model.ColCoveredAmount, model.ColTotalAmount,
}

var hoursCols = []string{
	model.ColRegion, model.ColEngine, model.ColInstanceClass,
	model.ColRunningHours, model.ColAverageCoverage, model.ColDeploymentOption,
}

func coverageRow(line int, region, engine, class, covered, total string) model.CoverageRow {
	return model.CoverageRow{
		RowIdentity:   model.RowIdentity{Line: line, Region: region, Engine: engine, InstanceClass: class},
		CoveredAmount: covered,
		TotalAmount:   total,
	}
}

func coverageDataset(cols []string, rows ...model.CoverageRow) *model.Dataset {
	ds := &model.Dataset{Kind: model.ReportCoverage, Columns: cols}
	for _, r := range rows {
		ds.Rows = append(ds.Rows, r)
	}
	return ds
}

func TestCheckSchema(t *testing.T) {
	tests := []struct {
		name    string
		ds      *model.Dataset
		kind    model.ReportKind
		missing []string
	}{
		{"amount shape", &model.Dataset{Kind: model.ReportCoverage, Columns: amountCols}, model.ReportCoverage, nil},
		{"hours shape", &model.Dataset{Kind: model.ReportCoverage, Columns: hoursCols}, model.ReportCoverage, nil},
		{
			"missing total",
			&model.Dataset{Kind: model.ReportCoverage, Columns: []string{model.ColRegion, model.ColEngine, model.ColInstanceClass, model.ColCoveredAmount}},
			model.ReportCoverage,
			[]string{model.ColTotalAmount},
		},
		{
			"missing identity",
			&model.Dataset{Kind: model.ReportCoverage, Columns: []string{model.ColCoveredAmount, model.ColTotalAmount}},
			model.ReportCoverage,
			[]string{model.ColRegion, model.ColEngine, model.ColInstanceClass},
		},
		{
			"utilization missing pct",
			&model.Dataset{Kind: model.ReportUtilization, Columns: []string{
				model.ColRegion, model.ColEngine, model.ColInstanceClass, model.ColOnDemandEquivalentCost, model.ColRICost,
			}},
			model.ReportUtilization,
			[]string{model.ColUtilizationPct},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSchema(tt.ds, tt.kind)
			if tt.missing == nil {
				assert.NoError(t, err)
				return
			}
			var serr *SchemaError
			require.True(t, errors.As(err, &serr), "got %v", err)
			assert.Equal(t, tt.missing, serr.Missing)
		})
	}
}

func TestCheckSchema_WrongKind(t *testing.T) {
	ds := &model.Dataset{Kind: model.ReportUtilization, Columns: amountCols}
	var serr *SchemaError
	assert.True(t, errors.As(CheckSchema(ds, model.ReportCoverage), &serr))
	assert.True(t, errors.As(CheckSchema(nil, model.ReportCoverage), &serr))
}

func TestUsageRows_SizeRatio(t *testing.T) {
	ds := coverageDataset(amountCols,
		coverageRow(2, "US East (N. Virginia)", "Aurora PostgreSQL", "db.r6g.2xlarge", "0", "10"),
	)

	records, diags, err := UsageRows(ds, Options{})
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, records, 1)

	assert.Equal(t, model.GroupKey{
		RegionCode:       "us-east-1",
		Engine:           "Aurora PostgreSQL",
		BaseInstanceSize: "db.r6g.large",
	}, records[0].Key)
	assert.Equal(t, 40.0, records[0].TotalAmount)
	assert.Equal(t, 0.0, records[0].CoveredAmount)
}

func TestUsageRows_NonFlexibleEngine(t *testing.T) {
	ds := coverageDataset(amountCols,
		coverageRow(2, "us-east-1", "SQL Server", "db.r5.2xlarge", "1", "2"),
	)

	records, _, err := UsageRows(ds, Options{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "db.r5.2xlarge", records[0].Key.BaseInstanceSize)
	assert.Equal(t, 2.0, records[0].TotalAmount)

	records, _, err = UsageRows(ds, Options{NormalizeAllEngines: true})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "db.r5.large", records[0].Key.BaseInstanceSize)
	assert.Equal(t, 8.0, records[0].TotalAmount)
}

func TestUsageRows_Diagnostics(t *testing.T) {
	ds := coverageDataset(amountCols,
		coverageRow(2, "Moon (Base)", "MySQL", "db.m5.large", "1", "2"),
		coverageRow(3, "us-east-1", "MySQL", "db.m5.gigantic", "1", "2"),
		coverageRow(4, "us-east-1", "MySQL", "db.m5.large", "", "2"),
		coverageRow(5, "us-east-1", "MySQL", "db.m5.large", "2.0000000001", "2"),
		coverageRow(6, "us-east-1", "MySQL", "db.m5.large", "-1", "2"),
		coverageRow(7, "", "MySQL", "db.m5.large", "1", "2"),
		coverageRow(8, "us-east-1", "MySQL", "db.m5.large", "NaN", "2"),
		coverageRow(9, "us-east-1", "MySQL", "db.m5.large", "1", "Inf"),
		coverageRow(10, "us-east-1", "MySQL", "db.m5.large", "1", "+Inf"),
	)

	records, diags, err := UsageRows(ds, Options{})
	require.NoError(t, err, "malformed rows never abort the run")

	// line 2 kept with pass-through region, line 5 kept clamped
	require.Len(t, records, 2)
	assert.Equal(t, "Moon (Base)", records[0].Key.RegionCode)
	assert.Equal(t, records[1].TotalAmount, records[1].CoveredAmount)

	byLine := make(map[int]model.DiagnosticKind)
	for _, d := range diags {
		byLine[d.Line] = d.Kind
		assert.Equal(t, model.ReportCoverage, d.Report)
	}
	assert.Equal(t, map[int]model.DiagnosticKind{
		2:  model.DiagUnknownRegion,
		3:  model.DiagUnrecognizedSize,
		4:  model.DiagDroppedRow,
		5:  model.DiagClampedCovered,
		6:  model.DiagDroppedRow,
		7:  model.DiagDroppedRow,
		8:  model.DiagDroppedRow,
		9:  model.DiagDroppedRow,
		10: model.DiagDroppedRow,
	}, byLine)
}

func TestUsageRows_RunningHours(t *testing.T) {
	row := func(line int, hours, avg, deployment string) model.CoverageRow {
		return model.CoverageRow{
			RowIdentity:      model.RowIdentity{Line: line, Region: "Europe (Ireland)", Engine: "MySQL", InstanceClass: "db.r5.xlarge"},
			RunningHours:     hours,
			AverageCoverage:  avg,
			DeploymentOption: deployment,
		}
	}
	ds := coverageDataset(hoursCols,
		row(2, "720", "0.5", "Single-AZ"),
		row(3, "720", "50%", "Multi-AZ"),
		row(4, "1,440", "100", "Single-AZ"),
	)

	records, diags, err := UsageRows(ds, Options{Days: 30})
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, records, 3)

	// 720h over 30 days = 1 instance, xlarge = 2 base units
	assert.InDelta(t, 2.0, records[0].TotalAmount, 1e-9)
	assert.InDelta(t, 1.0, records[0].CoveredAmount, 1e-9)

	assert.InDelta(t, 4.0, records[1].TotalAmount, 1e-9)
	assert.InDelta(t, 2.0, records[1].CoveredAmount, 1e-9)

	assert.InDelta(t, 4.0, records[2].TotalAmount, 1e-9)
	assert.InDelta(t, 4.0, records[2].CoveredAmount, 1e-9)
}

func TestUsageRows_RunningHoursNeedsDays(t *testing.T) {
	ds := coverageDataset(hoursCols)
	_, _, err := UsageRows(ds, Options{})
	assert.ErrorIs(t, err, ErrDaysRequired)
}

func TestUsageRows_CoveredNeverExceedsTotal(t *testing.T) {
	ds := coverageDataset(amountCols,
		coverageRow(2, "us-east-1", "MySQL", "db.m5.large", "3", "2"),
		coverageRow(3, "us-east-1", "MySQL", "db.m5.xlarge", "0.3", "0.1"),
	)
	records, _, err := UsageRows(ds, Options{})
	require.NoError(t, err)
	for _, r := range records {
		assert.GreaterOrEqual(t, r.CoveredAmount, 0.0)
		assert.LessOrEqual(t, r.CoveredAmount, r.TotalAmount)
	}
}

func TestCostRows_Absent(t *testing.T) {
	report, diags, err := CostRows(nil, Options{})
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.Nil(t, diags)
}

func TestCostRows_Utilization(t *testing.T) {
	ds := &model.Dataset{
		Kind: model.ReportUtilization,
		Columns: []string{
			model.ColRegion, model.ColEngine, model.ColInstanceClass,
			model.ColOnDemandEquivalentCost, model.ColRICost, model.ColUtilizationPct,
		},
		Rows: []model.RawRow{
			model.UtilizationRow{
				RowIdentity:            model.RowIdentity{Line: 2, Region: "US West (Oregon)", Engine: "PostgreSQL", InstanceClass: "db.m6g.xlarge"},
				OnDemandEquivalentCost: "$1,234.50",
				RICost:                 "800",
				UtilizationPct:         "97.5%",
			},
			model.UtilizationRow{
				RowIdentity:            model.RowIdentity{Line: 3, Region: "us-west-2", Engine: "PostgreSQL", InstanceClass: "db.m6g.large"},
				OnDemandEquivalentCost: "abc",
				RICost:                 "1",
			},
		},
	}

	report, diags, err := CostRows(ds, Options{Days: 30})
	require.NoError(t, err)
	require.NotNil(t, report)
	require.Len(t, report.Records, 1)
	require.Len(t, diags, 1)
	assert.Equal(t, 3, diags[0].Line)

	rec := report.Records[0]
	assert.Equal(t, "us-west-2", rec.Key.RegionCode)
	assert.Equal(t, "db.m6g.large", rec.Key.BaseInstanceSize)
	assert.Equal(t, "1234.5", rec.OnDemandEquivalentCost.String())
	assert.Equal(t, "800", rec.RICost.String())
	require.True(t, rec.UtilizationPct.Valid)
	assert.Equal(t, "97.5", rec.UtilizationPct.Decimal.String())
}

func TestCostRows_Recommendation(t *testing.T) {
	ds := &model.Dataset{
		Kind: model.ReportRecommendation,
		Columns: []string{
			model.ColRegion, model.ColEngine, model.ColInstanceClass,
			model.ColRecommendedCount, model.ColEstimatedSavings, model.ColTerm, model.ColPaymentOption,
			model.ColUpfrontCost, model.ColRecurringMonthlyCost,
		},
		Rows: []model.RawRow{
			model.RecommendationRow{
				RowIdentity:          model.RowIdentity{Line: 2, Region: "us-east-1", Engine: "Aurora PostgreSQL", InstanceClass: "db.r6g.2xlarge"},
				RecommendedCount:     "3",
				EstimatedSavings:     "100",
				Term:                 "1 year",
				PaymentOption:        "Partial upfront",
				UpfrontCost:          "1200",
				RecurringMonthlyCost: "50",
			},
		},
	}

	report, diags, err := CostRows(ds, Options{Days: 30})
	require.NoError(t, err)
	assert.Empty(t, diags)
	require.Len(t, report.Records, 1)

	rec := report.Records[0]
	assert.Equal(t, "12", rec.RecommendedUnits.String(), "3 x 2xlarge = 12 large units")
	require.True(t, rec.UncoveredOnDemandCost.Valid)

	// (1200/12 + 50 + 100) * 12/365 * 30
	got, _ := rec.UncoveredOnDemandCost.Decimal.Float64()
	assert.InDelta(t, 246.5753, got, 0.001)
}

func TestCostRows_WrongKind(t *testing.T) {
	ds := &model.Dataset{Kind: model.ReportCoverage, Columns: amountCols}
	_, _, err := CostRows(ds, Options{})
	var serr *SchemaError
	assert.True(t, errors.As(err, &serr))
}

func TestParseTermYears(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"1 year", 1, true},
		{"3 Years", 3, true},
		{"3", 3, true},
		{"1yr", 1, true},
		{"ONE_YEAR", 1, true},
		{"THREE_YEARS", 3, true},
		{"", 0, false},
		{"forever", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseTermYears(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseTermYears(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseFraction(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"0.85", 0.85},
		{"85%", 0.85},
		{"85", 0.85},
		{"1", 1},
		{"1%", 0.01},
		{"0", 0},
	}
	for _, tt := range tests {
		got, err := parseFraction(tt.in)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-12, tt.in)
	}

	for _, in := range []string{"", "NaN", "Inf", "-Inf", "NaN%", "abc"} {
		_, err := parseFraction(in)
		assert.Error(t, err, in)
	}
}

func TestCostRows_UncoveredColumns(t *testing.T) {
	row := model.RecommendationRow{
		RowIdentity:      model.RowIdentity{Line: 2, Region: "us-east-1", Engine: "Aurora MySQL", InstanceClass: "db.r6g.large"},
		RecommendedCount: "1",
		EstimatedSavings: "10",
		Term:             "1 year",
		PaymentOption:    "No upfront",
	}
	base := []string{
		model.ColRegion, model.ColEngine, model.ColInstanceClass,
		model.ColRecommendedCount, model.ColEstimatedSavings, model.ColTerm, model.ColPaymentOption,
	}

	report, _, err := CostRows(&model.Dataset{Kind: model.ReportRecommendation, Columns: base, Rows: []model.RawRow{row}}, Options{Days: 30})
	require.NoError(t, err)
	assert.False(t, report.HasUncoveredCost)
	require.Len(t, report.Records, 1)
	assert.False(t, report.Records[0].UncoveredOnDemandCost.Valid)

	withCols := append(append([]string{}, base...), model.ColUpfrontCost, model.ColRecurringMonthlyCost)
	report, _, err = CostRows(&model.Dataset{Kind: model.ReportRecommendation, Columns: withCols, Rows: []model.RawRow{row}}, Options{Days: 30})
	require.NoError(t, err)
	assert.True(t, report.HasUncoveredCost)

	report, _, err = CostRows(&model.Dataset{Kind: model.ReportRecommendation, Columns: withCols, Rows: []model.RawRow{row}}, Options{})
	require.NoError(t, err)
	assert.False(t, report.HasUncoveredCost, "no analysis period")
}
