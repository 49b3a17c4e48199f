package model

// ReportKind identifies the shape of an input report.
type ReportKind string

const (
	ReportCoverage       ReportKind = "coverage"
	ReportUtilization    ReportKind = "utilization"
	ReportRecommendation ReportKind = "recommendation"
)

// Canonical column names. Ingestion maps vendor headers onto these.
const (
	ColRegion        = "region"
	ColEngine        = "engine"
	ColInstanceClass = "instance_class"

	// coverage, pre-computed shape
	ColCoveredAmount = "ri_covered_amount"
	ColTotalAmount   = "total_amount"

	// coverage, Cost Explorer export shape
	ColRunningHours     = "total_running_hours"
	ColAverageCoverage  = "average_coverage"
	ColDeploymentOption = "deployment_option"

	// utilization
	ColOnDemandEquivalentCost = "on_demand_equivalent_cost"
	ColRICost                 = "ri_cost"
	ColUtilizationPct         = "utilization_pct"

	// recommendation
	ColRecommendedCount     = "recommended_count"
	ColEstimatedSavings     = "estimated_savings"
	ColTerm                 = "term"
	ColPaymentOption        = "payment_option"
	ColUpfrontCost          = "upfront_cost"
	ColRecurringMonthlyCost = "recurring_monthly_cost"
)

// Dataset is one materialized report. A nil *Dataset means the report was not
// provided at all, which is different from a report with zero rows.
type Dataset struct {
	Kind    ReportKind `json:"kind"`
	Source  string     `json:"source"`
	Columns []string   `json:"columns"`
	Rows    []RawRow   `json:"-"`
}

// HasColumn reports whether the dataset header contains the canonical column.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// RawRow is a single input row. Concrete types are CoverageRow,
// UtilizationRow and RecommendationRow; consumers switch on the type.
type RawRow interface {
	Kind() ReportKind
	Identity() RowIdentity
}

// RowIdentity holds the fields every report kind carries.
type RowIdentity struct {
	Line          int    // 1-based source line, header is line 1
	Region        string // display name, e.g. "US East (N. Virginia)"
	Engine        string // e.g. "Aurora PostgreSQL"
	InstanceClass string // e.g. "db.r6g.2xlarge"
}

// CoverageRow is a row of an RI coverage report. Either the amount fields or
// the running-hours fields are populated, depending on the export shape.
type CoverageRow struct {
	RowIdentity
	CoveredAmount string
	TotalAmount   string

	RunningHours     string
	AverageCoverage  string
	DeploymentOption string
}

func (r CoverageRow) Kind() ReportKind      { return ReportCoverage }
func (r CoverageRow) Identity() RowIdentity { return r.RowIdentity }

// UtilizationRow is a row of an RI utilization report.
type UtilizationRow struct {
	RowIdentity
	OnDemandEquivalentCost string
	RICost                 string
	UtilizationPct         string
}

func (r UtilizationRow) Kind() ReportKind      { return ReportUtilization }
func (r UtilizationRow) Identity() RowIdentity { return r.RowIdentity }

// RecommendationRow is a row of an RI purchase recommendation report.
type RecommendationRow struct {
	RowIdentity
	RecommendedCount     string
	EstimatedSavings     string
	Term                 string
	PaymentOption        string
	UpfrontCost          string
	RecurringMonthlyCost string
}

func (r RecommendationRow) Kind() ReportKind      { return ReportRecommendation }
func (r RecommendationRow) Identity() RowIdentity { return r.RowIdentity }
