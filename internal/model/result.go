package model

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// NoUsage is how a coverage percentage renders when a group has no demand.
const NoUsage = "no usage"

// AtTargetTolerance is the largest |required change| treated as on target.
const AtTargetTolerance = 0.01

// CoverageResult is the coverage of one group or roll-up.
type CoverageResult struct {
	Key     GroupKey `json:"key"`
	Total   float64  `json:"total_amount"`
	Covered float64  `json:"covered_amount"`

	// Nil when Total is zero
	CoveragePct *float64 `json:"coverage_pct"`
}

// HasUsage reports whether the group has any demand.
func (r CoverageResult) HasUsage() bool {
	return r.CoveragePct != nil
}

// CoverageString renders the percentage, or "no usage".
func (r CoverageResult) CoverageString() string {
	if r.CoveragePct == nil {
		return NoUsage
	}
	return fmt.Sprintf("%.2f%%", *r.CoveragePct)
}

// NewCoverageResult computes the percentage from the sums.
func NewCoverageResult(key GroupKey, covered, total float64) CoverageResult {
	r := CoverageResult{Key: key, Total: total, Covered: covered}
	if total > 0 {
		pct := covered / total * 100
		r.CoveragePct = &pct
	}
	return r
}

// Action describes the direction of a required change.
type Action string

const (
	ActionPurchase Action = "purchase"
	ActionReduce   Action = "reduce"
	ActionAtTarget Action = "at-target"
)

// ActionFor classifies a signed required change.
func ActionFor(change float64) Action {
	switch {
	case math.Abs(change) < AtTargetTolerance:
		return ActionAtTarget
	case change > 0:
		return ActionPurchase
	default:
		return ActionReduce
	}
}

// RecommendationResult is the gap between current and target coverage for
// one group, in base-size-equivalent units.
type RecommendationResult struct {
	Key                GroupKey `json:"key"`
	CurrentCoveragePct float64  `json:"current_coverage_pct"`
	Total              float64  `json:"total_amount"`
	Covered            float64  `json:"covered_amount"`
	TargetCovered      float64  `json:"target_covered_amount"`

	// Positive = purchase, negative = eligible for non-renewal
	RequiredChange float64 `json:"required_change"`
	Action         Action  `json:"action"`

	// Monthly on-demand cost of a positive gap; needs a price book
	GapMonthlyOnDemandCost decimal.NullDecimal `json:"gap_monthly_on_demand_cost"`
}

// CostCoverageEntry merges utilization and recommendation figures for one
// group. Fields whose source report was not provided are invalid NullDecimals.
type CostCoverageEntry struct {
	Key GroupKey `json:"key"`

	// From the utilization report
	OnDemandEquivalentCost decimal.NullDecimal `json:"on_demand_equivalent_cost"`
	RICost                 decimal.NullDecimal `json:"ri_cost"`
	UtilizationPct         decimal.NullDecimal `json:"utilization_pct"`

	// From the recommendation report
	Savings                  decimal.NullDecimal `json:"savings"`
	RecommendedPurchaseCount decimal.NullDecimal `json:"recommended_purchase_count"` // base-size units
	UncoveredOnDemandCost    decimal.NullDecimal `json:"uncovered_on_demand_cost"`

	// Needs both
	CostCoveragePct decimal.NullDecimal `json:"cost_coverage_pct"`
}

// CostRollUp sums cost coverage entries for one roll-up key.
type CostRollUp struct {
	Key                    GroupKey            `json:"key"`
	OnDemandEquivalentCost decimal.NullDecimal `json:"on_demand_equivalent_cost"`
	UncoveredOnDemandCost  decimal.NullDecimal `json:"uncovered_on_demand_cost"`
	CostCoveragePct        decimal.NullDecimal `json:"cost_coverage_pct"`
}

// CostSummary is the overall, per-region and per-engine cost roll-up.
type CostSummary struct {
	Overall  CostRollUp   `json:"overall"`
	ByRegion []CostRollUp `json:"by_region"`
	ByEngine []CostRollUp `json:"by_engine"`
}

// AnalysisResult is the output of one analysis run. It is built once and
// not modified afterwards.
type AnalysisResult struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`

	// Inputs
	TargetPct   float64 `json:"target_pct"`
	ServiceType string  `json:"service_type"`
	Days        int     `json:"days,omitempty"`

	// Coverage
	Overall  CoverageResult   `json:"overall"`
	ByRegion []CoverageResult `json:"by_region"`
	ByEngine []CoverageResult `json:"by_engine"`
	Coverage []CoverageResult `json:"coverage"`

	Recommendations []RecommendationResult `json:"recommendations"`

	// Cost, nil when neither cost report was provided
	CostEntries []CostCoverageEntry `json:"cost_entries,omitempty"`
	CostSummary *CostSummary        `json:"cost_summary,omitempty"`

	Diagnostics []Diagnostic `json:"diagnostics"`
}

// HasCost reports whether cost data was part of the run.
func (r *AnalysisResult) HasCost() bool {
	return r.CostSummary != nil
}

// HasWarnings reports whether any recoverable issue was recorded.
func (r *AnalysisResult) HasWarnings() bool {
	return len(r.Diagnostics) > 0
}

// PurchaseTotal sums the positive required changes.
func (r *AnalysisResult) PurchaseTotal() float64 {
	var sum float64
	for _, rec := range r.Recommendations {
		if rec.Action == ActionPurchase {
			sum += rec.RequiredChange
		}
	}
	return sum
}
