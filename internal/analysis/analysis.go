// Package analysis runs the full coverage pipeline over materialized reports
// and packages the outcome into one AnalysisResult.
package analysis

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/guimove/ricoverage/internal/coverage"
	"github.com/guimove/ricoverage/internal/model"
	"github.com/guimove/ricoverage/internal/normalize"
	"github.com/guimove/ricoverage/internal/recommend"
	"github.com/guimove/ricoverage/internal/reconcile"
)

var (
	ErrNoInput       = errors.New("no report provided")
	ErrInvalidTarget = errors.New("target coverage must be between 0 and 100")
)

// Input holds the reports of one run. Any of them may be nil.
type Input struct {
	Coverage        *model.Dataset
	Utilization     *model.Dataset
	Recommendations *model.Dataset
}

// Options configures a run.
type Options struct {
	TargetPct           float64
	ServiceType         string
	Days                int
	NormalizeAllEngines bool

	// Aggregation workers; 0 or 1 aggregates serially
	Parallelism int

	// Optional on-demand prices used to value purchase gaps
	Prices recommend.PriceBook

	// Clock, defaults to time.Now
	Now func() time.Time
}

// Parts are the computed pieces Assemble packages.
type Parts struct {
	Groups          map[model.GroupKey]model.CoverageGroup
	Recommendations []model.RecommendationResult
	CostEntries     []model.CostCoverageEntry
	HasCost         bool
	Diagnostics     []model.Diagnostic
}

// Run normalizes, aggregates, computes coverage, recommends and reconciles.
// Only schema-level problems return an error; row problems end up in the
// result's diagnostics.
func Run(in Input, opts Options) (*model.AnalysisResult, error) {
	if in.Coverage == nil && in.Utilization == nil && in.Recommendations == nil {
		return nil, ErrNoInput
	}
	if opts.TargetPct < 0 || opts.TargetPct > 100 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidTarget, opts.TargetPct)
	}

	nopts := normalize.Options{Days: opts.Days, NormalizeAllEngines: opts.NormalizeAllEngines}
	var parts Parts

	// Coverage
	if in.Coverage != nil {
		records, diags, err := normalize.UsageRows(in.Coverage, nopts)
		if err != nil {
			return nil, fmt.Errorf("normalizing coverage: %w", err)
		}
		parts.Diagnostics = append(parts.Diagnostics, diags...)

		agg := &coverage.Aggregator{Parallelism: opts.Parallelism}
		parts.Groups = agg.Aggregate(records)
		parts.Recommendations = recommend.All(coverage.Compute(parts.Groups), opts.TargetPct, opts.Prices)
	}

	// Cost
	util, diags, err := normalize.CostRows(in.Utilization, nopts)
	if err != nil {
		return nil, fmt.Errorf("normalizing utilization: %w", err)
	}
	parts.Diagnostics = append(parts.Diagnostics, diags...)

	recs, diags, err := normalize.CostRows(in.Recommendations, nopts)
	if err != nil {
		return nil, fmt.Errorf("normalizing recommendations: %w", err)
	}
	parts.Diagnostics = append(parts.Diagnostics, diags...)

	if util != nil || recs != nil {
		parts.HasCost = true
		parts.CostEntries = reconcile.Reconcile(util, recs)
	}

	return Assemble(opts, parts), nil
}

// Assemble packages already computed parts into an AnalysisResult.
func Assemble(opts Options, parts Parts) *model.AnalysisResult {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	result := &model.AnalysisResult{
		RunID:           uuid.NewString(),
		GeneratedAt:     now().UTC(),
		TargetPct:       opts.TargetPct,
		ServiceType:     opts.ServiceType,
		Days:            opts.Days,
		Overall:         coverage.OverallResult(parts.Groups),
		ByRegion:        coverage.RollUp(parts.Groups, coverage.ByRegion),
		ByEngine:        coverage.RollUp(parts.Groups, coverage.ByEngine),
		Coverage:        coverage.Compute(parts.Groups),
		Recommendations: parts.Recommendations,
		Diagnostics:     parts.Diagnostics,
	}
	if result.Recommendations == nil {
		result.Recommendations = []model.RecommendationResult{}
	}
	if result.Diagnostics == nil {
		result.Diagnostics = []model.Diagnostic{}
	}

	if parts.HasCost {
		result.CostEntries = parts.CostEntries
		summary := reconcile.Summarize(parts.CostEntries)
		result.CostSummary = &summary
	}
	return result
}
