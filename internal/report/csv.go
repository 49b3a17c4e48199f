package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/guimove/ricoverage/internal/model"
)

// CSVReporter outputs one row per group, joining coverage, target gap and
// cost figures on the group key. Missing values are empty cells.
type CSVReporter struct {
	w io.Writer
}

var csvCoverageHeaders = []string{
	"region", "engine", "base_size", "total_amount", "covered_amount", "coverage_pct",
	"target_covered_amount", "required_change", "action", "gap_monthly_on_demand_cost",
}

var csvCostHeaders = []string{
	"on_demand_equivalent_cost", "ri_cost", "utilization_pct", "savings",
	"recommended_purchase_count", "uncovered_on_demand_cost", "cost_coverage_pct",
}

type csvGroup struct {
	coverage *model.CoverageResult
	rec      *model.RecommendationResult
	cost     *model.CostCoverageEntry
}

func nullCell(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func floatCell(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func (r *CSVReporter) Report(ctx context.Context, result *model.AnalysisResult, meta ReportMeta) error {
	groups := make(map[model.GroupKey]*csvGroup)
	get := func(k model.GroupKey) *csvGroup {
		g, ok := groups[k]
		if !ok {
			g = &csvGroup{}
			groups[k] = g
		}
		return g
	}
	for i := range result.Coverage {
		get(result.Coverage[i].Key).coverage = &result.Coverage[i]
	}
	for i := range result.Recommendations {
		get(result.Recommendations[i].Key).rec = &result.Recommendations[i]
	}
	for i := range result.CostEntries {
		get(result.CostEntries[i].Key).cost = &result.CostEntries[i]
	}

	keys := make([]model.GroupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	cw := csv.NewWriter(r.w)
	headers := csvCoverageHeaders
	if result.HasCost() {
		headers = append(append([]string{}, csvCoverageHeaders...), csvCostHeaders...)
	}
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	for _, k := range keys {
		g := groups[k]
		row := []string{k.RegionCode, k.Engine, k.BaseInstanceSize, "", "", "", "", "", "", ""}
		if c := g.coverage; c != nil {
			row[3], row[4] = floatCell(c.Total), floatCell(c.Covered)
			if c.HasUsage() {
				row[5] = strconv.FormatFloat(*c.CoveragePct, 'f', 2, 64)
			}
		}
		if rec := g.rec; rec != nil {
			row[6] = floatCell(rec.TargetCovered)
			row[7] = floatCell(rec.RequiredChange)
			row[8] = string(rec.Action)
			row[9] = nullCell(rec.GapMonthlyOnDemandCost)
		}
		if result.HasCost() {
			if e := g.cost; e != nil {
				row = append(row,
					nullCell(e.OnDemandEquivalentCost), nullCell(e.RICost), nullCell(e.UtilizationPct),
					nullCell(e.Savings), nullCell(e.RecommendedPurchaseCount),
					nullCell(e.UncoveredOnDemandCost), nullCell(e.CostCoveragePct),
				)
			} else {
				row = append(row, make([]string, len(csvCostHeaders))...)
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing CSV output: %w", err)
	}
	return nil
}
