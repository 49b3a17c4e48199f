package report

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/guimove/ricoverage/internal/model"
)

const notAvailable = "n/a"

// section is one titled table shared by the table, markdown and html
// renderers.
type section struct {
	Title   string
	Headers []string
	Rows    [][]string
	Notes   []string
}

func amount(f float64) string { return strconv.FormatFloat(f, 'f', 2, 64) }

func change(f float64) string { return fmt.Sprintf("%+.2f", f) }

func money(d decimal.NullDecimal) string {
	if !d.Valid {
		return notAvailable
	}
	return "$" + d.Decimal.StringFixed(2)
}

func percent(d decimal.NullDecimal) string {
	if !d.Valid {
		return notAvailable
	}
	return d.Decimal.StringFixed(2) + "%"
}

func units(d decimal.NullDecimal) string {
	if !d.Valid {
		return notAvailable
	}
	return d.Decimal.StringFixed(2)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func coverageSection(title, scope string, results []model.CoverageResult, label func(model.GroupKey) string) section {
	s := section{Title: title, Headers: []string{scope, "Total", "Covered", "Coverage"}}
	for _, r := range results {
		s.Rows = append(s.Rows, []string{label(r.Key), amount(r.Total), amount(r.Covered), r.CoverageString()})
	}
	return s
}

func buildSections(r *model.AnalysisResult) []section {
	var out []section

	if len(r.Coverage) > 0 || !r.HasCost() {
		out = append(out, section{
			Title:   "Overall coverage",
			Headers: []string{"Total", "Covered", "Coverage", "Target"},
			Rows: [][]string{{
				amount(r.Overall.Total), amount(r.Overall.Covered),
				r.Overall.CoverageString(), amount(r.TargetPct) + "%",
			}},
		})
		out = append(out,
			coverageSection("Coverage by region", "Region", r.ByRegion, func(k model.GroupKey) string { return k.RegionCode }),
			coverageSection("Coverage by engine", "Engine", r.ByEngine, func(k model.GroupKey) string { return k.Engine }),
		)

		groups := section{
			Title:   "Coverage by group",
			Headers: []string{"Region", "Engine", "Base size", "Total", "Covered", "Coverage"},
		}
		for _, c := range r.Coverage {
			groups.Rows = append(groups.Rows, []string{
				c.Key.RegionCode, c.Key.Engine, orDash(c.Key.BaseInstanceSize),
				amount(c.Total), amount(c.Covered), c.CoverageString(),
			})
		}
		out = append(out, groups)

		gaps := section{
			Title:   fmt.Sprintf("Adjustments to reach %s%% coverage", amount(r.TargetPct)),
			Headers: []string{"Region", "Engine", "Base size", "Current", "Target covered", "Change", "Action", "Gap $/month"},
		}
		for _, rec := range r.Recommendations {
			gaps.Rows = append(gaps.Rows, []string{
				rec.Key.RegionCode, rec.Key.Engine, orDash(rec.Key.BaseInstanceSize),
				amount(rec.CurrentCoveragePct) + "%", amount(rec.TargetCovered),
				change(rec.RequiredChange), string(rec.Action), money(rec.GapMonthlyOnDemandCost),
			})
		}
		gaps.Notes = append(gaps.Notes,
			fmt.Sprintf("Total to purchase: %s base-size units", amount(r.PurchaseTotal())))
		out = append(out, gaps)
	}

	if r.HasCost() {
		entries := section{
			Title: "Cost coverage by group",
			Headers: []string{"Region", "Engine", "Base size", "On-demand equiv.", "RI cost",
				"Utilization", "Savings", "Recommended", "Uncovered OD cost", "Cost coverage"},
		}
		for _, e := range r.CostEntries {
			entries.Rows = append(entries.Rows, []string{
				e.Key.RegionCode, e.Key.Engine, orDash(e.Key.BaseInstanceSize),
				money(e.OnDemandEquivalentCost), money(e.RICost), percent(e.UtilizationPct),
				money(e.Savings), units(e.RecommendedPurchaseCount),
				money(e.UncoveredOnDemandCost), percent(e.CostCoveragePct),
			})
		}
		out = append(out, entries)

		sum := r.CostSummary
		summary := section{
			Title:   "Cost coverage summary",
			Headers: []string{"Scope", "On-demand equiv.", "Uncovered OD cost", "Cost coverage"},
		}
		add := func(scope string, c model.CostRollUp) {
			summary.Rows = append(summary.Rows, []string{
				scope, money(c.OnDemandEquivalentCost), money(c.UncoveredOnDemandCost), percent(c.CostCoveragePct),
			})
		}
		add("overall", sum.Overall)
		for _, c := range sum.ByRegion {
			add("region "+c.Key.RegionCode, c)
		}
		for _, c := range sum.ByEngine {
			add("engine "+c.Key.Engine, c)
		}
		out = append(out, summary)
	}

	out = append(out, warningsSection(r.Diagnostics))
	return out
}

func warningsSection(diags []model.Diagnostic) section {
	s := section{Title: "Data quality warnings", Headers: []string{"Kind", "Report", "Line", "Message"}}
	if len(diags) == 0 {
		s.Notes = []string{"No data quality issues found."}
		return s
	}
	for _, d := range diags {
		line := "-"
		if d.Line > 0 {
			line = strconv.Itoa(d.Line)
		}
		s.Rows = append(s.Rows, []string{string(d.Kind), string(d.Report), line, d.Message})
	}
	counts := model.CountByKind(diags)
	for _, kind := range []model.DiagnosticKind{
		model.DiagUnknownRegion, model.DiagUnrecognizedSize, model.DiagDroppedRow, model.DiagClampedCovered,
	} {
		if n := counts[kind]; n > 0 {
			s.Notes = append(s.Notes, fmt.Sprintf("%s: %d", kind, n))
		}
	}
	return s
}
