// Package reconcile merges utilization and purchase recommendation costs by
// group key, keeping "unavailable" distinct from zero.
package reconcile

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/guimove/ricoverage/internal/model"
)

var hundred = decimal.NewFromInt(100)

type utilizationSums struct {
	od, ri      decimal.Decimal
	pctWeighted decimal.Decimal // sum of pct * ri cost
	pctRI       decimal.Decimal // ri cost of rows with a pct
	pctPlain    decimal.Decimal
	pctRows     int
}

type recommendationSums struct {
	savings, units decimal.Decimal
	uncovered      decimal.NullDecimal
}

// Reconcile full-outer-joins the two reports on group key. A nil report
// means it was not provided and every field it feeds stays unavailable. A
// provided report without a row for a key contributes a real zero.
// Entries are sorted by key.
func Reconcile(utilization, recommendations *model.CostReport) []model.CostCoverageEntry {
	if utilization == nil && recommendations == nil {
		return nil
	}

	keys := make(map[model.GroupKey]bool)
	util := make(map[model.GroupKey]*utilizationSums)
	recs := make(map[model.GroupKey]*recommendationSums)

	if utilization != nil {
		for _, r := range sortedRecords(utilization.Records) {
			keys[r.Key] = true
			s, ok := util[r.Key]
			if !ok {
				s = &utilizationSums{}
				util[r.Key] = s
			}
			s.od = s.od.Add(r.OnDemandEquivalentCost)
			s.ri = s.ri.Add(r.RICost)
			if r.UtilizationPct.Valid {
				s.pctWeighted = s.pctWeighted.Add(r.UtilizationPct.Decimal.Mul(r.RICost))
				s.pctRI = s.pctRI.Add(r.RICost)
				s.pctPlain = s.pctPlain.Add(r.UtilizationPct.Decimal)
				s.pctRows++
			}
		}
	}

	if recommendations != nil {
		for _, r := range sortedRecords(recommendations.Records) {
			keys[r.Key] = true
			s, ok := recs[r.Key]
			if !ok {
				s = &recommendationSums{uncovered: r.UncoveredOnDemandCost}
				recs[r.Key] = s
			} else {
				s.uncovered = addNull(s.uncovered, r.UncoveredOnDemandCost)
			}
			s.savings = s.savings.Add(r.EstimatedSavings)
			s.units = s.units.Add(r.RecommendedUnits)
		}
	}

	ordered := make([]model.GroupKey, 0, len(keys))
	for k := range keys {
		ordered = append(ordered, k)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Less(ordered[j]) })

	entries := make([]model.CostCoverageEntry, 0, len(ordered))
	for _, k := range ordered {
		e := model.CostCoverageEntry{Key: k}

		if utilization != nil {
			s := util[k]
			if s == nil {
				s = &utilizationSums{}
			}
			e.OnDemandEquivalentCost = decimal.NewNullDecimal(s.od)
			e.RICost = decimal.NewNullDecimal(s.ri)
			e.UtilizationPct = s.pct()
		}

		if recommendations != nil {
			s := recs[k]
			if s == nil {
				// No row for the key is a real zero only when the report
				// could have carried an uncovered cost in the first place.
				s = &recommendationSums{}
				if recommendations.HasUncoveredCost {
					s.uncovered = decimal.NewNullDecimal(decimal.Zero)
				}
			}
			e.Savings = decimal.NewNullDecimal(s.savings)
			e.RecommendedPurchaseCount = decimal.NewNullDecimal(s.units)
			e.UncoveredOnDemandCost = s.uncovered
		}

		e.CostCoveragePct = costCoverage(e.OnDemandEquivalentCost, e.UncoveredOnDemandCost)
		entries = append(entries, e)
	}
	return entries
}

// pct weights each row's utilization by its RI cost, falling back to a plain
// mean when there is no RI cost.
func (s *utilizationSums) pct() decimal.NullDecimal {
	if s.pctRows == 0 {
		return decimal.NullDecimal{}
	}
	if s.pctRI.IsPositive() {
		return decimal.NewNullDecimal(s.pctWeighted.Div(s.pctRI).Round(2))
	}
	return decimal.NewNullDecimal(s.pctPlain.Div(decimal.NewFromInt(int64(s.pctRows))).Round(2))
}

// costCoverage is covered / (covered + uncovered) * 100.
func costCoverage(covered, uncovered decimal.NullDecimal) decimal.NullDecimal {
	if !covered.Valid || !uncovered.Valid {
		return decimal.NullDecimal{}
	}
	total := covered.Decimal.Add(uncovered.Decimal)
	if !total.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(covered.Decimal.Div(total).Mul(hundred).Round(2))
}

// addNull sums two nullable amounts. An unavailable operand makes the sum
// unavailable so partial totals are never reported as complete.
func addNull(a, b decimal.NullDecimal) decimal.NullDecimal {
	if !a.Valid || !b.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(a.Decimal.Add(b.Decimal))
}

func sortedRecords(records []model.CostRecord) []model.CostRecord {
	out := make([]model.CostRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out
}
