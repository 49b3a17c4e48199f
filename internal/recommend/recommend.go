// Package recommend computes how much normalized RI capacity to buy or let
// expire to reach a target coverage.
package recommend

import (
	"github.com/shopspring/decimal"

	"github.com/guimove/ricoverage/internal/model"
)

// HoursPerMonth is the billing month used to value a gap.
const HoursPerMonth = 730

// PriceBook returns the on-demand hourly price of one base-size unit.
type PriceBook interface {
	HourlyRate(key model.GroupKey) (decimal.Decimal, bool)
}

// Recommend returns the gap between current and target coverage for one
// group. It returns false for groups without usage.
func Recommend(result model.CoverageResult, targetPct float64) (model.RecommendationResult, bool) {
	if !result.HasUsage() {
		return model.RecommendationResult{}, false
	}

	targetCovered := targetPct / 100 * result.Total
	change := targetCovered - result.Covered

	return model.RecommendationResult{
		Key:                result.Key,
		CurrentCoveragePct: *result.CoveragePct,
		Total:              result.Total,
		Covered:            result.Covered,
		TargetCovered:      targetCovered,
		RequiredChange:     change,
		Action:             model.ActionFor(change),
	}, true
}

// All recommends for every group with usage, keeping the input order. When
// prices is non-nil, purchase gaps are valued at the monthly on-demand cost.
func All(results []model.CoverageResult, targetPct float64, prices PriceBook) []model.RecommendationResult {
	recs := make([]model.RecommendationResult, 0, len(results))
	for _, r := range results {
		if rec, ok := Recommend(r, targetPct); ok {
			recs = append(recs, rec)
		}
	}
	return Value(recs, prices)
}

// Value returns a copy of recs with purchase gaps priced from prices. Gaps
// with no known rate, and every non-purchase row, keep an unset cost.
func Value(recs []model.RecommendationResult, prices PriceBook) []model.RecommendationResult {
	out := make([]model.RecommendationResult, len(recs))
	copy(out, recs)
	if prices == nil {
		return out
	}
	for i, rec := range out {
		if rec.Action != model.ActionPurchase {
			continue
		}
		if rate, ok := prices.HourlyRate(rec.Key); ok {
			cost := rate.Mul(decimal.NewFromFloat(rec.RequiredChange)).Mul(decimal.NewFromInt(HoursPerMonth))
			out[i].GapMonthlyOnDemandCost = decimal.NewNullDecimal(cost.Round(2))
		}
	}
	return out
}

// PurchaseKeys returns the keys of every purchase gap.
func PurchaseKeys(recs []model.RecommendationResult) []model.GroupKey {
	var keys []model.GroupKey
	for _, rec := range recs {
		if rec.Action == model.ActionPurchase {
			keys = append(keys, rec.Key)
		}
	}
	return keys
}

// StaticPrices is a PriceBook backed by a map of base size to hourly rate.
// Keys may be a full GroupKey or one with only BaseInstanceSize set.
type StaticPrices map[model.GroupKey]decimal.Decimal

// HourlyRate looks up the full key first, then the base size alone.
func (p StaticPrices) HourlyRate(key model.GroupKey) (decimal.Decimal, bool) {
	if rate, ok := p[key]; ok {
		return rate, true
	}
	rate, ok := p[model.GroupKey{BaseInstanceSize: key.BaseInstanceSize}]
	return rate, ok
}
