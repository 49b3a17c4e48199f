package normalize

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/guimove/ricoverage/internal/model"
)

var errNegativeCost = errors.New("negative cost")

var (
	monthsPerYear = decimal.NewFromInt(12)
	daysPerYear   = decimal.NewFromInt(365)
)

// CostRows normalizes a utilization or recommendation report. A nil dataset
// yields a nil report, which downstream means "not provided".
func CostRows(ds *model.Dataset, opts Options) (*model.CostReport, []model.Diagnostic, error) {
	if ds == nil {
		return nil, nil, nil
	}
	if ds.Kind != model.ReportUtilization && ds.Kind != model.ReportRecommendation {
		return nil, nil, &SchemaError{Kind: ds.Kind, Reason: "not a cost report"}
	}
	if err := CheckSchema(ds, ds.Kind); err != nil {
		return nil, nil, err
	}

	s := &scaler{kind: ds.Kind, opts: opts}
	report := &model.CostReport{Kind: ds.Kind, Records: make([]model.CostRecord, 0, len(ds.Rows))}
	withUpfront := ds.HasColumn(model.ColUpfrontCost) && ds.HasColumn(model.ColRecurringMonthlyCost)
	report.HasUncoveredCost = ds.Kind == model.ReportRecommendation && withUpfront && opts.Days > 0

	for _, raw := range ds.Rows {
		var (
			rec model.CostRecord
			err error
		)
		switch row := raw.(type) {
		case model.UtilizationRow:
			rec, err = utilizationRecord(row)
		case model.RecommendationRow:
			rec, err = recommendationRecord(row, withUpfront, opts.Days)
		default:
			err = fmt.Errorf("unexpected %s row", raw.Kind())
		}
		if err == nil && raw.Kind() != ds.Kind {
			err = fmt.Errorf("%s row in %s report", raw.Kind(), ds.Kind)
		}
		if err != nil {
			s.drop(raw.Identity().Line, "%v", err)
			continue
		}

		key, ratio, ok := s.key(raw.Identity())
		if !ok {
			continue
		}
		rec.Key = key
		rec.RecommendedUnits = rec.RecommendedUnits.Mul(decimal.NewFromFloat(ratio))
		report.Records = append(report.Records, rec)
	}

	return report, s.diags, nil
}

func utilizationRecord(row model.UtilizationRow) (model.CostRecord, error) {
	rec := model.CostRecord{Kind: model.ReportUtilization}
	var err error
	if rec.OnDemandEquivalentCost, err = parseDecimal(row.OnDemandEquivalentCost); err != nil {
		return rec, fmt.Errorf("%s: %w", model.ColOnDemandEquivalentCost, err)
	}
	if rec.RICost, err = parseDecimal(row.RICost); err != nil {
		return rec, fmt.Errorf("%s: %w", model.ColRICost, err)
	}
	if rec.UtilizationPct, err = parseOptionalDecimal(row.UtilizationPct); err != nil {
		return rec, fmt.Errorf("%s: %w", model.ColUtilizationPct, err)
	}
	if rec.OnDemandEquivalentCost.IsNegative() || rec.RICost.IsNegative() {
		return rec, errNegativeCost
	}
	return rec, nil
}

// recommendationRecord parses a purchase recommendation. When upfront and
// recurring costs are available, the on-demand cost the recommendation would
// replace over the analysis period is
// (upfront/(12*term) + recurring + savings) * 12/365 * days.
func recommendationRecord(row model.RecommendationRow, withUpfront bool, days int) (model.CostRecord, error) {
	rec := model.CostRecord{
		Kind:          model.ReportRecommendation,
		Term:          row.Term,
		PaymentOption: row.PaymentOption,
	}
	var err error
	if rec.RecommendedUnits, err = parseDecimal(row.RecommendedCount); err != nil {
		return rec, fmt.Errorf("%s: %w", model.ColRecommendedCount, err)
	}
	if rec.EstimatedSavings, err = parseDecimal(row.EstimatedSavings); err != nil {
		return rec, fmt.Errorf("%s: %w", model.ColEstimatedSavings, err)
	}
	if rec.RecommendedUnits.IsNegative() {
		return rec, fmt.Errorf("negative %s", model.ColRecommendedCount)
	}

	if !withUpfront || days <= 0 {
		return rec, nil
	}
	term, ok := parseTermYears(row.Term)
	if !ok {
		return rec, nil
	}
	upfront, err := parseOptionalDecimal(row.UpfrontCost)
	if err != nil {
		return rec, fmt.Errorf("%s: %w", model.ColUpfrontCost, err)
	}
	recurring, err := parseOptionalDecimal(row.RecurringMonthlyCost)
	if err != nil {
		return rec, fmt.Errorf("%s: %w", model.ColRecurringMonthlyCost, err)
	}
	if !upfront.Valid || !recurring.Valid {
		return rec, nil
	}

	monthly := upfront.Decimal.Div(monthsPerYear.Mul(decimal.NewFromInt(int64(term)))).
		Add(recurring.Decimal).
		Add(rec.EstimatedSavings)
	cost := monthly.Mul(monthsPerYear).Div(daysPerYear).Mul(decimal.NewFromInt(int64(days)))
	rec.UncoveredOnDemandCost = decimal.NewNullDecimal(cost)
	return rec, nil
}
