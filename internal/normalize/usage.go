package normalize

import (
	"fmt"
	"strings"

	"github.com/guimove/ricoverage/internal/model"
)

const hoursPerDay = 24

// UsageRows normalizes a coverage report. Rows that cannot be used are
// dropped and reported as diagnostics; only a *SchemaError or
// ErrDaysRequired is returned as an error.
func UsageRows(ds *model.Dataset, opts Options) ([]model.UsageRecord, []model.Diagnostic, error) {
	if err := CheckSchema(ds, model.ReportCoverage); err != nil {
		return nil, nil, err
	}
	hoursShape := !ds.HasColumn(model.ColTotalAmount) || !ds.HasColumn(model.ColCoveredAmount)
	if hoursShape && opts.Days <= 0 {
		return nil, nil, ErrDaysRequired
	}

	s := &scaler{kind: model.ReportCoverage, opts: opts}
	records := make([]model.UsageRecord, 0, len(ds.Rows))

	for _, raw := range ds.Rows {
		row, ok := raw.(model.CoverageRow)
		if !ok {
			s.drop(raw.Identity().Line, "unexpected %s row in coverage report", raw.Kind())
			continue
		}

		var covered, total float64
		var err error
		if hoursShape {
			covered, total, err = fromHours(row, opts.Days)
		} else {
			covered, total, err = fromAmounts(row)
		}
		if err != nil {
			s.drop(row.Line, "%v", err)
			continue
		}

		key, ratio, ok := s.key(row.RowIdentity)
		if !ok {
			continue
		}

		rec := model.UsageRecord{Key: key, CoveredAmount: covered * ratio, TotalAmount: total * ratio}
		if rec.CoveredAmount > rec.TotalAmount {
			inconsistency := &DataInconsistencyError{Covered: rec.CoveredAmount, Total: rec.TotalAmount}
			s.warn(model.DiagClampedCovered, row.Line, inconsistency.Error())
			rec.CoveredAmount = rec.TotalAmount
		}
		records = append(records, rec)
	}

	return records, s.diags, nil
}

func fromAmounts(row model.CoverageRow) (covered, total float64, err error) {
	if covered, err = parseFloat(row.CoveredAmount); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", model.ColCoveredAmount, err)
	}
	if total, err = parseFloat(row.TotalAmount); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", model.ColTotalAmount, err)
	}
	if covered < 0 || total < 0 {
		return 0, 0, fmt.Errorf("negative amount (covered %v, total %v)", covered, total)
	}
	return covered, total, nil
}

// fromHours converts the Cost Explorer export shape: running hours become an
// average instance count over the period, doubled for Multi-AZ.
func fromHours(row model.CoverageRow, days int) (covered, total float64, err error) {
	hours, err := parseFloat(row.RunningHours)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", model.ColRunningHours, err)
	}
	avg, err := parseFraction(row.AverageCoverage)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", model.ColAverageCoverage, err)
	}
	if hours < 0 || avg < 0 {
		return 0, 0, fmt.Errorf("negative value (hours %v, coverage %v)", hours, avg)
	}

	total = hours / float64(hoursPerDay*days)
	if isMultiAZ(row.DeploymentOption) {
		total *= 2
	}
	return total * avg, total, nil
}

func isMultiAZ(option string) bool {
	o := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(option), " ", ""))
	return strings.HasPrefix(o, "multi-az") || strings.HasPrefix(o, "multiaz")
}
