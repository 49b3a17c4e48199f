// Package normalize turns raw report rows into records keyed by
// (region, engine, base instance size) in base-size-equivalent units.
package normalize

import (
	"errors"
	"fmt"
	"strings"

	"github.com/guimove/ricoverage/internal/instance"
	"github.com/guimove/ricoverage/internal/model"
	"github.com/guimove/ricoverage/internal/region"
)

// ErrDaysRequired is returned when running-hours coverage is normalized
// without a positive analysis period.
var ErrDaysRequired = errors.New("analysis days must be positive to convert running hours")

// Options controls row normalization.
type Options struct {
	// Days in the analysis period, inclusive
	Days int

	// Apply size normalization to engines without RI size flexibility
	NormalizeAllEngines bool
}

// SchemaError means a report cannot be processed at all.
type SchemaError struct {
	Kind    model.ReportKind
	Missing []string
	Reason  string
}

func (e *SchemaError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("%s report: missing required columns: %s", e.Kind, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("%s report: %s", e.Kind, e.Reason)
}

// DataInconsistencyError describes a covered amount above the total.
type DataInconsistencyError struct {
	Covered float64
	Total   float64
}

func (e *DataInconsistencyError) Error() string {
	return fmt.Sprintf("covered amount %.6f exceeds total %.6f, clamped", e.Covered, e.Total)
}

var identityColumns = []string{model.ColRegion, model.ColEngine, model.ColInstanceClass}

var requiredColumns = map[model.ReportKind][]string{
	model.ReportUtilization: {model.ColOnDemandEquivalentCost, model.ColRICost, model.ColUtilizationPct},
	model.ReportRecommendation: {
		model.ColRecommendedCount, model.ColEstimatedSavings, model.ColTerm, model.ColPaymentOption,
	},
}

// Coverage reports come in two shapes.
var (
	amountColumns = []string{model.ColCoveredAmount, model.ColTotalAmount}
	hoursColumns  = []string{model.ColRunningHours, model.ColAverageCoverage}
)

// CheckSchema validates that ds is a report of the given kind with every
// required column. It returns a *SchemaError otherwise.
func CheckSchema(ds *model.Dataset, kind model.ReportKind) error {
	if ds == nil {
		return &SchemaError{Kind: kind, Reason: "no dataset"}
	}
	if ds.Kind != kind {
		return &SchemaError{Kind: kind, Reason: fmt.Sprintf("got a %s report", ds.Kind)}
	}

	missing := missingColumns(ds, identityColumns)
	if kind == model.ReportCoverage {
		amounts := missingColumns(ds, amountColumns)
		hours := missingColumns(ds, hoursColumns)
		if len(amounts) > 0 && len(hours) > 0 {
			missing = append(missing, amounts...)
		}
	} else {
		missing = append(missing, missingColumns(ds, requiredColumns[kind])...)
	}

	if len(missing) > 0 {
		return &SchemaError{Kind: kind, Missing: missing}
	}
	return nil
}

func missingColumns(ds *model.Dataset, cols []string) []string {
	var missing []string
	for _, c := range cols {
		if !ds.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// scaler resolves the group key of a row and its size ratio, recording
// diagnostics as it goes.
type scaler struct {
	kind  model.ReportKind
	opts  Options
	diags []model.Diagnostic
}

func (s *scaler) warn(kind model.DiagnosticKind, line int, msg string) {
	s.diags = append(s.diags, model.Diagnostic{Kind: kind, Report: s.kind, Line: line, Message: msg})
}

func (s *scaler) drop(line int, format string, args ...any) {
	s.warn(model.DiagDroppedRow, line, fmt.Sprintf(format, args...))
}

// key returns false when the row must be dropped.
func (s *scaler) key(id model.RowIdentity) (model.GroupKey, float64, bool) {
	switch {
	case strings.TrimSpace(id.Region) == "":
		s.drop(id.Line, "missing %s", model.ColRegion)
		return model.GroupKey{}, 0, false
	case strings.TrimSpace(id.Engine) == "":
		s.drop(id.Line, "missing %s", model.ColEngine)
		return model.GroupKey{}, 0, false
	case strings.TrimSpace(id.InstanceClass) == "":
		s.drop(id.Line, "missing %s", model.ColInstanceClass)
		return model.GroupKey{}, 0, false
	}

	code, err := region.Resolve(id.Region)
	if err != nil {
		s.warn(model.DiagUnknownRegion, id.Line, err.Error())
	}

	key := model.GroupKey{RegionCode: code, Engine: strings.TrimSpace(id.Engine)}
	if !s.opts.NormalizeAllEngines && !instance.SizeFlexible(key.Engine) {
		key.BaseInstanceSize = strings.ToLower(strings.TrimSpace(id.InstanceClass))
		return key, 1, true
	}

	n, err := instance.Normalize(id.InstanceClass)
	if err != nil {
		s.warn(model.DiagUnrecognizedSize, id.Line, err.Error())
		return model.GroupKey{}, 0, false
	}
	key.BaseInstanceSize = n.BaseSize
	return key, instance.Ratio(n), true
}
