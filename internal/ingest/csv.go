package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/guimove/ricoverage/internal/model"
)

// Header spellings seen in Cost Explorer exports, lowercased.
var headerAliases = map[string]string{
	"region":      model.ColRegion,
	"region name": model.ColRegion,
	"location":    model.ColRegion,

	"engine":          model.ColEngine,
	"database engine": model.ColEngine,

	"instance class": model.ColInstanceClass,
	"instance type":  model.ColInstanceClass,

	"ri covered amount": model.ColCoveredAmount,
	"covered amount":    model.ColCoveredAmount,
	"total amount":      model.ColTotalAmount,

	"total running hours": model.ColRunningHours,
	"average coverage":    model.ColAverageCoverage,
	"deployment option":   model.ColDeploymentOption,

	"on-demand cost equivalent": model.ColOnDemandEquivalentCost,
	"on-demand equivalent cost": model.ColOnDemandEquivalentCost,
	"ri cost":                   model.ColRICost,
	"total amortized fee":       model.ColRICost,
	"utilization":               model.ColUtilizationPct,
	"utilization (%)":           model.ColUtilizationPct,
	"utilization percentage":    model.ColUtilizationPct,

	"recommended instance quantity purchase": model.ColRecommendedCount,
	"recommended quantity":                   model.ColRecommendedCount,
	"recommended count":                      model.ColRecommendedCount,
	"estimated savings":                      model.ColEstimatedSavings,
	"estimated monthly savings":              model.ColEstimatedSavings,
	"term":                                   model.ColTerm,
	"payment option":                         model.ColPaymentOption,
	"upfront cost":                           model.ColUpfrontCost,
	"recurring monthly cost":                 model.ColRecurringMonthlyCost,
}

// CanonicalColumn maps a header cell to its canonical column name. Unknown
// headers return "".
func CanonicalColumn(header string) string {
	h := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))
	h = strings.Join(strings.Fields(h), " ")
	if c, ok := headerAliases[h]; ok {
		return c
	}
	// canonical names pass through, with or without underscores
	h = strings.ReplaceAll(h, " ", "_")
	for _, c := range headerAliases {
		if c == h {
			return c
		}
	}
	return ""
}

// ReadCSV reads one report. Unknown columns are ignored; the resulting
// dataset lists only canonical columns. Required-column checks are left to
// the normalizer.
func ReadCSV(r io.Reader, kind model.ReportKind, source string) (*model.Dataset, error) {
	build, ok := rowBuilders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	// Create column index map
	columnIndex := make(map[string]int)
	ds := &model.Dataset{Kind: kind, Source: source}
	for i, h := range headers {
		c := CanonicalColumn(h)
		if c == "" {
			continue
		}
		if _, dup := columnIndex[c]; dup {
			continue
		}
		columnIndex[c] = i
		ds.Columns = append(ds.Columns, c)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		if blank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)

		get := func(col string) string {
			if idx, ok := columnIndex[col]; ok && idx < len(record) {
				return strings.TrimSpace(record[idx])
			}
			return ""
		}

		id := model.RowIdentity{
			Line:          line,
			Region:        get(model.ColRegion),
			Engine:        get(model.ColEngine),
			InstanceClass: get(model.ColInstanceClass),
		}
		ds.Rows = append(ds.Rows, build(id, get))
	}

	return ds, nil
}

var rowBuilders = map[model.ReportKind]func(model.RowIdentity, func(string) string) model.RawRow{
	model.ReportCoverage: func(id model.RowIdentity, get func(string) string) model.RawRow {
		return model.CoverageRow{
			RowIdentity:      id,
			CoveredAmount:    get(model.ColCoveredAmount),
			TotalAmount:      get(model.ColTotalAmount),
			RunningHours:     get(model.ColRunningHours),
			AverageCoverage:  get(model.ColAverageCoverage),
			DeploymentOption: get(model.ColDeploymentOption),
		}
	},
	model.ReportUtilization: func(id model.RowIdentity, get func(string) string) model.RawRow {
		return model.UtilizationRow{
			RowIdentity:            id,
			OnDemandEquivalentCost: get(model.ColOnDemandEquivalentCost),
			RICost:                 get(model.ColRICost),
			UtilizationPct:         get(model.ColUtilizationPct),
		}
	},
	model.ReportRecommendation: func(id model.RowIdentity, get func(string) string) model.RawRow {
		return model.RecommendationRow{
			RowIdentity:          id,
			RecommendedCount:     get(model.ColRecommendedCount),
			EstimatedSavings:     get(model.ColEstimatedSavings),
			Term:                 get(model.ColTerm),
			PaymentOption:        get(model.ColPaymentOption),
			UpfrontCost:          get(model.ColUpfrontCost),
			RecurringMonthlyCost: get(model.ColRecurringMonthlyCost),
		}
	},
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// WriteCSV writes a dataset with its canonical column names.
func WriteCSV(w io.Writer, ds *model.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, row := range ds.Rows {
		values := rowValues(row)
		record := make([]string, len(ds.Columns))
		for i, c := range ds.Columns {
			record[i] = values[c]
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func rowValues(row model.RawRow) map[string]string {
	id := row.Identity()
	v := map[string]string{
		model.ColRegion:        id.Region,
		model.ColEngine:        id.Engine,
		model.ColInstanceClass: id.InstanceClass,
	}
	switch r := row.(type) {
	case model.CoverageRow:
		v[model.ColCoveredAmount] = r.CoveredAmount
		v[model.ColTotalAmount] = r.TotalAmount
		v[model.ColRunningHours] = r.RunningHours
		v[model.ColAverageCoverage] = r.AverageCoverage
		v[model.ColDeploymentOption] = r.DeploymentOption
	case model.UtilizationRow:
		v[model.ColOnDemandEquivalentCost] = r.OnDemandEquivalentCost
		v[model.ColRICost] = r.RICost
		v[model.ColUtilizationPct] = r.UtilizationPct
	case model.RecommendationRow:
		v[model.ColRecommendedCount] = r.RecommendedCount
		v[model.ColEstimatedSavings] = r.EstimatedSavings
		v[model.ColTerm] = r.Term
		v[model.ColPaymentOption] = r.PaymentOption
		v[model.ColUpfrontCost] = r.UpfrontCost
		v[model.ColRecurringMonthlyCost] = r.RecurringMonthlyCost
	}
	return v
}
