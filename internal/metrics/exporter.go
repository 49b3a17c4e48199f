// Package metrics turns an analysis result into Prometheus gauges and writes
// them to a node-exporter textfile.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/guimove/ricoverage/internal/model"
)

const namespace = "ricoverage"

var groupLabels = []string{"region", "engine", "base_size"}

// Exporter holds the gauges for one run on a private registry.
type Exporter struct {
	registry *prometheus.Registry

	coveragePct     *prometheus.GaugeVec
	totalUnits      *prometheus.GaugeVec
	coveredUnits    *prometheus.GaugeVec
	requiredChange  *prometheus.GaugeVec
	costCoveragePct *prometheus.GaugeVec
	uncoveredCost   *prometheus.GaugeVec
	diagnostics     *prometheus.GaugeVec

	overallPct    prometheus.Gauge
	targetPct     prometheus.Gauge
	purchaseTotal prometheus.Gauge
	lastRun       prometheus.Gauge
}

// NewExporter registers all gauges on a fresh registry.
func NewExporter() *Exporter {
	gaugeVec := func(name, help string, labels []string) *prometheus.GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: name, Help: help,
		}, labels)
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: name, Help: help,
		})
	}

	e := &Exporter{
		registry:        prometheus.NewRegistry(),
		coveragePct:     gaugeVec("coverage_percent", "RI coverage of a group in percent.", groupLabels),
		totalUnits:      gaugeVec("total_units", "Running demand of a group in base-size units.", groupLabels),
		coveredUnits:    gaugeVec("covered_units", "RI-covered demand of a group in base-size units.", groupLabels),
		requiredChange:  gaugeVec("required_change_units", "Base-size units to buy (positive) or let expire (negative) to reach the target.", groupLabels),
		costCoveragePct: gaugeVec("cost_coverage_percent", "Share of on-demand-equivalent spend covered by RIs.", groupLabels),
		uncoveredCost:   gaugeVec("uncovered_on_demand_cost_dollars", "On-demand cost of usage not covered by RIs over the report period.", groupLabels),
		diagnostics:     gaugeVec("diagnostics", "Data-quality issues recorded during the run.", []string{"kind"}),
		overallPct:      gauge("overall_coverage_percent", "RI coverage over all groups in percent."),
		targetPct:       gauge("target_coverage_percent", "Configured target coverage in percent."),
		purchaseTotal:   gauge("purchase_units_total", "Sum of positive required changes in base-size units."),
		lastRun:         gauge("last_run_timestamp_seconds", "Unix time the analysis was generated."),
	}

	e.registry.MustRegister(
		e.coveragePct, e.totalUnits, e.coveredUnits, e.requiredChange,
		e.costCoveragePct, e.uncoveredCost, e.diagnostics,
		e.overallPct, e.targetPct, e.purchaseTotal, e.lastRun,
	)
	return e
}

func keyLabels(k model.GroupKey) prometheus.Labels {
	return prometheus.Labels{"region": k.RegionCode, "engine": k.Engine, "base_size": k.BaseInstanceSize}
}

// Observe sets every gauge from result. Groups with no usage get no
// coverage_percent series.
func (e *Exporter) Observe(result *model.AnalysisResult) {
	for _, c := range result.Coverage {
		l := keyLabels(c.Key)
		e.totalUnits.With(l).Set(c.Total)
		e.coveredUnits.With(l).Set(c.Covered)
		if c.HasUsage() {
			e.coveragePct.With(l).Set(*c.CoveragePct)
		}
	}
	for _, r := range result.Recommendations {
		e.requiredChange.With(keyLabels(r.Key)).Set(r.RequiredChange)
	}
	for _, c := range result.CostEntries {
		l := keyLabels(c.Key)
		if c.CostCoveragePct.Valid {
			e.costCoveragePct.With(l).Set(c.CostCoveragePct.Decimal.InexactFloat64())
		}
		if c.UncoveredOnDemandCost.Valid {
			e.uncoveredCost.With(l).Set(c.UncoveredOnDemandCost.Decimal.InexactFloat64())
		}
	}
	for kind, n := range model.CountByKind(result.Diagnostics) {
		e.diagnostics.WithLabelValues(string(kind)).Set(float64(n))
	}

	if result.Overall.HasUsage() {
		e.overallPct.Set(*result.Overall.CoveragePct)
	}
	e.targetPct.Set(result.TargetPct)
	e.purchaseTotal.Set(result.PurchaseTotal())
	if !result.GeneratedAt.IsZero() {
		e.lastRun.Set(float64(result.GeneratedAt.Unix()))
	}
}

// Gather returns the current metric families.
func (e *Exporter) Gather() ([]*dto.MetricFamily, error) {
	mfs, err := e.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gathering metrics: %w", err)
	}
	return mfs, nil
}

// WriteTextfile writes the registry atomically to path.
func (e *Exporter) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, e.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
