package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/guimove/ricoverage/internal/analysis"
	"github.com/guimove/ricoverage/internal/config"
	"github.com/guimove/ricoverage/internal/ingest"
	"github.com/guimove/ricoverage/internal/metrics"
	"github.com/guimove/ricoverage/internal/model"
	"github.com/guimove/ricoverage/internal/recommend"
	"github.com/guimove/ricoverage/internal/report"
)

// Mode selects which reports a run loads and how its output is labeled.
type Mode string

const (
	ModeTarget  Mode = "target"  // coverage report only
	ModeCost    Mode = "cost"    // utilization and recommendation reports
	ModeAnalyze Mode = "analyze" // all three
)

// Kinds returns the report kinds the mode loads.
func (m Mode) Kinds() []model.ReportKind {
	switch m {
	case ModeTarget:
		return []model.ReportKind{model.ReportCoverage}
	case ModeCost:
		return []model.ReportKind{model.ReportUtilization, model.ReportRecommendation}
	default:
		return []model.ReportKind{model.ReportCoverage, model.ReportUtilization, model.ReportRecommendation}
	}
}

// Title is the report heading for the mode.
func (m Mode) Title() string {
	switch m {
	case ModeTarget:
		return "RI Target Coverage Report"
	case ModeCost:
		return "RI Cost Coverage Report"
	default:
		return "RI Coverage Report"
	}
}

// ReportDir is the dated directory name reports of this mode are written to.
func (m Mode) ReportDir(date time.Time) string {
	prefix := "ri-coverage-report"
	switch m {
	case ModeTarget:
		prefix = "ri-target-coverage-report"
	case ModeCost:
		prefix = "ri-cost-coverage-report"
	}
	return prefix + "-" + date.Format(ingest.DateLayout)
}

// Pricer looks up on-demand rates for purchase gaps.
type Pricer interface {
	PriceBook(ctx context.Context, keys []model.GroupKey) (recommend.StaticPrices, []error)
}

// Orchestrator coordinates the end-to-end pipeline:
// load → analyze → price → report → export.
type Orchestrator struct {
	Source ingest.Source
	Pricer Pricer // optional
	Config config.Config
	Writer io.Writer
	Logger *zap.Logger

	// Clock, defaults to time.Now
	Now func() time.Time

	// CreateFile opens report files, defaults to os.Create
	CreateFile func(path string) (io.WriteCloser, error)
}

// New creates an orchestrator with the given dependencies.
func New(source ingest.Source, cfg config.Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		Source: source,
		Config: cfg,
		Writer: os.Stdout,
		Logger: logger,
		Now:    time.Now,
	}
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) createFile(path string) (io.WriteCloser, error) {
	if o.CreateFile != nil {
		return o.CreateFile(path)
	}
	return os.Create(path)
}

// Run executes one analysis in the given mode and writes its report.
func (o *Orchestrator) Run(ctx context.Context, mode Mode) (*model.AnalysisResult, error) {
	cfg := o.Config
	log := o.Logger.With(zap.String("mode", string(mode)))

	// Step 1: Load reports
	if err := o.Source.Ping(ctx); err != nil {
		return nil, fmt.Errorf("checking %s source: %w", o.Source.BackendType(), err)
	}

	var in analysis.Input
	var sources []string
	for _, kind := range mode.Kinds() {
		ds, err := o.Source.Load(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("loading %s report: %w", kind, err)
		}
		if ds == nil {
			log.Debug("report not provided", zap.String("kind", string(kind)))
			continue
		}
		log.Info("loaded report",
			zap.String("kind", string(kind)),
			zap.String("source", ds.Source),
			zap.Int("rows", len(ds.Rows)))
		sources = append(sources, ds.Source)

		switch kind {
		case model.ReportCoverage:
			in.Coverage = ds
		case model.ReportUtilization:
			in.Utilization = ds
		case model.ReportRecommendation:
			in.Recommendations = ds
		}
	}

	days, err := o.days()
	if err != nil {
		return nil, err
	}

	// Step 2: Analyze
	result, err := analysis.Run(in, analysis.Options{
		TargetPct:           cfg.Analysis.TargetCoverage,
		ServiceType:         cfg.Analysis.ServiceType,
		Days:                days,
		NormalizeAllEngines: cfg.Analysis.NormalizeAllEngines,
		Parallelism:         cfg.Analysis.Parallelism,
		Now:                 o.Now,
	})
	if err != nil {
		return nil, fmt.Errorf("analyzing reports: %w", err)
	}

	// Step 3: Price purchase gaps
	if o.Pricer != nil {
		result = o.price(ctx, result, log)
	}

	for _, d := range result.Diagnostics {
		log.Warn(d.Message,
			zap.String("kind", string(d.Kind)),
			zap.String("report", string(d.Report)),
			zap.Int("line", d.Line))
	}

	// Step 4: Report
	meta := report.ReportMeta{
		Title:   mode.Title(),
		Sources: sources,
		Start:   cfg.Input.Start,
		End:     cfg.Input.End,
	}
	if err := report.NewReporter(cfg.Output.Format, o.Writer).Report(ctx, result, meta); err != nil {
		return nil, fmt.Errorf("generating report: %w", err)
	}
	if cfg.Output.Dir != "" {
		path, err := o.writeReportFile(ctx, mode, result, meta)
		if err != nil {
			return nil, err
		}
		log.Info("wrote report", zap.String("path", path))
	}

	// Step 5: Export metrics
	if cfg.Output.MetricsFile != "" {
		exp := metrics.NewExporter()
		exp.Observe(result)
		if err := exp.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			return nil, err
		}
		log.Info("wrote metrics", zap.String("path", cfg.Output.MetricsFile))
	}

	fields := []zap.Field{
		zap.String("run_id", result.RunID),
		zap.Int("groups", len(result.Coverage)),
		zap.String("overall_coverage", result.Overall.CoverageString()),
		zap.Float64("purchase_units", result.PurchaseTotal()),
		zap.Int("diagnostics", len(result.Diagnostics)),
	}
	if result.HasCost() {
		fields = append(fields, zap.Int("cost_entries", len(result.CostEntries)))
	}
	log.Info("analysis complete", fields...)

	return result, nil
}

// days resolves the report period from the configured dates, falling back to
// analysis.days.
func (o *Orchestrator) days() (int, error) {
	in := o.Config.Input
	if in.Start == "" && in.End == "" {
		return o.Config.Analysis.Days, nil
	}
	if in.Start == "" || in.End == "" {
		return 0, errors.New("both start and end dates are required")
	}
	days, err := ingest.DaysBetween(in.Start, in.End)
	if err != nil {
		return 0, fmt.Errorf("resolving report period: %w", err)
	}
	return days, nil
}

// price values purchase gaps and returns a copy of result. Lookup failures
// are logged and leave the gap unpriced.
func (o *Orchestrator) price(ctx context.Context, result *model.AnalysisResult, log *zap.Logger) *model.AnalysisResult {
	keys := recommend.PurchaseKeys(result.Recommendations)
	if len(keys) == 0 {
		return result
	}

	prices, errs := o.Pricer.PriceBook(ctx, keys)
	for _, err := range errs {
		log.Warn("price lookup failed", zap.Error(err))
	}

	priced := *result
	priced.Recommendations = recommend.Value(result.Recommendations, prices)
	return &priced
}

func (o *Orchestrator) writeReportFile(ctx context.Context, mode Mode, result *model.AnalysisResult, meta report.ReportMeta) (string, error) {
	dir := filepath.Join(o.Config.Output.Dir, mode.ReportDir(o.now()))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	path := filepath.Join(dir, "report"+report.Extension(o.Config.Output.Format))
	f, err := o.createFile(path)
	if err != nil {
		return "", fmt.Errorf("creating report file: %w", err)
	}

	if err := report.NewReporter(o.Config.Output.Format, f).Report(ctx, result, meta); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("writing report file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing report file: %w", err)
	}
	return path, nil
}
