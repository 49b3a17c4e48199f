package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	awspkg "github.com/guimove/ricoverage/internal/aws"
	"github.com/guimove/ricoverage/internal/ingest"
	"github.com/guimove/ricoverage/internal/model"
	"github.com/guimove/ricoverage/internal/orchestrator"
)

// addPeriodFlags registers the flags shared by every analysis command.
func addPeriodFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("start", "", "report period start (YYYY-MM-DD)")
	f.String("end", "", "report period end (YYYY-MM-DD, inclusive)")
	f.Int("days", 0, "days in the report period when --start/--end are not given")
	f.Bool("normalize-all-engines", false, "apply size normalization to engines without size flexibility")
	f.Int("parallelism", 0, "aggregation workers (0 = serial)")
}

func addTargetFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64("target", 80, "target coverage percentage (0-100)")
	f.Bool("price-gaps", false, "value purchase gaps with on-demand prices from the Pricing API")
}

// applyFlags copies explicitly set flags onto cfg.
func applyFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if v, _ := f.GetString("start"); f.Changed("start") {
		cfg.Input.Start = v
	}
	if v, _ := f.GetString("end"); f.Changed("end") {
		cfg.Input.End = v
	}
	if v, _ := f.GetInt("days"); f.Changed("days") {
		cfg.Analysis.Days = v
	}
	if v, _ := f.GetBool("normalize-all-engines"); f.Changed("normalize-all-engines") {
		cfg.Analysis.NormalizeAllEngines = v
	}
	if v, _ := f.GetInt("parallelism"); f.Changed("parallelism") {
		cfg.Analysis.Parallelism = v
	}
	if v, _ := f.GetFloat64("target"); f.Changed("target") {
		cfg.Analysis.TargetCoverage = v
	}
	if v, _ := f.GetBool("price-gaps"); f.Changed("price-gaps") {
		cfg.AWS.PriceGaps = v
	}
	for flag, dest := range map[string]*string{
		"coverage":        &cfg.Input.Coverage,
		"utilization":     &cfg.Input.Utilization,
		"recommendations": &cfg.Input.Recommendations,
	} {
		if f.Changed(flag) {
			*dest, _ = f.GetString(flag)
		}
	}
}

func newProvider(ctx context.Context) (*awspkg.Provider, error) {
	var cache *awspkg.FileCache
	if !cfg.AWS.NoCache {
		dir := cfg.AWS.CacheDir
		if dir == "" {
			dir = awspkg.DefaultCacheDir()
		}
		cache = awspkg.NewFileCache(dir, cfg.AWS.CacheTTL)
	}

	provider, err := awspkg.NewProvider(ctx, cfg.AWS.Region, cache)
	if err != nil {
		return nil, fmt.Errorf("creating AWS provider: %w", err)
	}
	return provider, nil
}

func fetchOptions() awspkg.FetchOptions {
	return awspkg.FetchOptions{
		Start:         cfg.Input.Start,
		End:           cfg.Input.End,
		ServiceType:   cfg.Analysis.ServiceType,
		TermYears:     cfg.AWS.TermYears,
		PaymentOption: cfg.AWS.PaymentOption,
		LookbackDays:  cfg.AWS.LookbackDays,
	}
}

// runMode wires a source, an optional pricer and the orchestrator, then runs
// one analysis.
func runMode(cmd *cobra.Command, mode orchestrator.Mode) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	applyFlags(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}

	var provider *awspkg.Provider
	getProvider := func() (*awspkg.Provider, error) {
		if provider != nil {
			return provider, nil
		}
		p, err := newProvider(ctx)
		provider = p
		return p, err
	}

	var source ingest.Source
	switch cfg.Input.Source {
	case "costexplorer":
		p, err := getProvider()
		if err != nil {
			return err
		}
		source = awspkg.NewCostExplorerSource(p, fetchOptions())
	default:
		source = ingest.NewCSVSource(map[model.ReportKind]string{
			model.ReportCoverage:       cfg.Input.Coverage,
			model.ReportUtilization:    cfg.Input.Utilization,
			model.ReportRecommendation: cfg.Input.Recommendations,
		})
	}

	orch := orchestrator.New(source, cfg, logger)
	orch.Writer = cmd.OutOrStdout()

	if cfg.AWS.PriceGaps && mode != orchestrator.ModeCost {
		p, err := getProvider()
		if err != nil {
			return err
		}
		orch.Pricer = p
	}

	logger.Debug("starting analysis",
		zap.String("mode", string(mode)),
		zap.String("source", source.BackendType()),
		zap.Float64("target", cfg.Analysis.TargetCoverage))

	_, err := orch.Run(ctx, mode)
	return err
}
