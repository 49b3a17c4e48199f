package config

import (
	"fmt"
	"os"
	"time"

	"github.com/guimove/ricoverage/internal/logging"
)

// Config is the top-level configuration for ricoverage.
type Config struct {
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	Input    InputConfig    `mapstructure:"input" yaml:"input"`
	AWS      AWSConfig      `mapstructure:"aws" yaml:"aws"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
	Logging  logging.Config `mapstructure:"logging" yaml:"logging"`
}

type AnalysisConfig struct {
	TargetCoverage      float64 `mapstructure:"target_coverage" yaml:"target_coverage"`
	ServiceType         string  `mapstructure:"service_type" yaml:"service_type"`
	Days                int     `mapstructure:"days" yaml:"days"`
	NormalizeAllEngines bool    `mapstructure:"normalize_all_engines" yaml:"normalize_all_engines"`
	Parallelism         int     `mapstructure:"parallelism" yaml:"parallelism"` // 0 = serial
}

// InputConfig names where reports come from. Empty paths mean the report
// is not provided.
type InputConfig struct {
	Source          string `mapstructure:"source" yaml:"source"` // csv or costexplorer
	Coverage        string `mapstructure:"coverage" yaml:"coverage"`
	Utilization     string `mapstructure:"utilization" yaml:"utilization"`
	Recommendations string `mapstructure:"recommendations" yaml:"recommendations"`
	Start           string `mapstructure:"start" yaml:"start"` // YYYY-MM-DD
	End             string `mapstructure:"end" yaml:"end"`
}

type AWSConfig struct {
	Region        string        `mapstructure:"region" yaml:"region"`
	CacheDir      string        `mapstructure:"cache_dir" yaml:"cache_dir"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	NoCache       bool          `mapstructure:"no_cache" yaml:"no_cache"`
	PriceGaps     bool          `mapstructure:"price_gaps" yaml:"price_gaps"`
	TermYears     int           `mapstructure:"term_years" yaml:"term_years"`
	PaymentOption string        `mapstructure:"payment_option" yaml:"payment_option"` // no-upfront, partial-upfront, all-upfront
	LookbackDays  int           `mapstructure:"lookback_days" yaml:"lookback_days"`   // 7, 30 or 60
}

type OutputConfig struct {
	Format      string `mapstructure:"format" yaml:"format"`
	Dir         string `mapstructure:"dir" yaml:"dir"`
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file"`
}

// Formats lists the accepted output formats.
var Formats = []string{"table", "json", "markdown", "html", "csv", "prometheus"}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Analysis: AnalysisConfig{
			TargetCoverage: 80,
			ServiceType:    "RDS",
			Days:           30,
		},
		Input: InputConfig{
			Source: "csv",
		},
		AWS: AWSConfig{
			Region:        detectRegion(),
			CacheTTL:      24 * time.Hour,
			TermYears:     1,
			PaymentOption: "no-upfront",
			LookbackDays:  30,
		},
		Output: OutputConfig{
			Format: "table",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Validate checks the config for consistency.
func (c *Config) Validate() error {
	if c.Analysis.TargetCoverage < 0 || c.Analysis.TargetCoverage > 100 {
		return fmt.Errorf("target_coverage must be between 0 and 100, got %v", c.Analysis.TargetCoverage)
	}
	if c.Analysis.Days < 0 {
		return fmt.Errorf("days must be non-negative, got %d", c.Analysis.Days)
	}
	if c.Analysis.Parallelism < 0 {
		return fmt.Errorf("parallelism must be non-negative, got %d", c.Analysis.Parallelism)
	}
	if c.Analysis.ServiceType == "" {
		c.Analysis.ServiceType = "RDS"
	}
	validSources := map[string]bool{"csv": true, "costexplorer": true}
	if !validSources[c.Input.Source] {
		return fmt.Errorf("input source must be csv or costexplorer, got %q", c.Input.Source)
	}
	if c.AWS.TermYears != 1 && c.AWS.TermYears != 3 {
		return fmt.Errorf("term_years must be 1 or 3, got %d", c.AWS.TermYears)
	}
	validPayments := map[string]bool{"no-upfront": true, "partial-upfront": true, "all-upfront": true}
	if !validPayments[c.AWS.PaymentOption] {
		return fmt.Errorf("payment_option must be no-upfront, partial-upfront, or all-upfront, got %q", c.AWS.PaymentOption)
	}
	if c.AWS.LookbackDays != 7 && c.AWS.LookbackDays != 30 && c.AWS.LookbackDays != 60 {
		return fmt.Errorf("lookback_days must be 7, 30, or 60, got %d", c.AWS.LookbackDays)
	}
	if c.AWS.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must be non-negative, got %v", c.AWS.CacheTTL)
	}
	validFormat := false
	for _, f := range Formats {
		if c.Output.Format == f {
			validFormat = true
			break
		}
	}
	if !validFormat {
		return fmt.Errorf("output format must be one of %v, got %q", Formats, c.Output.Format)
	}
	validLogFormats := map[string]bool{"console": true, "json": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("logging format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

// detectRegion checks environment variables for the AWS region.
func detectRegion() string {
	if r := os.Getenv("AWS_REGION"); r != "" {
		return r
	}
	if r := os.Getenv("AWS_DEFAULT_REGION"); r != "" {
		return r
	}
	return "us-east-1"
}
