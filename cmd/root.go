package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/guimove/ricoverage/internal/config"
	"github.com/guimove/ricoverage/internal/logging"
)

var (
	cfgFile string
	cfg     config.Config
	verbose bool
	logger  = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "ricoverage",
	Short: "Reserved Instance coverage analysis for AWS",
	Long: `ricoverage reads AWS Reserved Instance coverage, utilization and purchase
recommendation reports, normalizes instance sizes to size-flexible units, and
reports coverage per region, engine and instance family.

It computes how many normalized units to buy or let expire to reach a target
coverage, and how much on-demand spend is left uncovered.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ricoverage.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")

	// Global flags that map to config
	rootCmd.PersistentFlags().String("region", "", "AWS region used for price lookups")
	rootCmd.PersistentFlags().String("source", "", "report source: csv, costexplorer")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format: "+strings.Join(config.Formats, ", "))
	rootCmd.PersistentFlags().String("output-dir", "", "also write the report under a dated directory here")
	rootCmd.PersistentFlags().String("metrics-file", "", "write Prometheus metrics to this textfile")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: console, json")
	rootCmd.PersistentFlags().Bool("no-cache", false, "disable the AWS response cache")

	_ = viper.BindPFlag("aws.region", rootCmd.PersistentFlags().Lookup("region"))
	_ = viper.BindPFlag("input.source", rootCmd.PersistentFlags().Lookup("source"))
	_ = viper.BindPFlag("output.format", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("output.dir", rootCmd.PersistentFlags().Lookup("output-dir"))
	_ = viper.BindPFlag("output.metrics_file", rootCmd.PersistentFlags().Lookup("metrics-file"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("aws.no_cache", rootCmd.PersistentFlags().Lookup("no-cache"))
}

// setDefaults registers every key so environment variables can override it.
func setDefaults(d config.Config) {
	viper.SetDefault("analysis.target_coverage", d.Analysis.TargetCoverage)
	viper.SetDefault("analysis.service_type", d.Analysis.ServiceType)
	viper.SetDefault("analysis.days", d.Analysis.Days)
	viper.SetDefault("analysis.normalize_all_engines", d.Analysis.NormalizeAllEngines)
	viper.SetDefault("analysis.parallelism", d.Analysis.Parallelism)

	viper.SetDefault("input.source", d.Input.Source)
	viper.SetDefault("input.coverage", d.Input.Coverage)
	viper.SetDefault("input.utilization", d.Input.Utilization)
	viper.SetDefault("input.recommendations", d.Input.Recommendations)
	viper.SetDefault("input.start", d.Input.Start)
	viper.SetDefault("input.end", d.Input.End)

	viper.SetDefault("aws.region", d.AWS.Region)
	viper.SetDefault("aws.cache_dir", d.AWS.CacheDir)
	viper.SetDefault("aws.cache_ttl", d.AWS.CacheTTL)
	viper.SetDefault("aws.no_cache", d.AWS.NoCache)
	viper.SetDefault("aws.price_gaps", d.AWS.PriceGaps)
	viper.SetDefault("aws.term_years", d.AWS.TermYears)
	viper.SetDefault("aws.payment_option", d.AWS.PaymentOption)
	viper.SetDefault("aws.lookback_days", d.AWS.LookbackDays)

	viper.SetDefault("output.format", d.Output.Format)
	viper.SetDefault("output.dir", d.Output.Dir)
	viper.SetDefault("output.metrics_file", d.Output.MetricsFile)

	viper.SetDefault("logging.level", d.Logging.Level)
	viper.SetDefault("logging.format", d.Logging.Format)
	viper.SetDefault("logging.output", d.Logging.Output)
	viper.SetDefault("logging.development", d.Logging.Development)
}

func loadConfig() error {
	// Start with defaults
	cfg = config.Default()
	setDefaults(cfg)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ricoverage")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.ricoverage")
	}

	// Environment variable overrides, e.g. RICOVERAGE_ANALYSIS_TARGET_COVERAGE
	viper.SetEnvPrefix("RICOVERAGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file (not an error if missing)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return fmt.Errorf("reading config file: %w", err)
		}
	}

	// Unmarshal into config struct
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	l, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	logger = l
	logger.Debug("configuration loaded", zap.String("file", viper.ConfigFileUsed()))
	return nil
}
