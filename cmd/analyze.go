package cmd

import (
	"github.com/spf13/cobra"

	"github.com/guimove/ricoverage/internal/orchestrator"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run coverage, target gap and cost coverage in one report",
	Long:  "Runs coverage, target gap and cost coverage in one report.\n\n" + coverageInputHelp,
	Args:  cobra.NoArgs,
	RunE:  runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.String("coverage", "", "RI coverage report (CSV)")
	f.String("utilization", "", "RI utilization report (CSV)")
	f.String("recommendations", "", "RI purchase recommendation report (CSV)")
	addPeriodFlags(analyzeCmd)
	addTargetFlags(analyzeCmd)

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	return runMode(cmd, orchestrator.ModeAnalyze)
}
