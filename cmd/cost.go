package cmd

import (
	"github.com/spf13/cobra"

	"github.com/guimove/ricoverage/internal/orchestrator"
)

var costCmd = &cobra.Command{
	Use:   "cost",
	Short: "Report RI cost coverage from utilization and recommendation reports",
	Long: `Joins an RI utilization report and an RI purchase recommendation report
by region, engine and base size. Either report may be omitted; figures that
depend on a missing report are shown as n/a.`,
	Args: cobra.NoArgs,
	RunE: runCost,
}

func init() {
	f := costCmd.Flags()
	f.String("utilization", "", "RI utilization report (CSV)")
	f.String("recommendations", "", "RI purchase recommendation report (CSV)")
	addPeriodFlags(costCmd)

	rootCmd.AddCommand(costCmd)
}

func runCost(cmd *cobra.Command, args []string) error {
	return runMode(cmd, orchestrator.ModeCost)
}
