package cmd

import (
	"github.com/spf13/cobra"

	"github.com/guimove/ricoverage/internal/orchestrator"
)

var targetCmd = &cobra.Command{
	Use:   "target [coverage.csv]",
	Short: "Compare RI coverage with a target and size the gap",
	Long: `Reads an RI coverage report, normalizes instance sizes to base-size units,
and reports coverage by group, region and engine together with the number of
units to purchase or let expire to reach the target.

` + coverageInputHelp,
	Args: cobra.MaximumNArgs(1),
	RunE: runTarget,
}

const coverageInputHelp = `The coverage report may carry covered and total amounts, or running hours with
an average coverage. Average coverage is read as a fraction (0.85) or a
percentage (85 or 85%). A bare value above 1 is a percentage, so write 1% as
"1%": a bare 1 means full coverage.`

func init() {
	addPeriodFlags(targetCmd)
	addTargetFlags(targetCmd)

	rootCmd.AddCommand(targetCmd)
}

func runTarget(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		cfg.Input.Coverage = args[0]
	}
	return runMode(cmd, orchestrator.ModeTarget)
}
