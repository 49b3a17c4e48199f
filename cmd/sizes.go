package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/guimove/ricoverage/internal/instance"
)

var sizesCmd = &cobra.Command{
	Use:   "sizes",
	Short: "Print the instance size normalization table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-10s %8s %8s\n", "SIZE", "FACTOR", "UNITS")
		fmt.Fprintf(w, "%s\n", strings.Repeat("-", 28))
		for _, s := range instance.Table() {
			fmt.Fprintf(w, "%-10s %8g %8g\n", s.Size, s.Factor, s.Units)
		}
		fmt.Fprintf(w, "\nUnits are multiples of %s. Size flexibility applies to Aurora, MySQL,\nMariaDB, PostgreSQL and Oracle BYOL.\n", instance.BaseSize)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sizesCmd)
}
