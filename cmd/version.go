package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guimove/ricoverage/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "ricoverage %s\n", version.Version)
		fmt.Fprintf(w, "  commit:  %s\n", version.Commit)
		fmt.Fprintf(w, "  built:   %s\n", version.BuildDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
