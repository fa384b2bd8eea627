// Command formpilot is the local CLI for managing autofill profiles and
// running fill passes over saved HTML documents.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var storePath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "formpilot",
		Short:         "Profile-driven form autofill",
		Long:          "formpilot manages a structured autofill profile and fills or analyzes saved HTML forms against it.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&storePath, "store", "formpilot.db", "sqlite database holding the profile and settings")

	rootCmd.AddCommand(
		newFillCmd(),
		newAnalyzeCmd(),
		newReportCmd(),
		newSetCmd(),
		newPolicyCmd(),
		newScoreCmd(),
		newExportCmd(),
		newImportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
