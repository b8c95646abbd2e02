// Command coachsim runs the coaching simulator: the HTTP API, schema
// migrations and a few offline helpers for the persona catalog and the
// evaluator.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is injected by the linker via -ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "coachsim",
		Short: "Practice coaching conversations with simulated clients",
		Long: `coachsim serves an API where coaches practice with simulated clients
from Indian cities, get scored against ICF competencies and track their
progress across sessions.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newPersonasCmd(),
		newEvaluateCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "coachsim %s\n", version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
