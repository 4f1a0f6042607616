// Command dcasim runs a whole-share dollar-cost averaging comparison from
// the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "dcasim",
		Short: "Whole-share dollar-cost averaging simulator",
		Long: `dcasim buys whole shares of an equal-split basket on a fixed schedule,
carries uninvested cash forward, and compares the result with a benchmark
bought the same way.`,
		SilenceUsage: true,
	}
	root.AddCommand(simulateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
