// Command windctl is the operator CLI for offline wind analysis: it analyses
// Open-Meteo shaped fixture files, generates deterministic fixtures, and
// normalises time-window lists.
package main

import (
	"fmt"
	"os"
	_ "time/tzdata" // --tz must resolve without a system zoneinfo.

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "windctl",
	Short: "Offline tooling for the wind period service",
	Long: `windctl runs the strong wind analysis over local fixture files and
prepares inputs for the wind period service.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
