package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "driftwatch",
	Short: "Data drift monitoring for climate feature pipelines",
	Long: "Driftwatch watches reference vs current feature distributions with\n" +
		"PSI and Kolmogorov-Smirnov tests, records the results to an experiment\n" +
		"tracking server, and proxies upstream weather data over HTTP.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(datasetCmd)
	rootCmd.AddCommand(modelCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
