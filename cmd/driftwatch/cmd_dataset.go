package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"driftwatch/internal/infrastructure/dataset"
)

var (
	datasetInput  string
	datasetOutput string
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Climate CSV preparation",
	Long: `Prepares raw climate station exports for drift monitoring: "clean"
strips malformed rows and surplus columns, "windows" turns the cleaned
series into lagged temperature windows.`,
}

var datasetCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Strip malformed rows and surplus columns from a raw export",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatasetFiles(func(in io.Reader, out io.Writer) error {
			removed, err := dataset.CleanClimate(in, out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "removed %d malformed rows\n", removed)
			return nil
		})
	},
}

var datasetWindowsCmd = &cobra.Command{
	Use:   "windows",
	Short: "Build lagged temperature windows from a cleaned export",
	RunE: func(_ *cobra.Command, _ []string) error {
		return withDatasetFiles(dataset.BuildLagWindows)
	},
}

func init() {
	datasetCmd.PersistentFlags().StringVar(&datasetInput, "in", "", "input CSV path (required)")
	datasetCmd.PersistentFlags().StringVar(&datasetOutput, "out", "", "output CSV path (required)")
	_ = datasetCmd.MarkPersistentFlagRequired("in")
	_ = datasetCmd.MarkPersistentFlagRequired("out")

	datasetCmd.AddCommand(datasetCleanCmd)
	datasetCmd.AddCommand(datasetWindowsCmd)
}

func withDatasetFiles(fn func(io.Reader, io.Writer) error) error {
	in, err := os.Open(datasetInput)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	out, err := os.Create(datasetOutput)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	if err := fn(in, out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
