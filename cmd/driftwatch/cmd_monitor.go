package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"driftwatch/internal/config"
	"driftwatch/internal/domain"
	"driftwatch/internal/infrastructure/dataset"
	"driftwatch/internal/infrastructure/tracking"
	"driftwatch/internal/logging"
	"driftwatch/internal/ports"
	"driftwatch/internal/usecase"
)

var (
	monitorReference string
	monitorCurrent   string
	monitorColumn    string
	monitorFeature   string
	monitorNoTrack   bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run one drift check between two CSV files",
	Long: `Compares the named column of a reference CSV against a current CSV,
prints the drift report, and logs the run to the tracking server unless
--no-track is set.`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().StringVar(&monitorReference, "reference", "", "path to the reference-period CSV (required)")
	monitorCmd.Flags().StringVar(&monitorCurrent, "current", "", "path to the current-period CSV (required)")
	monitorCmd.Flags().StringVar(&monitorColumn, "column", "TM", "CSV column holding the feature values")
	monitorCmd.Flags().StringVar(&monitorFeature, "feature", "", "feature name for reporting (defaults to the column)")
	monitorCmd.Flags().BoolVar(&monitorNoTrack, "no-track", false, "skip logging the run to the tracking server")
	_ = monitorCmd.MarkFlagRequired("reference")
	_ = monitorCmd.MarkFlagRequired("current")
}

func runMonitor(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, os.Stderr)

	feature := monitorFeature
	if feature == "" {
		feature = monitorColumn
	}

	var tracker ports.Tracker
	if !monitorNoTrack && cfg.Tracking.URI != "" {
		tracker = tracking.NewClient(cfg.Tracking.URI)
	}

	monitor := usecase.NewMonitor(usecase.MonitorDeps{
		Source:     dataset.NewFileSource(monitorReference, monitorCurrent),
		Tracker:    tracker,
		Detector:   cfg.Detector,
		Experiment: cfg.Tracking.Experiment,
		Logger:     logging.Component(logger, "monitor"),
	})

	features := []domain.Feature{{Name: feature, Column: monitorColumn}}
	result, err := monitor.Sweep(cmd.Context(), "manual", features)
	if err != nil {
		return err
	}

	printReports(cmd, result)
	if result.Detected {
		return fmt.Errorf("drift detected in %d feature(s)", len(result.Drifted))
	}
	return nil
}

func printReports(cmd *cobra.Command, result usecase.SweepResult) {
	names := make([]string, 0, len(result.Reports))
	for name := range result.Reports {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Feature\tPSI\tKS\tp-value\tSeverity\n")
	for _, name := range names {
		report := result.Reports[name]
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4g\t%s\n",
			name, report.PSI, report.KSStatistic, report.KSPValue, report.Severity)
	}
	w.Flush()
}
