package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"driftwatch/internal/config"
	"driftwatch/internal/domain"
	"driftwatch/internal/infrastructure/tracking"
)

var (
	modelName         string
	modelVersion      string
	modelPromoteStage string
	modelLatestStage  string
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Model registry operations on the tracking server",
	Long: `Moves registered model versions between stages and looks up the
latest version per stage, against the MLflow-compatible registry.`,
}

var modelPromoteCmd = &cobra.Command{
	Use:   "promote",
	Short: "Transition a model version to a stage",
	RunE: func(cmd *cobra.Command, _ []string) error {
		stage, err := parseStage(modelPromoteStage)
		if err != nil {
			return err
		}

		cfg := config.Load()
		client := tracking.NewClient(cfg.Tracking.URI)
		if err := client.TransitionStage(cmd.Context(), modelName, modelVersion, stage); err != nil {
			return fmt.Errorf("transition %s v%s: %w", modelName, modelVersion, err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s version %s -> %s\n", modelName, modelVersion, stage)
		return nil
	},
}

var modelLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the latest model versions, optionally filtered by stage",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var stages []domain.ModelStage
		if modelLatestStage != "" {
			stage, err := parseStage(modelLatestStage)
			if err != nil {
				return err
			}
			stages = append(stages, stage)
		}

		cfg := config.Load()
		client := tracking.NewClient(cfg.Tracking.URI)
		versions, err := client.LatestVersions(cmd.Context(), modelName, stages)
		if err != nil {
			return fmt.Errorf("latest versions of %s: %w", modelName, err)
		}
		if len(versions) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No versions found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Name\tVersion\tStage\tRun\n")
		for _, v := range versions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", v.Name, v.Version, v.Stage, v.RunID)
		}
		return w.Flush()
	},
}

func init() {
	modelCmd.PersistentFlags().StringVar(&modelName, "name", "", "registered model name (required)")
	_ = modelCmd.MarkPersistentFlagRequired("name")

	modelPromoteCmd.Flags().StringVar(&modelVersion, "version", "", "model version to transition (required)")
	modelPromoteCmd.Flags().StringVar(&modelPromoteStage, "stage", string(domain.StageStaging), "target stage")
	_ = modelPromoteCmd.MarkFlagRequired("version")

	modelLatestCmd.Flags().StringVar(&modelLatestStage, "stage", "", "restrict to one stage")

	modelCmd.AddCommand(modelPromoteCmd)
	modelCmd.AddCommand(modelLatestCmd)
}

func parseStage(value string) (domain.ModelStage, error) {
	switch domain.ModelStage(value) {
	case domain.StageNone, domain.StageStaging, domain.StageProduction, domain.StageArchived:
		return domain.ModelStage(value), nil
	default:
		return "", fmt.Errorf("unknown stage %q (use None, Staging, Production, or Archived)", value)
	}
}
