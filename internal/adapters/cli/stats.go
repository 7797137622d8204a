package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
)

type statsReport struct {
	Classification domain.ClassificationStats `json:"classification" yaml:"classification"`
	AnalysisRuns   domain.AnalysisRunStats    `json:"analysis_runs" yaml:"analysis_runs"`
	Agencies       domain.AgencyStats         `json:"agencies" yaml:"agencies"`
}

func newStatsCommand(opts *rootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print classification, run and agency statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output != "json" && output != "yaml" {
				return fmt.Errorf("unsupported output %q: use json or yaml", output)
			}
			return opts.withBackend(cmd, OpenRequest{}, func(b *Backend) error {
				if b.Services == nil || b.Reports == nil {
					return errors.New("reports not configured")
				}
				ctx := commandContext(cmd)

				var (
					report statsReport
					err    error
				)
				if report.Classification, err = b.Services.ClassificationStats(ctx); err != nil {
					return fmt.Errorf("classification stats: %w", err)
				}
				if report.AnalysisRuns, err = b.Services.AnalysisRunStats(ctx); err != nil {
					return fmt.Errorf("analysis run stats: %w", err)
				}
				if report.Agencies, err = b.Reports.AgencyStats(ctx); err != nil {
					return fmt.Errorf("agency stats: %w", err)
				}
				return writeReport(cmd, output, report)
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	return cmd
}

func writeReport(cmd *cobra.Command, output string, report statsReport) error {
	if output == "yaml" {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
