package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
)

func newClassifyCommand(opts *rootOptions) *cobra.Command {
	var (
		workers       int
		clearExisting bool
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify every catalog entry's sub-services",
		Long: `Runs one classification pass over the catalog. Results are
checkpointed as the pass progresses, so an interrupted pass keeps
everything committed before the interruption.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if workers < 0 {
				return fmt.Errorf("--workers must not be negative, got %d", workers)
			}
			req := OpenRequest{Generator: true, Workers: workers}
			return opts.withBackend(cmd, req, func(b *Backend) error {
				if b.Classify == nil {
					return errors.New("classifier not configured")
				}
				stats, err := b.Classify.Run(commandContext(cmd), clearExisting)
				printPassStats(cmd, stats)
				if err != nil {
					return fmt.Errorf("classify: %w", err)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent classification calls (0 uses CLASSIFY_WORKERS)")
	cmd.Flags().BoolVar(&clearExisting, "clear", false, "delete existing classifications before the pass")
	return cmd
}

func printPassStats(cmd *cobra.Command, stats domain.PassStats) {
	if stats.Entries == 0 && stats.Processed == 0 {
		return
	}
	out := cmd.OutOrStdout()
	printf(out, "Pass %s: %d/%d entries processed (%d succeeded, %d failed, %d skipped)\n",
		stats.PassID, stats.Processed, stats.Entries, stats.Succeeded, stats.Failed, stats.Skipped)
	printf(out, "AI services: %d (ai %d, genai %d, llm %d) across %d products from %d providers\n",
		stats.TotalAIServices, stats.CountAI, stats.CountGenAI, stats.CountLLM, stats.ProductsWithAI, stats.ProvidersWithAI)
}

func newMatchCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "match",
		Short: "Regenerate agency-to-service matches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withBackend(cmd, OpenRequest{}, func(b *Backend) error {
				if b.Match == nil {
					return errors.New("matcher not configured")
				}
				summary, err := b.Match.Run(commandContext(cmd))
				if err != nil {
					return fmt.Errorf("match: %w", err)
				}
				out := cmd.OutOrStdout()
				printf(out, "Agencies processed: %d (%d with matches)\n", summary.AgenciesProcessed, summary.AgenciesWithMatches)
				printf(out, "Matches: %d\n", summary.TotalMatches)
				for _, tier := range domain.ConfidenceTiers {
					printf(out, "  %s: %d\n", tier, summary.ByConfidence[tier])
				}
				return nil
			})
		},
	}
}
