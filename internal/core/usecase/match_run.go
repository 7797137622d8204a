package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
	"github.com/kirillkom/fedramp-ai-catalog/internal/core/ports"
)

type MatchAgenciesUseCase struct {
	agencies ports.AgencyRepository
	catalog  ports.CatalogRepository
	matches  ports.MatchRepository
	observer ports.PipelineObserver
	logger   *slog.Logger
}

func NewMatchAgenciesUseCase(
	agencies ports.AgencyRepository,
	catalog ports.CatalogRepository,
	matches ports.MatchRepository,
	observer ports.PipelineObserver,
	logger *slog.Logger,
) *MatchAgenciesUseCase {
	if observer == nil {
		observer = noopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchAgenciesUseCase{
		agencies: agencies,
		catalog:  catalog,
		matches:  matches,
		observer: observer,
		logger:   logger,
	}
}

// Run regenerates every match for staff LLM records. The previous match set
// is replaced as a whole.
func (uc *MatchAgenciesUseCase) Run(ctx context.Context) (domain.MatchSummary, error) {
	records, err := uc.agencies.ListAgencies(ctx, domain.AgencyFilter{Category: domain.CategoryStaffLLM})
	if err != nil {
		return domain.MatchSummary{}, fmt.Errorf("list staff llm agencies: %w", err)
	}
	entries, err := uc.catalog.ListEntries(ctx)
	if err != nil {
		return domain.MatchSummary{}, fmt.Errorf("list catalog entries: %w", err)
	}

	summary := domain.MatchSummary{
		AgenciesProcessed: len(records),
		ByConfidence:      make(map[domain.Confidence]int, len(domain.ConfidenceTiers)),
	}
	for _, tier := range domain.ConfidenceTiers {
		summary.ByConfidence[tier] = 0
	}

	all := make([]domain.AgencyServiceMatch, 0)
	for _, record := range records {
		found := MatchAgency(record, entries)
		if len(found) == 0 {
			continue
		}
		summary.AgenciesWithMatches++
		for _, match := range found {
			summary.ByConfidence[match.Confidence]++
			uc.logger.Info("match_agency",
				"agency", record.AgencyName,
				"provider", match.Provider,
				"product", match.EntryName,
				"confidence", match.Confidence,
			)
		}
		all = append(all, found...)
	}
	summary.TotalMatches = len(all)

	if err := uc.matches.ReplaceMatches(ctx, all); err != nil {
		return domain.MatchSummary{}, fmt.Errorf("replace agency matches: %w", err)
	}
	for _, match := range all {
		uc.observer.MatchRecorded(match.Confidence)
	}

	uc.logger.Info("match_pass_finished",
		"agencies_processed", summary.AgenciesProcessed,
		"agencies_with_matches", summary.AgenciesWithMatches,
		"total_matches", summary.TotalMatches,
		"high", summary.ByConfidence[domain.ConfidenceHigh],
		"medium", summary.ByConfidence[domain.ConfidenceMedium],
		"low", summary.ByConfidence[domain.ConfidenceLow],
	)
	return summary, nil
}
