package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
	"github.com/kirillkom/fedramp-ai-catalog/internal/core/ports"
)

// ReportsUseCase serves the read surface over classifications, agencies
// and matches.
type ReportsUseCase struct {
	classifications ports.ClassificationRepository
	agencies        ports.AgencyRepository
	matches         ports.MatchRepository
}

func NewReportsUseCase(
	classifications ports.ClassificationRepository,
	agencies ports.AgencyRepository,
	matches ports.MatchRepository,
) *ReportsUseCase {
	return &ReportsUseCase{
		classifications: classifications,
		agencies:        agencies,
		matches:         matches,
	}
}

func (uc *ReportsUseCase) ListClassifications(ctx context.Context, filter domain.ClassificationFilter) ([]domain.ServiceClassification, error) {
	if _, ok := domain.ParseAIFlag(string(filter.Flag)); !ok {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list classifications", fmt.Errorf("unknown flag %q", filter.Flag))
	}
	filter.Provider = strings.TrimSpace(filter.Provider)
	return uc.classifications.ListClassifications(ctx, filter)
}

func (uc *ReportsUseCase) ClassificationStats(ctx context.Context) (domain.ClassificationStats, error) {
	return uc.classifications.ClassificationStats(ctx)
}

func (uc *ReportsUseCase) AnalysisRunStats(ctx context.Context) (domain.AnalysisRunStats, error) {
	return uc.classifications.AnalysisRunStats(ctx)
}

func (uc *ReportsUseCase) LastAnalysisRun(ctx context.Context, entryID string) (*domain.AnalysisRun, error) {
	entryID = strings.TrimSpace(entryID)
	if entryID == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "last analysis run", errors.New("entry id is required"))
	}
	return uc.classifications.LastAnalysisRun(ctx, entryID)
}

func (uc *ReportsUseCase) ListAgencies(ctx context.Context, filter domain.AgencyFilter) ([]domain.AgencyUsageRecord, error) {
	if filter.Category != "" {
		if _, ok := domain.ParseAgencyCategory(string(filter.Category)); !ok {
			return nil, domain.WrapError(domain.ErrInvalidInput, "list agencies", fmt.Errorf("unknown category %q", filter.Category))
		}
	}
	filter.Query = strings.TrimSpace(filter.Query)
	return uc.agencies.ListAgencies(ctx, filter)
}

func (uc *ReportsUseCase) AgencyStats(ctx context.Context) (domain.AgencyStats, error) {
	return uc.agencies.AgencyStats(ctx)
}

// AgencyBySlug returns every record of one agency, at most one per category.
func (uc *ReportsUseCase) AgencyBySlug(ctx context.Context, slug string) ([]domain.AgencyUsageRecord, error) {
	records, err := uc.agencies.ListAgencies(ctx, domain.AgencyFilter{Slug: slug})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, domain.WrapError(domain.ErrNotFound, "agency by slug", fmt.Errorf("agency %q", slug))
	}
	return records, nil
}

// MatchesForAgency lists catalog matches of the agency's staff LLM record,
// strongest tier first.
func (uc *ReportsUseCase) MatchesForAgency(ctx context.Context, slug string, confidence domain.Confidence) ([]domain.AgencyServiceMatch, error) {
	if confidence != "" {
		if _, ok := domain.ParseConfidence(string(confidence)); !ok {
			return nil, domain.WrapError(domain.ErrInvalidInput, "agency matches", fmt.Errorf("unknown confidence %q", confidence))
		}
	}

	records, err := uc.agencies.ListAgencies(ctx, domain.AgencyFilter{Category: domain.CategoryStaffLLM, Slug: slug})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, domain.WrapError(domain.ErrNotFound, "agency matches", fmt.Errorf("staff llm agency %q", slug))
	}

	matches := make([]domain.AgencyServiceMatch, 0)
	for _, record := range records {
		found, err := uc.matches.ListMatches(ctx, domain.MatchFilter{AgencyID: record.ID, Confidence: confidence})
		if err != nil {
			return nil, fmt.Errorf("list matches for agency %d: %w", record.ID, err)
		}
		matches = append(matches, found...)
	}
	return matches, nil
}
