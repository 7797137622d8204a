package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
	"github.com/kirillkom/fedramp-ai-catalog/internal/core/ports"
)

type LoadAgenciesUseCase struct {
	reader ports.AgencyWorkbookReader
	repo   ports.AgencyRepository
	logger *slog.Logger
}

func NewLoadAgenciesUseCase(reader ports.AgencyWorkbookReader, repo ports.AgencyRepository, logger *slog.Logger) *LoadAgenciesUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoadAgenciesUseCase{reader: reader, repo: repo, logger: logger}
}

// Load replaces every agency record with the workbook contents. Existing
// matches go with them and must be regenerated.
func (uc *LoadAgenciesUseCase) Load(ctx context.Context, workbook io.Reader) (int, error) {
	records, err := uc.reader.ReadAgencies(workbook)
	if err != nil {
		return 0, fmt.Errorf("read agency workbook: %w", err)
	}
	if len(records) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "load agencies", errors.New("workbook has no agency rows"))
	}

	perCategory := make(map[domain.AgencyCategory]int, 2)
	for i := range records {
		if records[i].Slug == "" {
			records[i].Slug = domain.AgencySlug(records[i].AgencyName)
		}
		perCategory[records[i].Category]++
	}

	written, err := uc.repo.ReplaceAgencies(ctx, records)
	if err != nil {
		return 0, fmt.Errorf("replace agencies: %w", err)
	}
	uc.logger.Info("agencies_loaded",
		"written", written,
		"staff_llm", perCategory[domain.CategoryStaffLLM],
		"specialized", perCategory[domain.CategorySpecialized],
	)
	return written, nil
}
