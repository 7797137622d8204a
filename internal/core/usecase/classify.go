package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
	"github.com/kirillkom/fedramp-ai-catalog/internal/core/ports"
)

const (
	OutcomeClassified = "classified"
	OutcomeSkipped    = "skipped"
	OutcomeFailed     = "failed"
)

// ClassificationResult is the per-entry outcome handed back to the
// orchestrator. Err is set when the entry failed; Findings is then empty.
type ClassificationResult struct {
	Entry    domain.CatalogEntry
	Findings []domain.ServiceClassification
	Skipped  bool
	Err      error
	Duration time.Duration
}

func (r ClassificationResult) Outcome() string {
	switch {
	case r.Err != nil:
		return OutcomeFailed
	case r.Skipped:
		return OutcomeSkipped
	default:
		return OutcomeClassified
	}
}

// EntryClassifier classifies a single catalog entry.
type EntryClassifier interface {
	Classify(ctx context.Context, entry domain.CatalogEntry) ClassificationResult
}

type Classifier struct {
	generator ports.TextGenerator
}

func NewClassifier(generator ports.TextGenerator) *Classifier {
	return &Classifier{generator: generator}
}

// Classify calls the generator once for the entry. Call and parse errors
// are reported on the result, never returned.
func (c *Classifier) Classify(ctx context.Context, entry domain.CatalogEntry) ClassificationResult {
	if !entry.HasSubServices() {
		return ClassificationResult{Entry: entry, Skipped: true}
	}

	raw, err := c.generator.Generate(ctx, buildClassificationPrompt(entry))
	if err != nil {
		return ClassificationResult{Entry: entry, Err: fmt.Errorf("generate classification: %w", err)}
	}

	items, err := parseClassificationResponse(raw)
	if err != nil {
		return ClassificationResult{Entry: entry, Err: err}
	}

	return ClassificationResult{Entry: entry, Findings: buildFindings(entry, items)}
}

func buildFindings(entry domain.CatalogEntry, items []classificationItem) []domain.ServiceClassification {
	findings := make([]domain.ServiceClassification, 0, len(items))
	for _, item := range items {
		finding := domain.ServiceClassification{
			EntryID:         entry.ExternalID,
			EntryName:       entry.Offering,
			Provider:        entry.Provider,
			ServiceName:     item.ServiceName.Display(),
			HasAI:           bool(item.HasAI),
			HasGenAI:        bool(item.HasGenAI),
			HasLLM:          bool(item.HasLLM),
			RelevantExcerpt: item.RelevantExcerpt.Display(),
			Status:          entry.Status,
			ImpactLevel:     entry.ImpactLevel,
			Agencies:        entry.Agencies,
			AuthDate:        entry.AuthDate,
		}
		// an element with no flag set is not an AI finding
		if !finding.AnyFlag() {
			continue
		}
		findings = append(findings, finding)
	}
	return findings
}
