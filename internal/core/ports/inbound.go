package ports

import (
	"context"
	"io"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
)

// ClassificationRunner classifies the whole catalog in one pass.
type ClassificationRunner interface {
	Run(ctx context.Context, clearExisting bool) (domain.PassStats, error)
}

// MatchRunner regenerates agency-to-service matches.
type MatchRunner interface {
	Run(ctx context.Context) (domain.MatchSummary, error)
}

// CatalogLoader refreshes catalog entries from the registry.
type CatalogLoader interface {
	Fetch(ctx context.Context) error
	LoadSnapshot(ctx context.Context) (int, error)
}

// AgencyLoader replaces agency usage records from a workbook.
type AgencyLoader interface {
	Load(ctx context.Context, workbook io.Reader) (int, error)
}

// ServiceCatalogReader is the read model for classification results.
type ServiceCatalogReader interface {
	ListClassifications(ctx context.Context, filter domain.ClassificationFilter) ([]domain.ServiceClassification, error)
	ClassificationStats(ctx context.Context) (domain.ClassificationStats, error)
	AnalysisRunStats(ctx context.Context) (domain.AnalysisRunStats, error)
	LastAnalysisRun(ctx context.Context, entryID string) (*domain.AnalysisRun, error)
}

// AgencyReader is the read model for agency usage and matches.
type AgencyReader interface {
	ListAgencies(ctx context.Context, filter domain.AgencyFilter) ([]domain.AgencyUsageRecord, error)
	AgencyStats(ctx context.Context) (domain.AgencyStats, error)
	AgencyBySlug(ctx context.Context, slug string) ([]domain.AgencyUsageRecord, error)
	MatchesForAgency(ctx context.Context, slug string, confidence domain.Confidence) ([]domain.AgencyServiceMatch, error)
}

// JobPublisher enqueues pipeline passes.
type JobPublisher interface {
	PublishJob(ctx context.Context, job domain.Job) error
}
