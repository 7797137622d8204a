package ports

import (
	"context"
	"io"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
)

// TextGenerator is the external text-generation capability used to
// classify catalog entries.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// CatalogRepository persists registry entries.
type CatalogRepository interface {
	UpsertEntries(ctx context.Context, entries []domain.CatalogEntry) (int, error)
	ListEntries(ctx context.Context) ([]domain.CatalogEntry, error)
}

// ClassificationSession is the single write path of a classification pass.
// SaveEntry writes one entry's run and findings atomically; a rejected
// entry returns an error of kind domain.ErrEntryRejected and leaves the
// session usable. Checkpoint commits everything saved so far.
type ClassificationSession interface {
	SaveEntry(ctx context.Context, run domain.AnalysisRun, findings []domain.ServiceClassification) error
	Checkpoint(ctx context.Context) error
	Close() error
}

// ClassificationRepository stores classification facts and run history.
type ClassificationRepository interface {
	ClearClassifications(ctx context.Context) error
	BeginSession(ctx context.Context) (ClassificationSession, error)
	ListClassifications(ctx context.Context, filter domain.ClassificationFilter) ([]domain.ServiceClassification, error)
	ClassificationStats(ctx context.Context) (domain.ClassificationStats, error)
	LastAnalysisRun(ctx context.Context, entryID string) (*domain.AnalysisRun, error)
	AnalysisRunStats(ctx context.Context) (domain.AnalysisRunStats, error)
}

// AgencyRepository stores agency usage records. ReplaceAgencies drops the
// previous load, including matches that referenced it.
type AgencyRepository interface {
	ReplaceAgencies(ctx context.Context, records []domain.AgencyUsageRecord) (int, error)
	ListAgencies(ctx context.Context, filter domain.AgencyFilter) ([]domain.AgencyUsageRecord, error)
	AgencyStats(ctx context.Context) (domain.AgencyStats, error)
}

// MatchRepository stores agency-to-service links.
type MatchRepository interface {
	ReplaceMatches(ctx context.Context, matches []domain.AgencyServiceMatch) error
	ListMatches(ctx context.Context, filter domain.MatchFilter) ([]domain.AgencyServiceMatch, error)
}

// ObjectStorage keeps raw registry snapshots.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// RegistrySource downloads the marketplace snapshot.
type RegistrySource interface {
	Fetch(ctx context.Context) (io.ReadCloser, error)
}

// SnapshotDecoder turns a raw snapshot into catalog entries.
type SnapshotDecoder interface {
	Decode(r io.Reader) ([]domain.CatalogEntry, error)
}

// AgencyWorkbookReader parses the agency provisioning workbook.
type AgencyWorkbookReader interface {
	ReadAgencies(r io.Reader) ([]domain.AgencyUsageRecord, error)
}

// JobQueue publishes/consumes pipeline jobs.
type JobQueue interface {
	PublishJob(ctx context.Context, job domain.Job) error
	SubscribeJobs(ctx context.Context, handler func(context.Context, domain.Job) error) error
}

// PipelineObserver receives progress signals from the pipeline. Metrics
// implement it; nil observers are allowed where accepted.
type PipelineObserver interface {
	EntryStarted()
	EntryFinished(outcome string, findings []domain.ServiceClassification, seconds float64)
	CheckpointCommitted()
	MatchRecorded(confidence domain.Confidence)
}
