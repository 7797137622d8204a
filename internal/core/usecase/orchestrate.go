package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
	"github.com/kirillkom/fedramp-ai-catalog/internal/core/ports"
)

const DefaultCheckpointEvery = 10

type ClassifyConfig struct {
	Workers         int
	CheckpointEvery int
}

type ClassifyCatalogUseCase struct {
	catalog    ports.CatalogRepository
	repo       ports.ClassificationRepository
	classifier EntryClassifier
	observer   ports.PipelineObserver
	logger     *slog.Logger
	cfg        ClassifyConfig
	now        func() time.Time
	newPassID  func() string
}

func NewClassifyCatalogUseCase(
	catalog ports.CatalogRepository,
	repo ports.ClassificationRepository,
	classifier EntryClassifier,
	observer ports.PipelineObserver,
	logger *slog.Logger,
	cfg ClassifyConfig,
) *ClassifyCatalogUseCase {
	if cfg.Workers < 1 {
		cfg.Workers = DefaultWorkerPoolConfig().MaxConcurrent
	}
	if cfg.CheckpointEvery < 1 {
		cfg.CheckpointEvery = DefaultCheckpointEvery
	}
	if observer == nil {
		observer = noopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ClassifyCatalogUseCase{
		catalog:    catalog,
		repo:       repo,
		classifier: classifier,
		observer:   observer,
		logger:     logger,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
		newPassID:  uuid.NewString,
	}
}

// Run classifies every catalog entry once. Per-entry failures are tallied
// and logged; a persistence failure cancels in-flight work and is returned.
func (uc *ClassifyCatalogUseCase) Run(ctx context.Context, clearExisting bool) (domain.PassStats, error) {
	entries, err := uc.catalog.ListEntries(ctx)
	if err != nil {
		return domain.PassStats{}, fmt.Errorf("list catalog entries: %w", err)
	}

	if clearExisting {
		if err := uc.repo.ClearClassifications(ctx); err != nil {
			return domain.PassStats{}, fmt.Errorf("clear classifications: %w", err)
		}
		uc.logger.Info("classification_cleared")
	}

	session, err := uc.repo.BeginSession(ctx)
	if err != nil {
		return domain.PassStats{}, fmt.Errorf("begin classification session: %w", err)
	}
	defer session.Close()

	pass := &passCollector{
		uc:      uc,
		session: session,
		tally:   newPassTally(uc.newPassID(), len(entries)),
	}
	pool := NewWorkerPool(WorkerPoolConfig{MaxConcurrent: uc.cfg.Workers})
	uc.logger.Info("classification_pass_started",
		"pass_id", pass.tally.stats.PassID,
		"entries", len(entries),
		"workers", pool.Size(),
	)

	passCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	pass.cancel = cancel

	byID := make(map[string]domain.CatalogEntry, len(entries))
	items := make([]WorkItem[ClassificationResult], 0, len(entries))
	for _, entry := range entries {
		byID[entry.ExternalID] = entry
		items = append(items, WorkItem[ClassificationResult]{
			ID:      entry.ExternalID,
			Execute: uc.classifyItem(entry),
		})
	}

	Process(passCtx, pool, items, func(wr WorkResult[ClassificationResult], completed, total int) {
		result := wr.Result
		if wr.Err != nil {
			result = ClassificationResult{Entry: byID[wr.ID], Err: wr.Err}
		}
		pass.collect(passCtx, result, completed, total)
	})

	stats := pass.tally.finish()
	if pass.fatal != nil {
		uc.logger.Error("classification_pass_aborted", "pass_id", stats.PassID, "error", pass.fatal)
		return stats, pass.fatal
	}

	// flush whatever the periodic checkpoints did not cover, even when the
	// caller has gone away
	if err := uc.checkpoint(context.WithoutCancel(ctx), session, stats.PassID); err != nil {
		return stats, err
	}
	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("classification pass interrupted: %w", err)
	}

	uc.logger.Info("classification_pass_finished",
		"pass_id", stats.PassID,
		"processed", stats.Processed,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
		"total_ai_services", stats.TotalAIServices,
		"count_ai", stats.CountAI,
		"count_genai", stats.CountGenAI,
		"count_llm", stats.CountLLM,
		"products_with_ai", stats.ProductsWithAI,
		"providers_with_ai", stats.ProvidersWithAI,
	)
	return stats, nil
}

func (uc *ClassifyCatalogUseCase) classifyItem(entry domain.CatalogEntry) func(context.Context) (ClassificationResult, error) {
	return func(ctx context.Context) (ClassificationResult, error) {
		uc.observer.EntryStarted()
		started := time.Now()
		result := uc.classifier.Classify(ctx, entry)
		result.Duration = time.Since(started)
		return result, nil
	}
}

func (uc *ClassifyCatalogUseCase) checkpoint(ctx context.Context, session ports.ClassificationSession, passID string) error {
	if err := session.Checkpoint(ctx); err != nil {
		return fmt.Errorf("checkpoint classification pass %s: %w", passID, err)
	}
	uc.observer.CheckpointCommitted()
	return nil
}

// passCollector is the single writer of a pass. Process calls collect
// sequentially, so it needs no locking.
type passCollector struct {
	uc      *ClassifyCatalogUseCase
	session ports.ClassificationSession
	tally   *passTally
	cancel  context.CancelFunc
	fatal   error
}

func (p *passCollector) collect(ctx context.Context, result ClassificationResult, completed, total int) {
	if p.fatal != nil || ctx.Err() != nil {
		return
	}
	uc := p.uc
	entry := result.Entry

	if result.Err != nil {
		uc.logger.Warn("classification_entry_failed",
			"entry_id", entry.ExternalID,
			"provider", entry.Provider,
			"offering", entry.Offering,
			"error", result.Err,
		)
	}

	analyzedAt := uc.now()
	findings := make([]domain.ServiceClassification, len(result.Findings))
	for i, finding := range result.Findings {
		finding.AnalyzedAt = analyzedAt
		findings[i] = finding
	}
	run := domain.AnalysisRun{
		PassID:        p.tally.stats.PassID,
		EntryID:       entry.ExternalID,
		EntryName:     entry.Offering,
		Provider:      entry.Provider,
		FindingsCount: len(findings),
		AnalyzedAt:    analyzedAt,
	}

	outcome := result.Outcome()
	if err := p.session.SaveEntry(ctx, run, findings); err != nil {
		if !domain.IsKind(err, domain.ErrEntryRejected) {
			p.abort(fmt.Errorf("save classification for entry %s: %w", entry.ExternalID, err))
			return
		}
		uc.logger.Warn("classification_entry_rejected",
			"entry_id", entry.ExternalID,
			"provider", entry.Provider,
			"offering", entry.Offering,
			"error", err,
		)
		outcome = OutcomeFailed
		findings = nil
	}

	p.tally.record(outcome, findings)
	uc.observer.EntryFinished(outcome, findings, result.Duration.Seconds())
	uc.logger.Info("classification_progress",
		"entry_id", entry.ExternalID,
		"outcome", outcome,
		"findings", len(findings),
		"completed", completed,
		"total", total,
		"succeeded", p.tally.stats.Succeeded,
		"failed", p.tally.stats.Failed,
	)

	if completed%uc.cfg.CheckpointEvery == 0 {
		if err := uc.checkpoint(ctx, p.session, p.tally.stats.PassID); err != nil {
			p.abort(err)
			return
		}
		uc.logger.Info("classification_checkpoint", "pass_id", p.tally.stats.PassID, "completed", completed)
	}
}

func (p *passCollector) abort(err error) {
	p.fatal = err
	p.cancel()
}

type passTally struct {
	stats     domain.PassStats
	products  map[string]struct{}
	providers map[string]struct{}
}

func newPassTally(passID string, entries int) *passTally {
	return &passTally{
		stats:     domain.PassStats{PassID: passID, Entries: entries},
		products:  make(map[string]struct{}),
		providers: make(map[string]struct{}),
	}
}

func (t *passTally) record(outcome string, findings []domain.ServiceClassification) {
	t.stats.Processed++
	switch outcome {
	case OutcomeClassified:
		t.stats.Succeeded++
	case OutcomeSkipped:
		t.stats.Skipped++
	default:
		t.stats.Failed++
	}

	for _, finding := range findings {
		t.stats.TotalAIServices++
		if finding.HasAI {
			t.stats.CountAI++
		}
		if finding.HasGenAI {
			t.stats.CountGenAI++
		}
		if finding.HasLLM {
			t.stats.CountLLM++
		}
		t.products[finding.EntryID] = struct{}{}
		t.providers[finding.Provider] = struct{}{}
	}
}

func (t *passTally) finish() domain.PassStats {
	t.stats.ProductsWithAI = len(t.products)
	t.stats.ProvidersWithAI = len(t.providers)
	return t.stats
}

type noopObserver struct{}

func (noopObserver) EntryStarted() {}

func (noopObserver) EntryFinished(string, []domain.ServiceClassification, float64) {}

func (noopObserver) CheckpointCommitted() {}

func (noopObserver) MatchRecorded(domain.Confidence) {}
