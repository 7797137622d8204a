package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
	"github.com/kirillkom/fedramp-ai-catalog/internal/core/ports"
)

// EnqueueJobUseCase queues a pipeline pass for the worker.
type EnqueueJobUseCase struct {
	queue ports.JobPublisher
}

func NewEnqueueJobUseCase(queue ports.JobPublisher) *EnqueueJobUseCase {
	return &EnqueueJobUseCase{queue: queue}
}

func (uc *EnqueueJobUseCase) Enqueue(ctx context.Context, rawKind string, clearExisting bool) (domain.Job, error) {
	kind, ok := domain.ParseJobKind(rawKind)
	if !ok {
		return domain.Job{}, domain.WrapError(domain.ErrInvalidInput, "enqueue job", fmt.Errorf("unknown job kind %q", rawKind))
	}
	job := domain.Job{
		ID:            uuid.NewString(),
		Kind:          kind,
		ClearExisting: clearExisting && kind == domain.JobClassify,
	}
	if err := uc.queue.PublishJob(ctx, job); err != nil {
		return domain.Job{}, fmt.Errorf("publish %s job: %w", kind, err)
	}
	return job, nil
}

// JobHandler runs queued passes inside the worker.
type JobHandler struct {
	classify ports.ClassificationRunner
	match    ports.MatchRunner
	logger   *slog.Logger
}

func NewJobHandler(classify ports.ClassificationRunner, match ports.MatchRunner, logger *slog.Logger) *JobHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobHandler{classify: classify, match: match, logger: logger}
}

func (h *JobHandler) Handle(ctx context.Context, job domain.Job) error {
	logger := h.logger.With("job_id", job.ID, "kind", job.Kind)
	switch job.Kind {
	case domain.JobClassify:
		stats, err := h.classify.Run(ctx, job.ClearExisting)
		if err != nil {
			return fmt.Errorf("classify job %s: %w", job.ID, err)
		}
		logger.Info("job_completed", "processed", stats.Processed, "failed", stats.Failed, "total_ai_services", stats.TotalAIServices)
	case domain.JobMatch:
		summary, err := h.match.Run(ctx)
		if err != nil {
			return fmt.Errorf("match job %s: %w", job.ID, err)
		}
		logger.Info("job_completed", "agencies_processed", summary.AgenciesProcessed, "total_matches", summary.TotalMatches)
	default:
		return domain.WrapError(domain.ErrInvalidInput, "handle job", fmt.Errorf("unknown job kind %q", job.Kind))
	}
	return nil
}
