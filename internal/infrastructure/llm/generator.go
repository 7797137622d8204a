package llm

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/ports"
	"github.com/kirillkom/fedramp-ai-catalog/internal/infrastructure/resilience"
)

// Guarded runs every generation through the resilience executor. Failures
// that may clear up on their own come back as domain.ErrTemporary.
type Guarded struct {
	next      ports.TextGenerator
	executor  *resilience.Executor
	operation string
}

func Guard(next ports.TextGenerator, executor *resilience.Executor, operation string) *Guarded {
	if operation == "" {
		operation = "llm_generate"
	}
	return &Guarded{next: next, executor: executor, operation: operation}
}

func (g *Guarded) Generate(ctx context.Context, prompt string) (string, error) {
	var out string
	err := g.executor.Execute(ctx, g.operation, func(ctx context.Context) error {
		text, err := g.next.Generate(ctx, prompt)
		if err != nil {
			return err
		}
		out = text
		return nil
	}, ClassifyError)
	if err != nil {
		return "", wrapTemporaryIfNeeded(g.operation, err)
	}
	return out, nil
}

// Limited spaces out generation calls shared by all workers of a pass.
type Limited struct {
	next    ports.TextGenerator
	limiter *rate.Limiter
}

// Limit wraps next with a token bucket. A non-positive rate disables it.
func Limit(next ports.TextGenerator, requestsPerSecond float64, burst int) ports.TextGenerator {
	if requestsPerSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &Limited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

func (l *Limited) Generate(ctx context.Context, prompt string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return l.next.Generate(ctx, prompt)
}
