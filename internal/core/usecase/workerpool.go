package usecase

import (
	"context"
	"fmt"
	"sync"
)

type WorkerPoolConfig struct {
	MaxConcurrent int
}

func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{MaxConcurrent: 10}
}

// WorkerPool bounds the number of concurrent work items.
type WorkerPool struct {
	config WorkerPoolConfig
}

func NewWorkerPool(config WorkerPoolConfig) *WorkerPool {
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = DefaultWorkerPoolConfig().MaxConcurrent
	}
	return &WorkerPool{config: config}
}

func (p *WorkerPool) Size() int {
	return p.config.MaxConcurrent
}

type WorkItem[T any] struct {
	ID      string
	Execute func(ctx context.Context) (T, error)
}

type WorkResult[T any] struct {
	ID     string
	Result T
	Err    error
}

// Process executes all items with bounded parallelism. onResult runs on the
// calling goroutine, once per item, in completion order; it is never called
// concurrently. Items not yet started when ctx is cancelled report ctx.Err().
func Process[T any](
	ctx context.Context,
	pool *WorkerPool,
	items []WorkItem[T],
	onResult func(result WorkResult[T], completed, total int),
) {
	if len(items) == 0 {
		return
	}

	resultsChan := make(chan WorkResult[T], len(items))
	sem := make(chan struct{}, pool.config.MaxConcurrent)

	var wg sync.WaitGroup
	for _, item := range items {
		wg.Add(1)
		go func(item WorkItem[T]) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				resultsChan <- WorkResult[T]{ID: item.ID, Err: ctx.Err()}
				return
			}
			if err := ctx.Err(); err != nil {
				resultsChan <- WorkResult[T]{ID: item.ID, Err: err}
				return
			}

			resultsChan <- runItem(ctx, item)
		}(item)
	}

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	completed := 0
	for result := range resultsChan {
		completed++
		if onResult != nil {
			onResult(result, completed, len(items))
		}
	}
}

func runItem[T any](ctx context.Context, item WorkItem[T]) (out WorkResult[T]) {
	out.ID = item.ID
	defer func() {
		if r := recover(); r != nil {
			out.Err = fmt.Errorf("work item %s panicked: %v", item.ID, r)
		}
	}()
	out.Result, out.Err = item.Execute(ctx)
	return out
}
