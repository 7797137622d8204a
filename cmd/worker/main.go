package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kirillkom/fedramp-ai-catalog/internal/bootstrap"
	"github.com/kirillkom/fedramp-ai-catalog/internal/config"
	"github.com/kirillkom/fedramp-ai-catalog/internal/core/domain"
	"github.com/kirillkom/fedramp-ai-catalog/internal/observability/logging"
	"github.com/kirillkom/fedramp-ai-catalog/internal/observability/metrics"
)

// jobTimeout bounds one pass; a full classification of the catalog is
// dominated by model latency.
const jobTimeout = 6 * time.Hour

func main() {
	cfg := config.Load()
	logger := logging.NewLogger(os.Stdout, "catalog-worker", cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipelineMetrics := metrics.NewPipelineMetrics("catalog-worker")
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Logger:    logger,
		Observer:  pipelineMetrics,
		Queue:     true,
		Generator: true,
	})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           pipelineMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("worker_metrics_listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeJobs(ctx, func(handlerCtx context.Context, job domain.Job) error {
		jobCtx, cancel := context.WithTimeout(handlerCtx, jobTimeout)
		defer cancel()

		started := time.Now()
		err := app.JobHandler.Handle(jobCtx, job)
		pipelineMetrics.FinishJob(job.Kind, time.Since(started), err)
		return err
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
