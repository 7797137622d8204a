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

	httpadapter "github.com/kirillkom/fedramp-ai-catalog/internal/adapters/http"
	"github.com/kirillkom/fedramp-ai-catalog/internal/bootstrap"
	"github.com/kirillkom/fedramp-ai-catalog/internal/config"
	"github.com/kirillkom/fedramp-ai-catalog/internal/observability/logging"
	"github.com/kirillkom/fedramp-ai-catalog/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewLogger(os.Stdout, "catalog-api", cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Logger: logger, Queue: true})
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	router := httpadapter.NewRouter(cfg, httpadapter.Dependencies{
		Services: app.ReportsUC,
		Agencies: app.ReportsUC,
		Jobs:     app.JobsUC,
		Metrics:  metrics.NewHTTPServerMetrics("catalog-api"),
		Health:   app.Ping,
		Breakers: app.BreakerStates,
	})
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}
