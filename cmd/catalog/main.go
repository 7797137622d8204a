package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirillkom/fedramp-ai-catalog/internal/adapters/cli"
	"github.com/kirillkom/fedramp-ai-catalog/internal/bootstrap"
	"github.com/kirillkom/fedramp-ai-catalog/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(openBackend).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func openBackend(ctx context.Context, req cli.OpenRequest) (*cli.Backend, error) {
	cfg := config.Load()
	if req.Workers > 0 {
		cfg.ClassifyWorkers = req.Workers
	}

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Logger: req.Logger, Generator: req.Generator})
	if err != nil {
		return nil, err
	}

	backend := &cli.Backend{
		Catalog:  app.CatalogUC,
		Agencies: app.AgenciesUC,
		Match:    app.MatchUC,
		Services: app.ReportsUC,
		Reports:  app.ReportsUC,
		Close:    app.Close,
	}
	if app.ClassifyUC != nil {
		backend.Classify = app.ClassifyUC
	}
	return backend, nil
}
