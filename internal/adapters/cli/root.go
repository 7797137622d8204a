// Package cli is the operator command line for the catalog pipeline.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/kirillkom/fedramp-ai-catalog/internal/core/ports"
	"github.com/kirillkom/fedramp-ai-catalog/internal/observability/logging"
)

// Backend is the set of use cases a command runs against. Fields a
// command does not need may be nil.
type Backend struct {
	Catalog  ports.CatalogLoader
	Agencies ports.AgencyLoader
	Classify ports.ClassificationRunner
	Match    ports.MatchRunner
	Services ports.ServiceCatalogReader
	Reports  ports.AgencyReader
	Close    func()
}

type OpenRequest struct {
	Logger    *slog.Logger
	Generator bool
	Workers   int
}

// Opener wires a Backend. The classify command asks for the generator;
// everything else runs against the store alone.
type Opener func(ctx context.Context, req OpenRequest) (*Backend, error)

type rootOptions struct {
	open      Opener
	logLevel  string
	logFormat string
}

func NewRootCommand(open Opener) *cobra.Command {
	opts := &rootOptions{open: open}

	root := &cobra.Command{
		Use:           "catalog",
		Short:         "Classify the authorized cloud catalog and match agency AI usage",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(
		newFetchCommand(opts),
		newLoadCatalogCommand(opts),
		newLoadAgenciesCommand(opts),
		newClassifyCommand(opts),
		newMatchCommand(opts),
		newStatsCommand(opts),
	)
	return root
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	return logging.NewLogger(cmd.ErrOrStderr(), "catalog-cli", o.logLevel, o.logFormat)
}

// withBackend opens the backend, runs fn and releases it.
func (o *rootOptions) withBackend(cmd *cobra.Command, req OpenRequest, fn func(*Backend) error) error {
	if o.open == nil {
		return errors.New("catalog backend is not configured")
	}
	if req.Logger == nil {
		req.Logger = o.logger(cmd)
	}
	backend, err := o.open(commandContext(cmd), req)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	if backend.Close != nil {
		defer backend.Close()
	}
	return fn(backend)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
