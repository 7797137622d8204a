package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/fedramp-ai-catalog/internal/config"
	"github.com/kirillkom/fedramp-ai-catalog/internal/core/ports"
	"github.com/kirillkom/fedramp-ai-catalog/internal/core/usecase"
	"github.com/kirillkom/fedramp-ai-catalog/internal/infrastructure/queue/nats"
	"github.com/kirillkom/fedramp-ai-catalog/internal/infrastructure/registry"
	"github.com/kirillkom/fedramp-ai-catalog/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/fedramp-ai-catalog/internal/infrastructure/resilience"
	"github.com/kirillkom/fedramp-ai-catalog/internal/infrastructure/spreadsheet"
	"github.com/kirillkom/fedramp-ai-catalog/internal/infrastructure/storage/localfs"
)

// Options selects the optional collaborators a process needs. The API
// never talks to the text generator; the CLI never talks to NATS.
type Options struct {
	Logger    *slog.Logger
	Observer  ports.PipelineObserver
	Queue     bool
	Generator bool
}

type App struct {
	Config config.Config
	Logger *slog.Logger

	Queue *nats.Queue

	CatalogUC  *usecase.CatalogUseCase
	AgenciesUC *usecase.LoadAgenciesUseCase
	ClassifyUC *usecase.ClassifyCatalogUseCase
	MatchUC    *usecase.MatchAgenciesUseCase
	ReportsUC  *usecase.ReportsUseCase
	JobsUC     *usecase.EnqueueJobUseCase
	JobHandler *usecase.JobHandler

	db        *sql.DB
	executors []*resilience.Executor
	closeFn   func()
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.Migrate(ctx, db, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	fetchExec := resilience.NewExecutor(resilience.FetchPolicy())

	catalogRepo := postgres.NewCatalogRepository(db)
	classificationRepo := postgres.NewClassificationRepository(db)
	agencyRepo := postgres.NewAgencyRepository(db)
	matchRepo := postgres.NewMatchRepository(db)

	app := &App{
		Config: cfg,
		Logger: logger,
		db:     db,

		executors: []*resilience.Executor{fetchExec},

		CatalogUC: usecase.NewCatalogUseCase(
			registry.NewClient(cfg.RegistryURL, time.Duration(cfg.RegistryTimeoutSeconds)*time.Second, fetchExec),
			storage,
			registry.NewDecoder(),
			catalogRepo,
			logger,
		),
		AgenciesUC: usecase.NewLoadAgenciesUseCase(spreadsheet.NewAgencyReader(), agencyRepo, logger),
		MatchUC:    usecase.NewMatchAgenciesUseCase(agencyRepo, catalogRepo, matchRepo, opts.Observer, logger),
		ReportsUC:  usecase.NewReportsUseCase(classificationRepo, agencyRepo, matchRepo),
	}

	if opts.Generator {
		llmExec := resilience.NewExecutor(ClassificationPolicy(cfg))
		generator, err := NewGenerator(cfg, llmExec)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		app.ClassifyUC = usecase.NewClassifyCatalogUseCase(
			catalogRepo,
			classificationRepo,
			usecase.NewClassifier(generator),
			opts.Observer,
			logger,
			usecase.ClassifyConfig{Workers: cfg.ClassifyWorkers, CheckpointEvery: cfg.ClassifyCheckpointEvery},
		)
		app.JobHandler = usecase.NewJobHandler(app.ClassifyUC, app.MatchUC, logger)
		app.executors = append(app.executors, llmExec)
	}

	if opts.Queue {
		publishExec := resilience.NewExecutor(resilience.PublishPolicy())
		queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{ResilienceExecutor: publishExec})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init job queue: %w", err)
		}
		app.Queue = queue
		app.JobsUC = usecase.NewEnqueueJobUseCase(queue)
		app.executors = append(app.executors, publishExec)
	}

	app.closeFn = func() {
		if app.Queue != nil {
			app.Queue.Close()
		}
		_ = db.Close()
	}
	return app, nil
}

// Ping reports whether the catalog store is reachable.
func (a *App) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// BreakerStates reports the circuit state of every outbound operation the
// process has called so far, keyed by operation name.
func (a *App) BreakerStates() map[string]string {
	return mergeBreakerStates(a.executors...)
}

func mergeBreakerStates(executors ...*resilience.Executor) map[string]string {
	states := make(map[string]string)
	for _, executor := range executors {
		for op, state := range executor.States() {
			states[op] = state
		}
	}
	return states
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
