package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/trackstudio/trackstudio-api/internal/auth"
	"github.com/trackstudio/trackstudio-api/internal/config"
	"github.com/trackstudio/trackstudio-api/internal/domain"
	"github.com/trackstudio/trackstudio-api/internal/events"
	"github.com/trackstudio/trackstudio-api/internal/generation"
	"github.com/trackstudio/trackstudio-api/internal/platform/gemini"
	"github.com/trackstudio/trackstudio-api/internal/platform/musicapi"
	"github.com/trackstudio/trackstudio-api/internal/platform/postgres"
	"github.com/trackstudio/trackstudio-api/internal/poller"
	"github.com/trackstudio/trackstudio-api/internal/queue"
	"github.com/trackstudio/trackstudio-api/internal/scheduler"
	"github.com/trackstudio/trackstudio-api/internal/service"
	"github.com/trackstudio/trackstudio-api/internal/store"
)

// application holds the shared application dependencies to simplify
// lifecycle management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// Optional database; nil when no URL is configured.
	db      *sql.DB
	history store.HistoryStore

	// Queue state and orchestration
	queueStore *queue.Store
	jobs       *queue.JobRegistry
	binder     *queue.TaskBinder
	scope      *scheduler.SchedulingScope
	emitter    *events.InMemoryEmitter
	scheduler  *scheduler.Scheduler
	poller     *poller.StatusPoller

	// Provider adapters
	providerClient  *musicapi.Client
	lyricsGenerator generation.LyricsGenerator

	// Services and server
	jwtService   auth.JWTService
	queueService *service.QueueService
	server       *appServer
}

// newApplication wires every component from the configuration. Optional
// collaborators (database, lyrics LLM) are left nil when unconfigured;
// the rest of the system degrades gracefully around them.
func newApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	log := slog.Default()

	app := &application{
		config: cfg,
		logger: log,
	}

	// Optional job history backend.
	if cfg.Database.URL != "" {
		db, err := openDatabase(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := runMigrations(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		app.db = db
		app.history = postgres.NewPostgresHistoryStore(db, log)
	}

	providerClient, err := musicapi.NewClient(log, musicapi.Config{
		BaseURL:     cfg.Provider.BaseURL,
		APIKey:      cfg.Provider.APIKey,
		CallbackURL: cfg.Provider.CallbackURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create provider client: %w", err)
	}
	app.providerClient = providerClient

	// Optional lyrics generation.
	if cfg.LLM.GeminiAPIKey != "" {
		lyricsGenerator, err := gemini.NewLyricsGenerator(ctx, log, cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("failed to create lyrics generator: %w", err)
		}
		app.lyricsGenerator = lyricsGenerator
	}

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}
	app.jwtService = jwtService

	// Queue state
	app.queueStore = queue.NewStore(log)
	initialPolicy := domain.QueueConfig{
		AutoRun:        cfg.Queue.AutoRun,
		MaxConcurrency: cfg.Queue.MaxConcurrency,
	}
	if err := app.queueStore.SetConfig(initialPolicy); err != nil {
		return nil, fmt.Errorf("invalid queue configuration: %w", err)
	}
	app.jobs = queue.NewJobRegistry(log)
	app.binder = queue.NewTaskBinder(log)
	app.scope = scheduler.NewSchedulingScope("")

	// Dispatch and reconciliation
	app.scheduler = scheduler.NewScheduler(
		app.queueStore, app.jobs, app.binder, providerClient, app.scope, log)
	app.queueService = service.NewQueueService(
		app.queueStore, app.jobs, app.scheduler, app.scope, app.history, log)
	app.scheduler.SetCreditHooks(app.queueService.CreditHooks())

	app.emitter = events.NewInMemoryEmitter(log)
	reconciler := scheduler.NewReconciler(
		app.queueStore, app.jobs, app.scheduler, app.history, log)
	app.emitter.RegisterHandler(reconciler)

	app.poller = poller.New(app.jobs, providerClient, app.emitter, poller.Config{
		Interval:          cfg.Provider.PollInterval,
		EstimatedDuration: cfg.Provider.EstimatedDuration,
	}, log)

	app.server = newAppServer(cfg.Server.Port, app.setupRouter(), log)

	return app, nil
}

// start launches the background loops and the HTTP listener.
func (app *application) start() {
	app.poller.Start()
	app.server.start()
}

// shutdown stops everything in reverse dependency order: no new requests,
// then no new polls, then wait for in-flight submissions.
func (app *application) shutdown() {
	app.server.shutdown()
	app.poller.Stop()
	app.scheduler.Stop()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", "error", err)
		}
	}

	app.logger.Info("shutdown complete")
}
