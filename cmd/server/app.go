package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/shelf/internal/config"
	"github.com/phrazzld/shelf/internal/events"
	"github.com/phrazzld/shelf/internal/media"
	"github.com/phrazzld/shelf/internal/platform/postgres"
	"github.com/phrazzld/shelf/internal/sqlscript"
	"github.com/phrazzld/shelf/internal/store"
	"github.com/phrazzld/shelf/internal/task"
)

// application holds the shared dependencies of the server so they can be
// shut down in order.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	mediaStore   store.MediaStore
	registry     *task.Registry
	coordinator  *task.Coordinator
	eventEmitter *events.InMemoryEventEmitter
}

// newApplication wires stores, actions, the coordinator and the event
// emitter. The coordinator is not started until Run.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config:     cfg,
		logger:     logger,
		db:         db,
		mediaStore: postgres.NewPostgresMediaStore(db),
	}

	scripts, err := sqlscript.Load(cfg.Task.ScriptsDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load sql scripts: %w", err)
	}

	actions := media.Actions(app.mediaStore, cfg.Task.MediaRoot, logger)
	actions = append(actions, sqlscript.Actions(scripts)...)
	app.registry, err = task.NewRegistry(actions...)
	if err != nil {
		return nil, fmt.Errorf("failed to register actions: %w", err)
	}

	app.coordinator = task.NewCoordinator(db, app.registry, task.CoordinatorConfig{
		PoolSize:         cfg.Task.PoolSize,
		CommandBuffer:    cfg.Task.CommandBuffer,
		RunChannelBuffer: cfg.Task.RunChannelBuffer,
	}, logger)

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(task.NewActionRequestHandler(app.coordinator, logger), events.TypeActionRequested)
	app.coordinator.SetEmitter(app.eventEmitter)

	logger.Info("application initialized", "action_count", app.registry.Len())
	return app, nil
}

// Run starts the coordinator, requests the configured startup actions and
// serves HTTP until ctx is canceled.
func (app *application) Run(ctx context.Context) error {
	app.coordinator.Start()
	app.requestStartupActions(ctx)

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// requestStartupActions emits one action request per configured startup
// action. Failures are logged; they never stop the server.
func (app *application) requestStartupActions(ctx context.Context) {
	for _, name := range app.config.Task.StartupActions {
		event, err := events.NewEvent(events.TypeActionRequested, events.ActionRequest{
			Action: name,
			Mode:   app.config.Task.DefaultMode,
		})
		if err != nil {
			app.logger.Error("failed to build startup action request", "action", name, "error", err)
			continue
		}
		if err := app.eventEmitter.EmitEvent(ctx, event); err != nil {
			app.logger.Warn("startup action not started", "action", name, "error", err)
		}
	}
}

// cleanup drains running actions, then closes the database.
func (app *application) cleanup() {
	if app.coordinator != nil {
		app.coordinator.Shutdown()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
