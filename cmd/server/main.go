// Package main implements the shelf server: it loads configuration, applies
// database migrations, registers the media and SQL-script actions and serves
// the task API until SIGINT or SIGTERM.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/shelf/internal/config"
	"github.com/phrazzld/shelf/internal/platform/logger"
	"github.com/phrazzld/shelf/internal/platform/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (default: ./config.yaml if present)")
	migrateStatus := flag.Bool("migrate-status", false, "print migration status and exit")
	flag.Parse()

	if err := run(*configPath, *migrateStatus); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, migrateStatus bool) error {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"pool_size", cfg.Task.PoolSize,
		"default_mode", cfg.Task.DefaultMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}

	if migrateStatus {
		defer func() { _ = db.Close() }()
		return postgres.MigrationStatus(ctx, db, log)
	}
	if cfg.Database.MigrateOnStart {
		if err := postgres.Migrate(ctx, db, log); err != nil {
			_ = db.Close()
			return err
		}
	}

	app, err := newApplication(cfg, log, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
