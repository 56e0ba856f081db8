// Package sqlscript exposes the *.sql files of a directory as runnable
// actions. Each script runs in one transaction; a dry run executes it and
// rolls back.
package sqlscript

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/phrazzld/shelf/internal/platform/logger"
	"github.com/phrazzld/shelf/internal/store"
	"github.com/phrazzld/shelf/internal/task"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NamePrefix is prepended to the base name of every script action.
const NamePrefix = "script_"

// Script is an action backed by one SQL file.
type Script struct {
	name        string
	label       string
	description string
	path        string
	sql         string
	logger      *slog.Logger
}

var _ task.Action = (*Script)(nil)

// Load reads every *.sql file in dir, sorted by name. A missing directory
// yields no scripts.
func Load(dir string, logger *slog.Logger) ([]*Script, error) {
	logger = logger.With("component", "sqlscript", "dir", dir)
	if dir == "" {
		return nil, nil
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.sql"))
	if err != nil {
		return nil, fmt.Errorf("listing scripts: %w", err)
	}
	if len(paths) == 0 {
		if _, statErr := os.Stat(dir); errors.Is(statErr, fs.ErrNotExist) {
			logger.Warn("scripts directory does not exist")
		}
		return nil, nil
	}
	sort.Strings(paths)

	scripts := make([]*Script, 0, len(paths))
	for _, path := range paths {
		s, err := loadScript(path, logger)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, s)
	}

	logger.Info("loaded sql scripts", "count", len(scripts))
	return scripts, nil
}

// Actions converts scripts to task actions.
func Actions(scripts []*Script) []task.Action {
	actions := make([]task.Action, len(scripts))
	for i, s := range scripts {
		actions[i] = s
	}
	return actions
}

func loadScript(path string, logger *slog.Logger) (*Script, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading script %s: %w", path, err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	name := NamePrefix + base
	return &Script{
		name:        name,
		label:       cases.Title(language.English).String(strings.ReplaceAll(base, "_", " ")),
		description: leadingComment(string(content)),
		path:        path,
		sql:         string(content),
		logger:      logger.With("action", name),
	}, nil
}

// leadingComment joins the "--" lines at the top of a script.
func leadingComment(content string) string {
	var parts []string
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" && len(parts) == 0 {
			continue
		}
		if !strings.HasPrefix(line, "--") {
			break
		}
		if text := strings.TrimSpace(strings.TrimPrefix(line, "--")); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

func (s *Script) Name() string        { return s.name }
func (s *Script) Label() string       { return s.label }
func (s *Script) Description() string { return s.description }
func (s *Script) IsRunnable() bool    { return true }
func (s *Script) CanDryRun() bool     { return true }

// Path is the file the script was loaded from.
func (s *Script) Path() string { return s.path }

// RunTask executes the script in a single transaction.
func (s *Script) RunTask(
	ctx context.Context,
	db *sql.DB,
	out task.Sender,
	dryRun bool,
	taskID uint32,
	opts task.Options,
) error {
	log := s.logger.With("task_id", taskID, "dry_run", dryRun)
	ctx = logger.WithLogger(ctx, log)

	if err := out.Send(task.LogInfo(taskID, "executing "+filepath.Base(s.path))); err != nil {
		return err
	}

	var affected int64
	err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, s.sql)
		if err != nil {
			return err
		}
		// Drivers may not report a count for multi-statement scripts.
		if n, err := result.RowsAffected(); err == nil {
			affected = n
		}
		if dryRun {
			return fmt.Errorf("%w: dry run", store.ErrRollback)
		}
		return nil
	})
	if err != nil {
		log.Error("script failed", "error", err)
		return task.PipelineError("execute "+s.name, err)
	}

	text := fmt.Sprintf("%d row(s) affected", affected)
	if dryRun {
		text = fmt.Sprintf("dry run: %d row(s) would be affected, rolled back", affected)
	}
	if err := out.Send(task.LogInfo(taskID, text)); err != nil {
		return err
	}
	log.Info("script executed", "rows_affected", affected)
	return out.Send(task.ProgressUpdate(taskID, 1.0))
}
