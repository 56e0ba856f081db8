// Package logger configures the process-wide slog JSON logger from the
// server config and carries request- and task-scoped loggers in contexts.
package logger
