package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/phrazzld/shelf/internal/store"
	"github.com/phrazzld/shelf/internal/task"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes so handlers
// never have to inspect error types themselves.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, task.ErrActionNotFound),
		errors.Is(err, task.ErrTaskNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, task.ErrActionNotRunnable),
		errors.Is(err, task.ErrTaskRunning):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// The engine is shutting down
	case errors.Is(err, task.ErrCoordinatorStopped),
		errors.Is(err, task.ErrQueueClosed):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for err that carries no
// internal detail.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, task.ErrActionNotFound):
		return "Action not found"
	case errors.Is(err, task.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, task.ErrActionNotRunnable):
		if strings.Contains(err.Error(), "dry run") {
			return "Action does not support dry runs"
		}
		return "Action is not runnable"
	case errors.Is(err, task.ErrTaskRunning):
		return "Task is still running"
	case errors.Is(err, task.ErrCoordinatorStopped),
		errors.Is(err, task.ErrQueueClosed):
		return "Task engine is shutting down"
	case errors.Is(err, store.ErrNotFound):
		return "Media not found"
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns a validator error into a short message
// naming the field, e.g. "Invalid Mode: invalid value".
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Format: "Key: 'StartActionRequest.Mode' Error:Field validation for 'Mode' failed on the 'oneof' tag"
	if strings.Contains(errMsg, "Field validation") {
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				if len(fieldParts) >= 5 && fieldParts[3] != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(fieldParts[3]))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
