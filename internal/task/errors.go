package task

import (
	"errors"
	"fmt"
)

// Error kinds. Every error produced by this package wraps exactly one of
// these so callers can decide between local recovery and run-level failure
// with errors.Is.
var (
	// ErrItemFailed marks a failure confined to one task item. The run continues.
	ErrItemFailed = errors.New("item processing failed")

	// ErrPipelineFailed marks a failure in analysis or item enumeration. The run aborts.
	ErrPipelineFailed = errors.New("pipeline failed")

	// ErrSendFailed is returned when the receiving side of a channel is gone.
	ErrSendFailed = errors.New("send failed: receiver is gone")

	// ErrActionNotFound is returned when no action is registered under a name.
	ErrActionNotFound = errors.New("action not found")

	// ErrActionNotRunnable is returned for actions that cannot be started, or
	// that were asked for a dry run they do not support.
	ErrActionNotRunnable = errors.New("action is not runnable")
)

// Registry, manager and pool errors.
var (
	ErrDuplicateAction    = errors.New("action already registered")
	ErrTaskNotFound       = errors.New("task not found")
	ErrTaskCompleted      = errors.New("task already completed")
	ErrTaskRunning        = errors.New("task is still running")
	ErrQueueClosed        = errors.New("job queue is closed")
	ErrCoordinatorStopped = errors.New("coordinator is stopped")
)

// Error carries one of the error kinds above together with the operation
// that failed and, optionally, the underlying cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// PipelineError wraps err as a run-level failure of op.
func PipelineError(op string, err error) error {
	return &Error{Kind: ErrPipelineFailed, Op: op, Err: err}
}

// ItemError wraps err as a failure of a single item.
func ItemError(item string, err error) error {
	return &Error{Kind: ErrItemFailed, Op: fmt.Sprintf("item %q", item), Err: err}
}

// SendError reports that a message could not be delivered.
func SendError(op string) error {
	return &Error{Kind: ErrSendFailed, Op: op}
}

// NotFoundError reports that the named action does not exist.
func NotFoundError(name string) error {
	return &Error{Kind: ErrActionNotFound, Op: fmt.Sprintf("action %q", name)}
}

// NotRunnableError reports that the named action cannot be started as requested.
func NotRunnableError(name, reason string) error {
	return &Error{Kind: ErrActionNotRunnable, Op: fmt.Sprintf("action %q", name), Err: errors.New(reason)}
}
