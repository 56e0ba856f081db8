package task

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

// Action is a named kind of background job that can be started by the
// coordinator.
// Version: 1.0
type Action interface {
	// Name is the unique key the action is registered under.
	Name() string

	// Label is a human readable name.
	Label() string

	// Description explains what the action does.
	Description() string

	// IsRunnable reports whether the action may be started.
	IsRunnable() bool

	// CanDryRun reports whether the action supports computing without persisting.
	CanDryRun() bool

	// RunTask executes the action, reporting progress and logs on out.
	// Returning an error fails the run with that error as the reason.
	RunTask(ctx context.Context, db *sql.DB, out Sender, dryRun bool, taskID uint32, opts Options) error
}

// Registry is the name to action lookup table. It is built once at startup
// and read-only afterwards.
type Registry struct {
	actions map[string]Action
}

// NewRegistry registers every given action, rejecting duplicate names.
func NewRegistry(actions ...Action) (*Registry, error) {
	r := &Registry{actions: make(map[string]Action, len(actions))}
	for _, a := range actions {
		if _, exists := r.actions[a.Name()]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAction, a.Name())
		}
		r.actions[a.Name()] = a
	}
	return r, nil
}

// Get returns the action registered under name.
func (r *Registry) Get(name string) (Action, error) {
	a, ok := r.actions[name]
	if !ok {
		return nil, NotFoundError(name)
	}
	return a, nil
}

// List returns all registered actions sorted by name.
func (r *Registry) List() []Action {
	out := make([]Action, 0, len(r.actions))
	for _, a := range r.actions {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Len returns the number of registered actions.
func (r *Registry) Len() int {
	return len(r.actions)
}

// validateStart checks that action can be started with the given dry run flag.
func validateStart(action Action, dryRun bool) error {
	if !action.IsRunnable() {
		return NotRunnableError(action.Name(), "action is disabled")
	}
	if dryRun && !action.CanDryRun() {
		return NotRunnableError(action.Name(), "dry run is not supported")
	}
	return nil
}
