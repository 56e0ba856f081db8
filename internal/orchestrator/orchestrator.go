package orchestrator

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/phrazzld/shelf/internal/task"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Orchestrator is the task.Action generated from a Processor.
type Orchestrator[A, I, O any] struct {
	processor Processor[A, I, O]
	logger    *slog.Logger

	// waitTick is how long the parallel drain waits for a result before
	// logging that it is still waiting.
	waitTick time.Duration
}

// New wraps processor as an action.
func New[A, I, O any](processor Processor[A, I, O], logger *slog.Logger) *Orchestrator[A, I, O] {
	o := &Orchestrator[A, I, O]{
		processor: processor,
		waitTick:  time.Second,
	}
	o.logger = logger.With("component", "orchestrator", "action", o.Name())
	return o
}

// Name is "{process_action_name}_{item_name}".
func (o *Orchestrator[A, I, O]) Name() string {
	return o.processor.ProcessActionName() + "_" + o.processor.ItemName()
}

// Label is the title-cased name, e.g. "Add Hash".
func (o *Orchestrator[A, I, O]) Label() string {
	return cases.Title(language.English).String(strings.ReplaceAll(o.Name(), "_", " "))
}

func (o *Orchestrator[A, I, O]) Description() string {
	return o.processor.Description()
}

func (o *Orchestrator[A, I, O]) IsRunnable() bool { return true }

func (o *Orchestrator[A, I, O]) CanDryRun() bool { return true }

// RunTask runs the pipeline: analysis, item enumeration, then the linear or
// parallel strategy selected by opts.
func (o *Orchestrator[A, I, O]) RunTask(
	ctx context.Context,
	db *sql.DB,
	out task.Sender,
	dryRun bool,
	taskID uint32,
	opts task.Options,
) error {
	env := Env{
		DB:     db,
		TaskID: taskID,
		DryRun: dryRun,
		Logger: o.logger.With("task_id", taskID, "dry_run", dryRun),
	}
	rep := newReporter(taskID, out)

	analysis, err := o.processor.Analysis(ctx, env, rep)
	if err != nil {
		return task.PipelineError("analysis", err)
	}
	if err := rep.Err(); err != nil {
		return err
	}

	items, err := o.processor.TaskItems(ctx, env, analysis, rep)
	if err != nil {
		return task.PipelineError("enumerate items", err)
	}

	rep.Log(fmt.Sprintf("%d %s item(s) to process", len(items), o.processor.ItemName()))
	if err := rep.Err(); err != nil {
		return err
	}
	if len(items) == 0 {
		rep.Progress(1.0)
		return rep.Err()
	}

	env.Logger.Info("processing items",
		"item_count", len(items),
		"parallel", opts.RunInParallel,
		"workers", opts.Workers())

	if opts.RunInParallel {
		return o.runParallel(ctx, env, rep, items, opts)
	}
	return o.runLinear(ctx, env, rep, items, opts)
}

// itemResult is the outcome of the process/persist step for one item.
type itemResult struct {
	index  int
	label  string
	err    error
	empty  bool
	dryRun bool
}

// processOne runs the process/persist step for one item. Panics and errors
// are returned as item-level failures.
func (o *Orchestrator[A, I, O]) processOne(ctx context.Context, env Env, index int, item I) (res itemResult) {
	res = itemResult{index: index, label: o.processor.ItemLabel(item), dryRun: env.DryRun}
	defer func() {
		if r := recover(); r != nil {
			res.err = task.ItemError(res.label, fmt.Errorf("panic: %v", r))
		}
	}()

	output, err := o.processor.ProcessItem(ctx, env, item)
	if err != nil {
		res.err = task.ItemError(res.label, err)
		return res
	}
	if output == nil {
		res.empty = true
		return res
	}
	if env.DryRun {
		return res
	}
	if err := o.processor.PersistOutput(ctx, env, *output); err != nil {
		res.err = task.ItemError(res.label, fmt.Errorf("persist: %w", err))
	}
	return res
}

// report turns an item result into run log lines.
func (o *Orchestrator[A, I, O]) report(env Env, rep *Reporter, res itemResult) {
	switch {
	case res.err != nil:
		env.Logger.Warn("item failed", "item", res.label, "error", res.err)
		rep.LogError(res.err.Error())
	case res.dryRun && res.empty:
		rep.Log(fmt.Sprintf("dry run: nothing to persist for %s", res.label))
	case res.dryRun:
		rep.Log(fmt.Sprintf("dry run: would persist output for %s", res.label))
	default:
		env.Logger.Debug("item processed", "item", res.label, "empty", res.empty)
	}
}

// alreadyCompleted calls AlreadyCompleted, converting a panic into an error.
func (o *Orchestrator[A, I, O]) alreadyCompleted(ctx context.Context, env Env, item I) (done bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			done, err = false, fmt.Errorf("panic: %v", r)
		}
	}()
	return o.processor.AlreadyCompleted(ctx, env, item)
}

var _ task.Action = (*Orchestrator[struct{}, struct{}, struct{}])(nil)
