package orchestrator

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/phrazzld/shelf/internal/task"
)

// Env is what a processor sees of the run it is part of.
type Env struct {
	DB     *sql.DB
	TaskID uint32
	DryRun bool
	Logger *slog.Logger

	// Worker is the parallel worker handling the item; always 0 in linear mode.
	Worker int
}

// Processor supplies the domain logic of an orchestrated action. A is the
// analysis snapshot, I a task item and O the output computed for one item.
// Version: 1.0
type Processor[A, I, O any] interface {
	// ItemName names the kind of item, e.g. "hash".
	ItemName() string

	// ProcessActionName names what is done to items, e.g. "add".
	ProcessActionName() string

	// Description explains the action to users.
	Description() string

	// Analysis computes what work is outstanding.
	Analysis(ctx context.Context, env Env, rep *Reporter) (A, error)

	// TaskItems derives the items to process from an analysis.
	TaskItems(ctx context.Context, env Env, analysis A, rep *Reporter) ([]I, error)

	// ProcessItem computes the output for one item. A nil output means there
	// is nothing to persist.
	ProcessItem(ctx context.Context, env Env, item I) (*O, error)

	// PersistOutput stores one computed output. Never called in a dry run.
	PersistOutput(ctx context.Context, env Env, output O) error

	// AlreadyCompleted reports whether an item no longer needs processing.
	AlreadyCompleted(ctx context.Context, env Env, item I) (bool, error)

	// ItemLabel identifies an item in logs.
	ItemLabel(item I) string
}

// Reporter lets the pipeline and its processor report progress and log lines
// on the run channel. The first failed send is remembered and every later
// report becomes a no-op. Not safe for concurrent use.
type Reporter struct {
	taskID uint32
	out    task.Sender
	err    error
}

func newReporter(taskID uint32, out task.Sender) *Reporter {
	return &Reporter{taskID: taskID, out: out}
}

// Progress reports a completion ratio in [0, 1].
func (r *Reporter) Progress(ratio float64) {
	r.send(task.ProgressUpdate(r.taskID, ratio))
}

// Log appends a line to the run output.
func (r *Reporter) Log(text string) {
	r.send(task.LogInfo(r.taskID, text))
}

// LogError appends a line to the run error output.
func (r *Reporter) LogError(text string) {
	r.send(task.LogError(r.taskID, text))
}

// Err returns the first send failure, if any.
func (r *Reporter) Err() error {
	return r.err
}

func (r *Reporter) send(msg task.Message) {
	if r.err != nil {
		return
	}
	if err := r.out.Send(msg); err != nil {
		if !errors.Is(err, task.ErrSendFailed) {
			err = &task.Error{Kind: task.ErrSendFailed, Op: "send " + msg.Kind.String(), Err: err}
		}
		r.err = err
	}
}
