package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/phrazzld/shelf/internal/events"
)

// CoordinatorConfig holds configuration for the coordinator
type CoordinatorConfig struct {
	// PoolSize is the number of pool workers running actions
	PoolSize int

	// CommandBuffer is the capacity of the command channel
	CommandBuffer int

	// RunChannelBuffer is the capacity of each per-run message channel
	RunChannelBuffer int

	// ResponseBuffer is the capacity of the outbound response channel
	ResponseBuffer int
}

// DefaultCoordinatorConfig returns a CoordinatorConfig with reasonable defaults
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		PoolSize:         8,
		CommandBuffer:    64,
		RunChannelBuffer: 256,
		ResponseBuffer:   256,
	}
}

// Coordinator accepts start requests, runs actions on the worker pool and
// mirrors their messages into the task manager.
//
// Every started action occupies one pool worker for the run itself. Its
// channel is drained by a dedicated forward goroutine started before the run
// is queued, so a run never blocks on a channel with nobody reading it, even
// on a single-worker pool.
type Coordinator struct {
	db        *sql.DB
	actions   *Registry
	manager   *Manager
	pool      *WorkerPool
	commands  chan Command
	responses *Channel[Response]
	emitter   events.EventEmitter
	config    CoordinatorConfig
	logger    *slog.Logger

	// mu guards started and stopped; StartAction holds it for reading while
	// sending a command so that Shutdown cannot close intake underneath it.
	mu      sync.RWMutex
	started bool
	stopped bool

	stopOnce sync.Once
	// stopping is closed first thing in Shutdown and releases a StartAction
	// blocked on a full command buffer.
	stopping chan struct{}
	forwards sync.WaitGroup

	loopDone chan struct{}
	diagStop chan struct{}
	diagDone chan struct{}
}

// NewCoordinator creates a coordinator over the given actions. db is handed
// unchanged to every action run and may be nil for actions that do not use it.
func NewCoordinator(db *sql.DB, actions *Registry, config CoordinatorConfig, logger *slog.Logger) *Coordinator {
	defaults := DefaultCoordinatorConfig()
	if config.PoolSize <= 0 {
		config.PoolSize = defaults.PoolSize
	}
	if config.CommandBuffer <= 0 {
		config.CommandBuffer = defaults.CommandBuffer
	}
	if config.RunChannelBuffer <= 0 {
		config.RunChannelBuffer = defaults.RunChannelBuffer
	}
	if config.ResponseBuffer <= 0 {
		config.ResponseBuffer = defaults.ResponseBuffer
	}

	logger = logger.With("component", "coordinator")
	pool := NewWorkerPool(WorkerPoolConfig{WorkerCount: config.PoolSize}, logger)

	c := &Coordinator{
		db:        db,
		actions:   actions,
		manager:   NewManager(logger),
		pool:      pool,
		commands:  make(chan Command, config.CommandBuffer),
		responses: NewChannel[Response](config.ResponseBuffer),
		config:    config,
		logger:    logger,
		stopping:  make(chan struct{}),
		loopDone:  make(chan struct{}),
		diagStop:  make(chan struct{}),
		diagDone:  make(chan struct{}),
	}
	pool.SetErrorHandler(func(workerID int, err error) {
		c.report(Response{Kind: ResponseWorkerError, Text: fmt.Sprintf("worker %d: %v", workerID, err)})
	})
	return c
}

// SetEmitter publishes every outbound response to emitter.
// Must be called before Start.
func (c *Coordinator) SetEmitter(emitter events.EventEmitter) {
	c.emitter = emitter
}

// Manager exposes the task manager for read access.
func (c *Coordinator) Manager() *Manager {
	return c.manager
}

// Actions returns every registered action sorted by name.
func (c *Coordinator) Actions() []Action {
	return c.actions.List()
}

// Start launches the pool, the command loop and the diagnostic loop. It has
// no effect once called, or after Shutdown.
func (c *Coordinator) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.stopped {
		return
	}
	c.started = true

	c.pool.Start()
	go c.commandLoop()
	go c.diagnosticLoop()
	c.logger.Info("coordinator started",
		"pool_size", c.pool.Size(),
		"action_count", c.actions.Len())
}

// StartAction validates the request, allocates a task id and queues the run.
// Validation errors are returned synchronously and consume no id.
func (c *Coordinator) StartAction(name string, dryRun bool, opts Options) (uint32, error) {
	action, err := c.actions.Get(name)
	if err != nil {
		return 0, err
	}
	if err := validateStart(action, dryRun); err != nil {
		return 0, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.stopped {
		return 0, ErrCoordinatorStopped
	}

	id := c.manager.CreateTask(name)
	cmd := Command{
		Kind:       CommandStartAction,
		ActionName: name,
		DryRun:     dryRun,
		Options:    opts,
		TaskID:     id,
	}
	select {
	case c.commands <- cmd:
	case <-c.stopping:
		c.failQueued(cmd)
		return 0, ErrCoordinatorStopped
	}

	c.logger.Info("action queued",
		"task_id", id,
		"action", name,
		"dry_run", dryRun,
		"parallel", opts.RunInParallel)
	return id, nil
}

// Shutdown stops accepting commands, waits for every queued and in-flight
// run to finish, then stops the diagnostic loop. On a coordinator that was
// never started it fails any buffered commands and returns at once.
func (c *Coordinator) Shutdown() {
	c.stopOnce.Do(func() {
		close(c.stopping)

		c.mu.Lock()
		c.stopped = true
		started := c.started
		c.mu.Unlock()

		c.logger.Info("coordinator shutting down", "started", started)
		if !started {
			c.responses.CloseReceiver()
			c.drainCommands()
			c.pool.Shutdown()
			c.logger.Info("coordinator stopped")
			return
		}

		c.commands <- Command{Kind: CommandShutdown}
		<-c.loopDone

		c.pool.Shutdown()
		c.forwards.Wait()

		close(c.diagStop)
		<-c.diagDone
		c.logger.Info("coordinator stopped")
	})
}

// drainCommands fails every start command buffered before Start.
func (c *Coordinator) drainCommands() {
	for {
		select {
		case cmd := <-c.commands:
			if cmd.Kind == CommandStartAction {
				c.failQueued(cmd)
			}
		default:
			return
		}
	}
}

// failQueued completes a task whose command never reached the command loop.
func (c *Coordinator) failQueued(cmd Command) {
	if err := c.manager.CompleteTask(cmd.TaskID, Failure(ErrCoordinatorStopped.Error())); err != nil {
		c.logger.Warn("failed to complete unqueued task", "task_id", cmd.TaskID, "error", err)
	}
}

func (c *Coordinator) commandLoop() {
	defer close(c.loopDone)

	for cmd := range c.commands {
		switch cmd.Kind {
		case CommandShutdown:
			c.logger.Debug("command loop received shutdown")
			return
		case CommandStartAction:
			c.dispatch(cmd)
		default:
			c.report(Response{Kind: ResponseWorkerError, TaskID: cmd.TaskID,
				Text: fmt.Sprintf("unknown command kind %d", cmd.Kind)})
		}
	}
}

// dispatch starts the forward goroutine and submits the run job for one
// StartAction command.
func (c *Coordinator) dispatch(cmd Command) {
	logger := c.logger.With("task_id", cmd.TaskID, "action", cmd.ActionName)

	action, err := c.actions.Get(cmd.ActionName)
	if err != nil {
		c.abandon(cmd.TaskID, err)
		return
	}

	ch := NewChannel[Message](c.config.RunChannelBuffer)

	c.forwards.Add(1)
	go func() {
		defer c.forwards.Done()
		c.forward(cmd.TaskID, ch)
	}()

	if err := c.pool.Submit(func() { c.run(action, cmd, ch) }); err != nil {
		ch.CloseReceiver()
		c.abandon(cmd.TaskID, fmt.Errorf("submit run job: %w", err))
		return
	}
	logger.Debug("run submitted to pool")
}

// abandon fails a task that could not be handed to the pool.
func (c *Coordinator) abandon(taskID uint32, err error) {
	c.report(Response{Kind: ResponseWorkerError, TaskID: taskID, Text: err.Error()})
	if cerr := c.manager.CompleteTask(taskID, Failure(err.Error())); cerr != nil {
		c.logger.Warn("failed to complete abandoned task", "task_id", taskID, "error", cerr)
	}
}

// run executes the action and ends the message stream with exactly one
// terminal message. If the drainer is gone the status is written to the
// manager directly so no run stays incomplete.
func (c *Coordinator) run(action Action, cmd Command, ch *Channel[Message]) {
	id := cmd.TaskID
	logger := c.logger.With("task_id", id, "action", action.Name())

	final := func(msg Message) {
		if err := ch.Send(msg); err != nil {
			logger.Warn("run channel closed before completion was forwarded", "error", err)
			status := msg.Status
			if msg.Kind == KindError {
				status = Failure(msg.Text)
			}
			if cerr := c.manager.CompleteTask(id, status); cerr != nil {
				logger.Debug("task already completed", "error", cerr)
			}
		}
	}

	if err := ch.Send(Started(id)); err != nil {
		final(Completed(id, Failure(err.Error())))
		return
	}
	if err := ch.Send(ProgressUpdate(id, 0)); err != nil {
		final(Completed(id, Failure(err.Error())))
		return
	}

	logger.Info("running action", "dry_run", cmd.DryRun)
	err := c.execute(action, cmd, ch)
	var perr *panicError
	switch {
	case errors.As(err, &perr):
		logger.Error("action panicked", "error", err)
		final(ErrorMessage(id, err.Error()))
	case err != nil:
		logger.Error("action failed", "error", err)
		final(Completed(id, Failure(err.Error())))
	default:
		logger.Info("action completed")
		final(Completed(id, Success()))
	}
}

type panicError struct {
	action string
	value  any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("action %s panicked: %v", e.action, e.value)
}

func (c *Coordinator) execute(action Action, cmd Command, out Sender) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Debug("action panic stack", "task_id", cmd.TaskID, "stack", string(debug.Stack()))
			err = &panicError{action: action.Name(), value: r}
		}
	}()
	return action.RunTask(context.Background(), c.db, out, cmd.DryRun, cmd.TaskID, cmd.Options)
}

// forward drains one run channel into the manager and the outbound channel,
// stopping after the terminal message or when the outbound channel is gone.
func (c *Coordinator) forward(taskID uint32, ch *Channel[Message]) {
	defer ch.CloseReceiver()
	logger := c.logger.With("task_id", taskID)

	for {
		var msg Message
		select {
		case msg = <-ch.Receive():
		case <-ch.Closed():
			return
		}

		c.mirror(msg, logger)

		if err := c.responses.Send(responseFor(msg)); err != nil {
			logger.Error("outbound channel closed, forwarding stopped", "error", err)
			return
		}
		if msg.Terminal() {
			return
		}
	}
}

func (c *Coordinator) mirror(msg Message, logger *slog.Logger) {
	var err error
	switch msg.Kind {
	case KindStarted:
		logger.Debug("run started")
	case KindLogInfo:
		err = c.manager.AppendOutput(msg.TaskID, msg.Text)
	case KindLogError:
		err = c.manager.AppendErrorOutput(msg.TaskID, msg.Text)
	case KindProgress:
		err = c.manager.UpdateProgress(msg.TaskID, msg.Progress)
	case KindCompleted:
		err = c.manager.CompleteTask(msg.TaskID, msg.Status)
	case KindError:
		if aerr := c.manager.AppendErrorOutput(msg.TaskID, msg.Text); aerr != nil {
			logger.Debug("could not record run error", "error", aerr)
		}
		err = c.manager.CompleteTask(msg.TaskID, Failure(msg.Text))
	}
	if err != nil {
		logger.Warn("failed to mirror run message", "kind", msg.Kind.String(), "error", err)
	}
}

// report sends a response from outside a run, e.g. a worker-level failure.
func (c *Coordinator) report(r Response) {
	if err := c.responses.Send(r); err != nil {
		c.logger.Error("dropped coordinator response", "kind", r.Kind.String(), "text", r.Text)
	}
}

func (c *Coordinator) diagnosticLoop() {
	defer close(c.diagDone)
	defer c.responses.CloseReceiver()

	for {
		select {
		case r := <-c.responses.Receive():
			c.observe(r)
		case <-c.diagStop:
			for {
				select {
				case r := <-c.responses.Receive():
					c.observe(r)
				default:
					return
				}
			}
		}
	}
}

// observe logs a response and publishes it as an event.
func (c *Coordinator) observe(r Response) {
	logger := c.logger.With("task_id", r.TaskID, "kind", r.Kind.String())
	switch r.Kind {
	case ResponseWorkerError:
		logger.Error("worker error", "error", r.Text)
	case ResponseFailed:
		logger.Error("run failed", "reason", r.Text)
	case ResponseErrorLog:
		logger.Warn("run error output", "text", r.Text)
	case ResponseCompleted:
		logger.Info("run finished", "status", r.Status.String())
	default:
		logger.Debug("run response", "text", r.Text, "progress", r.Progress)
	}

	if c.emitter == nil {
		return
	}
	event, err := events.NewEvent(events.TypeTaskPrefix+r.Kind.String(), events.TaskUpdate{
		TaskID:   r.TaskID,
		Text:     r.Text,
		Progress: r.Progress,
		Status:   r.Status.String(),
	})
	if err != nil {
		logger.Error("failed to build task event", "error", err)
		return
	}
	if err := c.emitter.EmitEvent(context.Background(), event); err != nil {
		logger.Warn("task event handler failed", "error", err)
	}
}
