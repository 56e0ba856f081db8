package task

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"
)

// Run is the mutable state of one task run. Status, progress and end time
// share one lock; each log buffer has its own so log writers and readers do
// not contend with progress updates.
type Run struct {
	ID        uint32
	Action    string
	StartedAt time.Time

	mu       sync.RWMutex
	status   CompletionStatus
	progress float64
	endedAt  time.Time

	output    logBuffer
	errOutput logBuffer
}

type logBuffer struct {
	mu    sync.Mutex
	lines []string
}

func (b *logBuffer) append(line string) {
	b.mu.Lock()
	b.lines = append(b.lines, line)
	b.mu.Unlock()
}

func (b *logBuffer) snapshot() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// RunSnapshot is a point-in-time copy of a run, safe to hand to callers.
type RunSnapshot struct {
	ID          uint32     `json:"id"`
	Action      string     `json:"action"`
	Status      string     `json:"status"`
	Reason      string     `json:"reason,omitempty"`
	Progress    float64    `json:"progress"`
	Output      []string   `json:"output"`
	ErrorOutput []string   `json:"error_output"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	Running     bool       `json:"running"`

	state CompletionState
}

// State returns the completion state the snapshot was taken in.
func (s RunSnapshot) State() CompletionState {
	return s.state
}

func (r *Run) snapshot() RunSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := RunSnapshot{
		ID:          r.ID,
		Action:      r.Action,
		Status:      r.status.State.String(),
		Reason:      r.status.Reason,
		Progress:    r.progress,
		Output:      r.output.snapshot(),
		ErrorOutput: r.errOutput.snapshot(),
		StartedAt:   r.StartedAt,
		Running:     !r.status.IsCompleted(),
		state:       r.status.State,
	}
	if !r.endedAt.IsZero() {
		ended := r.endedAt
		s.EndedAt = &ended
	}
	return s
}

// Manager is the in-memory registry of task runs. Ids are allocated from a
// separately locked counter and are strictly increasing for the lifetime of
// the manager.
type Manager struct {
	idMu   sync.Mutex
	nextID uint32

	mu   sync.RWMutex
	runs map[uint32]*Run

	now    func() time.Time
	logger *slog.Logger
}

// NewManager creates an empty manager whose first id is 1.
func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		nextID: 1,
		runs:   make(map[uint32]*Run),
		now:    time.Now,
		logger: logger.With("component", "task_manager"),
	}
}

// CreateTask allocates an id and registers a fresh run of action.
func (m *Manager) CreateTask(action string) uint32 {
	m.idMu.Lock()
	id := m.nextID
	m.nextID++
	m.idMu.Unlock()

	run := &Run{ID: id, Action: action, StartedAt: m.now()}

	m.mu.Lock()
	m.runs[id] = run
	m.mu.Unlock()

	m.logger.Debug("task created", "task_id", id, "action", action)
	return id
}

func (m *Manager) run(id uint32) (*Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	return run, nil
}

// GetTask returns a snapshot of the run with the given id.
func (m *Manager) GetTask(id uint32) (RunSnapshot, error) {
	run, err := m.run(id)
	if err != nil {
		return RunSnapshot{}, err
	}
	return run.snapshot(), nil
}

// GetTasks returns snapshots of every run, newest first.
func (m *Manager) GetTasks() []RunSnapshot {
	m.mu.RLock()
	runs := make([]*Run, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, r)
	}
	m.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool { return runs[i].ID > runs[j].ID })

	out := make([]RunSnapshot, len(runs))
	for i, r := range runs {
		out[i] = r.snapshot()
	}
	return out
}

// UpdateProgress sets the progress of a running task, clamped to [0, 1].
func (m *Manager) UpdateProgress(id uint32, value float64) error {
	run, err := m.run(id)
	if err != nil {
		return err
	}

	run.mu.Lock()
	defer run.mu.Unlock()
	if run.status.IsCompleted() {
		return fmt.Errorf("%w: %d", ErrTaskCompleted, id)
	}
	run.progress = clampProgress(value)
	return nil
}

// AppendOutput adds a line to the run's output log.
func (m *Manager) AppendOutput(id uint32, line string) error {
	return m.appendTo(id, line, func(r *Run) *logBuffer { return &r.output })
}

// AppendErrorOutput adds a line to the run's error log.
func (m *Manager) AppendErrorOutput(id uint32, line string) error {
	return m.appendTo(id, line, func(r *Run) *logBuffer { return &r.errOutput })
}

func (m *Manager) appendTo(id uint32, line string, buffer func(*Run) *logBuffer) error {
	run, err := m.run(id)
	if err != nil {
		return err
	}

	// Readers of the status lock may append concurrently; completion takes
	// the write lock, so nothing is appended after the state is frozen.
	run.mu.RLock()
	defer run.mu.RUnlock()
	if run.status.IsCompleted() {
		return fmt.Errorf("%w: %d", ErrTaskCompleted, id)
	}
	buffer(run).append(line)
	return nil
}

// CompleteTask moves the run to its terminal status. It succeeds at most once
// per id; later calls return ErrTaskCompleted and leave the run untouched.
func (m *Manager) CompleteTask(id uint32, status CompletionStatus) error {
	if !status.IsCompleted() {
		return fmt.Errorf("task %d: completion status must be terminal", id)
	}

	run, err := m.run(id)
	if err != nil {
		return err
	}

	run.mu.Lock()
	defer run.mu.Unlock()
	if run.status.IsCompleted() {
		return fmt.Errorf("%w: %d", ErrTaskCompleted, id)
	}
	run.status = status
	run.progress = 1.0
	run.endedAt = m.now()

	m.logger.Debug("task completed", "task_id", id, "status", status.String())
	return nil
}

// RemoveTask forgets a finished run.
func (m *Manager) RemoveTask(id uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.runs[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}

	run.mu.RLock()
	running := !run.status.IsCompleted()
	run.mu.RUnlock()
	if running {
		return fmt.Errorf("%w: %d", ErrTaskRunning, id)
	}

	delete(m.runs, id)
	return nil
}

// IsTaskRunning reports whether the run exists and has not completed.
func (m *Manager) IsTaskRunning(id uint32) bool {
	run, err := m.run(id)
	if err != nil {
		return false
	}
	run.mu.RLock()
	defer run.mu.RUnlock()
	return !run.status.IsCompleted()
}

func clampProgress(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
