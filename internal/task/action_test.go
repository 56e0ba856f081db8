package task

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockAction implements Action for testing
type mockAction struct {
	name     string
	runnable bool
	dryRun   bool
	runFn    func(ctx context.Context, out Sender, dryRun bool, taskID uint32, opts Options) error
}

func newMockAction(name string) *mockAction {
	return &mockAction{name: name, runnable: true, dryRun: true}
}

func (m *mockAction) Name() string        { return m.name }
func (m *mockAction) Label() string       { return "Mock " + m.name }
func (m *mockAction) Description() string { return "mock action" }
func (m *mockAction) IsRunnable() bool    { return m.runnable }
func (m *mockAction) CanDryRun() bool     { return m.dryRun }

func (m *mockAction) RunTask(ctx context.Context, db *sql.DB, out Sender, dryRun bool, taskID uint32, opts Options) error {
	if m.runFn != nil {
		return m.runFn(ctx, out, dryRun, taskID, opts)
	}
	return nil
}

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	t.Run("lookup and sorted list", func(t *testing.T) {
		r, err := NewRegistry(newMockAction("b"), newMockAction("a"))
		require.NoError(t, err)
		assert.Equal(t, 2, r.Len())

		a, err := r.Get("a")
		require.NoError(t, err)
		assert.Equal(t, "a", a.Name())

		list := r.List()
		require.Len(t, list, 2)
		assert.Equal(t, "a", list[0].Name())
		assert.Equal(t, "b", list[1].Name())
	})

	t.Run("duplicate names", func(t *testing.T) {
		_, err := NewRegistry(newMockAction("a"), newMockAction("a"))
		assert.ErrorIs(t, err, ErrDuplicateAction)
	})

	t.Run("unknown name", func(t *testing.T) {
		r, err := NewRegistry()
		require.NoError(t, err)
		_, err = r.Get("missing")
		assert.ErrorIs(t, err, ErrActionNotFound)
		assert.Contains(t, err.Error(), "missing")
	})
}

func TestValidateStart(t *testing.T) {
	t.Parallel()

	disabled := newMockAction("disabled")
	disabled.runnable = false
	noDry := newMockAction("no_dry")
	noDry.dryRun = false

	assert.NoError(t, validateStart(newMockAction("ok"), true))
	assert.ErrorIs(t, validateStart(disabled, false), ErrActionNotRunnable)
	assert.ErrorIs(t, validateStart(noDry, true), ErrActionNotRunnable)
	assert.NoError(t, validateStart(noDry, false))
}

func TestOptionsPresets(t *testing.T) {
	t.Parallel()

	linear := LinearOptions()
	assert.False(t, linear.RunInParallel)
	assert.Equal(t, 1, linear.Workers())
	assert.False(t, linear.SkipCompletedInLinear)

	def := DefaultParallelOptions()
	assert.True(t, def.RunInParallel)
	assert.Equal(t, 8, def.MaxConcurrent)
	assert.Equal(t, 16.0, def.RequestsPerSecond)

	faster := FasterOptions()
	assert.Equal(t, 16, faster.MaxConcurrent)
	assert.Equal(t, 32.0, faster.RequestsPerSecond)

	extreme := ExtremeOptions()
	assert.Equal(t, 64, extreme.MaxConcurrent)
	assert.Equal(t, 128.0, extreme.RequestsPerSecond)

	assert.Equal(t, 1, Options{MaxConcurrent: -3}.Workers())
}

func TestOptionsForMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mode string
		want Options
	}{
		{"linear", LinearOptions()},
		{"", DefaultParallelOptions()},
		{"Parallel", DefaultParallelOptions()},
		{" faster ", FasterOptions()},
		{"extreme", ExtremeOptions()},
	}
	for _, tt := range tests {
		got, err := OptionsForMode(tt.mode)
		require.NoError(t, err, tt.mode)
		assert.Equal(t, tt.want, got, tt.mode)
	}

	_, err := OptionsForMode("ludicrous")
	assert.Error(t, err)
}

func TestErrorKinds(t *testing.T) {
	t.Parallel()
	cause := errors.New("disk on fire")

	err := PipelineError("analysis", cause)
	assert.ErrorIs(t, err, ErrPipelineFailed)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrItemFailed)
	assert.Equal(t, "analysis: pipeline failed: disk on fire", err.Error())

	err = ItemError("a.jpg", cause)
	assert.ErrorIs(t, err, ErrItemFailed)
	assert.Contains(t, err.Error(), `"a.jpg"`)

	err = SendError("progress")
	assert.ErrorIs(t, err, ErrSendFailed)

	var taskErr *Error
	require.ErrorAs(t, NotRunnableError("x", "disabled"), &taskErr)
	assert.Equal(t, ErrActionNotRunnable, taskErr.Kind)
}
