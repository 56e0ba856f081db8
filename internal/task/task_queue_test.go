package task

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func TestJobQueue_FIFO(t *testing.T) {
	t.Parallel()
	queue := NewJobQueue(setupTestLogger())

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		require.NoError(t, queue.Enqueue(func() { order = append(order, i) }))
	}
	assert.Equal(t, 3, queue.Len())

	for i := 0; i < 3; i++ {
		job, ok := queue.Dequeue()
		require.True(t, ok)
		job()
	}
	assert.Equal(t, []int{0, 1, 2}, order)
	assert.Equal(t, 0, queue.Len())
}

func TestJobQueue_Close(t *testing.T) {
	t.Parallel()
	queue := NewJobQueue(setupTestLogger())
	require.NoError(t, queue.Enqueue(func() {}))

	queue.Close()
	queue.Close()

	assert.ErrorIs(t, queue.Enqueue(func() {}), ErrQueueClosed)

	// Queued jobs survive the close.
	job, ok := queue.Dequeue()
	assert.True(t, ok)
	assert.NotNil(t, job)

	job, ok = queue.Dequeue()
	assert.False(t, ok)
	assert.Nil(t, job)
}

func TestJobQueue_CloseWakesWaiters(t *testing.T) {
	t.Parallel()
	queue := NewJobQueue(setupTestLogger())

	done := make(chan bool)
	go func() {
		_, ok := queue.Dequeue()
		done <- ok
	}()

	time.Sleep(20 * time.Millisecond)
	queue.Close()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Timed out waiting for blocked Dequeue to return after Close")
	}
}

func TestJobQueue_ConcurrentEnqueue(t *testing.T) {
	t.Parallel()
	queue := NewJobQueue(setupTestLogger())

	const producers, perProducer = 10, 50
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				assert.NoError(t, queue.Enqueue(func() {}))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, producers*perProducer, queue.Len())
}
