package task

import "sync"

// Channel is a buffered channel whose receiver can hang up. Senders block
// while the buffer is full and fail with ErrSendFailed after the receiver has
// called CloseReceiver. The underlying channel is never closed, so any number
// of goroutines may send concurrently.
type Channel[T any] struct {
	items chan T
	done  chan struct{}
	once  sync.Once
}

// NewChannel creates a channel with the given buffer size. Negative sizes are
// treated as unbuffered.
func NewChannel[T any](buffer int) *Channel[T] {
	if buffer < 0 {
		buffer = 0
	}
	return &Channel[T]{
		items: make(chan T, buffer),
		done:  make(chan struct{}),
	}
}

// Send delivers v or returns an error wrapping ErrSendFailed.
func (c *Channel[T]) Send(v T) error {
	select {
	case <-c.done:
		return SendError("channel send")
	default:
	}

	select {
	case c.items <- v:
		return nil
	case <-c.done:
		return SendError("channel send")
	}
}

// Receive returns the receiving side.
func (c *Channel[T]) Receive() <-chan T {
	return c.items
}

// CloseReceiver marks the receiver as gone. Safe to call more than once.
func (c *Channel[T]) CloseReceiver() {
	c.once.Do(func() { close(c.done) })
}

// Closed is closed once the receiver has hung up.
func (c *Channel[T]) Closed() <-chan struct{} {
	return c.done
}
