package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannel_SendReceive(t *testing.T) {
	t.Parallel()
	ch := NewChannel[Message](2)

	require.NoError(t, ch.Send(Started(1)))
	require.NoError(t, ch.Send(LogInfo(1, "hello")))

	assert.Equal(t, Started(1), <-ch.Receive())
	assert.Equal(t, LogInfo(1, "hello"), <-ch.Receive())
}

func TestChannel_SendAfterReceiverGone(t *testing.T) {
	t.Parallel()
	ch := NewChannel[Message](1)
	ch.CloseReceiver()
	ch.CloseReceiver()

	err := ch.Send(Started(1))
	assert.ErrorIs(t, err, ErrSendFailed)

	select {
	case <-ch.Closed():
	default:
		t.Fatal("Closed should be closed after CloseReceiver")
	}
}

func TestChannel_BlockedSendFailsWhenReceiverLeaves(t *testing.T) {
	t.Parallel()
	ch := NewChannel[Message](0)

	errCh := make(chan error, 1)
	go func() { errCh <- ch.Send(ProgressUpdate(1, 0.5)) }()

	time.Sleep(20 * time.Millisecond)
	ch.CloseReceiver()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrSendFailed)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Timed out waiting for blocked Send to fail")
	}
}

func TestChannel_SatisfiesSender(t *testing.T) {
	var _ Sender = NewChannel[Message](1)
}
