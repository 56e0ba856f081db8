package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := ActionRequest{Action: "add_hash", DryRun: true, Mode: "linear"}

	event, err := NewEvent(TypeActionRequested, payload)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TypeActionRequested, event.Type)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	var decoded ActionRequest
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	assert.Equal(t, payload, decoded)

	var viaHelper ActionRequest
	require.NoError(t, event.UnmarshalPayload(&viaHelper))
	assert.Equal(t, payload, viaHelper)
}

func TestNewEvent_UnencodablePayload(t *testing.T) {
	_, err := NewEvent("bad", make(chan int))
	assert.Error(t, err)
}

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	mu sync.Mutex
	// The last event received by this handler
	LastEvent *Event
	// Error to return from HandleEvent
	HandlerError error
	// Count of events handled
	HandledCount int
}

// HandleEvent implements the EventHandler interface
func (h *MockEventHandler) HandleEvent(ctx context.Context, event *Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.LastEvent = event
	h.HandledCount++
	return h.HandlerError
}
