package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types published by the task subsystem.
const (
	// TypeActionRequested asks for an action to be started.
	TypeActionRequested = "action.requested"

	// TypeTaskPrefix prefixes every run event, e.g. "task.progress".
	TypeTaskPrefix = "task."
)

// Event is a notification passed from an emitter to its handlers.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is the event type, one of the Type constants or a task.* type
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// ActionRequest is the payload of a TypeActionRequested event.
type ActionRequest struct {
	Action string `json:"action"`
	DryRun bool   `json:"dry_run"`
	Mode   string `json:"mode,omitempty"`
}

// TaskUpdate is the payload of a task.* event.
type TaskUpdate struct {
	TaskID   uint32  `json:"task_id"`
	Text     string  `json:"text,omitempty"`
	Progress float64 `json:"progress"`
	Status   string  `json:"status,omitempty"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event with the specified type and payload.
func NewEvent(eventType string, payload interface{}) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *Event) error
}
