package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/shelf/internal/events"
)

// ActionStarter is the part of the coordinator the event handler needs.
// Version: 1.0
type ActionStarter interface {
	StartAction(name string, dryRun bool, opts Options) (uint32, error)
}

// ActionRequestHandler implements events.EventHandler by starting the
// action named in ActionRequested events. Other event types are ignored.
type ActionRequestHandler struct {
	starter ActionStarter
	logger  *slog.Logger
}

// NewActionRequestHandler creates a handler that starts actions on starter.
func NewActionRequestHandler(starter ActionStarter, logger *slog.Logger) *ActionRequestHandler {
	return &ActionRequestHandler{
		starter: starter,
		logger:  logger.With("component", "action_request_handler"),
	}
}

// HandleEvent starts the requested action.
func (h *ActionRequestHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event.Type != events.TypeActionRequested {
		return nil
	}

	var req events.ActionRequest
	if err := event.UnmarshalPayload(&req); err != nil {
		h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	opts, err := OptionsForMode(req.Mode)
	if err != nil {
		h.logger.Error("invalid mode", "error", err, "event_id", event.ID)
		return err
	}

	id, err := h.starter.StartAction(req.Action, req.DryRun, opts)
	if err != nil {
		h.logger.Error("failed to start requested action",
			"error", err,
			"action", req.Action,
			"event_id", event.ID)
		return fmt.Errorf("failed to start action %s: %w", req.Action, err)
	}

	h.logger.Info("requested action started",
		"task_id", id,
		"action", req.Action,
		"event_id", event.ID)
	return nil
}

// Ensure ActionRequestHandler implements events.EventHandler
var _ events.EventHandler = (*ActionRequestHandler)(nil)
