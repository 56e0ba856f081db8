package api

import "github.com/phrazzld/shelf/internal/task"

// StartActionRequest is the optional body of POST /api/actions/{name}/start.
type StartActionRequest struct {
	DryRun bool `json:"dry_run"`
	// Mode selects the orchestration preset; empty uses the server default.
	Mode string `json:"mode" validate:"omitempty,oneof=linear parallel faster extreme"`
}

// StartActionResponse is returned when a run was accepted.
type StartActionResponse struct {
	TaskID uint32 `json:"task_id"`
}

// ActionResponse describes one registered action.
type ActionResponse struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Runnable    bool   `json:"runnable"`
	CanDryRun   bool   `json:"can_dry_run"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

func actionToResponse(a task.Action) ActionResponse {
	return ActionResponse{
		Name:        a.Name(),
		Label:       a.Label(),
		Description: a.Description(),
		Runnable:    a.IsRunnable(),
		CanDryRun:   a.CanDryRun(),
	}
}
