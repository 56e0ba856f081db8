package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/shelf/internal/api/shared"
	"github.com/phrazzld/shelf/internal/platform/logger"
	"github.com/phrazzld/shelf/internal/task"
)

// ActionService is the part of the coordinator the handler starts runs on.
type ActionService interface {
	Actions() []task.Action
	StartAction(name string, dryRun bool, opts task.Options) (uint32, error)
}

// RunStore is the read side of the run table.
type RunStore interface {
	GetTask(id uint32) (task.RunSnapshot, error)
	GetTasks() []task.RunSnapshot
	RemoveTask(id uint32) error
}

// TaskHandler serves the action and task endpoints.
type TaskHandler struct {
	actions     ActionService
	runs        RunStore
	defaultMode string
}

// NewTaskHandler creates a TaskHandler. Requests without a mode use defaultMode.
func NewTaskHandler(actions ActionService, runs RunStore, defaultMode string) *TaskHandler {
	return &TaskHandler{actions: actions, runs: runs, defaultMode: defaultMode}
}

// Routes registers the handler's endpoints on r.
func (h *TaskHandler) Routes(r chi.Router) {
	r.Get("/actions", h.ListActions)
	r.Post("/actions/{name}/start", h.StartAction)
	r.Get("/tasks", h.ListTasks)
	r.Get("/tasks/{id}", h.GetTask)
	r.Delete("/tasks/{id}", h.DeleteTask)
}

// ListActions handles GET /api/actions
func (h *TaskHandler) ListActions(w http.ResponseWriter, r *http.Request) {
	actions := h.actions.Actions()
	response := make([]ActionResponse, 0, len(actions))
	for _, a := range actions {
		response = append(response, actionToResponse(a))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, response)
}

// StartAction handles POST /api/actions/{name}/start
func (h *TaskHandler) StartAction(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req StartActionRequest
	if err := shared.DecodeOptionalJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	mode := req.Mode
	if mode == "" {
		mode = h.defaultMode
	}
	opts, err := task.OptionsForMode(mode)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid mode")
		return
	}

	id, err := h.actions.StartAction(name, req.DryRun, opts)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	logger.FromContext(r.Context()).Info("action started",
		"action", name,
		"task_id", id,
		"dry_run", req.DryRun,
		"mode", mode)

	// Accepted: the run proceeds in the background.
	shared.RespondWithJSON(w, r, http.StatusAccepted, StartActionResponse{TaskID: id})
}

// ListTasks handles GET /api/tasks, newest first.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.runs.GetTasks())
}

// GetTask handles GET /api/tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := getPathTaskID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	run, err := h.runs.GetTask(id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, run)
}

// DeleteTask handles DELETE /api/tasks/{id}. Running tasks cannot be removed.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := getPathTaskID(r, "id")
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	if err := h.runs.RemoveTask(id); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
