package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// getPathTaskID parses a task id from the URL path parameter paramName.
func getPathTaskID(r *http.Request, paramName string) (uint32, error) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", paramName)
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%s has invalid format", paramName)
	}
	return uint32(id), nil
}
