package api

import (
	"context"
	"net/http"
	"time"

	"github.com/phrazzld/shelf/internal/api/shared"
	"github.com/phrazzld/shelf/internal/platform/logger"
)

// Pinger checks a dependency, e.g. *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

const healthPingTimeout = 2 * time.Second

// HealthHandler serves GET /healthz. A nil db reports only process health.
func HealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db == nil {
			shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logger.FromContext(r.Context()).Warn("health check: database unreachable", "error", err)
			shared.RespondWithJSON(w, r, http.StatusServiceUnavailable,
				HealthResponse{Status: "degraded", Database: "unreachable"})
			return
		}
		shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok", Database: "ok"})
	}
}
