package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/shelf/internal/api"
	apiMiddleware "github.com/phrazzld/shelf/internal/api/middleware"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	taskHandler := api.NewTaskHandler(app.coordinator, app.coordinator.Manager(), app.config.Task.DefaultMode)
	r.Route("/api", taskHandler.Routes)

	// A nil *sql.DB must not become a non-nil Pinger.
	var pinger api.Pinger
	if app.db != nil {
		pinger = app.db
	}
	r.Get("/healthz", api.HealthHandler(pinger))

	return r
}
