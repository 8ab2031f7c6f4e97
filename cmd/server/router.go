package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/admitlab/admit-api/internal/api"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	tasksHandler := api.NewTasksHandler(app.publisher, app.pullLock, app.logger)
	analysisHandler := api.NewAnalysisHandler(app.analytics, app.pullLock, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/pull-data", tasksHandler.PullData)
		r.Post("/update-analysis", tasksHandler.UpdateAnalysis)
		r.Get("/analysis", analysisHandler.GetAnalysis)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
