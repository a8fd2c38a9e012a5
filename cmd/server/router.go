package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/trackstudio/trackstudio-api/internal/api"
	apimiddleware "github.com/trackstudio/trackstudio-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all
// routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.TraceMiddleware)

	queueHandler := api.NewQueueHandler(app.queueService)
	callbackHandler := api.NewCallbackHandler(app.emitter, app.logger)
	lyricsHandler := api.NewLyricsHandler(app.lyricsGenerator)
	authMiddleware := apimiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// The provider pushes completion webhooks here; it cannot carry
		// our bearer token, so the route stays public. Forged payloads
		// naming unknown tasks are dropped by the reconciler.
		r.Post("/provider/callback", callbackHandler.HandleCallback)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/queue", queueHandler.Enqueue)
			r.Get("/queue", queueHandler.List)
			r.Post("/queue/{id}/retry", queueHandler.Retry)
			r.Get("/queue/config", queueHandler.GetConfig)
			r.Put("/queue/config", queueHandler.UpdateConfig)
			r.Get("/queue/active-project", queueHandler.GetActiveProject)
			r.Put("/queue/active-project", queueHandler.SetActiveProject)

			r.Get("/jobs", queueHandler.ListJobs)
			r.Get("/history", queueHandler.History)

			r.Post("/lyrics", lyricsHandler.Generate)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
