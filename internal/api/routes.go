package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

func SetupRoutes(handler *Handler, roverHandlers *RoverHandlers, opts MiddlewareOptions) *chi.Mux {
	r := chi.NewRouter()

	// Setup middleware
	for _, middleware := range SetupMiddleware(opts) {
		r.Use(middleware)
	}

	// JSON content type
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// Health check endpoint
	r.Get("/health", handler.HealthCheck)

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/terrain", handler.GetTerrain)
		r.Get("/elevation/{x}/{y}", handler.GetElevation)

		r.Route("/chunks", func(r chi.Router) {
			r.Get("/visible", handler.GetVisibleChunks)
			r.Get("/resident", handler.GetResidentChunks)
			r.Post("/unload", handler.UnloadChunks)
		})

		r.Post("/paths", handler.FindPath)

		roverHandlers.RegisterRoutes(r)
	})

	return r
}
