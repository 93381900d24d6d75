package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/modelshelf/modelshelf/internal/metrics"
	"github.com/modelshelf/modelshelf/internal/server/handlers"
	"github.com/modelshelf/modelshelf/internal/server/middleware"
	"github.com/modelshelf/modelshelf/internal/server/response"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	h := handlers.New(s.queue, s.trigger, s.logger, s.config.MaxBodyBytes)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Auth(middleware.AuthConfig{
		Token:       s.config.Token,
		PublicPaths: middleware.DefaultPublicPaths(),
	}, s.logger))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Not found", "No route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.MethodNotAllowed(w, r.Method)
	})

	r.Get("/health", h.HandleHealth)
	if s.config.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/sync", h.HandleSync)
		r.Post("/entries/{id}/delete", h.HandleDelete)
		r.Post("/entries/{id}/edit", h.HandleEdit)
		r.Post("/batch", h.HandleBatch)
	})

	return r
}
