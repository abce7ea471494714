package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func NewRouter(apiHandler *APIHandler, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(Metrics)
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.StripSlashes)

	// The browser client is served from a different origin.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		r.Post("/register", apiHandler.RegisterHandler)
		r.Post("/login", apiHandler.LoginHandler)
		r.Post("/logout", apiHandler.LogoutHandler)
		r.Get("/session", apiHandler.SessionHandler)

		r.Get("/preferences", apiHandler.GetPreferencesHandler)
		r.Put("/preferences", apiHandler.UpdatePreferencesHandler)

		// Conversation routes work for guests: a missing or invalid
		// token resolves to the guest partition instead of 401.
		r.Group(func(r chi.Router) {
			r.Use(IdentityMiddleware(apiHandler.jwtSecret))

			r.Get("/projects", apiHandler.ListProjectsHandler)
			r.Post("/projects", apiHandler.CreateProjectHandler)
			r.Get("/projects/{projectID}", apiHandler.GetProjectHandler)
			r.Delete("/projects/{projectID}", apiHandler.DeleteProjectHandler)
			r.Post("/projects/{projectID}/messages", apiHandler.PostMessageHandler)

			r.Post("/code/improve", apiHandler.ImproveCodeHandler)
			r.Post("/code/explain", apiHandler.ExplainCodeHandler)
		})
	})

	return r
}
