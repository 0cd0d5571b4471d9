package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/veridex-ai/veridex/internal/api"
	"github.com/veridex-ai/veridex/internal/api/handlers"
	"github.com/veridex-ai/veridex/internal/api/middleware"
)

type RouterConfig struct {
	AgentResolver     middleware.AgentResolver
	InsightHandler    *handlers.InsightHandler
	SearchHandler     *handlers.SearchHandler
	ValidationHandler *handlers.ValidationHandler
	AgentHandler      *handlers.AgentHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	identity := middleware.AgentIdentity(cfg.AgentResolver)

	// Agent registration is open; everything else requires an identity.
	r.Route("/agents", func(r chi.Router) {
		r.Post("/", cfg.AgentHandler.Create)
		r.With(identity).Get("/", cfg.AgentHandler.List)
		r.With(identity).Get("/{id}", cfg.AgentHandler.Get)
		r.With(identity).Post("/{id}/trust/recompute", cfg.AgentHandler.RecomputeTrust)
	})

	r.Group(func(r chi.Router) {
		r.Use(identity)

		r.Route("/insights", func(r chi.Router) {
			r.Post("/", cfg.InsightHandler.Create)
			r.Get("/", cfg.InsightHandler.List)
			r.Get("/{id}", cfg.InsightHandler.Get)
			r.Put("/{id}", cfg.InsightHandler.Update)
			r.Delete("/{id}", cfg.InsightHandler.Delete)
			r.Get("/{id}/trust", cfg.InsightHandler.Trust)
			r.Post("/{id}/validations", cfg.ValidationHandler.Create)
			r.Get("/{id}/validations", cfg.ValidationHandler.ListByInsight)
		})

		r.Post("/search", cfg.SearchHandler.Search)
	})

	return r
}
