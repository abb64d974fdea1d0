// api/internal/api/router/router.go
package router

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reacthost/console/api/internal/api/handlers"
	rh_middleware "github.com/reacthost/console/api/internal/api/middleware"
	deliveryhttp "github.com/reacthost/console/api/internal/delivery/http"
	"github.com/reacthost/console/api/internal/metrics"
)

// RouterConfig defines the dependencies required to build the API routing tree.
type RouterConfig struct {
	AllowedOrigins []string
	ProjectHandler *handlers.ProjectHandler
	WizardHandler  *handlers.WizardHandler
	WSHandler      *handlers.WebSocketHandler
	AdviceHandler  *handlers.AdviceHandler
	ViewHandler    *handlers.ViewHandler
	HealthHandler  *deliveryhttp.HealthHandler
	AdviceLimiter  *rh_middleware.RateLimiter
	Metrics        *metrics.Recorder
	Gatherer       prometheus.Gatherer
	Logger         *slog.Logger
}

// NewRouter constructs the Chi multiplexer, attaches global middleware, and wires all endpoints.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// =========================================================================
	// 1. Global Gateway Middleware Pipeline
	// =========================================================================

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(rh_middleware.StructuredLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(rh_middleware.Instrument(cfg.Metrics))

	// 🛡️ Limit all incoming JSON requests to 1 Megabyte max
	r.Use(rh_middleware.MaxBytes(1_048_576))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// =========================================================================
	// 2. API v1 Routing Tree
	// =========================================================================

	r.Route("/api/v1", func(r chi.Router) {

		// ---------------------------------------------------------------------
		// Request/Response Routes (bounded by a timeout)
		// ---------------------------------------------------------------------
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", cfg.ProjectHandler.List)
				r.Get("/{id}", cfg.ProjectHandler.Get)
				r.Delete("/{id}", cfg.ProjectHandler.Delete)
				r.Put("/{id}/env", cfg.ProjectHandler.ReplaceEnv)
				r.Post("/{id}/env", cfg.ProjectHandler.AddEnv)
				r.Delete("/{id}/env/{envID}", cfg.ProjectHandler.DeleteEnv)
			})

			r.Get("/wizard", cfg.WizardHandler.State)
			r.Put("/wizard/name", cfg.WizardHandler.SetName)
			r.Post("/wizard/next", cfg.WizardHandler.Next)
			r.Post("/wizard/back", cfg.WizardHandler.Back)
			r.Post("/wizard/start", cfg.WizardHandler.Start)
			r.Post("/wizard/cancel", cfg.WizardHandler.Cancel)
			r.Post("/wizard/reset", cfg.WizardHandler.Reset)

			r.Get("/view", cfg.ViewHandler.Get)
			r.Put("/view", cfg.ViewHandler.Update)

			advice := cfg.AdviceHandler.Ask
			if cfg.AdviceLimiter != nil {
				r.With(cfg.AdviceLimiter.Limit).Post("/advice", advice)
			} else {
				r.Post("/advice", advice)
			}
		})

		// ---------------------------------------------------------------------
		// Streaming Routes (long-lived, no timeout)
		// ---------------------------------------------------------------------
		r.Get("/wizard/events", cfg.WizardHandler.Events)
		r.Get("/ws/wizard", cfg.WSHandler.StreamWizard)
	})

	r.Get("/ping", cfg.HealthHandler.Ping)
	r.Get("/health", cfg.HealthHandler.Check)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}
