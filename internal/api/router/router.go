// Package router assembles the chi HTTP surface.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/scamshield/scamshield/internal/http/handlers"
	httpmiddleware "github.com/scamshield/scamshield/internal/http/middleware"
	"github.com/scamshield/scamshield/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	AnalyzeHandler     *handlers.AnalyzeHandler
	MediaHandler       *handlers.MediaHandler
	StatsHandler       *handlers.StatsHandler
	HealthHandler      *handlers.HealthHandler
	MetricsHandler     http.Handler
	RateLimit          func(http.Handler) http.Handler
	CORSAllowedOrigins []string
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	if cfg.HealthHandler != nil {
		r.Get("/health", cfg.HealthHandler.Check)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		if cfg.RateLimit != nil {
			api.Use(cfg.RateLimit)
		}
		if cfg.AnalyzeHandler != nil {
			api.Post("/analyze", cfg.AnalyzeHandler.Analyze)
		}
		if cfg.StatsHandler != nil {
			api.Get("/stats", cfg.StatsHandler.Recent)
		}
		if cfg.MediaHandler != nil {
			api.Route("/media", func(m chi.Router) {
				m.Post("/upload", cfg.MediaHandler.Upload)
				m.Post("/{jobID}/analyze", cfg.MediaHandler.Analyze)
				m.Get("/{jobID}", cfg.MediaHandler.Status)
			})
		}
	})

	return r
}
