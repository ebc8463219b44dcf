package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/chispart-landing/internal/cycles"
	httpmiddleware "github.com/wolfman30/chispart-landing/internal/http/middleware"
	"github.com/wolfman30/chispart-landing/internal/landing"
	"github.com/wolfman30/chispart-landing/pkg/logging"
)

const readyTimeout = 2 * time.Second

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Landing            *landing.Handler
	// Cycles serves the development cycle API; nil leaves it unmounted.
	Cycles             *cycles.Handler
	Visitors           *httpmiddleware.VisitorTokens
	Limiter            *httpmiddleware.RateLimiter
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	// Ready reports whether the backing store is reachable. Nil means always ready.
	Ready func(ctx context.Context) error
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Get("/health", healthCheck)
	r.Get("/ready", readyCheck(cfg.Ready, cfg.Logger))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(visitor chi.Router) {
		visitor.Use(httpmiddleware.Visitor(cfg.Visitors, cfg.Logger))

		// Upgrades need the raw connection, so the socket skips compression.
		visitor.Get("/ws", cfg.Landing.HandleWebSocket)

		visitor.Group(func(page chi.Router) {
			page.Use(middleware.Compress(5))
			page.Get("/", cfg.Landing.HandleIndex)
			page.Get("/static/landing.js", cfg.Landing.HandleClientJS)
			// Paths the page was first published under.
			page.Get("/landing", cfg.Landing.HandleIndex)
			page.Get("/landing/", cfg.Landing.HandleIndex)
			page.Get("/landing/index.html", cfg.Landing.HandleIndex)
			page.Get("/landing/js/main.js", cfg.Landing.HandleClientJS)

			page.Route("/api", func(api chi.Router) {
				if cfg.Limiter != nil {
					api.Use(httpmiddleware.RateLimit(cfg.Limiter))
				}
				api.Post("/actions", cfg.Landing.HandleAction)
				api.Get("/page", cfg.Landing.HandlePage)
				api.Get("/demo/history", cfg.Landing.HandleHistory)
				api.Get("/subscription", cfg.Landing.HandleSubscription)
			})
		})
	})

	if cfg.Cycles != nil {
		r.Group(func(api chi.Router) {
			api.Use(middleware.Compress(5))
			if cfg.Limiter != nil {
				api.Use(httpmiddleware.RateLimit(cfg.Limiter))
			}
			api.Route("/cycles", cfg.Cycles.Routes)
			api.Get("/agents", cfg.Cycles.ListAgents)
			api.Get("/models", cfg.Cycles.ListModels)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK, "ok")
}

func readyCheck(ready func(context.Context) error, logger *logging.Logger) http.HandlerFunc {
	if logger == nil {
		logger = logging.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if ready == nil {
			writeStatus(w, http.StatusOK, "ok")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := ready(ctx); err != nil {
			logger.Warn("router: readiness check failed", "error", err)
			writeStatus(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	}
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
