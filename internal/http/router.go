package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Series  *SeriesHandler
	Classes *ClassHandler
	Health  Pinger
	// APIKeyHash is a bcrypt hash guarding every route except /healthz. Empty disables the guard.
	APIKeyHash string
	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := defaultLogger(cfg.Logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.Get("/healthz", healthHandler(cfg.Health, logger))

	r.Group(func(r chi.Router) {
		r.Use(RequireAPIKey(cfg.APIKeyHash, logger))

		if cfg.Series != nil {
			r.Route("/series", func(r chi.Router) {
				r.Get("/", cfg.Series.List)
				r.Post("/", cfg.Series.Create)
				r.Route("/{seriesID}", func(r chi.Router) {
					r.Get("/", cfg.Series.Get)
					r.Delete("/", cfg.Series.Delete)
					r.Get("/calendar.ics", cfg.Series.Calendar)
				})
			})
		}

		if cfg.Classes != nil {
			r.Route("/classes", func(r chi.Router) {
				r.Get("/", cfg.Classes.List)
				r.Post("/", cfg.Classes.Create)
				r.Route("/{classID}", func(r chi.Router) {
					r.Get("/", cfg.Classes.Get)
					r.Patch("/", cfg.Classes.Update)
				})
			})
		}
	})

	return r
}

func healthHandler(pinger Pinger, logger *slog.Logger) http.HandlerFunc {
	responder := newResponder(logger)
	return func(w http.ResponseWriter, r *http.Request) {
		if pinger != nil {
			if err := pinger.Ping(r.Context()); err != nil {
				responder.loggerFor(r.Context()).ErrorContext(r.Context(), "health check failed", "error", err)
				responder.writeError(r.Context(), w, http.StatusServiceUnavailable, errStorageDegraded)
				return
			}
		}
		responder.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
