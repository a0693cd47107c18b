package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"
)

const apiKeyHeader = "X-API-Key"

// RequireAPIKey rejects requests whose key does not match the bcrypt hash. An empty hash
// disables the guard.
func RequireAPIKey(hash string, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)
	hashed := []byte(hash)

	return func(next http.Handler) http.Handler {
		if len(hashed) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := extractAPIKey(r)
			if key == "" {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAPIKey)
				return
			}
			if err := bcrypt.CompareHashAndPassword(hashed, []byte(key)); err != nil {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, errInvalidAPIKey)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func extractAPIKey(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(apiKeyHeader)); key != "" {
		return key
	}
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(auth) > len("Bearer ") && strings.EqualFold(auth[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	return ""
}

// RequestLogger attaches a request scoped logger to the context and logs completion with
// the response status. It expects chi's RequestID middleware to run first.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := base.With(
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
			)

			ctx := ContextWithLogger(r.Context(), logger)
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.InfoContext(ctx, "request completed",
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
