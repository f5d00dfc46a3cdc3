// AuthSentry - Authentication Security Monitoring and Threat Detection
// Copyright 2026 AuthSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/authsentry/authsentry

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/authsentry/authsentry/internal/logging"
	"github.com/authsentry/authsentry/internal/metrics"
)

// MiddlewareConfig holds the settings for the shared middleware stack.
type MiddlewareConfig struct {
	CORSAllowedOrigins []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
	RateLimitDisabled  bool
}

// Middleware is a factory for the configured middleware stack.
type Middleware struct {
	config MiddlewareConfig
	cors   func(http.Handler) http.Handler
}

// NewMiddleware builds the middleware factory.
func NewMiddleware(config MiddlewareConfig) *Middleware {
	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: config.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	})
	return &Middleware{config: config, cors: corsHandler}
}

// CORS returns the CORS middleware.
func (m *Middleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimit returns an IP-keyed rate limiting middleware, or a no-op when
// rate limiting is disabled.
func (m *Middleware) RateLimit() func(http.Handler) http.Handler {
	if m.config.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		m.config.RateLimitRequests,
		m.config.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
	)
}

// RequestLogger logs one line per request with the chi request id and
// records the Prometheus request metrics.
func RequestLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)

			// The route pattern keeps the metric label cardinality bounded
			// when paths carry ids.
			endpoint := chi.RouteContext(r.Context()).RoutePattern()
			if endpoint == "" {
				endpoint = r.URL.Path
			}
			if routeCtx := chimiddleware.GetReqID(r.Context()); routeCtx != "" {
				logging.Debug().
					Str("request_id", routeCtx).
					Str("method", r.Method).
					Str("path", sanitizeLogValue(endpoint)).
					Int("status", ww.Status()).
					Dur("duration", duration).
					Msg("http request")
			}
			metrics.RecordAPIRequest(r.Method, endpoint, ww.Status(), duration)
		})
	}
}
