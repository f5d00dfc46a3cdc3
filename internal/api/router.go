// AuthSentry - Authentication Security Monitoring and Threat Detection
// Copyright 2026 AuthSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/authsentry/authsentry

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/authsentry/authsentry/internal/monitor"
)

// Router wires handlers and middleware into the chi mux.
type Router struct {
	handlers   *Handlers
	middleware *Middleware
}

// NewRouter creates a router around the engine.
func NewRouter(m *monitor.Monitor, mwConfig MiddlewareConfig) *Router {
	return &Router{
		handlers:   NewHandlers(m),
		middleware: NewMiddleware(mwConfig),
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())
	r.Use(RequestLogger())

	r.Get("/api/v1/health", router.handlers.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/security", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())

		r.Post("/events", router.handlers.RecordEvent)
		r.Get("/events", router.handlers.ListEvents)

		r.Post("/login-attempts", router.handlers.RecordLoginAttempt)

		r.Get("/alerts", router.handlers.ListAlerts)
		r.Post("/alerts/{id}/acknowledge", router.handlers.AcknowledgeAlert)
		r.Post("/alerts/{id}/resolve", router.handlers.ResolveAlert)

		r.Get("/lockouts/{identifier}", router.handlers.GetLockout)
		r.Delete("/lockouts/{identifier}", router.handlers.Unlock)

		r.Post("/blocked-ips", router.handlers.BlockIP)
		r.Get("/blocked-ips/{ip}", router.handlers.GetBlockedIP)
		r.Delete("/blocked-ips/{ip}", router.handlers.UnblockIP)

		r.Get("/profiles/{user_id}", router.handlers.GetUserProfile)

		r.Post("/cleanup", router.handlers.Cleanup)
	})

	return r
}
