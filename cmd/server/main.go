// AuthSentry - Authentication Security Monitoring and Threat Detection
// Copyright 2026 AuthSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/authsentry/authsentry

// Package main is the entry point for the AuthSentry server.
//
// AuthSentry watches an authentication system for hostile patterns:
// brute-force attacks, logins from new or impossible locations, privilege
// escalations and other security events. It exposes a REST API for
// reporting login attempts and events, querying alerts and managing
// lockouts, plus Prometheus metrics.
//
// Startup order:
//
//  1. Configuration via koanf (defaults, optional YAML file, AUTHSENTRY_*
//     environment variables)
//  2. Structured logging via zerolog
//  3. The monitoring engine
//  4. Optional DuckDB archive
//  5. Supervision tree (suture): cleanup sweeper, archiver, HTTP server
//
// The server shuts down gracefully on SIGINT and SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/authsentry/authsentry/internal/api"
	"github.com/authsentry/authsentry/internal/archive"
	"github.com/authsentry/authsentry/internal/config"
	"github.com/authsentry/authsentry/internal/logging"
	"github.com/authsentry/authsentry/internal/monitor"
	"github.com/authsentry/authsentry/internal/supervisor"
	"github.com/authsentry/authsentry/internal/supervisor/services"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Int("port", cfg.Server.Port).
		Bool("monitoring_enabled", cfg.Monitoring.Enabled).
		Msg("starting authsentry")

	m, err := monitor.New(cfg.Monitoring.ToMonitorConfig())
	if err != nil {
		return fmt.Errorf("failed to create monitoring engine: %w", err)
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	tree.AddBackgroundService(services.NewCleanupService(m, cfg.Monitoring.CleanupInterval))

	if cfg.Archive.Enabled {
		store, err := archive.Open(cfg.Archive.Path, cfg.Archive.MaxMemory)
		if err != nil {
			return fmt.Errorf("failed to open archive: %w", err)
		}
		defer store.Close()

		if err := store.CreateTables(context.Background()); err != nil {
			return fmt.Errorf("failed to initialize archive schema: %w", err)
		}
		tree.AddBackgroundService(services.NewArchiverService(m, store, cfg.Archive.DrainInterval))
		logging.Info().Str("path", cfg.Archive.Path).Msg("archive enabled")
	}

	router := api.NewRouter(m, api.MiddlewareConfig{
		CORSAllowedOrigins: cfg.Security.CORSOrigins,
		RateLimitRequests:  cfg.Security.RateLimitReqs,
		RateLimitWindow:    cfg.Security.RateLimitWindow,
		RateLimitDisabled:  cfg.Security.RateLimitDisabled,
	})
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, supervisor.DefaultTreeConfig().ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", server.Addr).Msg("listening")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logging.Info().Msg("shutdown complete")
	return nil
}
