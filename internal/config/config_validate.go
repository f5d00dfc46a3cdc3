// AuthSentry - Authentication Security Monitoring and Threat Detection
// Copyright 2026 AuthSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/authsentry/authsentry

package config

import (
	"fmt"
	"strings"
)

// Validate checks that the configuration is complete and internally
// consistent.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateMonitoring(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("AUTHSENTRY_HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("AUTHSENTRY_HTTP_TIMEOUT must be positive, got %s", c.Server.Timeout)
	}
	switch c.Server.Environment {
	case "development", "production", "test":
		return nil
	default:
		return fmt.Errorf("ENVIRONMENT must be development, production or test, got %q", c.Server.Environment)
	}
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("AUTHSENTRY_RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("AUTHSENTRY_RATE_LIMIT_WINDOW must be positive, got %s", c.Security.RateLimitWindow)
	}
	return nil
}

// validateMonitoring delegates policy checks to the engine's own
// validation so the loader and the engine can never disagree.
func (c *Config) validateMonitoring() error {
	if err := c.Monitoring.ToMonitorConfig().Validate(); err != nil {
		return fmt.Errorf("monitoring policy: %w", err)
	}
	if c.Monitoring.CleanupInterval <= 0 {
		return fmt.Errorf("AUTHSENTRY_CLEANUP_INTERVAL must be positive, got %s", c.Monitoring.CleanupInterval)
	}
	return nil
}

func (c *Config) validateArchive() error {
	if !c.Archive.Enabled {
		return nil
	}
	if c.Archive.Path == "" {
		return fmt.Errorf("AUTHSENTRY_DUCKDB_PATH is required when the archive is enabled")
	}
	if c.Archive.DrainInterval <= 0 {
		return fmt.Errorf("AUTHSENTRY_ARCHIVE_DRAIN_INTERVAL must be positive, got %s", c.Archive.DrainInterval)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return fmt.Errorf("AUTHSENTRY_LOG_LEVEL must be a valid level, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("AUTHSENTRY_LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}
