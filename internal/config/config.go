// AuthSentry - Authentication Security Monitoring and Threat Detection
// Copyright 2026 AuthSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/authsentry/authsentry

// Package config loads and validates the application configuration from
// layered sources: built-in defaults, an optional YAML file, and
// AUTHSENTRY_* environment variables, in increasing priority.
package config

import (
	"time"

	"github.com/authsentry/authsentry/internal/monitor"
)

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Security   SecurityConfig   `koanf:"security"`
	Monitoring MonitoringConfig `koanf:"monitoring"`
	Archive    ArchiveConfig    `koanf:"archive"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// SecurityConfig holds API surface protections. These guard the monitoring
// API itself; the monitored authentication system has its own policy under
// MonitoringConfig.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// MonitoringConfig is the threat-detection policy. It mirrors the engine's
// own config struct so the engine package stays independent of the loader.
type MonitoringConfig struct {
	Enabled                   bool          `koanf:"enabled"`
	BruteForceThreshold       int           `koanf:"brute_force_threshold"`
	BruteForceWindow          time.Duration `koanf:"brute_force_window"`
	LockoutDuration           time.Duration `koanf:"lockout_duration"`
	AnomalyDetectionEnabled   bool          `koanf:"anomaly_detection_enabled"`
	AnomalyThresholdStddev    float64       `koanf:"anomaly_threshold_stddev"`
	GeoAnomalyDetection       bool          `koanf:"geo_anomaly_detection"`
	ImpossibleTravelDetection bool          `koanf:"impossible_travel_detection"`
	MaxTravelSpeedKmH         float64       `koanf:"max_travel_speed_kmh"`
	AlertOnCritical           bool          `koanf:"alert_on_critical"`
	AlertOnHigh               bool          `koanf:"alert_on_high"`
	Retention                 time.Duration `koanf:"retention"`
	CleanupInterval           time.Duration `koanf:"cleanup_interval"`
}

// ToMonitorConfig converts the loaded policy into the engine's config.
func (c MonitoringConfig) ToMonitorConfig() monitor.Config {
	return monitor.Config{
		Enabled:                   c.Enabled,
		BruteForceThreshold:       c.BruteForceThreshold,
		BruteForceWindow:          c.BruteForceWindow,
		LockoutDuration:           c.LockoutDuration,
		AnomalyDetectionEnabled:   c.AnomalyDetectionEnabled,
		AnomalyThresholdStddev:    c.AnomalyThresholdStddev,
		GeoAnomalyDetection:       c.GeoAnomalyDetection,
		ImpossibleTravelDetection: c.ImpossibleTravelDetection,
		MaxTravelSpeedKmH:         c.MaxTravelSpeedKmH,
		AlertOnCritical:           c.AlertOnCritical,
		AlertOnHigh:               c.AlertOnHigh,
		Retention:                 c.Retention,
	}
}

// ArchiveConfig holds settings for the DuckDB event archive.
type ArchiveConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Path          string        `koanf:"path"`
	MaxMemory     string        `koanf:"max_memory"`
	DrainInterval time.Duration `koanf:"drain_interval"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
