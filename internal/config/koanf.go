// AuthSentry - Authentication Security Monitoring and Threat Detection
// Copyright 2026 AuthSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/authsentry/authsentry

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/authsentry/config.yaml",
	"/etc/authsentry/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "AUTHSENTRY_CONFIG_PATH"

// envPrefix is stripped from environment variables before mapping.
const envPrefix = "AUTHSENTRY_"

// defaultConfig returns a Config with all defaults applied. Defaults are
// loaded first, then overridden by the config file and environment.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8480,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Monitoring: MonitoringConfig{
			Enabled:                   true,
			BruteForceThreshold:       5,
			BruteForceWindow:          5 * time.Minute,
			LockoutDuration:           30 * time.Minute,
			AnomalyDetectionEnabled:   true,
			AnomalyThresholdStddev:    3.0,
			GeoAnomalyDetection:       true,
			ImpossibleTravelDetection: true,
			MaxTravelSpeedKmH:         1000,
			AlertOnCritical:           true,
			AlertOnHigh:               true,
			Retention:                 7 * 24 * time.Hour,
			CleanupInterval:           time.Hour,
		},
		Archive: ArchiveConfig{
			Enabled:       false,
			Path:          "/data/authsentry.duckdb",
			MaxMemory:     "1GB",
			DrainInterval: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using koanf with layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. AUTHSENTRY_* environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or empty.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when supplied via environment variables.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated strings to slices for known
// slice fields. Environment values always arrive as strings.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps AUTHSENTRY_* environment variable names to koanf
// config paths. Unknown variables are dropped so unrelated environment
// entries cannot pollute the config.
//
// Examples:
//   - AUTHSENTRY_HTTP_PORT -> server.port
//   - AUTHSENTRY_BRUTE_FORCE_THRESHOLD -> monitoring.brute_force_threshold
//   - AUTHSENTRY_LOG_LEVEL -> logging.level
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	envMappings := map[string]string{
		// Server
		"http_host":    "server.host",
		"http_port":    "server.port",
		"http_timeout": "server.timeout",
		"environment":  "server.environment",

		// API surface protections
		"rate_limit_requests": "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"disable_rate_limit":  "security.rate_limit_disabled",
		"cors_origins":        "security.cors_origins",

		// Threat-detection policy
		"monitoring_enabled":          "monitoring.enabled",
		"brute_force_threshold":       "monitoring.brute_force_threshold",
		"brute_force_window":          "monitoring.brute_force_window",
		"lockout_duration":            "monitoring.lockout_duration",
		"anomaly_detection_enabled":   "monitoring.anomaly_detection_enabled",
		"anomaly_threshold_stddev":    "monitoring.anomaly_threshold_stddev",
		"geo_anomaly_detection":       "monitoring.geo_anomaly_detection",
		"impossible_travel_detection": "monitoring.impossible_travel_detection",
		"max_travel_speed_kmh":        "monitoring.max_travel_speed_kmh",
		"alert_on_critical":           "monitoring.alert_on_critical",
		"alert_on_high":               "monitoring.alert_on_high",
		"retention":                   "monitoring.retention",
		"cleanup_interval":            "monitoring.cleanup_interval",

		// Archive
		"archive_enabled":        "archive.enabled",
		"duckdb_path":            "archive.path",
		"duckdb_max_memory":      "archive.max_memory",
		"archive_drain_interval": "archive.drain_interval",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
