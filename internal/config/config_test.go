// AuthSentry - Authentication Security Monitoring and Threat Detection
// Copyright 2026 AuthSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/authsentry/authsentry

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8480, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Monitoring.BruteForceThreshold)
	assert.Equal(t, 30*time.Minute, cfg.Monitoring.LockoutDuration)
	assert.Equal(t, 7*24*time.Hour, cfg.Monitoring.Retention)
	assert.True(t, cfg.Monitoring.Enabled)
	assert.False(t, cfg.Archive.Enabled)
}

func TestLoadDefaultsOnly(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 1000.0, cfg.Monitoring.MaxTravelSpeedKmH)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlContent := `
server:
  port: 9000
monitoring:
  brute_force_threshold: 10
  lockout_duration: 1h
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o600))
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Monitoring.BruteForceThreshold)
	assert.Equal(t, time.Hour, cfg.Monitoring.LockoutDuration)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched keys keep their defaults.
	assert.Equal(t, 5*time.Minute, cfg.Monitoring.BruteForceWindow)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o600))
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("AUTHSENTRY_HTTP_PORT", "9100")
	t.Setenv("AUTHSENTRY_BRUTE_FORCE_THRESHOLD", "3")
	t.Setenv("AUTHSENTRY_MONITORING_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Monitoring.BruteForceThreshold)
	assert.False(t, cfg.Monitoring.Enabled)
}

func TestEnvCORSOriginsSlice(t *testing.T) {
	t.Setenv("AUTHSENTRY_CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Security.CORSOrigins)
}

func TestUnknownEnvVarsAreIgnored(t *testing.T) {
	t.Setenv("AUTHSENTRY_NOT_A_REAL_KEY", "whatever")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8480, cfg.Server.Port)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too low", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"bad environment", func(c *Config) { c.Server.Environment = "staging" }},
		{"zero rate limit", func(c *Config) { c.Security.RateLimitReqs = 0 }},
		{"zero brute force threshold", func(c *Config) { c.Monitoring.BruteForceThreshold = 0 }},
		{"zero cleanup interval", func(c *Config) { c.Monitoring.CleanupInterval = 0 }},
		{"archive without path", func(c *Config) { c.Archive.Enabled = true; c.Archive.Path = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRateLimitValidationSkippedWhenDisabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.Security.RateLimitDisabled = true
	cfg.Security.RateLimitReqs = 0
	assert.NoError(t, cfg.Validate())
}

func TestToMonitorConfigRoundTrip(t *testing.T) {
	cfg := defaultConfig()
	mc := cfg.Monitoring.ToMonitorConfig()

	assert.Equal(t, cfg.Monitoring.BruteForceThreshold, mc.BruteForceThreshold)
	assert.Equal(t, cfg.Monitoring.BruteForceWindow, mc.BruteForceWindow)
	assert.Equal(t, cfg.Monitoring.Retention, mc.Retention)
	assert.NoError(t, mc.Validate())
}
