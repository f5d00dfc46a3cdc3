// AuthSentry - Authentication Security Monitoring and Threat Detection
// Copyright 2026 AuthSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/authsentry/authsentry

package monitor

import (
	"fmt"
	"time"
)

// Config is the static monitoring policy. It is immutable for the lifetime
// of a Monitor instance; invalid policy is rejected at construction, not
// deferred into runtime.
type Config struct {
	// Enabled is the kill switch. When false, RecordEvent and
	// RecordLoginAttempt return immediately without mutating state.
	Enabled bool `json:"enabled" koanf:"enabled"`

	// BruteForceThreshold is the number of failed attempts within the
	// window that triggers a lockout. The threshold is inclusive.
	BruteForceThreshold int `json:"brute_force_threshold" koanf:"brute_force_threshold"`

	// BruteForceWindow is the sliding window over which failures count.
	BruteForceWindow time.Duration `json:"brute_force_window" koanf:"brute_force_window"`

	// LockoutDuration is how long a triggered lockout and IP block last.
	LockoutDuration time.Duration `json:"lockout_duration" koanf:"lockout_duration"`

	// AnomalyDetectionEnabled gates all anomaly checks on successful logins.
	AnomalyDetectionEnabled bool `json:"anomaly_detection_enabled" koanf:"anomaly_detection_enabled"`

	// AnomalyThresholdStddev is the deviation threshold for behavioral
	// scoring. Reserved for risk score computation.
	AnomalyThresholdStddev float64 `json:"anomaly_threshold_stddev" koanf:"anomaly_threshold_stddev"`

	// GeoAnomalyDetection flags logins from countries never seen for the user.
	GeoAnomalyDetection bool `json:"geo_anomaly_detection" koanf:"geo_anomaly_detection"`

	// ImpossibleTravelDetection flags logins implying implausible travel speed.
	ImpossibleTravelDetection bool `json:"impossible_travel_detection" koanf:"impossible_travel_detection"`

	// MaxTravelSpeedKmH is the maximum plausible travel speed.
	MaxTravelSpeedKmH float64 `json:"max_travel_speed_kmh" koanf:"max_travel_speed_kmh"`

	// AlertOnCritical raises an alert for every critical event.
	AlertOnCritical bool `json:"alert_on_critical" koanf:"alert_on_critical"`

	// AlertOnHigh raises an alert for every high-severity event.
	AlertOnHigh bool `json:"alert_on_high" koanf:"alert_on_high"`

	// Retention is the horizon beyond which CleanupOldData drops records.
	Retention time.Duration `json:"retention" koanf:"retention"`
}

// DefaultConfig returns the default monitoring policy.
func DefaultConfig() Config {
	return Config{
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
		Retention:                 168 * time.Hour,
	}
}

// Validate checks the policy for construction-time errors.
func (c Config) Validate() error {
	if c.BruteForceThreshold < 1 {
		return fmt.Errorf("brute_force_threshold must be at least 1, got %d", c.BruteForceThreshold)
	}
	if c.BruteForceWindow <= 0 {
		return fmt.Errorf("brute_force_window must be positive, got %s", c.BruteForceWindow)
	}
	if c.LockoutDuration <= 0 {
		return fmt.Errorf("lockout_duration must be positive, got %s", c.LockoutDuration)
	}
	if c.ImpossibleTravelDetection && c.MaxTravelSpeedKmH <= 0 {
		return fmt.Errorf("max_travel_speed_kmh must be positive when impossible travel detection is enabled, got %g", c.MaxTravelSpeedKmH)
	}
	if c.Retention < 0 {
		return fmt.Errorf("retention cannot be negative, got %s", c.Retention)
	}
	return nil
}
