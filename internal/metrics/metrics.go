// AuthSentry - Authentication Security Monitoring and Threat Detection
// Copyright 2026 AuthSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/authsentry/authsentry

// Package metrics provides Prometheus instrumentation for the security
// monitoring engine and its HTTP surface.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Engine metrics

	SecurityEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "security_events_total",
			Help: "Total number of security events recorded",
		},
		[]string{"event_type", "severity"},
	)

	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Total number of observed login attempts",
		},
		[]string{"outcome"}, // "success", "failure"
	)

	AlertsRaised = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "security_alerts_raised_total",
			Help: "Total number of security alerts raised",
		},
		[]string{"severity"},
	)

	ActiveLockouts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "security_lockouts_active",
			Help: "Current number of unexpired account lockouts",
		},
	)

	BlockedIPs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "security_blocked_ips_active",
			Help: "Current number of unexpired IP blocks",
		},
	)

	CleanupRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "security_cleanup_removed_total",
			Help: "Total number of records removed by retention cleanup",
		},
	)

	// Archive metrics

	ArchivedEvents = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "security_archived_events_total",
			Help: "Total number of events drained to the durable archive",
		},
	)

	ArchiveErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "security_archive_errors_total",
			Help: "Total number of archive drain failures",
		},
	)

	// API Endpoint Metrics

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
