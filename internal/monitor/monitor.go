// AuthSentry - Authentication Security Monitoring and Threat Detection
// Copyright 2026 AuthSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/authsentry/authsentry

// Package monitor implements the security monitoring and threat-detection
// engine: sliding-window brute-force detection, behavioral anomaly checks
// (new IP, impossible travel, geo anomaly), temporary lockouts and IP
// blocks with lazy expiry, an alert triage queue and a bounded event
// journal.
//
// The Monitor is safe for concurrent use from many goroutines. Each store
// is guarded by its own lock; no lock is ever held across a call into
// another store.
package monitor

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/authsentry/authsentry/internal/logging"
	"github.com/authsentry/authsentry/internal/metrics"
)

// Monitor is the single public entry point composing all security stores.
// The authentication layer calls RecordLoginAttempt on every login and
// consults IsLocked/IsIPBlocked before accepting credentials.
type Monitor struct {
	config   Config
	journal  *eventJournal
	ledger   *attemptLedger
	lockouts *lockoutRegistry
	profiles *profileStore
	alerts   *alertRegistry

	// now is injected for deterministic expiry in tests.
	now func() time.Time
}

// New creates a Monitor with the given policy. Invalid policy is rejected
// here rather than surfacing at runtime.
func New(config Config) (*Monitor, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid monitoring config: %w", err)
	}
	return &Monitor{
		config:   config,
		journal:  newEventJournal(),
		ledger:   newAttemptLedger(),
		lockouts: newLockoutRegistry(),
		profiles: newProfileStore(),
		alerts:   newAlertRegistry(),
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// NewWithDefaults creates a Monitor with the default policy.
func NewWithDefaults() *Monitor {
	m, err := New(DefaultConfig())
	if err != nil {
		// Default config is always valid.
		panic(err)
	}
	return m
}

// Config returns the monitoring policy.
func (m *Monitor) Config() Config {
	return m.config
}

// newEvent builds an event stamped with the monitor's clock.
func (m *Monitor) newEvent(eventType EventType) Event {
	e := NewEvent(eventType)
	e.Timestamp = m.now()
	return e
}

// RecordEvent appends the event to the journal and raises an alert when the
// severity and policy call for one. This is the single injection point used
// by every detector; external callers may also report events directly
// (permission denials, API key usage, privilege escalation).
//
// No-op when the engine is disabled.
func (m *Monitor) RecordEvent(event Event) {
	if !m.config.Enabled {
		return
	}

	shouldAlert := (event.Severity == SeverityCritical && m.config.AlertOnCritical) ||
		(event.Severity == SeverityHigh && m.config.AlertOnHigh)
	if shouldAlert {
		m.alerts.Add(m.alertFromEvent(event))
		metrics.AlertsRaised.WithLabelValues(event.Severity.String()).Inc()
	}

	m.journal.Append(event)
	metrics.SecurityEvents.WithLabelValues(string(event.Type), event.Severity.String()).Inc()
}

// RecordLoginAttempt observes one login attempt. It updates the sliding
// window for the identity, emits a LoginSuccess or LoginFailure event, and
// evaluates the brute-force rule. On a successful login with a known user
// it runs anomaly detection.
//
// The returned alert is non-nil only when this attempt just triggered a
// brute-force lockout; callers need it synchronously to deny the request.
func (m *Monitor) RecordLoginAttempt(userID uuid.UUID, ip string, success bool, userAgent string, location *GeoLocation) *Alert {
	if !m.config.Enabled {
		return nil
	}

	now := m.now()
	attempt := LoginAttempt{
		UserID:    userID,
		IPAddress: ip,
		Timestamp: now,
		Success:   success,
		UserAgent: userAgent,
		Location:  location,
	}

	// Dedupe key: user id when known, raw IP otherwise, so attacks against
	// one account from many IPs and one IP against many accounts both count.
	key := ip
	if userID != uuid.Nil {
		key = userID.String()
	}

	failedCount := m.ledger.Record(key, attempt, m.config.BruteForceWindow)

	eventType := EventLoginFailure
	outcome := "failure"
	if success {
		eventType = EventLoginSuccess
		outcome = "success"
	}
	metrics.LoginAttempts.WithLabelValues(outcome).Inc()

	event := m.newEvent(eventType).WithIP(ip)
	if userID != uuid.Nil {
		event = event.WithUser(userID)
	}
	if userAgent != "" {
		event = event.WithUserAgent(userAgent)
	}
	if location != nil {
		event = event.WithLocation(*location)
	}
	m.RecordEvent(event)

	if !success && failedCount >= m.config.BruteForceThreshold {
		return m.handleBruteForce(key, ip, userID, now)
	}

	if success && userID != uuid.Nil {
		m.checkLoginAnomalies(userID, ip, location, now)
	}

	return nil
}

// handleBruteForce locks the identity, blocks the originating IP, locks the
// user profile when a user id is known, and raises the critical alert
// returned to the caller.
func (m *Monitor) handleBruteForce(key, ip string, userID uuid.UUID, now time.Time) *Alert {
	expiresAt := now.Add(m.config.LockoutDuration)

	m.lockouts.Lock(Lockout{
		Identifier:   key,
		LockedAt:     now,
		ExpiresAt:    expiresAt,
		Reason:       "brute force attack detected",
		AttemptCount: m.config.BruteForceThreshold,
	})

	// The IP is blocked even when the dedupe key is a user id.
	m.lockouts.BlockIP(ip, expiresAt)

	if userID != uuid.Nil {
		m.profiles.Update(userID, func(p *UserProfile) {
			p.lock(expiresAt)
		})
	}

	event := m.newEvent(EventBruteForceDetected).
		WithIP(ip).
		WithDetail("threshold", m.config.BruteForceThreshold)
	if userID != uuid.Nil {
		event = event.WithUser(userID)
	}
	m.RecordEvent(event)

	logging.Warn().
		Str("identifier", key).
		Str("ip", ip).
		Int("threshold", m.config.BruteForceThreshold).
		Msg("brute force attack detected")

	m.updateLockoutGauges(now)

	alert := NewAlert(
		SeverityCritical,
		"Brute Force Attack Detected",
		fmt.Sprintf("Multiple failed login attempts detected for %s. Account locked for %s.",
			key, m.config.LockoutDuration),
	).WithEvent(event.ID).WithIP(ip)
	alert.Timestamp = now
	if userID != uuid.Nil {
		alert = alert.WithUser(userID)
	}

	m.alerts.Add(alert)
	metrics.AlertsRaised.WithLabelValues(alert.Severity.String()).Inc()
	return &alert
}

// checkLoginAnomalies runs the anomaly detectors for a successful login.
// Order matters: new-IP first, then impossible travel, then geo anomaly.
// Impossible travel and geo anomaly short-circuit: when either fires, the
// profile baseline is not updated on this pass, so repeated logins from the
// anomalous location keep firing until an operator intervenes or the
// baseline is updated by a later clean login.
func (m *Monitor) checkLoginAnomalies(userID uuid.UUID, ip string, location *GeoLocation, now time.Time) {
	if !m.config.AnomalyDetectionEnabled {
		return
	}

	// Snapshot the profile state needed for decisions; events are emitted
	// outside the profile lock.
	var (
		knownIP      bool
		lastLogin    *time.Time
		lastLocation *GeoLocation
		countries    []string
	)
	m.profiles.Update(userID, func(p *UserProfile) {
		knownIP = p.KnowsIP(ip)
		if p.LastLogin != nil {
			ts := *p.LastLogin
			lastLogin = &ts
		}
		if p.LastLocation != nil {
			loc := *p.LastLocation
			lastLocation = &loc
		}
		countries = p.KnownCountries()
	})

	if !knownIP {
		m.RecordEvent(m.newEvent(EventNewDeviceLogin).
			WithUser(userID).
			WithIP(ip).
			WithDetail("reason", "new_ip"))
		m.profiles.Update(userID, func(p *UserProfile) {
			p.AddKnownIP(ip)
		})
	}

	if m.config.ImpossibleTravelDetection && lastLocation != nil && lastLogin != nil && location != nil {
		if distanceKm, ok := lastLocation.DistanceKm(*location); ok {
			// Elapsed time is truncated to whole hours with a floor of
			// one, so sub-hour gaps cannot produce unbounded speeds.
			hours := int(now.Sub(*lastLogin).Hours())
			if hours < 1 {
				hours = 1
			}
			speedKmH := distanceKm / float64(hours)

			if speedKmH > m.config.MaxTravelSpeedKmH {
				m.RecordEvent(m.newEvent(EventImpossibleTravel).
					WithUser(userID).
					WithIP(ip).
					WithLocation(*location).
					WithDetail("distance_km", distanceKm).
					WithDetail("speed_kmh", speedKmH))

				logging.Warn().
					Str("user_id", userID.String()).
					Float64("distance_km", distanceKm).
					Float64("speed_kmh", speedKmH).
					Msg("impossible travel detected")
				return
			}
		}
	}

	if m.config.GeoAnomalyDetection && location != nil && location.Country != "" && len(countries) > 0 {
		known := false
		for _, c := range countries {
			if c == location.Country {
				known = true
				break
			}
		}
		if !known {
			m.RecordEvent(m.newEvent(EventGeoAnomalyDetected).
				WithUser(userID).
				WithIP(ip).
				WithLocation(*location).
				WithDetail("new_country", location.Country))
			return
		}
	}

	m.profiles.Update(userID, func(p *UserProfile) {
		p.RecordLogin(now, location)
	})
}

// alertFromEvent templates an alert from a high/critical event.
func (m *Monitor) alertFromEvent(event Event) Alert {
	description := fmt.Sprintf("%s event detected", event.Type)
	if event.UserID != uuid.Nil {
		description += fmt.Sprintf(" for user %s", event.UserID)
	}
	if event.IPAddress != "" {
		description += fmt.Sprintf(" from IP %s", event.IPAddress)
	}

	alert := NewAlert(event.Severity, fmt.Sprintf("Security Event: %s", event.Type), description).
		WithEvent(event.ID)
	alert.Timestamp = m.now()
	if event.UserID != uuid.Nil {
		alert = alert.WithUser(event.UserID)
	}
	if event.IPAddress != "" {
		alert = alert.WithIP(event.IPAddress)
	}
	return alert
}

// IsLocked reports whether an unexpired lockout exists for the identifier
// (a user id string or an IP). Expiry is computed lazily at read time.
func (m *Monitor) IsLocked(identifier string) bool {
	return m.lockouts.IsLocked(identifier, m.now())
}

// IsIPBlocked reports whether an unexpired block exists for the IP.
func (m *Monitor) IsIPBlocked(ip string) bool {
	return m.lockouts.IsIPBlocked(ip, m.now())
}

// GetLockoutInfo returns the lockout record for the identifier, if any.
func (m *Monitor) GetLockoutInfo(identifier string) (Lockout, bool) {
	return m.lockouts.Get(identifier)
}

// Unlock removes the lockout unconditionally (manual operator override).
// Returns false when no lockout existed.
func (m *Monitor) Unlock(identifier string) bool {
	ok := m.lockouts.Unlock(identifier)
	if ok {
		logging.Info().Str("identifier", identifier).Msg("lockout removed")
		m.updateLockoutGauges(m.now())
	}
	return ok
}

// UnblockIP removes the IP block unconditionally. Returns false when no
// block existed.
func (m *Monitor) UnblockIP(ip string) bool {
	ok := m.lockouts.UnblockIP(ip)
	if ok {
		logging.Info().Str("ip", ip).Msg("ip block removed")
		m.updateLockoutGauges(m.now())
	}
	return ok
}

// BlockIP blocks the IP for the given duration outside the brute-force
// path (operator-initiated) and emits an IPBlocked event.
func (m *Monitor) BlockIP(ip string, duration time.Duration, reason string) {
	now := m.now()
	m.lockouts.BlockIP(ip, now.Add(duration))

	m.RecordEvent(m.newEvent(EventIPBlocked).
		WithIP(ip).
		WithDetail("reason", reason).
		WithDetail("duration_minutes", int(duration.Minutes())))

	logging.Info().
		Str("ip", ip).
		Dur("duration", duration).
		Str("reason", reason).
		Msg("ip blocked")

	m.updateLockoutGauges(now)
}

// GetAlerts returns alerts most-recent-first, optionally only
// unacknowledged ones, up to limit.
func (m *Monitor) GetAlerts(unacknowledgedOnly bool, limit int) []Alert {
	return m.alerts.List(unacknowledgedOnly, limit)
}

// AcknowledgeAlert records the acknowledging actor. Returns false for an
// unknown alert id.
func (m *Monitor) AcknowledgeAlert(alertID, by uuid.UUID) bool {
	return m.alerts.Acknowledge(alertID, by, m.now())
}

// ResolveAlert marks the alert resolved. Returns false for an unknown id.
func (m *Monitor) ResolveAlert(alertID uuid.UUID) bool {
	return m.alerts.Resolve(alertID, m.now())
}

// GetUserProfile returns a copy of the user's security profile, or nil
// when the user has never been observed.
func (m *Monitor) GetUserProfile(userID uuid.UUID) *UserProfile {
	return m.profiles.Get(userID)
}

// GetRecentEvents returns journal events most-recent-first, filtered by
// type and user when given (zero values mean no filter), up to limit.
func (m *Monitor) GetRecentEvents(eventType EventType, userID uuid.UUID, limit int) []Event {
	return m.journal.Recent(eventType, userID, limit)
}

// EventsSince returns journal events newer than mark in append order.
// Intended for archival consumers draining the journal before cleanup.
func (m *Monitor) EventsSince(mark time.Time) []Event {
	return m.journal.Since(mark)
}

// CleanupOldData sweeps all stores: journal events and login attempts older
// than the retention horizon, and lockouts/IP blocks whose expiry has
// passed. Returns the total number of records removed. This is the only
// unbounded-cost operation; callers invoke it on a schedule.
func (m *Monitor) CleanupOldData() int {
	now := m.now()
	cutoff := now.Add(-m.config.Retention)

	removed := m.journal.Sweep(cutoff)
	removed += m.ledger.Sweep(cutoff)
	removed += m.lockouts.Sweep(now)

	if removed > 0 {
		logging.Info().Int("removed", removed).Msg("cleaned up old security monitoring records")
	}
	metrics.CleanupRemoved.Add(float64(removed))
	m.updateLockoutGauges(now)
	return removed
}

// updateLockoutGauges refreshes the active lockout/block gauges.
func (m *Monitor) updateLockoutGauges(now time.Time) {
	lockouts, blockedIPs := m.lockouts.ActiveCounts(now)
	metrics.ActiveLockouts.Set(float64(lockouts))
	metrics.BlockedIPs.Set(float64(blockedIPs))
}
