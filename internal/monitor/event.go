// AuthSentry - Authentication Security Monitoring and Threat Detection
// Copyright 2026 AuthSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/authsentry/authsentry

package monitor

import (
	"time"

	"github.com/google/uuid"
)

// EventType categorizes security events. The set is closed: the
// authentication layer reports one of these kinds, never free-form strings.
type EventType string

const (
	EventLoginAttempt        EventType = "login_attempt"
	EventLoginSuccess        EventType = "login_success"
	EventLoginFailure        EventType = "login_failure"
	EventPasswordReset       EventType = "password_reset"
	EventMFAChallenge        EventType = "mfa_challenge"
	EventMFAFailure          EventType = "mfa_failure"
	EventSessionCreated      EventType = "session_created"
	EventSessionRevoked      EventType = "session_revoked"
	EventPermissionDenied    EventType = "permission_denied"
	EventRateLimitExceeded   EventType = "rate_limit_exceeded"
	EventSuspiciousActivity  EventType = "suspicious_activity"
	EventBruteForceDetected  EventType = "brute_force_detected"
	EventAccountLocked       EventType = "account_locked"
	EventIPBlocked           EventType = "ip_blocked"
	EventGeoAnomalyDetected  EventType = "geo_anomaly_detected"
	EventImpossibleTravel    EventType = "impossible_travel"
	EventNewDeviceLogin      EventType = "new_device_login"
	EventAPIKeyUsed          EventType = "api_key_used"
	EventPrivilegeEscalation EventType = "privilege_escalation"
	EventDataExfiltration    EventType = "data_exfiltration"
)

// eventTypes lists every known event type, used for parsing and the
// severity regression tests.
var eventTypes = []EventType{
	EventLoginAttempt,
	EventLoginSuccess,
	EventLoginFailure,
	EventPasswordReset,
	EventMFAChallenge,
	EventMFAFailure,
	EventSessionCreated,
	EventSessionRevoked,
	EventPermissionDenied,
	EventRateLimitExceeded,
	EventSuspiciousActivity,
	EventBruteForceDetected,
	EventAccountLocked,
	EventIPBlocked,
	EventGeoAnomalyDetected,
	EventImpossibleTravel,
	EventNewDeviceLogin,
	EventAPIKeyUsed,
	EventPrivilegeEscalation,
	EventDataExfiltration,
}

// EventTypes returns all known event types.
func EventTypes() []EventType {
	out := make([]EventType, len(eventTypes))
	copy(out, eventTypes)
	return out
}

// ParseEventType converts a wire name into an EventType.
// Returns false for unknown names.
func ParseEventType(s string) (EventType, bool) {
	for _, et := range eventTypes {
		if string(et) == s {
			return et, true
		}
	}
	return "", false
}

// Severity returns the intrinsic severity of the event type. The mapping is
// fixed policy, not configurable per instance.
func (t EventType) Severity() Severity {
	switch t {
	case EventBruteForceDetected, EventAccountLocked, EventPrivilegeEscalation, EventDataExfiltration:
		return SeverityCritical
	case EventLoginFailure, EventMFAFailure, EventPermissionDenied, EventImpossibleTravel, EventGeoAnomalyDetected:
		return SeverityHigh
	case EventRateLimitExceeded, EventSuspiciousActivity, EventIPBlocked, EventNewDeviceLogin:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Severity is the ordered alert severity scale.
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// String returns the wire name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "low"
	}
}

// Score returns a numeric weight usable for ranking and aggregation.
func (s Severity) Score() int {
	switch s {
	case SeverityMedium:
		return 50
	case SeverityHigh:
		return 75
	case SeverityCritical:
		return 100
	default:
		return 25
	}
}

// MarshalJSON encodes the severity as its wire name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes a severity wire name.
func (s *Severity) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"medium"`:
		*s = SeverityMedium
	case `"high"`:
		*s = SeverityHigh
	case `"critical"`:
		*s = SeverityCritical
	default:
		*s = SeverityLow
	}
	return nil
}

// Event is a single security event. Events are immutable once recorded;
// the With* builders are only used during construction.
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"event_type"`
	Severity  Severity       `json:"severity"`
	UserID    uuid.UUID      `json:"user_id"`
	IPAddress string         `json:"ip_address,omitempty"`
	UserAgent string         `json:"user_agent,omitempty"`
	Location  *GeoLocation   `json:"location,omitempty"`
	DeviceID  string         `json:"device_fingerprint,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

// NewEvent creates an event of the given type with a fresh id, the current
// timestamp and the severity derived from the type.
func NewEvent(eventType EventType) Event {
	return Event{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Type:      eventType,
		Severity:  eventType.Severity(),
	}
}

// WithUser attaches a user id.
func (e Event) WithUser(userID uuid.UUID) Event {
	e.UserID = userID
	return e
}

// WithIP attaches a source IP address.
func (e Event) WithIP(ip string) Event {
	e.IPAddress = ip
	return e
}

// WithUserAgent attaches a user agent string.
func (e Event) WithUserAgent(ua string) Event {
	e.UserAgent = ua
	return e
}

// WithLocation attaches a resolved geolocation.
func (e Event) WithLocation(loc GeoLocation) Event {
	e.Location = &loc
	return e
}

// WithDevice attaches a device fingerprint.
func (e Event) WithDevice(fingerprint string) Event {
	e.DeviceID = fingerprint
	return e
}

// WithDetail attaches a free-form detail value. The details map is copied
// so shared Event values never alias mutable state.
func (e Event) WithDetail(key string, value any) Event {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	e.Details = details
	return e
}

// WithRequestID attaches a correlation/request id.
func (e Event) WithRequestID(requestID string) Event {
	e.RequestID = requestID
	return e
}

// IsCritical reports whether the event carries critical severity.
func (e Event) IsCritical() bool {
	return e.Severity == SeverityCritical
}
