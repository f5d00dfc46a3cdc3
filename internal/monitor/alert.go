// AuthSentry - Authentication Security Monitoring and Threat Detection
// Copyright 2026 AuthSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/authsentry/authsentry

package monitor

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Alert is an actionable record surfaced for human triage, distinct from
// the raw events that caused it. Lifecycle is strictly forward-only:
// Open -> Acknowledged, Open/Acknowledged -> Resolved. Resolution is
// terminal; the engine never reopens a resolved alert.
type Alert struct {
	ID             uuid.UUID   `json:"id"`
	Timestamp      time.Time   `json:"timestamp"`
	Severity       Severity    `json:"severity"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	EventIDs       []uuid.UUID `json:"event_ids"`
	UserID         uuid.UUID   `json:"user_id"`
	IPAddress      string      `json:"ip_address,omitempty"`
	Acknowledged   bool        `json:"acknowledged"`
	AcknowledgedBy uuid.UUID   `json:"acknowledged_by"`
	AcknowledgedAt *time.Time  `json:"acknowledged_at,omitempty"`
	Resolved       bool        `json:"resolved"`
	ResolvedAt     *time.Time  `json:"resolved_at,omitempty"`
}

// NewAlert creates an open alert with a fresh id and the current timestamp.
func NewAlert(severity Severity, title, description string) Alert {
	return Alert{
		ID:          uuid.New(),
		Timestamp:   time.Now().UTC(),
		Severity:    severity,
		Title:       title,
		Description: description,
	}
}

// WithEvent appends a contributing event id.
func (a Alert) WithEvent(eventID uuid.UUID) Alert {
	a.EventIDs = append(append([]uuid.UUID(nil), a.EventIDs...), eventID)
	return a
}

// WithUser attaches the affected user id.
func (a Alert) WithUser(userID uuid.UUID) Alert {
	a.UserID = userID
	return a
}

// WithIP attaches the originating IP.
func (a Alert) WithIP(ip string) Alert {
	a.IPAddress = ip
	return a
}

// alertRegistry is the triage queue of alerts in raise order.
type alertRegistry struct {
	mu     sync.RWMutex
	alerts []Alert
}

func newAlertRegistry() *alertRegistry {
	return &alertRegistry{}
}

// Add appends a raised alert.
func (r *alertRegistry) Add(alert Alert) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, alert)
}

// List returns alerts most-recent-first, optionally only unacknowledged
// ones, up to limit.
func (r *alertRegistry) List(unacknowledgedOnly bool, limit int) []Alert {
	if limit < 0 {
		limit = 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]Alert, 0, limit)
	for i := len(r.alerts) - 1; i >= 0 && len(results) < limit; i-- {
		if unacknowledgedOnly && r.alerts[i].Acknowledged {
			continue
		}
		results = append(results, r.alerts[i])
	}
	return results
}

// Acknowledge records the acknowledging actor and timestamp. Returns false
// when the alert id is unknown. Acknowledging a resolved alert is allowed
// but does not un-resolve it.
func (r *alertRegistry) Acknowledge(alertID, by uuid.UUID, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.alerts {
		if r.alerts[i].ID == alertID {
			ts := now
			r.alerts[i].Acknowledged = true
			r.alerts[i].AcknowledgedBy = by
			r.alerts[i].AcknowledgedAt = &ts
			return true
		}
	}
	return false
}

// Resolve marks the alert resolved. Returns false when the id is unknown.
// Resolving is monotonic: a second call leaves the original timestamp.
func (r *alertRegistry) Resolve(alertID uuid.UUID, now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.alerts {
		if r.alerts[i].ID == alertID {
			if !r.alerts[i].Resolved {
				ts := now
				r.alerts[i].Resolved = true
				r.alerts[i].ResolvedAt = &ts
			}
			return true
		}
	}
	return false
}
