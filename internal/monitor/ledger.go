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

// LoginAttempt is a single observed login attempt. Attempts are ephemeral:
// the ledger only retains them within the brute-force window per identity
// key (user id when known, raw IP otherwise).
type LoginAttempt struct {
	UserID    uuid.UUID    `json:"user_id"`
	IPAddress string       `json:"ip_address"`
	Timestamp time.Time    `json:"timestamp"`
	Success   bool         `json:"success"`
	UserAgent string       `json:"user_agent,omitempty"`
	Location  *GeoLocation `json:"location,omitempty"`
}

// attemptLedger holds per-identity sliding windows of recent login attempts.
type attemptLedger struct {
	mu       sync.Mutex
	attempts map[string][]LoginAttempt
}

func newAttemptLedger() *attemptLedger {
	return &attemptLedger{attempts: make(map[string][]LoginAttempt)}
}

// Record appends the attempt to the key's window, prunes entries older than
// now-window, and returns the number of failures left in the window.
//
// Append, prune and count happen under a single lock acquisition: two
// concurrent failing attempts for the same key must never both observe a
// sub-threshold count, or neither would trigger the lockout.
func (l *attemptLedger) Record(key string, attempt LoginAttempt, window time.Duration) (failedCount int) {
	windowStart := attempt.Timestamp.Add(-window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.attempts[key][:0]
	for _, a := range l.attempts[key] {
		if a.Timestamp.After(windowStart) {
			kept = append(kept, a)
		}
	}
	kept = append(kept, attempt)
	l.attempts[key] = kept

	for _, a := range kept {
		if !a.Success {
			failedCount++
		}
	}
	return failedCount
}

// Sweep drops attempts older than cutoff across all keys and removes keys
// left empty. Returns the number of attempts removed.
func (l *attemptLedger) Sweep(cutoff time.Time) (removed int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, attempts := range l.attempts {
		kept := attempts[:0]
		for _, a := range attempts {
			if a.Timestamp.After(cutoff) {
				kept = append(kept, a)
			}
		}
		removed += len(attempts) - len(kept)
		if len(kept) == 0 {
			delete(l.attempts, key)
		} else {
			l.attempts[key] = kept
		}
	}
	return removed
}
