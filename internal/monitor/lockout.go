// AuthSentry - Authentication Security Monitoring and Threat Detection
// Copyright 2026 AuthSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/authsentry/authsentry

package monitor

import (
	"sync"
	"time"
)

// Lockout is a time-boxed denial record for a user id or IP address.
// Expiry is evaluated lazily at read time; no background timer removes
// records, only expiry-aware cleanup or an explicit unlock does.
type Lockout struct {
	Identifier   string    `json:"identifier"`
	LockedAt     time.Time `json:"locked_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	Reason       string    `json:"reason"`
	AttemptCount int       `json:"attempt_count"`
}

// ExpiredAt reports whether the lockout has expired as of now.
func (l Lockout) ExpiredAt(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// Remaining returns the time left on the lockout as of now, or zero when
// already expired.
func (l Lockout) Remaining(now time.Time) time.Duration {
	if l.ExpiredAt(now) {
		return 0
	}
	return l.ExpiresAt.Sub(now)
}

// lockoutRegistry holds active lockouts by identifier and blocked IPs by
// address. The two maps share a registry because the brute-force path
// writes both in one logical step.
type lockoutRegistry struct {
	mu         sync.RWMutex
	lockouts   map[string]Lockout
	blockedIPs map[string]time.Time
}

func newLockoutRegistry() *lockoutRegistry {
	return &lockoutRegistry{
		lockouts:   make(map[string]Lockout),
		blockedIPs: make(map[string]time.Time),
	}
}

// Lock inserts or overwrites the lockout for its identifier.
func (r *lockoutRegistry) Lock(lockout Lockout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lockouts[lockout.Identifier] = lockout
}

// IsLocked reports whether an unexpired lockout exists for the identifier.
func (r *lockoutRegistry) IsLocked(identifier string, now time.Time) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lockout, ok := r.lockouts[identifier]
	return ok && !lockout.ExpiredAt(now)
}

// Get returns the lockout for the identifier, expired or not.
func (r *lockoutRegistry) Get(identifier string) (Lockout, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	lockout, ok := r.lockouts[identifier]
	return lockout, ok
}

// Unlock removes the lockout unconditionally. Returns whether one existed.
func (r *lockoutRegistry) Unlock(identifier string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.lockouts[identifier]
	delete(r.lockouts, identifier)
	return ok
}

// BlockIP inserts or overwrites the block entry for the IP.
func (r *lockoutRegistry) BlockIP(ip string, expiresAt time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blockedIPs[ip] = expiresAt
}

// IsIPBlocked reports whether an unexpired block exists for the IP.
func (r *lockoutRegistry) IsIPBlocked(ip string, now time.Time) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	expiresAt, ok := r.blockedIPs[ip]
	return ok && now.Before(expiresAt)
}

// UnblockIP removes the block unconditionally. Returns whether one existed.
func (r *lockoutRegistry) UnblockIP(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.blockedIPs[ip]
	delete(r.blockedIPs, ip)
	return ok
}

// ActiveCounts returns the number of unexpired lockouts and IP blocks.
func (r *lockoutRegistry) ActiveCounts(now time.Time) (lockouts, blockedIPs int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.lockouts {
		if !l.ExpiredAt(now) {
			lockouts++
		}
	}
	for _, expiresAt := range r.blockedIPs {
		if now.Before(expiresAt) {
			blockedIPs++
		}
	}
	return lockouts, blockedIPs
}

// Sweep removes lockouts and IP blocks whose expiry has passed.
// Returns the number of records removed.
func (r *lockoutRegistry) Sweep(now time.Time) (removed int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, lockout := range r.lockouts {
		if lockout.ExpiredAt(now) {
			delete(r.lockouts, id)
			removed++
		}
	}
	for ip, expiresAt := range r.blockedIPs {
		if !now.Before(expiresAt) {
			delete(r.blockedIPs, ip)
			removed++
		}
	}
	return removed
}
