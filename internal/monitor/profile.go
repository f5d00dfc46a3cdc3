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

// Caps on the bounded per-user history lists. Trimming happens on insert,
// so per-user memory stays fixed regardless of account age.
const (
	maxKnownIPs       = 100
	maxKnownDevices   = 50
	maxKnownLocations = 50
	maxLoginHours     = 1000
)

// UserProfile is the behavioral baseline for one user, created lazily on
// first observation.
type UserProfile struct {
	UserID         uuid.UUID     `json:"user_id"`
	KnownIPs       []string      `json:"known_ips"`
	KnownDevices   []string      `json:"known_devices"`
	KnownLocations []GeoLocation `json:"known_locations"`
	LastLogin      *time.Time    `json:"last_login,omitempty"`
	LastLocation   *GeoLocation  `json:"last_location,omitempty"`
	LoginHours     []int         `json:"login_hours"`
	RiskScore      float64       `json:"risk_score"`
	Locked         bool          `json:"is_locked"`
	LockExpiresAt  *time.Time    `json:"lock_expires_at,omitempty"`
}

func newUserProfile(userID uuid.UUID) *UserProfile {
	return &UserProfile{UserID: userID}
}

// KnowsIP reports whether the IP is in the profile's known list.
func (p *UserProfile) KnowsIP(ip string) bool {
	for _, known := range p.KnownIPs {
		if known == ip {
			return true
		}
	}
	return false
}

// KnowsDevice reports whether the device fingerprint is known.
func (p *UserProfile) KnowsDevice(device string) bool {
	for _, known := range p.KnownDevices {
		if known == device {
			return true
		}
	}
	return false
}

// AddKnownIP records the IP, evicting the oldest beyond the cap.
func (p *UserProfile) AddKnownIP(ip string) {
	if p.KnowsIP(ip) {
		return
	}
	p.KnownIPs = append(p.KnownIPs, ip)
	if len(p.KnownIPs) > maxKnownIPs {
		p.KnownIPs = p.KnownIPs[1:]
	}
}

// AddKnownDevice records the device fingerprint, evicting the oldest
// beyond the cap.
func (p *UserProfile) AddKnownDevice(device string) {
	if p.KnowsDevice(device) {
		return
	}
	p.KnownDevices = append(p.KnownDevices, device)
	if len(p.KnownDevices) > maxKnownDevices {
		p.KnownDevices = p.KnownDevices[1:]
	}
}

// RecordLogin updates the profile baseline for a successful login at now:
// last login timestamp, hour-of-day histogram sample and, when present,
// the location history.
func (p *UserProfile) RecordLogin(now time.Time, location *GeoLocation) {
	ts := now
	p.LastLogin = &ts
	p.LoginHours = append(p.LoginHours, now.Hour())
	if len(p.LoginHours) > maxLoginHours {
		p.LoginHours = p.LoginHours[1:]
	}
	if location != nil {
		loc := *location
		p.LastLocation = &loc
		p.KnownLocations = append(p.KnownLocations, loc)
		if len(p.KnownLocations) > maxKnownLocations {
			p.KnownLocations = p.KnownLocations[1:]
		}
	}
}

// KnownCountries returns the distinct countries seen in the location history.
func (p *UserProfile) KnownCountries() []string {
	var countries []string
	for _, loc := range p.KnownLocations {
		if loc.Country == "" {
			continue
		}
		seen := false
		for _, c := range countries {
			if c == loc.Country {
				seen = true
				break
			}
		}
		if !seen {
			countries = append(countries, loc.Country)
		}
	}
	return countries
}

// IsUnusualLoginHour reports whether the hour accounts for less than 1% of
// the recorded samples. Requires at least 10 samples to avoid flagging new
// accounts.
func (p *UserProfile) IsUnusualLoginHour(hour int) bool {
	if len(p.LoginHours) < 10 {
		return false
	}
	count := 0
	for _, h := range p.LoginHours {
		if h == hour {
			count++
		}
	}
	return float64(count)/float64(len(p.LoginHours)) < 0.01
}

// lock marks the profile locked until expiry.
func (p *UserProfile) lock(expiresAt time.Time) {
	p.Locked = true
	p.LockExpiresAt = &expiresAt
}

// clone returns a deep copy safe to hand to callers outside the store lock.
func (p *UserProfile) clone() *UserProfile {
	cp := *p
	cp.KnownIPs = append([]string(nil), p.KnownIPs...)
	cp.KnownDevices = append([]string(nil), p.KnownDevices...)
	cp.KnownLocations = append([]GeoLocation(nil), p.KnownLocations...)
	cp.LoginHours = append([]int(nil), p.LoginHours...)
	if p.LastLogin != nil {
		ts := *p.LastLogin
		cp.LastLogin = &ts
	}
	if p.LastLocation != nil {
		loc := *p.LastLocation
		cp.LastLocation = &loc
	}
	if p.LockExpiresAt != nil {
		ts := *p.LockExpiresAt
		cp.LockExpiresAt = &ts
	}
	return &cp
}

// profileStore holds user profiles keyed by user id.
type profileStore struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]*UserProfile
}

func newProfileStore() *profileStore {
	return &profileStore{profiles: make(map[uuid.UUID]*UserProfile)}
}

// Update runs fn against the user's profile under the store's write lock,
// creating the profile if this is the first observation of the user.
func (s *profileStore) Update(userID uuid.UUID, fn func(*UserProfile)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userID]
	if !ok {
		profile = newUserProfile(userID)
		s.profiles[userID] = profile
	}
	fn(profile)
}

// Get returns a copy of the user's profile, or nil when never observed.
func (s *profileStore) Get(userID uuid.UUID) *UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return nil
	}
	return profile.clone()
}
