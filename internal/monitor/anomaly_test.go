// AuthSentry - Authentication Security Monitoring and Threat Detection
// Copyright 2026 AuthSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/authsentry/authsentry

package monitor

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

var (
	locNewYork = GeoLocation{Country: "US", City: "New York", Latitude: 40.7128, Longitude: -74.0060}
	locLondon  = GeoLocation{Country: "GB", City: "London", Latitude: 51.5074, Longitude: -0.1278}
	locBoston  = GeoLocation{Country: "US", City: "Boston", Latitude: 42.3601, Longitude: -71.0589}
	locParis   = GeoLocation{Country: "FR", City: "Paris", Latitude: 48.8566, Longitude: 2.3522}
)

// baseline establishes a known ip and location for the user so later
// logins exercise the travel and geo detectors instead of the new-IP path.
func baseline(m *Monitor, userID uuid.UUID, ip string, loc GeoLocation) {
	m.RecordLoginAttempt(userID, ip, true, "", &loc)
}

func TestImpossibleTravelDetected(t *testing.T) {
	m, clock := newTestMonitor(t, DefaultConfig())
	userID := uuid.New()

	baseline(m, userID, "192.0.2.1", locNewYork)

	// New York to London in one hour is roughly 5570 km/h, far above the
	// 1000 km/h policy ceiling.
	clock.Advance(time.Hour)
	m.RecordLoginAttempt(userID, "192.0.2.1", true, "", &locLondon)

	events := m.GetRecentEvents(EventImpossibleTravel, userID, 10)
	if len(events) != 1 {
		t.Fatalf("impossible travel events = %d, want 1", len(events))
	}
	e := events[0]
	if e.Severity != SeverityHigh {
		t.Errorf("severity = %s, want high", e.Severity)
	}
	distance, ok := e.Details["distance_km"].(float64)
	if !ok || distance < 5470 || distance > 5670 {
		t.Errorf("distance_km detail = %v, want ~5570", e.Details["distance_km"])
	}
	speed, ok := e.Details["speed_kmh"].(float64)
	if !ok || speed <= m.config.MaxTravelSpeedKmH {
		t.Errorf("speed_kmh detail = %v, want above %v", e.Details["speed_kmh"], m.config.MaxTravelSpeedKmH)
	}

	// High severity events auto-raise an alert.
	alerts := m.GetAlerts(false, 10)
	if len(alerts) != 1 {
		t.Errorf("alerts = %d, want 1", len(alerts))
	}
}

func TestImpossibleTravelPlausibleSpeed(t *testing.T) {
	m, clock := newTestMonitor(t, DefaultConfig())
	userID := uuid.New()

	baseline(m, userID, "192.0.2.1", locNewYork)

	// New York to London over eight hours is under 700 km/h, a normal
	// flight.
	clock.Advance(8 * time.Hour)
	m.RecordLoginAttempt(userID, "192.0.2.1", true, "", &locLondon)

	if got := m.GetRecentEvents(EventImpossibleTravel, userID, 10); len(got) != 0 {
		t.Errorf("impossible travel events = %d, want 0", len(got))
	}
}

func TestImpossibleTravelSubHourFloor(t *testing.T) {
	m, clock := newTestMonitor(t, DefaultConfig())
	userID := uuid.New()

	baseline(m, userID, "192.0.2.1", locNewYork)

	// A ~300 km hop one minute later: the elapsed time floors to one hour,
	// so the computed speed stays near 300 km/h and must not fire.
	clock.Advance(time.Minute)
	m.RecordLoginAttempt(userID, "192.0.2.1", true, "", &locBoston)

	if got := m.GetRecentEvents(EventImpossibleTravel, userID, 10); len(got) != 0 {
		t.Errorf("sub-hour hop fired impossible travel: %d events", len(got))
	}
}

func TestImpossibleTravelSuppressesGeoAnomaly(t *testing.T) {
	m, clock := newTestMonitor(t, DefaultConfig())
	userID := uuid.New()

	baseline(m, userID, "192.0.2.1", locNewYork)

	clock.Advance(time.Hour)
	m.RecordLoginAttempt(userID, "192.0.2.1", true, "", &locLondon)

	// GB is a new country but the travel detector already fired; exactly
	// one anomaly event is emitted for the login.
	if got := m.GetRecentEvents(EventGeoAnomalyDetected, userID, 10); len(got) != 0 {
		t.Errorf("geo anomaly events = %d, want 0 when travel fires first", len(got))
	}

	// The anomalous login did not update the baseline, so repeating it an
	// hour later fires again.
	clock.Advance(time.Hour)
	m.RecordLoginAttempt(userID, "192.0.2.1", true, "", &locLondon)
	if got := m.GetRecentEvents(EventImpossibleTravel, userID, 10); len(got) != 2 {
		t.Errorf("repeat anomalous login events = %d, want 2", len(got))
	}
}

func TestGeoAnomalyNewCountry(t *testing.T) {
	config := DefaultConfig()
	config.ImpossibleTravelDetection = false
	m, clock := newTestMonitor(t, config)
	userID := uuid.New()

	baseline(m, userID, "192.0.2.1", locNewYork)

	clock.Advance(time.Hour)
	m.RecordLoginAttempt(userID, "192.0.2.1", true, "", &locParis)

	events := m.GetRecentEvents(EventGeoAnomalyDetected, userID, 10)
	if len(events) != 1 {
		t.Fatalf("geo anomaly events = %d, want 1", len(events))
	}
	if events[0].Details["new_country"] != "FR" {
		t.Errorf("new_country detail = %v, want FR", events[0].Details["new_country"])
	}

	// Same country is never anomalous.
	clock.Advance(time.Hour)
	m.RecordLoginAttempt(userID, "192.0.2.1", true, "", &locBoston)
	if got := m.GetRecentEvents(EventGeoAnomalyDetected, userID, 10); len(got) != 1 {
		t.Errorf("geo anomaly events after same-country login = %d, want 1", len(got))
	}
}

func TestGeoAnomalyRequiresBaseline(t *testing.T) {
	config := DefaultConfig()
	config.ImpossibleTravelDetection = false
	m, _ := newTestMonitor(t, config)
	userID := uuid.New()

	// First ever login has no known countries; nothing to compare against.
	m.RecordLoginAttempt(userID, "192.0.2.1", true, "", &locParis)
	if got := m.GetRecentEvents(EventGeoAnomalyDetected, userID, 10); len(got) != 0 {
		t.Errorf("geo anomaly on first login = %d events, want 0", len(got))
	}
}

func TestNewIPDetection(t *testing.T) {
	m, clock := newTestMonitor(t, DefaultConfig())
	userID := uuid.New()

	baseline(m, userID, "192.0.2.1", locNewYork)

	clock.Advance(time.Hour)
	m.RecordLoginAttempt(userID, "192.0.2.2", true, "", &locNewYork)

	events := m.GetRecentEvents(EventNewDeviceLogin, userID, 10)
	if len(events) != 2 {
		t.Fatalf("new device events = %d, want 2 (first login plus new ip)", len(events))
	}
	if events[0].Details["reason"] != "new_ip" {
		t.Errorf("reason detail = %v, want new_ip", events[0].Details["reason"])
	}

	// A repeat from the now-known ip stays quiet.
	clock.Advance(time.Hour)
	m.RecordLoginAttempt(userID, "192.0.2.2", true, "", &locNewYork)
	if got := m.GetRecentEvents(EventNewDeviceLogin, userID, 10); len(got) != 2 {
		t.Errorf("new device events after repeat = %d, want 2", len(got))
	}
}

// The new ip is learned even when a later detector short-circuits the
// baseline update for the same login.
func TestNewIPLearnedDespiteTravelShortCircuit(t *testing.T) {
	m, clock := newTestMonitor(t, DefaultConfig())
	userID := uuid.New()

	baseline(m, userID, "192.0.2.1", locNewYork)

	clock.Advance(time.Hour)
	m.RecordLoginAttempt(userID, "192.0.2.9", true, "", &locLondon)

	if got := m.GetRecentEvents(EventImpossibleTravel, userID, 10); len(got) != 1 {
		t.Fatalf("travel events = %d, want 1", len(got))
	}
	profile := m.GetUserProfile(userID)
	if !profile.KnowsIP("192.0.2.9") {
		t.Error("new ip must be learned before the travel short-circuit")
	}
	if profile.LastLocation == nil || profile.LastLocation.Country != "US" {
		t.Error("location baseline must not advance on an anomalous login")
	}
}

func TestAnomalyDetectionDisabled(t *testing.T) {
	config := DefaultConfig()
	config.AnomalyDetectionEnabled = false
	m, clock := newTestMonitor(t, config)
	userID := uuid.New()

	m.RecordLoginAttempt(userID, "192.0.2.1", true, "", &locNewYork)
	clock.Advance(time.Hour)
	m.RecordLoginAttempt(userID, "192.0.2.2", true, "", &locLondon)

	for _, et := range []EventType{EventNewDeviceLogin, EventImpossibleTravel, EventGeoAnomalyDetected} {
		if got := m.GetRecentEvents(et, userID, 10); len(got) != 0 {
			t.Errorf("%s events = %d with anomaly detection disabled", et, len(got))
		}
	}
}

func TestTravelWithoutCoordinatesIsSkipped(t *testing.T) {
	m, clock := newTestMonitor(t, DefaultConfig())
	userID := uuid.New()

	noCoords := GeoLocation{Country: "US", City: "Somewhere"}
	baseline(m, userID, "192.0.2.1", noCoords)

	clock.Advance(time.Hour)
	m.RecordLoginAttempt(userID, "192.0.2.1", true, "", &locLondon)

	// Distance is unknown, so the travel detector stays silent; the geo
	// detector still sees the country change.
	if got := m.GetRecentEvents(EventImpossibleTravel, userID, 10); len(got) != 0 {
		t.Errorf("travel events without coordinates = %d, want 0", len(got))
	}
	if got := m.GetRecentEvents(EventGeoAnomalyDetected, userID, 10); len(got) != 1 {
		t.Errorf("geo anomaly events = %d, want 1", len(got))
	}
}
