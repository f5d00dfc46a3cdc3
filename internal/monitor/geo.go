// AuthSentry - Authentication Security Monitoring and Threat Detection
// Copyright 2026 AuthSentry Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/authsentry/authsentry

package monitor

import "math"

// coordinateEpsilon is the threshold for considering coordinates as
// effectively zero. A location whose latitude and longitude are both within
// this epsilon of zero is treated as carrying no coordinates, since (0, 0)
// is the sentinel emitted by geo-IP resolvers that could not resolve an IP.
// 1e-7 degrees is roughly 1.1cm at the equator, well below geo-IP accuracy.
const coordinateEpsilon = 1e-7

// GeoLocation is a pre-resolved location attached to a login attempt.
// Every field is optional; resolving an IP address to a location is the
// responsibility of an external geo-IP service.
type GeoLocation struct {
	Country   string  `json:"country,omitempty"`
	Region    string  `json:"region,omitempty"`
	City      string  `json:"city,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	Timezone  string  `json:"timezone,omitempty"`
}

// HasCoordinates reports whether the location carries usable coordinates.
func (l GeoLocation) HasCoordinates() bool {
	return math.Abs(l.Latitude) >= coordinateEpsilon || math.Abs(l.Longitude) >= coordinateEpsilon
}

// DistanceKm returns the great-circle distance to other in kilometers.
// The distance is only defined when both locations carry coordinates;
// otherwise ok is false rather than defaulting to zero.
func (l GeoLocation) DistanceKm(other GeoLocation) (km float64, ok bool) {
	if !l.HasCoordinates() || !other.HasCoordinates() {
		return 0, false
	}
	return haversineDistance(l.Latitude, l.Longitude, other.Latitude, other.Longitude), true
}

// String returns a human-readable "City, Country" form for alert text.
func (l GeoLocation) String() string {
	switch {
	case l.City != "" && l.Country != "":
		return l.City + ", " + l.Country
	case l.Country != "":
		return l.Country
	case l.City != "":
		return l.City
	default:
		return "Unknown"
	}
}

// haversineDistance calculates the great-circle distance between two points
// on Earth using the Haversine formula. Returns distance in kilometers.
func haversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0

	lat1Rad := lat1 * math.Pi / 180.0
	lon1Rad := lon1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	lon2Rad := lon2 * math.Pi / 180.0

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}
