// Package navigation implements the spherical-earth navigation math used to
// reconstruct flight paths: dead-reckoning projection, great-circle distance and
// initial bearing. All functions are pure and safe for concurrent use.
package navigation

import "math"

// Constants for navigation calculations
const (
	// DegreesToRadians converts degrees to radians
	DegreesToRadians = math.Pi / 180.0

	// RadiansToDegrees converts radians to degrees
	RadiansToDegrees = 180.0 / math.Pi

	// NauticalMilesPerDegree is the length of one degree of great-circle arc.
	// 1 nautical mile = 1 minute of arc.
	NauticalMilesPerDegree = 60.0

	// EarthRadiusKm is the Earth's mean radius in kilometers
	EarthRadiusKm = 6371.0

	// KmPerNauticalMile converts nautical miles to kilometers
	KmPerNauticalMile = 1.852
)

// Point is a position on the Earth's surface in decimal degrees.
type Point struct {
	// Latitude in decimal degrees (-90 to +90), positive = North
	Latitude float64

	// Longitude in decimal degrees (-180 to +180), positive = East
	Longitude float64
}

// Project computes the position reached by travelling from a start point along a
// constant initial heading at a constant ground speed for the elapsed time.
// This uses the great-circle destination formulas with 60 nm per degree of arc.
//
// Parameters:
//   - lat0, lon0: Starting position in decimal degrees
//   - headingDeg: True heading in degrees (0-360, 0=North, 90=East)
//   - speedKt: Ground speed in knots
//   - elapsedHours: Time travelled in hours (0 returns the start position)
//
// Returns: New latitude and longitude in decimal degrees, unrounded.
// The longitude is not normalized to [-180, 180].
//
// Non-finite inputs propagate NaN into the result; callers must guard them.
func Project(lat0, lon0, headingDeg, speedKt, elapsedHours float64) (float64, float64) {
	latRad := lat0 * DegreesToRadians
	lonRad := lon0 * DegreesToRadians
	headingRad := headingDeg * DegreesToRadians

	// Distance traveled in nautical miles (1 knot = 1 nm per hour)
	distanceNM := speedKt * elapsedHours

	// Angular distance in radians
	angular := (distanceNM / NauticalMilesPerDegree) * DegreesToRadians

	// lat1 = asin(sin(lat0)*cos(d) + cos(lat0)*sin(d)*cos(heading))
	newLatRad := math.Asin(
		math.Sin(latRad)*math.Cos(angular) +
			math.Cos(latRad)*math.Sin(angular)*math.Cos(headingRad),
	)

	// lon1 = lon0 + atan2(sin(heading)*sin(d)*cos(lat0), cos(d)-sin(lat0)*sin(lat1))
	newLonRad := lonRad + math.Atan2(
		math.Sin(headingRad)*math.Sin(angular)*math.Cos(latRad),
		math.Cos(angular)-math.Sin(latRad)*math.Sin(newLatRad),
	)

	return newLatRad * RadiansToDegrees, newLonRad * RadiansToDegrees
}

// RoundTo rounds v to the given number of decimal places, halves away from zero.
// Four places is roughly 11 m of latitude.
func RoundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// Bearing calculates the initial bearing (forward azimuth) from one point to another.
// Returns bearing in degrees (0-360), where 0/360 = North, 90 = East, 180 = South, 270 = West.
func Bearing(from, to Point) float64 {
	lat1 := from.Latitude * DegreesToRadians
	lon1 := from.Longitude * DegreesToRadians
	lat2 := to.Latitude * DegreesToRadians
	lon2 := to.Longitude * DegreesToRadians

	dLon := lon2 - lon1
	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	bearing := math.Atan2(y, x) * RadiansToDegrees

	if bearing < 0 {
		bearing += 360
	}
	return bearing
}

// DistanceNauticalMiles calculates the great-circle distance between two points
// using the Haversine formula.
func DistanceNauticalMiles(from, to Point) float64 {
	lat1Rad := from.Latitude * DegreesToRadians
	lon1Rad := from.Longitude * DegreesToRadians
	lat2Rad := to.Latitude * DegreesToRadians
	lon2Rad := to.Longitude * DegreesToRadians

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c / KmPerNauticalMile
}

// IsFinite reports whether every value is neither NaN nor infinite.
func IsFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
