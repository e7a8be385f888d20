// Package airports provides a static reference table of airport coordinates
// keyed by IATA code. The table is built once at init and never mutated, so it
// is safe to share across goroutines without locking.
package airports

import (
	"sort"
	"strings"
)

// Airport is a reference location for a departure or arrival field.
type Airport struct {
	// Code is the three-letter IATA code in upper case (e.g., "SFO")
	Code string

	// Latitude in decimal degrees (-90 to +90)
	Latitude float64

	// Longitude in decimal degrees (-180 to +180)
	Longitude float64
}

var table = map[string]Airport{
	"JFK": {Code: "JFK", Latitude: 40.6413, Longitude: -73.7781},  // New York JFK
	"LHR": {Code: "LHR", Latitude: 51.4700, Longitude: -0.4543},   // London Heathrow
	"SFO": {Code: "SFO", Latitude: 37.6213, Longitude: -122.3790}, // San Francisco
	"LAX": {Code: "LAX", Latitude: 33.9416, Longitude: -118.4085}, // Los Angeles
	"ORD": {Code: "ORD", Latitude: 41.9742, Longitude: -87.9073},  // Chicago O'Hare
	"DFW": {Code: "DFW", Latitude: 32.8998, Longitude: -97.0403},  // Dallas/Fort Worth
	"ATL": {Code: "ATL", Latitude: 33.6407, Longitude: -84.4277},  // Atlanta
	"MIA": {Code: "MIA", Latitude: 25.7959, Longitude: -80.2870},  // Miami
	"SEA": {Code: "SEA", Latitude: 47.4502, Longitude: -122.3088}, // Seattle
	"BOS": {Code: "BOS", Latitude: 42.3656, Longitude: -71.0096},  // Boston
	"IAD": {Code: "IAD", Latitude: 38.9445, Longitude: -77.4558},  // Washington Dulles
	"DEN": {Code: "DEN", Latitude: 39.8561, Longitude: -104.6737}, // Denver
	"LAS": {Code: "LAS", Latitude: 36.0840, Longitude: -115.1537}, // Las Vegas
	"PHX": {Code: "PHX", Latitude: 33.4374, Longitude: -112.0078}, // Phoenix
	"EWR": {Code: "EWR", Latitude: 40.6895, Longitude: -74.1745},  // Newark
	"IAH": {Code: "IAH", Latitude: 29.9902, Longitude: -95.3368},  // Houston
	"MCO": {Code: "MCO", Latitude: 28.4294, Longitude: -81.3089},  // Orlando
	"YYZ": {Code: "YYZ", Latitude: 43.6777, Longitude: -79.6248},  // Toronto
	"CDG": {Code: "CDG", Latitude: 49.0097, Longitude: 2.5479},    // Paris Charles de Gaulle
	"AMS": {Code: "AMS", Latitude: 52.3105, Longitude: 4.7683},    // Amsterdam
	"FRA": {Code: "FRA", Latitude: 50.0379, Longitude: 8.5622},    // Frankfurt
	"DXB": {Code: "DXB", Latitude: 25.2532, Longitude: 55.3657},   // Dubai
	"SIN": {Code: "SIN", Latitude: 1.3644, Longitude: 103.9915},   // Singapore
	"HKG": {Code: "HKG", Latitude: 22.3080, Longitude: 113.9185},  // Hong Kong
	"NRT": {Code: "NRT", Latitude: 35.7720, Longitude: 140.3929},  // Tokyo Narita
	"PEK": {Code: "PEK", Latitude: 40.0799, Longitude: 116.6031},  // Beijing
	"SYD": {Code: "SYD", Latitude: -33.9461, Longitude: 151.1772}, // Sydney
	"FCO": {Code: "FCO", Latitude: 41.8003, Longitude: 12.2389},   // Rome Fiumicino
}

// Lookup returns the airport for an IATA code.
// Codes are matched case-insensitively and surrounding whitespace is ignored.
// Unknown codes return false rather than an error.
func Lookup(code string) (Airport, bool) {
	a, ok := table[strings.ToUpper(strings.TrimSpace(code))]
	return a, ok
}

// Codes returns every known IATA code in sorted order.
func Codes() []string {
	codes := make([]string, 0, len(table))
	for code := range table {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
