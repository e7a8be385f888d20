// Package tracking reconstructs complete flight paths from telemetry sequences
// with sporadically missing GPS coordinates.
package tracking

import (
	"sort"

	"github.com/unklstewy/flightpath/pkg/airports"
	"github.com/unklstewy/flightpath/pkg/navigation"
	"github.com/unklstewy/flightpath/pkg/telemetry"
)

// CoordinatePrecision is the number of decimal places kept for computed
// coordinates (about 11 m).
const CoordinatePrecision = 4

// Strategy selects which earlier reading dead reckoning projects from.
type Strategy int

const (
	// StrategyAdjacent projects from the immediately preceding reading.
	// A reading that could not be resolved breaks the chain for the readings
	// after it, since their predecessor has no coordinates.
	StrategyAdjacent Strategy = iota

	// StrategyLastKnownGood projects from the most recent reading that has a
	// position, bridging unresolved gaps.
	StrategyLastKnownGood
)

// String returns the strategy name used in configuration.
func (s Strategy) String() string {
	switch s {
	case StrategyLastKnownGood:
		return "last_known_good"
	default:
		return "adjacent"
	}
}

// ParseStrategy converts a configuration name into a Strategy.
// Unknown names return StrategyAdjacent and false.
func ParseStrategy(name string) (Strategy, bool) {
	switch name {
	case "", "adjacent":
		return StrategyAdjacent, true
	case "last_known_good":
		return StrategyLastKnownGood, true
	default:
		return StrategyAdjacent, false
	}
}

// Options configures a reconstruction.
type Options struct {
	Strategy Strategy
}

// Reconstruct fills in missing coordinates using dead reckoning from the
// first known position, or from the departure airport when no reading has one.
// It is ReconstructWith using the adjacent-predecessor strategy.
func Reconstruct(readings []telemetry.Reading, departureAirport string) []telemetry.Reading {
	return ReconstructWith(readings, departureAirport, Options{})
}

// ReconstructWith fills in missing coordinates of a telemetry sequence.
//
// The algorithm:
// 1. Sort a copy of the readings by timestamp (stable)
// 2. Anchor on the first reading with both coordinates
// 3. Without one, place the first reading at the departure airport if it is known
// 4. Walk forward from the anchor, tagging supplied positions as actual and
//    projecting missing ones from the predecessor's position using the
//    reading's own heading and ground speed
//
// Readings that lack heading, speed or a positioned predecessor, or whose
// timestamps cannot be compared, are left without coordinates. Nothing is
// logged and no error is returned; callers inspect the provenance tags.
//
// The input slice is never modified. The result has the same length as the input.
func ReconstructWith(readings []telemetry.Reading, departureAirport string, opts Options) []telemetry.Reading {
	if len(readings) == 0 {
		return readings
	}

	sorted := make([]telemetry.Reading, len(readings))
	copy(sorted, readings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	anchor := findAnchor(sorted)
	if anchor >= 0 {
		sorted[anchor].MarkActual()
	} else if departureAirport != "" {
		if airport, ok := airports.Lookup(departureAirport); ok {
			sorted[0].SetPosition(airport.Latitude, airport.Longitude, telemetry.SourceAirportReference)
			anchor = 0
		}
	}
	if anchor < 0 {
		return sorted
	}

	lastGood := anchor
	for i := anchor + 1; i < len(sorted); i++ {
		current := &sorted[i]

		if current.HasPosition() {
			current.MarkActual()
			lastGood = i
			continue
		}

		prev := i - 1
		if opts.Strategy == StrategyLastKnownGood {
			prev = lastGood
		}

		if lat, lon, ok := project(sorted[prev], *current); ok {
			current.SetPosition(lat, lon, telemetry.SourceInterpolated)
			lastGood = i
		}
	}

	return sorted
}

// findAnchor returns the index of the first reading with both coordinates, or -1.
func findAnchor(readings []telemetry.Reading) int {
	for i := range readings {
		if readings[i].HasPosition() {
			return i
		}
	}
	return -1
}

// project dead-reckons the current reading's position from a previous reading.
// It reports false when the step has to be skipped.
func project(previous, current telemetry.Reading) (float64, float64, bool) {
	if current.GroundSpeed == nil || current.TrueHeading == nil || !previous.HasPosition() {
		return 0, 0, false
	}

	elapsed, err := telemetry.ElapsedHours(previous.Timestamp, current.Timestamp)
	if err != nil {
		return 0, 0, false
	}

	lat0, lon0 := *previous.Latitude, *previous.Longitude
	heading, speed := *current.TrueHeading, *current.GroundSpeed
	if !navigation.IsFinite(lat0, lon0, heading, speed, elapsed) {
		return 0, 0, false
	}

	lat, lon := navigation.Project(lat0, lon0, heading, speed, elapsed)
	if !navigation.IsFinite(lat, lon) {
		return 0, 0, false
	}

	return navigation.RoundTo(lat, CoordinatePrecision), navigation.RoundTo(lon, CoordinatePrecision), true
}
