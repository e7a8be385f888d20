package tracking

import (
	"fmt"

	"github.com/unklstewy/flightpath/pkg/telemetry"
)

// Summary counts readings by position provenance.
type Summary struct {
	Total            int `json:"total"`
	Actual           int `json:"actual"`
	Interpolated     int `json:"interpolated"`
	AirportReference int `json:"airport_reference"`

	// Unresolved counts readings still missing a coordinate
	Unresolved int `json:"unresolved"`
}

// Summarize tallies position provenance over a reconstructed sequence.
// Readings with a position but no tag count as actual.
func Summarize(readings []telemetry.Reading) Summary {
	s := Summary{Total: len(readings)}
	for i := range readings {
		r := &readings[i]
		if !r.HasPosition() {
			s.Unresolved++
			continue
		}
		switch r.PositionSource {
		case telemetry.SourceInterpolated:
			s.Interpolated++
		case telemetry.SourceAirportReference:
			s.AirportReference++
		default:
			s.Actual++
		}
	}
	return s
}

// String formats the summary for headers and log lines.
func (s Summary) String() string {
	return fmt.Sprintf("total=%d actual=%d interpolated=%d airport_reference=%d unresolved=%d",
		s.Total, s.Actual, s.Interpolated, s.AirportReference, s.Unresolved)
}
