// Package telemetry defines the flight telemetry records exchanged between the
// ingest path, the table store, the reconstruction engine and the HTTP API.
package telemetry

import (
	"encoding/json"
	"errors"
	"time"
)

// PositionSource is the provenance of a reading's coordinate pair.
type PositionSource string

const (
	// SourceActual marks coordinates supplied by the aircraft
	SourceActual PositionSource = "actual"

	// SourceInterpolated marks coordinates computed by dead reckoning
	SourceInterpolated PositionSource = "interpolated"

	// SourceAirportReference marks coordinates taken from the departure airport
	SourceAirportReference PositionSource = "airport_reference"
)

// ErrInvalidTimestamp is returned when a timestamp is not an ISO-8601 datetime.
var ErrInvalidTimestamp = errors.New("invalid ISO-8601 timestamp")

// Reading is one telemetry sample as served to the visualization client.
// Optional values are pointers so that "absent" stays distinct from zero.
type Reading struct {
	Airline                  string          `json:"airline"`
	Timestamp                string          `json:"timestamp"`
	DepartureAirport         *string         `json:"departure_airport"`
	DestinationAirport       *string         `json:"destination_airport"`
	FlightNumber             *string         `json:"flight_number"`
	AircraftType             *string         `json:"aircraft_type"`
	Latitude                 *float64        `json:"latitude"`
	Longitude                *float64        `json:"longitude"`
	Altitude                 *float64        `json:"altitude"`
	EstimatedArrivalTime     *string         `json:"estimated_arrival_time"`
	ScheduledDepartureTime   *string         `json:"scheduled_departure_time"`
	TimeToDestinationMinutes *int            `json:"time_to_destination_minutes"`
	TotalFlightTimeMinutes   *int            `json:"total_flight_time_minutes"`
	DistanceToDestination    *float64        `json:"distance_to_destination"`
	DistanceFromOrigin       *float64        `json:"distance_from_origin"`
	DistanceTraveled         *float64        `json:"distance_traveled"`
	WindSpeed                *float64        `json:"wind_speed"`
	WindDirection            *float64        `json:"wind_direction"`
	GroundSpeed              *float64        `json:"ground_speed"`
	OutsideAirTemperature    *float64        `json:"outside_air_temperature"`
	TrueHeading              *float64        `json:"true_heading"`
	WeightOnWheels           Flag            `json:"weight_on_wheels"`
	Decompression            Flag            `json:"decompression"`
	AllDoorsClosed           Flag            `json:"all_doors_closed"`
	RawData                  json.RawMessage `json:"raw_data"`
	PositionInterpolated     bool            `json:"position_interpolated"`
	PositionSource           PositionSource  `json:"position_source,omitempty"`
}

// HasPosition reports whether both coordinates are present.
func (r *Reading) HasPosition() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// SetPosition replaces the coordinate pair and provenance tags.
// New pointers are allocated so that copies sharing the old values are unaffected.
func (r *Reading) SetPosition(lat, lon float64, source PositionSource) {
	r.Latitude = &lat
	r.Longitude = &lon
	r.PositionInterpolated = source != SourceActual
	r.PositionSource = source
}

// MarkActual tags the reading's existing coordinates as supplied by the aircraft.
func (r *Reading) MarkActual() {
	r.PositionInterpolated = false
	r.PositionSource = SourceActual
}

// isoLayouts are the ISO-8601 forms accepted for reading timestamps.
// Fractional seconds are accepted by every layout that has a seconds field.
var isoLayouts = []struct {
	layout string
	zoned  bool
}{
	{"2006-01-02T15:04:05Z07:00", true},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02 15:04:05Z07:00", true},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02T15:04Z07:00", true},
	{"2006-01-02T15:04", false},
	{"2006-01-02", false},
}

// ParseTimestamp parses an ISO-8601 datetime.
// zoned reports whether the value carried a UTC offset; offset-free values are
// interpreted as UTC.
func ParseTimestamp(s string) (t time.Time, zoned bool, err error) {
	for _, l := range isoLayouts {
		if t, err := time.Parse(l.layout, s); err == nil {
			return t, l.zoned, nil
		}
	}
	return time.Time{}, false, ErrInvalidTimestamp
}

// Time parses the reading's timestamp.
func (r *Reading) Time() (time.Time, error) {
	t, _, err := ParseTimestamp(r.Timestamp)
	return t, err
}

// ElapsedHours returns the time from one timestamp to another in hours.
// It fails if either value is unparseable or if only one of them carries a
// UTC offset, since naive and offset-aware times cannot be compared.
func ElapsedHours(from, to string) (float64, error) {
	start, startZoned, err := ParseTimestamp(from)
	if err != nil {
		return 0, err
	}
	end, endZoned, err := ParseTimestamp(to)
	if err != nil {
		return 0, err
	}
	if startZoned != endZoned {
		return 0, errors.New("cannot compare offset-naive and offset-aware timestamps")
	}
	// Computed from Unix seconds; time.Duration saturates after about 292 years
	seconds := float64(end.Unix() - start.Unix())
	nanos := float64(end.Nanosecond() - start.Nanosecond())
	return seconds/3600 + nanos/3.6e12, nil
}
