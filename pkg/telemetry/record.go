package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrMissingTimestamp is returned when a record has no timestamp
	ErrMissingTimestamp = errors.New("record is missing a timestamp")

	// ErrInvalidRawData is returned when raw_data is not valid JSON
	ErrInvalidRawData = errors.New("raw_data is not valid JSON")
)

// Flag is a boolean that also accepts the "0"/"1" and "true"/"false" strings
// and numeric 0/1 used by some recorders. JSON null leaves the value unchanged.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}

	switch strings.ToLower(s) {
	case "true", "1", "t", "yes":
		*f = true
		return nil
	case "false", "0", "f", "no", "":
		*f = false
		return nil
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil {
		*f = n != 0
		return nil
	}
	return fmt.Errorf("invalid boolean value %s", string(b))
}

// Record is the content of a recorder submission, formatted for insertion into
// the readings table.
type Record struct {
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
}

// ParseRecord decodes recorder content into a Record.
//
// Defaults: weight_on_wheels=false, decompression=false, all_doors_closed=true.
// raw_data may be a JSON object (stored as its JSON text), a string holding JSON
// text (stored as-is) or absent/null (stored as "{}").
func ParseRecord(content []byte) (Record, error) {
	rec := Record{AllDoorsClosed: true}

	if len(bytes.TrimSpace(content)) == 0 || string(bytes.TrimSpace(content)) == "null" {
		return rec, fmt.Errorf("failed to parse record: empty content")
	}
	if err := json.Unmarshal(content, &rec); err != nil {
		return rec, fmt.Errorf("failed to parse record: %w", err)
	}

	if strings.TrimSpace(rec.Timestamp) == "" {
		return rec, ErrMissingTimestamp
	}

	raw, err := normalizeRawData(rec.RawData)
	if err != nil {
		return rec, err
	}
	rec.RawData = raw

	return rec, nil
}

// normalizeRawData returns compact JSON text for the raw_data column.
func normalizeRawData(raw json.RawMessage) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return json.RawMessage("{}"), nil
	}

	if trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return nil, ErrInvalidRawData
		}
		trimmed = bytes.TrimSpace([]byte(text))
		if !json.Valid(trimmed) {
			return nil, ErrInvalidRawData
		}
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return nil, ErrInvalidRawData
	}
	return json.RawMessage(buf.Bytes()), nil
}

// ToReading converts a stored record into a Reading tagged with the supplied
// airline and actual-position provenance, matching the shape the ingest path
// serves before reconstruction.
func (rec Record) ToReading(airline string) Reading {
	raw := rec.RawData
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	return Reading{
		Airline:                  airline,
		Timestamp:                rec.Timestamp,
		DepartureAirport:         rec.DepartureAirport,
		DestinationAirport:       rec.DestinationAirport,
		FlightNumber:             rec.FlightNumber,
		AircraftType:             rec.AircraftType,
		Latitude:                 rec.Latitude,
		Longitude:                rec.Longitude,
		Altitude:                 rec.Altitude,
		EstimatedArrivalTime:     rec.EstimatedArrivalTime,
		ScheduledDepartureTime:   rec.ScheduledDepartureTime,
		TimeToDestinationMinutes: rec.TimeToDestinationMinutes,
		TotalFlightTimeMinutes:   rec.TotalFlightTimeMinutes,
		DistanceToDestination:    rec.DistanceToDestination,
		DistanceFromOrigin:       rec.DistanceFromOrigin,
		DistanceTraveled:         rec.DistanceTraveled,
		WindSpeed:                rec.WindSpeed,
		WindDirection:            rec.WindDirection,
		GroundSpeed:              rec.GroundSpeed,
		OutsideAirTemperature:    rec.OutsideAirTemperature,
		TrueHeading:              rec.TrueHeading,
		WeightOnWheels:           rec.WeightOnWheels,
		Decompression:            rec.Decompression,
		AllDoorsClosed:           rec.AllDoorsClosed,
		RawData:                  raw,
		PositionInterpolated:     false,
		PositionSource:           SourceActual,
	}
}
