package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/lib/pq"
	"github.com/unklstewy/flightpath/pkg/telemetry"
)

// ErrDuplicateReading is returned when a reading with the same timestamp is
// already stored.
var ErrDuplicateReading = errors.New("reading with this timestamp already exists")

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint violation.
const uniqueViolation = "23505"

// readingColumns lists the stored reading columns in scan and insert order.
const readingColumns = `timestamp, departure_airport, destination_airport, flight_number,
	aircraft_type, latitude, longitude, altitude, estimated_arrival_time,
	scheduled_departure_time, time_to_destination_minutes, total_flight_time_minutes,
	distance_to_destination, distance_from_origin, distance_traveled, wind_speed,
	wind_direction, ground_speed, outside_air_temperature, true_heading,
	weight_on_wheels, decompression, all_doors_closed, raw_data`

const insertReadingSQL = `INSERT INTO readings (` + readingColumns + `) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
	$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24
)`

// ReadingRepository handles database operations for telemetry readings.
type ReadingRepository struct {
	db *DB
}

// NewReadingRepository creates a new reading repository.
func NewReadingRepository(db *DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

// Insert stores a parsed record. A record whose timestamp is already stored
// returns ErrDuplicateReading.
func (r *ReadingRepository) Insert(ctx context.Context, rec telemetry.Record) error {
	_, err := r.db.ExecContext(ctx, insertReadingSQL, recordArgs(rec)...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateReading, rec.Timestamp)
		}
		return fmt.Errorf("failed to insert reading: %w", err)
	}
	return nil
}

// InsertIgnoreDuplicate stores a record unless its timestamp is already stored.
// Returns true if a row was written.
func (r *ReadingRepository) InsertIgnoreDuplicate(ctx context.Context, rec telemetry.Record) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		insertReadingSQL+` ON CONFLICT (timestamp) DO NOTHING`,
		recordArgs(rec)...,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert reading: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// Airborne returns every reading above minAltitude feet in ascending timestamp
// order, stamped with airline and tagged as actual positions.
func (r *ReadingRepository) Airborne(ctx context.Context, airline string, minAltitude float64) ([]telemetry.Reading, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+readingColumns+`
		 FROM readings
		 WHERE altitude > $1
		 ORDER BY timestamp ASC`,
		minAltitude,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	var readings []telemetry.Reading
	for rows.Next() {
		var row readingRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		readings = append(readings, row.toReading(airline))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating readings: %w", err)
	}

	return readings, nil
}

// Count returns the number of stored readings.
func (r *ReadingRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count readings: %w", err)
	}
	return n, nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// recordArgs returns the insert arguments for rec in readingColumns order.
func recordArgs(rec telemetry.Record) []interface{} {
	raw := string(rec.RawData)
	if raw == "" {
		raw = "{}"
	}
	return []interface{}{
		rec.Timestamp,
		nullable(rec.DepartureAirport),
		nullable(rec.DestinationAirport),
		nullable(rec.FlightNumber),
		nullable(rec.AircraftType),
		nullable(rec.Latitude),
		nullable(rec.Longitude),
		nullable(rec.Altitude),
		nullable(rec.EstimatedArrivalTime),
		nullable(rec.ScheduledDepartureTime),
		nullable(rec.TimeToDestinationMinutes),
		nullable(rec.TotalFlightTimeMinutes),
		nullable(rec.DistanceToDestination),
		nullable(rec.DistanceFromOrigin),
		nullable(rec.DistanceTraveled),
		nullable(rec.WindSpeed),
		nullable(rec.WindDirection),
		nullable(rec.GroundSpeed),
		nullable(rec.OutsideAirTemperature),
		nullable(rec.TrueHeading),
		bool(rec.WeightOnWheels),
		bool(rec.Decompression),
		bool(rec.AllDoorsClosed),
		raw,
	}
}

// nullable converts an optional value into a driver argument, nil for absent.
func nullable[T any](v *T) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

// readingRow holds one scanned readings row.
type readingRow struct {
	Timestamp                string
	DepartureAirport         sql.NullString
	DestinationAirport       sql.NullString
	FlightNumber             sql.NullString
	AircraftType             sql.NullString
	Latitude                 sql.NullFloat64
	Longitude                sql.NullFloat64
	Altitude                 sql.NullFloat64
	EstimatedArrivalTime     sql.NullString
	ScheduledDepartureTime   sql.NullString
	TimeToDestinationMinutes sql.NullInt64
	TotalFlightTimeMinutes   sql.NullInt64
	DistanceToDestination    sql.NullFloat64
	DistanceFromOrigin       sql.NullFloat64
	DistanceTraveled         sql.NullFloat64
	WindSpeed                sql.NullFloat64
	WindDirection            sql.NullFloat64
	GroundSpeed              sql.NullFloat64
	OutsideAirTemperature    sql.NullFloat64
	TrueHeading              sql.NullFloat64
	WeightOnWheels           sql.NullBool
	Decompression            sql.NullBool
	AllDoorsClosed           sql.NullBool
	RawData                  []byte
}

// dest returns scan destinations in readingColumns order.
func (row *readingRow) dest() []interface{} {
	return []interface{}{
		&row.Timestamp,
		&row.DepartureAirport,
		&row.DestinationAirport,
		&row.FlightNumber,
		&row.AircraftType,
		&row.Latitude,
		&row.Longitude,
		&row.Altitude,
		&row.EstimatedArrivalTime,
		&row.ScheduledDepartureTime,
		&row.TimeToDestinationMinutes,
		&row.TotalFlightTimeMinutes,
		&row.DistanceToDestination,
		&row.DistanceFromOrigin,
		&row.DistanceTraveled,
		&row.WindSpeed,
		&row.WindDirection,
		&row.GroundSpeed,
		&row.OutsideAirTemperature,
		&row.TrueHeading,
		&row.WeightOnWheels,
		&row.Decompression,
		&row.AllDoorsClosed,
		&row.RawData,
	}
}

// toReading converts the row into a Reading with actual-position tags.
func (row readingRow) toReading(airline string) telemetry.Reading {
	raw := json.RawMessage("{}")
	if len(row.RawData) > 0 && json.Valid(row.RawData) {
		raw = json.RawMessage(append([]byte(nil), row.RawData...))
	}

	allDoorsClosed := true
	if row.AllDoorsClosed.Valid {
		allDoorsClosed = row.AllDoorsClosed.Bool
	}

	return telemetry.Reading{
		Airline:                  airline,
		Timestamp:                row.Timestamp,
		DepartureAirport:         stringPtr(row.DepartureAirport),
		DestinationAirport:       stringPtr(row.DestinationAirport),
		FlightNumber:             stringPtr(row.FlightNumber),
		AircraftType:             stringPtr(row.AircraftType),
		Latitude:                 floatPtr(row.Latitude),
		Longitude:                floatPtr(row.Longitude),
		Altitude:                 floatPtr(row.Altitude),
		EstimatedArrivalTime:     stringPtr(row.EstimatedArrivalTime),
		ScheduledDepartureTime:   stringPtr(row.ScheduledDepartureTime),
		TimeToDestinationMinutes: intPtr(row.TimeToDestinationMinutes),
		TotalFlightTimeMinutes:   intPtr(row.TotalFlightTimeMinutes),
		DistanceToDestination:    floatPtr(row.DistanceToDestination),
		DistanceFromOrigin:       floatPtr(row.DistanceFromOrigin),
		DistanceTraveled:         floatPtr(row.DistanceTraveled),
		WindSpeed:                floatPtr(row.WindSpeed),
		WindDirection:            floatPtr(row.WindDirection),
		GroundSpeed:              floatPtr(row.GroundSpeed),
		OutsideAirTemperature:    floatPtr(row.OutsideAirTemperature),
		TrueHeading:              floatPtr(row.TrueHeading),
		WeightOnWheels:           telemetry.Flag(row.WeightOnWheels.Valid && row.WeightOnWheels.Bool),
		Decompression:            telemetry.Flag(row.Decompression.Valid && row.Decompression.Bool),
		AllDoorsClosed:           telemetry.Flag(allDoorsClosed),
		RawData:                  raw,
		PositionInterpolated:     false,
		PositionSource:           telemetry.SourceActual,
	}
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

// floatPtr maps NULL and the non-finite values DOUBLE PRECISION can hold to nil.
func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid || math.IsNaN(v.Float64) || math.IsInf(v.Float64, 0) {
		return nil
	}
	f := v.Float64
	return &f
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
