package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/unklstewy/flightpath/pkg/config"
	"github.com/unklstewy/flightpath/pkg/telemetry"
)

// TestConnectionString tests DSN construction from configuration.
func TestConnectionString(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		Username: "testuser",
		Password: "testpass",
		Database: "testdb",
		SSLMode:  "disable",
	}

	t.Run("Plain password", func(t *testing.T) {
		got := connectionString(cfg)
		want := "host=localhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
		if got != want {
			t.Errorf("Expected %q, got %q", want, got)
		}
	})

	t.Run("Password with spaces is quoted", func(t *testing.T) {
		c := cfg
		c.Password = `it's a secret`
		got := connectionString(c)
		if !strings.Contains(got, `password='it\'s a secret'`) {
			t.Errorf("Expected quoted password, got %q", got)
		}
	})

	t.Run("Empty password is quoted", func(t *testing.T) {
		c := cfg
		c.Password = ""
		got := connectionString(c)
		if !strings.Contains(got, "password='' ") {
			t.Errorf("Expected empty quoted password, got %q", got)
		}
	})
}

// TestSchemaEmbedded verifies the schema file is embedded and defines readings.
func TestSchemaEmbedded(t *testing.T) {
	data, err := schemaSQL.ReadFile("schema.sql")
	if err != nil {
		t.Fatalf("Failed to read embedded schema: %v", err)
	}
	schema := string(data)
	for _, want := range []string{
		"CREATE TABLE IF NOT EXISTS readings",
		"timestamp                   TEXT NOT NULL UNIQUE",
		"raw_data                    JSONB",
	} {
		if !strings.Contains(schema, want) {
			t.Errorf("Expected schema to contain %q", want)
		}
	}
}

// TestIsConnectionError tests classification of retryable errors.
func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"Nil error", nil, false},
		{"Bad connection", driver.ErrBadConn, true},
		{"Wrapped bad connection", fmt.Errorf("query: %w", driver.ErrBadConn), true},
		{"Connection refused", errors.New("dial tcp 127.0.0.1:5432: connect: Connection Refused"), true},
		{"Unexpected EOF", errors.New("unexpected EOF"), true},
		{"Postgres connection exception", &pq.Error{Code: "08006"}, true},
		{"Postgres syntax error", &pq.Error{Code: "42601", Message: "syntax error"}, false},
		{"No rows", sql.ErrNoRows, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConnectionError(tt.err); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

// TestNextDelay tests the backoff progression.
func TestNextDelay(t *testing.T) {
	delay := time.Second
	expected := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 32 * time.Second, 60 * time.Second, 60 * time.Second}
	for i, want := range expected {
		delay = nextDelay(delay)
		if delay != want {
			t.Errorf("Step %d: expected %v, got %v", i, want, delay)
		}
	}
}

// TestWithRetry tests retry behavior without a database.
func TestWithRetry(t *testing.T) {
	t.Run("Success on first attempt", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return nil
		}, 3)
		if err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
		if calls != 1 {
			t.Errorf("Expected 1 call, got %d", calls)
		}
	})

	t.Run("Statement errors are not retried", func(t *testing.T) {
		calls := 0
		stmtErr := &pq.Error{Code: "42P01", Message: "relation does not exist"}
		err := WithRetry(context.Background(), func() error {
			calls++
			return stmtErr
		}, 3)
		if !errors.Is(err, stmtErr) {
			t.Errorf("Expected statement error, got %v", err)
		}
		if calls != 1 {
			t.Errorf("Expected 1 call, got %d", calls)
		}
	})
}

// TestIsUniqueViolation tests duplicate-key detection.
func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(&pq.Error{Code: "23505"}) {
		t.Error("Expected 23505 to be a unique violation")
	}
	if !isUniqueViolation(fmt.Errorf("exec: %w", &pq.Error{Code: "23505"})) {
		t.Error("Expected wrapped 23505 to be a unique violation")
	}
	if isUniqueViolation(&pq.Error{Code: "23502"}) {
		t.Error("Did not expect not-null violation to be a unique violation")
	}
	if isUniqueViolation(errors.New("duplicate")) {
		t.Error("Did not expect plain error to be a unique violation")
	}
}

// TestRecordArgs tests conversion of records into insert arguments.
func TestRecordArgs(t *testing.T) {
	lat := 37.5
	minutes := 90
	rec := telemetry.Record{
		Timestamp:                "2024-03-01T12:00:00",
		Latitude:                 &lat,
		TimeToDestinationMinutes: &minutes,
		AllDoorsClosed:           true,
	}

	args := recordArgs(rec)
	if len(args) != 24 {
		t.Fatalf("Expected 24 arguments, got %d", len(args))
	}
	if args[0] != "2024-03-01T12:00:00" {
		t.Errorf("Expected timestamp first, got %v", args[0])
	}
	if args[1] != nil {
		t.Errorf("Expected nil departure airport, got %v", args[1])
	}
	if args[5] != 37.5 {
		t.Errorf("Expected latitude 37.5, got %v", args[5])
	}
	if args[6] != nil {
		t.Errorf("Expected nil longitude, got %v", args[6])
	}
	if args[10] != 90 {
		t.Errorf("Expected 90 minutes, got %v", args[10])
	}
	if args[20] != false || args[22] != true {
		t.Errorf("Expected flags false/true, got %v/%v", args[20], args[22])
	}
	if args[23] != "{}" {
		t.Errorf("Expected empty raw data object, got %v", args[23])
	}
}

// TestReadingRowToReading tests mapping of scanned rows.
func TestReadingRowToReading(t *testing.T) {
	t.Run("Populated row", func(t *testing.T) {
		row := readingRow{
			Timestamp:                "2024-03-01T12:00:00",
			DepartureAirport:         sql.NullString{String: "SFO", Valid: true},
			Latitude:                 sql.NullFloat64{Float64: 37.6, Valid: true},
			Longitude:                sql.NullFloat64{Float64: -122.4, Valid: true},
			Altitude:                 sql.NullFloat64{Float64: 35000, Valid: true},
			TimeToDestinationMinutes: sql.NullInt64{Int64: 300, Valid: true},
			WeightOnWheels:           sql.NullBool{Bool: true, Valid: true},
			AllDoorsClosed:           sql.NullBool{Bool: false, Valid: true},
			RawData:                  []byte(`{"cabin_pressure":11.2}`),
		}

		r := row.toReading("DEMO")
		if r.Airline != "DEMO" {
			t.Errorf("Expected airline DEMO, got %s", r.Airline)
		}
		if r.DepartureAirport == nil || *r.DepartureAirport != "SFO" {
			t.Errorf("Expected departure SFO, got %v", r.DepartureAirport)
		}
		if !r.HasPosition() {
			t.Error("Expected position to be present")
		}
		if r.TimeToDestinationMinutes == nil || *r.TimeToDestinationMinutes != 300 {
			t.Errorf("Expected 300 minutes, got %v", r.TimeToDestinationMinutes)
		}
		if r.FlightNumber != nil {
			t.Errorf("Expected nil flight number, got %v", *r.FlightNumber)
		}
		if !bool(r.WeightOnWheels) || bool(r.AllDoorsClosed) {
			t.Errorf("Expected weight_on_wheels=true all_doors_closed=false, got %v/%v", r.WeightOnWheels, r.AllDoorsClosed)
		}
		if string(r.RawData) != `{"cabin_pressure":11.2}` {
			t.Errorf("Expected raw data preserved, got %s", r.RawData)
		}
		if r.PositionInterpolated || r.PositionSource != telemetry.SourceActual {
			t.Errorf("Expected actual tags, got %v/%s", r.PositionInterpolated, r.PositionSource)
		}
	})

	t.Run("Non-finite floats become nil", func(t *testing.T) {
		row := readingRow{
			Timestamp:   "2024-03-01T12:00:00",
			Latitude:    sql.NullFloat64{Float64: 37.6, Valid: true},
			Longitude:   sql.NullFloat64{Float64: -122.4, Valid: true},
			Altitude:    sql.NullFloat64{Float64: math.Inf(1), Valid: true},
			GroundSpeed: sql.NullFloat64{Float64: math.NaN(), Valid: true},
			WindSpeed:   sql.NullFloat64{Float64: math.Inf(-1), Valid: true},
		}
		r := row.toReading("DEMO")
		if r.Altitude != nil || r.GroundSpeed != nil || r.WindSpeed != nil {
			t.Errorf("Expected nil for non-finite values, got %v/%v/%v", r.Altitude, r.GroundSpeed, r.WindSpeed)
		}
		if !r.HasPosition() {
			t.Error("Expected finite coordinates to be kept")
		}
		if _, err := json.Marshal(r); err != nil {
			t.Errorf("Expected reading to encode, got %v", err)
		}
	})

	t.Run("Missing values", func(t *testing.T) {
		row := readingRow{Timestamp: "2024-03-01T12:00:00"}
		r := row.toReading("DEMO")
		if r.Latitude != nil || r.Longitude != nil {
			t.Error("Expected nil coordinates")
		}
		if !bool(r.AllDoorsClosed) {
			t.Error("Expected all_doors_closed default true")
		}
		if string(r.RawData) != "{}" {
			t.Errorf("Expected empty raw data, got %s", r.RawData)
		}
	})
}

// TestRowMap tests conversion of ad-hoc query rows.
func TestRowMap(t *testing.T) {
	row := rowMap(
		[]string{"timestamp", "altitude", "raw_data", "flight_number"},
		[]interface{}{"2024-03-01T12:00:00", 35000.0, []byte(`{}`), nil},
	)

	if row["timestamp"] != "2024-03-01T12:00:00" {
		t.Errorf("Expected timestamp, got %v", row["timestamp"])
	}
	if row["altitude"] != 35000.0 {
		t.Errorf("Expected altitude, got %v", row["altitude"])
	}
	if row["raw_data"] != "{}" {
		t.Errorf("Expected bytes converted to string, got %v (%T)", row["raw_data"], row["raw_data"])
	}
	if v, ok := row["flight_number"]; !ok || v != nil {
		t.Errorf("Expected nil flight number key, got %v", v)
	}
}

// TestClassifyQueryError tests statement versus transport error classification.
func TestClassifyQueryError(t *testing.T) {
	var qe *QueryError

	err := classifyQueryError(&pq.Error{Code: "42601", Message: "syntax error at or near \"SELEC\""})
	if !errors.As(err, &qe) {
		t.Errorf("Expected QueryError for syntax error, got %T", err)
	}
	if !strings.Contains(err.Error(), "syntax error") {
		t.Errorf("Expected message preserved, got %q", err.Error())
	}

	err = classifyQueryError(driver.ErrBadConn)
	if errors.As(err, &qe) {
		t.Error("Did not expect QueryError for lost connection")
	}
	if !errors.Is(err, driver.ErrBadConn) {
		t.Error("Expected wrapped driver error")
	}
}
