// Package demo generates a plausible synthetic SFO to JFK flight for
// exercising the ingest and reconstruction paths without a recorder.
package demo

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/unklstewy/flightpath/pkg/airports"
	"github.com/unklstewy/flightpath/pkg/navigation"
	"github.com/unklstewy/flightpath/pkg/telemetry"
)

const (
	// FlightDuration is the scheduled block time of the generated flight
	FlightDuration = 420 * time.Minute

	// TotalDistance is the approximate SFO to JFK distance in miles
	TotalDistance = 2570.0

	departureCode   = "SFO"
	destinationCode = "JFK"

	// Fractions of the flight spent climbing and descending
	takeoffPhase = 0.1
	landingPhase = 0.9

	// Fraction at each end of the flight spent on the ground
	groundPhase = 0.02
)

var aircraftTypes = []string{"B737", "A320", "B787", "A350"}

// rawData is the raw_data payload of a generated reading.
type rawData struct {
	FlightNickname    string  `json:"flight_nickname"`
	AdditionalSensors sensors `json:"additional_sensors"`
}

type sensors struct {
	CabinPressure int     `json:"cabin_pressure"`
	FuelRemaining float64 `json:"fuel_remaining"`
	EngineN1      int     `json:"engine_n1"`
}

// Options configures a generated flight.
type Options struct {
	Airline        string
	FlightNickname string

	// NumPoints is the number of readings, evenly spaced over the flight (default: 100)
	NumPoints int

	// Now anchors the schedule: the flight departs eight hours before Now
	// (default: time.Now)
	Now func() time.Time

	// DropoutRate is the fraction of readings, in [0, 1], whose coordinates
	// are removed to simulate GPS dropout
	DropoutRate float64

	// RealisticHeading sets true_heading to the bearing toward the next point
	// instead of a random value
	RealisticHeading bool
}

// DefaultOptions returns the options used by the demo-data command.
func DefaultOptions() Options {
	return Options{
		Airline:        "DEMO",
		FlightNickname: "DEMO-FLIGHT",
		NumPoints:      100,
	}
}

// phase is the flight phase at a point of progress.
type phase int

const (
	phaseTakeoff phase = iota
	phaseCruise
	phaseLanding
)

func phaseAt(progress float64) phase {
	switch {
	case progress < takeoffPhase:
		return phaseTakeoff
	case progress > landingPhase:
		return phaseLanding
	default:
		return phaseCruise
	}
}

// Generate builds the readings of one synthetic flight in time order.
func Generate(opts Options, rng *rand.Rand) ([]telemetry.Record, error) {
	if opts.DropoutRate < 0 || opts.DropoutRate > 1 || math.IsNaN(opts.DropoutRate) {
		return nil, fmt.Errorf("dropout rate %v is outside [0, 1]", opts.DropoutRate)
	}
	if opts.NumPoints <= 0 {
		return nil, nil
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	origin, ok := airports.Lookup(departureCode)
	if !ok {
		return nil, fmt.Errorf("unknown departure airport %s", departureCode)
	}
	dest, ok := airports.Lookup(destinationCode)
	if !ok {
		return nil, fmt.Errorf("unknown destination airport %s", destinationCode)
	}

	start := now().Add(-8 * time.Hour).Truncate(time.Second)
	arrival := start.Add(FlightDuration)

	flightNumber := fmt.Sprintf("%s%d", opts.Airline, randInt(rng, 1000, 9999))
	aircraftType := aircraftTypes[rng.Intn(len(aircraftTypes))]
	cruiseAltitude := float64(randInt(rng, 34000, 38000))

	records := make([]telemetry.Record, 0, opts.NumPoints)
	for i := 0; i < opts.NumPoints; i++ {
		progress := 0.0
		if opts.NumPoints > 1 {
			progress = float64(i) / float64(opts.NumPoints-1)
		}
		p := phaseAt(progress)

		lat, lon := position(origin, dest, progress, p, rng)
		altitude := altitudeAt(cruiseAltitude, progress, p, rng)

		groundSpeed := float64(randInt(rng, 400, 500))
		windSpeed := float64(randInt(rng, 20, 60))
		windDirection := float64(randInt(rng, 0, 359))
		outsideTemp := float64(randInt(rng, -50, -30))
		heading := float64(randInt(rng, 0, 359))

		traveled := TotalDistance * progress
		onGround := progress < groundPhase || progress > 1-groundPhase

		engineN1 := randInt(rng, 92, 98)
		if p == phaseCruise {
			engineN1 = randInt(rng, 85, 92)
		}
		raw, err := json.Marshal(rawData{
			FlightNickname: opts.FlightNickname,
			AdditionalSensors: sensors{
				CabinPressure: randInt(rng, 8000, 8500),
				FuelRemaining: navigation.RoundTo(100-progress*70, 1),
				EngineN1:      engineN1,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode raw data for reading %d: %w", i, err)
		}

		// Offsets are rounded to whole microseconds
		offset := time.Duration(math.Round(float64(FlightDuration/time.Microsecond)*progress)) * time.Microsecond
		ts := start.Add(offset)
		records = append(records, telemetry.Record{
			Timestamp:                isoformat(ts),
			DepartureAirport:         ptr(departureCode),
			DestinationAirport:       ptr(destinationCode),
			FlightNumber:             ptr(flightNumber),
			AircraftType:             ptr(aircraftType),
			Latitude:                 ptr(navigation.RoundTo(lat, 4)),
			Longitude:                ptr(navigation.RoundTo(lon, 4)),
			Altitude:                 ptr(math.RoundToEven(altitude)),
			EstimatedArrivalTime:     ptr(isoformat(arrival)),
			ScheduledDepartureTime:   ptr(isoformat(start)),
			TimeToDestinationMinutes: ptr(int(math.RoundToEven(FlightDuration.Minutes() * (1 - progress)))),
			TotalFlightTimeMinutes:   ptr(int(FlightDuration.Minutes())),
			DistanceToDestination:    ptr(math.RoundToEven(TotalDistance - traveled)),
			DistanceFromOrigin:       ptr(math.RoundToEven(traveled)),
			DistanceTraveled:         ptr(math.RoundToEven(traveled)),
			WindSpeed:                ptr(windSpeed),
			WindDirection:            ptr(windDirection),
			GroundSpeed:              ptr(groundSpeed),
			OutsideAirTemperature:    ptr(outsideTemp),
			TrueHeading:              ptr(heading),
			WeightOnWheels:           telemetry.Flag(onGround),
			Decompression:            false,
			AllDoorsClosed:           telemetry.Flag(!onGround),
			RawData:                  raw,
		})
	}

	if opts.RealisticHeading {
		applyBearings(records)
	}
	if opts.DropoutRate > 0 {
		for i := range records {
			if rng.Float64() < opts.DropoutRate {
				records[i].Latitude = nil
				records[i].Longitude = nil
			}
		}
	}

	return records, nil
}

// position returns the unrounded coordinates at a point of progress. Climb and
// descent fly to and from an offset of +2° latitude, +3° longitude; cruise
// follows the direct line with up to half a degree of jitter.
func position(origin, dest airports.Airport, progress float64, p phase, rng *rand.Rand) (float64, float64) {
	switch p {
	case phaseTakeoff:
		f := progress / takeoffPhase
		return origin.Latitude + 2*f, origin.Longitude + 3*f
	case phaseLanding:
		f := (progress - landingPhase) / (1 - landingPhase)
		return (dest.Latitude + 2) - 2*f, (dest.Longitude + 3) - 3*f
	default:
		f := (progress - takeoffPhase) / (landingPhase - takeoffPhase)
		lat := origin.Latitude + (dest.Latitude-origin.Latitude)*f
		lon := origin.Longitude + (dest.Longitude-origin.Longitude)*f
		lat += rng.Float64() - 0.5
		lon += rng.Float64() - 0.5
		return lat, lon
	}
}

func altitudeAt(cruise, progress float64, p phase, rng *rand.Rand) float64 {
	switch p {
	case phaseTakeoff:
		return cruise * (progress / takeoffPhase)
	case phaseLanding:
		return cruise * ((1 - progress) / (1 - landingPhase))
	default:
		return cruise + float64(randInt(rng, -500, 500))
	}
}

// applyBearings points each reading's heading at the next reading. The last
// reading keeps the heading of the one before it.
func applyBearings(records []telemetry.Record) {
	for i := 0; i+1 < len(records); i++ {
		from := navigation.Point{Latitude: *records[i].Latitude, Longitude: *records[i].Longitude}
		to := navigation.Point{Latitude: *records[i+1].Latitude, Longitude: *records[i+1].Longitude}
		records[i].TrueHeading = ptr(math.Mod(math.Round(navigation.Bearing(from, to)), 360))
	}
	if n := len(records); n > 1 {
		records[n-1].TrueHeading = ptr(*records[n-2].TrueHeading)
	}
}

// isoformat renders t as a naive ISO-8601 datetime, with microseconds only
// when they are non-zero.
func isoformat(t time.Time) string {
	t = t.Truncate(time.Microsecond)
	if t.Nanosecond() == 0 {
		return t.Format("2006-01-02T15:04:05")
	}
	return t.Format("2006-01-02T15:04:05.000000")
}

// randInt returns a uniform integer in [lo, hi].
func randInt(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

func ptr[T any](v T) *T { return &v }
