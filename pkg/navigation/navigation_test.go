package navigation

import (
	"math"
	"testing"
)

// TestProject tests dead-reckoning projection along great circles.
func TestProject(t *testing.T) {
	tests := []struct {
		name      string
		lat, lon  float64
		heading   float64
		speed     float64
		hours     float64
		wantLat   float64
		wantLon   float64
		tolerance float64
	}{
		{
			name:    "Due east along equator",
			heading: 90, speed: 60, hours: 1,
			wantLat: 0.0, wantLon: 1.0, tolerance: 0.001,
		},
		{
			name:    "Due north from origin",
			heading: 0, speed: 60, hours: 1,
			wantLat: 1.0, wantLon: 0.0, tolerance: 0.001,
		},
		{
			name:    "Due south from origin",
			heading: 180, speed: 120, hours: 0.5,
			wantLat: -1.0, wantLon: 0.0, tolerance: 0.001,
		},
		{
			name:    "Due west along equator",
			heading: 270, speed: 30, hours: 2,
			wantLat: 0.0, wantLon: -1.0, tolerance: 0.001,
		},
		{
			name: "Zero elapsed time returns start",
			lat:  37.6213, lon: -122.379, heading: 45, speed: 450, hours: 0,
			wantLat: 37.6213, wantLon: -122.379, tolerance: 1e-9,
		},
		{
			name: "Zero speed returns start",
			lat:  51.47, lon: -0.4543, heading: 123, speed: 0, hours: 3,
			wantLat: 51.47, wantLon: -0.4543, tolerance: 1e-9,
		},
		{
			name: "North along a meridian at mid latitude",
			lat:  40.0, lon: -74.0, heading: 0, speed: 300, hours: 1,
			wantLat: 45.0, wantLon: -74.0, tolerance: 0.001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon := Project(tt.lat, tt.lon, tt.heading, tt.speed, tt.hours)
			if math.Abs(lat-tt.wantLat) > tt.tolerance {
				t.Errorf("Expected lat ~%f, got %f", tt.wantLat, lat)
			}
			if math.Abs(lon-tt.wantLon) > tt.tolerance {
				t.Errorf("Expected lon ~%f, got %f", tt.wantLon, lon)
			}
		})
	}

	t.Run("Eastward movement at latitude increases longitude more than arc", func(t *testing.T) {
		// 60 nm east at 60°N spans ~2° of longitude
		_, lon := Project(60.0, 0.0, 90, 60, 1)
		if math.Abs(lon-2.0) > 0.01 {
			t.Errorf("Expected lon ~2.0 at 60N, got %f", lon)
		}
	})

	t.Run("Distance travelled matches speed times time", func(t *testing.T) {
		start := Point{Latitude: 35.0, Longitude: -80.0}
		lat, lon := Project(start.Latitude, start.Longitude, 63, 480, 0.25)
		got := DistanceNauticalMiles(start, Point{Latitude: lat, Longitude: lon})
		// Haversine uses the mean earth radius, 60 nm/degree is a slightly smaller sphere
		if math.Abs(got-120.0) > 1.0 {
			t.Errorf("Expected ~120 nm travelled, got %f", got)
		}
	})

	t.Run("NaN heading propagates", func(t *testing.T) {
		lat, lon := Project(0, 0, math.NaN(), 60, 1)
		if IsFinite(lat, lon) {
			t.Errorf("Expected NaN result, got %f, %f", lat, lon)
		}
	})
}

// TestRoundTo tests decimal rounding.
func TestRoundTo(t *testing.T) {
	tests := []struct {
		in     float64
		places int
		want   float64
	}{
		{1.23456789, 4, 1.2346},
		{-1.23456789, 4, -1.2346},
		{40.64125, 3, 40.641},
		{0.00004, 4, 0.0},
		{-73.77814999, 4, -73.7781},
		{12.5, 0, 13},
	}

	for _, tt := range tests {
		got := RoundTo(tt.in, tt.places)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("RoundTo(%v, %d) = %v, want %v", tt.in, tt.places, got, tt.want)
		}
	}
}

// TestBearing tests initial bearing calculation.
func TestBearing(t *testing.T) {
	origin := Point{}

	tests := []struct {
		name string
		to   Point
		want float64
	}{
		{"North", Point{Latitude: 1}, 0},
		{"East", Point{Longitude: 1}, 90},
		{"South", Point{Latitude: -1}, 180},
		{"West", Point{Longitude: -1}, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(origin, tt.to)
			if math.Abs(got-tt.want) > 0.01 {
				t.Errorf("Expected bearing %f, got %f", tt.want, got)
			}
		})
	}
}

// TestDistanceNauticalMiles tests haversine distance.
func TestDistanceNauticalMiles(t *testing.T) {
	t.Run("Same point", func(t *testing.T) {
		p := Point{Latitude: 40.6413, Longitude: -73.7781}
		if d := DistanceNauticalMiles(p, p); d != 0 {
			t.Errorf("Expected 0, got %f", d)
		}
	})

	t.Run("SFO to JFK", func(t *testing.T) {
		sfo := Point{Latitude: 37.6213, Longitude: -122.3790}
		jfk := Point{Latitude: 40.6413, Longitude: -73.7781}
		d := DistanceNauticalMiles(sfo, jfk)
		// Published great-circle distance is about 2250 nm
		if d < 2200 || d > 2300 {
			t.Errorf("Expected ~2250 nm, got %f", d)
		}
	})
}

// TestIsFinite tests the finite-value guard.
func TestIsFinite(t *testing.T) {
	if !IsFinite(1, 2, 3) {
		t.Error("Expected finite values to pass")
	}
	if IsFinite(1, math.Inf(1)) {
		t.Error("Expected +Inf to fail")
	}
	if IsFinite(math.NaN()) {
		t.Error("Expected NaN to fail")
	}
	if !IsFinite() {
		t.Error("Expected empty input to pass")
	}
}
