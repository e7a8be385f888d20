package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unklstewy/flightpath/pkg/airports"
	"github.com/unklstewy/flightpath/pkg/navigation"
	"github.com/unklstewy/flightpath/pkg/telemetry"
	"github.com/unklstewy/flightpath/pkg/tracking"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)

	// Provenance colors
	sourceColors = map[telemetry.PositionSource]lipgloss.Color{
		telemetry.SourceActual:           lipgloss.Color("46"),
		telemetry.SourceInterpolated:     lipgloss.Color("226"),
		telemetry.SourceAirportReference: lipgloss.Color("213"),
	}
	unresolvedColor = lipgloss.Color("196")
)

const sourceColumn = 7

// renderReport formats reconstructed readings as a table with a provenance
// summary footer. A positive limit truncates the table rows, not the summary.
func renderReport(title string, readings []telemetry.Reading, limit int) string {
	rows := make([][]string, 0, len(readings))
	sources := make([]string, 0, len(readings))
	for i := range readings {
		if limit > 0 && i >= limit {
			break
		}
		r := &readings[i]
		source := sourceLabel(r)
		sources = append(sources, source)
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.Timestamp,
			formatFloat(r.Latitude, 4),
			formatFloat(r.Longitude, 4),
			formatFloat(r.Altitude, 0),
			formatFloat(r.GroundSpeed, 0),
			formatFloat(r.TrueHeading, 0),
			source,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Timestamp", "Latitude", "Longitude", "Alt ft", "GS kt", "Hdg", "Source").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == sourceColumn && row >= 0 && row < len(sources) {
				color, ok := sourceColors[telemetry.PositionSource(sources[row])]
				if !ok {
					color = unresolvedColor
				}
				return cellStyle.Foreground(color)
			}
			return cellStyle
		})

	var s strings.Builder
	s.WriteString(titleStyle.Render(title))
	s.WriteString("\n")
	s.WriteString(t.Render())
	s.WriteString("\n")

	summary := tracking.Summarize(readings)
	footer := fmt.Sprintf("%d readings: %d actual, %d interpolated, %d airport reference, %d unresolved",
		summary.Total, summary.Actual, summary.Interpolated, summary.AirportReference, summary.Unresolved)
	if limit > 0 && len(readings) > limit {
		footer += fmt.Sprintf(" (showing first %d)", limit)
	}
	s.WriteString(footerStyle.Render(footer))
	s.WriteString("\n")
	s.WriteString(footerStyle.Render(fmt.Sprintf("Track length: %.1f nm", trackLength(readings))))

	return s.String()
}

// sourceLabel returns the provenance of a reading's position, or "unresolved".
func sourceLabel(r *telemetry.Reading) string {
	if !r.HasPosition() {
		return "unresolved"
	}
	if r.PositionSource == "" {
		return string(telemetry.SourceActual)
	}
	return string(r.PositionSource)
}

// trackLength sums great-circle legs between consecutive positioned readings.
func trackLength(readings []telemetry.Reading) float64 {
	total := 0.0
	var prev *navigation.Point
	for i := range readings {
		r := &readings[i]
		if !r.HasPosition() {
			continue
		}
		p := navigation.Point{Latitude: *r.Latitude, Longitude: *r.Longitude}
		if prev != nil {
			total += navigation.DistanceNauticalMiles(*prev, p)
		}
		prev = &p
	}
	return total
}

func formatFloat(v *float64, places int) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', places, 64)
}

// renderAirports lists the airport reference table.
func renderAirports() string {
	rows := [][]string{}
	for _, code := range airports.Codes() {
		a, _ := airports.Lookup(code)
		rows = append(rows, []string{a.Code, strconv.FormatFloat(a.Latitude, 'f', 4, 64), strconv.FormatFloat(a.Longitude, 'f', 4, 64)})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Code", "Latitude", "Longitude").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}
