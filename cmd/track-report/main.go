// Track Report
// Prints the reconstructed flight path of the stored readings with position provenance
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/unklstewy/flightpath/internal/db"
	"github.com/unklstewy/flightpath/pkg/config"
	"github.com/unklstewy/flightpath/pkg/tracking"
)

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	airline := flag.String("airline", "", "Airline name (default: server.airline from config)")
	strategyName := flag.String("strategy", "", "Reconstruction strategy: adjacent or last_known_good (default: from config)")
	minAltitude := flag.Float64("min-altitude", -1, "Only report readings above this altitude in feet (default: from config)")
	limit := flag.Int("limit", 0, "Maximum rows to print (0 = all)")
	listAirports := flag.Bool("airports", false, "List the departure airports usable as reconstruction anchors and exit")
	flag.Parse()

	if *listAirports {
		fmt.Println(renderAirports())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *airline != "" {
		cfg.Server.Airline = *airline
	}
	if *strategyName != "" {
		cfg.Reconstruct.Strategy = *strategyName
	}
	if *minAltitude >= 0 {
		cfg.Ingest.MinAltitudeFt = *minAltitude
	}

	strategy, ok := tracking.ParseStrategy(cfg.Reconstruct.Strategy)
	if !ok {
		log.Fatalf("Unknown strategy %q", cfg.Reconstruct.Strategy)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	database, err := db.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	readings, err := db.NewReadingRepository(database).Airborne(ctx, cfg.Server.Airline, cfg.Ingest.MinAltitudeFt)
	if err != nil {
		log.Fatalf("Failed to load readings: %v", err)
	}
	if len(readings) == 0 {
		fmt.Println("No position data available")
		return
	}

	departure := ""
	if readings[0].DepartureAirport != nil {
		departure = *readings[0].DepartureAirport
	}
	reconstructed := tracking.ReconstructWith(readings, departure, tracking.Options{Strategy: strategy})

	title := fmt.Sprintf("%s flight path (%s, above %.0f ft)", cfg.Server.Airline, strategy, cfg.Ingest.MinAltitudeFt)
	fmt.Fprintln(os.Stdout, renderReport(title, reconstructed, *limit))
}
