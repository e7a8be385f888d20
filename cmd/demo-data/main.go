// Demo Data Generator
// Writes a synthetic SFO to JFK flight into the readings table
package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"time"

	"github.com/unklstewy/flightpath/internal/db"
	"github.com/unklstewy/flightpath/internal/demo"
	"github.com/unklstewy/flightpath/pkg/config"
)

func main() {
	defaults := demo.DefaultOptions()

	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	airline := flag.String("airline", defaults.Airline, "Airline code (e.g., BA, VS)")
	nickname := flag.String("flight-nickname", defaults.FlightNickname, "Nickname for the flight")
	numPoints := flag.Int("num-points", defaults.NumPoints, "Number of data points to generate")
	dropout := flag.Float64("dropout", 0, "Fraction of readings (0-1) to strip coordinates from")
	realistic := flag.Bool("realistic-heading", false, "Point true_heading along the flight path")
	seed := flag.Int64("seed", 0, "Random seed (0 = time based)")
	flag.Parse()

	if *dropout < 0 || *dropout > 1 {
		log.Fatalf("--dropout must be between 0 and 1, got %v", *dropout)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	database, err := db.ReconnectWithRetry(ctx, cfg.Database, 3, time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	records, err := demo.Generate(demo.Options{
		Airline:          *airline,
		FlightNickname:   *nickname,
		NumPoints:        *numPoints,
		DropoutRate:      *dropout,
		RealisticHeading: *realistic,
	}, rand.New(rand.NewSource(*seed)))
	if err != nil {
		log.Fatalf("Failed to generate demo flight: %v", err)
	}

	repo := db.NewReadingRepository(database)
	written, skipped := 0, 0
	for _, rec := range records {
		var inserted bool
		err := db.WithRetry(ctx, func() error {
			var err error
			inserted, err = repo.InsertIgnoreDuplicate(ctx, rec)
			return err
		}, 2)
		if err != nil {
			log.Fatalf("Failed to write reading %s: %v", rec.Timestamp, err)
		}
		if inserted {
			written++
		} else {
			skipped++
		}
	}

	total, err := repo.Count(ctx)
	if err != nil {
		log.Fatalf("Failed to count readings: %v", err)
	}

	log.Printf("✅ Demo data generated and written to %s/%s: %d readings (%d duplicate timestamps skipped), %d stored in total",
		cfg.Database.Host, cfg.Database.Database, written, skipped, total)
}
