// Flight Position API Server
// Serves reconstructed flight paths and records telemetry submissions
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unklstewy/flightpath/internal/api"
	"github.com/unklstewy/flightpath/internal/auth"
	"github.com/unklstewy/flightpath/internal/db"
	"github.com/unklstewy/flightpath/internal/logging"
	"github.com/unklstewy/flightpath/pkg/config"
)

var (
	configPath = flag.String("config", "configs/config.json", "Path to configuration file")
	airline    = flag.String("airline", "", "Airline name stamped on served readings (required)")
	port       = flag.Int("port", 1337, "HTTP server port")
	host       = flag.String("host", "127.0.0.1", "HTTP server bind address")
	hashPass   = flag.String("hash-password", "", "Print the bcrypt hash of a password for auth.users and exit")
)

func main() {
	flag.Parse()

	if *hashPass != "" {
		hash, err := auth.NewService(auth.Config{}).HashPassword(*hashPass)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyFlags(cfg)

	if cfg.Server.Airline == "" {
		fmt.Fprintln(os.Stderr, "--airline is required")
		flag.Usage()
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logCloser, err := logging.Setup(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer logCloser.Close()

	log.Printf("🚀 Starting flight position server for %s...", cfg.Server.Airline)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to the readings database
	database, err := db.ReconnectWithRetry(ctx, cfg.Database, 5, time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	log.Println("✓ Database schema ready")

	// The query endpoint may target a separate analysis database
	queryDB := database
	if queryCfg := cfg.EffectiveQueryDatabase(); queryCfg != cfg.Database {
		queryDB, err = db.ReconnectWithRetry(ctx, queryCfg, 5, time.Second)
		if err != nil {
			log.Fatalf("Failed to connect to query database: %v", err)
		}
		defer queryDB.Close()
		log.Printf("🔎 Query endpoint using %s:%d/%s", queryCfg.Host, queryCfg.Port, queryCfg.Database)
	}

	srv, err := api.New(cfg, api.Deps{
		Readings: db.NewReadingRepository(database),
		Queries:  db.NewQueryRunner(queryDB),
		Health: func(ctx context.Context) bool {
			return db.HealthCheck(ctx, database)
		},
		Stats: database.GetStats,
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      srv,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("📡 Server listening on http://%s", httpServer.Addr)
		if cfg.Auth.Enabled {
			log.Printf("🔐 Token authentication enabled (%d users)", len(cfg.Auth.Users))
		}
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("👋 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped")
}

// applyFlags overrides configuration with flags given on the command line.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "airline":
			cfg.Server.Airline = *airline
		case "port":
			cfg.Server.Port = *port
		case "host":
			cfg.Server.Host = *host
		}
	})
}
