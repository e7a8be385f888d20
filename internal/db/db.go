// Package db stores flight telemetry in PostgreSQL and runs ad-hoc queries
// against the analysis database.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/unklstewy/flightpath/pkg/config"
)

//go:embed schema.sql
var schemaSQL embed.FS

// DB wraps a database connection with helper methods.
type DB struct {
	*sql.DB
	config config.DatabaseConfig
}

// connectionString builds a lib/pq key/value DSN from the configuration.
func connectionString(cfg config.DatabaseConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.Username,
		quoteDSNValue(cfg.Password),
		cfg.Database,
		cfg.SSLMode,
	)
}

// quoteDSNValue single-quotes a value containing spaces or quotes so that
// lib/pq parses it as one token.
func quoteDSNValue(v string) string {
	needsQuote := v == ""
	for _, c := range v {
		if c == ' ' || c == '\'' || c == '\\' {
			needsQuote = true
			break
		}
	}
	if !needsQuote {
		return v
	}
	out := make([]rune, 0, len(v)+2)
	out = append(out, '\'')
	for _, c := range v {
		if c == '\'' || c == '\\' {
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return string(append(out, '\''))
}

// Connect establishes a connection to the PostgreSQL database.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	// Open connection
	sqlDB, err := sql.Open("postgres", connectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{
		DB:     sqlDB,
		config: cfg,
	}, nil
}

// InitSchema creates the readings table if it does not exist.
// This should be called once at application startup.
func (db *DB) InitSchema(ctx context.Context) error {
	schemaBytes, err := schemaSQL.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	if _, err := db.ExecContext(ctx, string(schemaBytes)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// GetStats returns database statistics for the health endpoint.
func (db *DB) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var readingCount int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings`).Scan(&readingCount); err != nil {
		return nil, err
	}
	stats["readings"] = readingCount

	var positioned int64
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM readings WHERE latitude IS NOT NULL AND longitude IS NOT NULL`,
	).Scan(&positioned)
	if err != nil {
		return nil, err
	}
	stats["positioned_readings"] = positioned

	pool := db.Stats()
	stats["open_connections"] = pool.OpenConnections
	stats["in_use_connections"] = pool.InUse

	return stats, nil
}
