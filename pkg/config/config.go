package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config represents the complete application configuration.
type Config struct {
	Server        ServerConfig      `json:"server"`
	Database      DatabaseConfig    `json:"database"`
	QueryDatabase DatabaseConfig    `json:"query_database"`
	Ingest        IngestConfig      `json:"ingest"`
	Reconstruct   ReconstructConfig `json:"reconstruct"`
	CORS          CORSConfig        `json:"cors"`
	Auth          AuthConfig        `json:"auth"`
	Logging       LoggingConfig     `json:"logging"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	// Host is the server bind address (default: "127.0.0.1")
	Host string `json:"host"`

	// Port is the HTTP server port (default: 1337)
	Port int `json:"port"`

	// Airline is stamped on every reading served by /readings
	Airline string `json:"airline"`

	// ReadTimeoutSeconds bounds reading a request (default: 15)
	ReadTimeoutSeconds int `json:"read_timeout_seconds"`

	// WriteTimeoutSeconds bounds writing a response (default: 15)
	WriteTimeoutSeconds int `json:"write_timeout_seconds"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	// Host is the database server hostname
	Host string `json:"host"`

	// Port is the database server port
	Port int `json:"port"`

	// Database is the database name
	Database string `json:"database"`

	// Username for database authentication
	Username string `json:"username"`

	// Password for database authentication (should be loaded from environment)
	Password string `json:"password"`

	// SSLMode for PostgreSQL connections (disable, require, verify-ca, verify-full)
	SSLMode string `json:"ssl_mode"`

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int `json:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int `json:"max_idle_conns"`
}

// IngestConfig controls how readings are recorded and selected.
type IngestConfig struct {
	// MinAltitudeFt selects airborne readings: only altitudes strictly above
	// this value are served (default: 10000)
	MinAltitudeFt float64 `json:"min_altitude_ft"`

	// MaxRecordsPerSecond limits /record submissions (0 = unlimited)
	MaxRecordsPerSecond float64 `json:"max_records_per_second"`

	// RecordBurst is the number of submissions allowed above the steady rate
	RecordBurst int `json:"record_burst"`
}

// ReconstructConfig controls position reconstruction.
type ReconstructConfig struct {
	// Strategy is "adjacent" (project from the preceding reading) or
	// "last_known_good" (project from the last reading with a position)
	Strategy string `json:"strategy"`
}

// CORSConfig lists browser origins allowed to call the API.
type CORSConfig struct {
	// AllowedOrigins supports a single "*" wildcard per origin (e.g., "http://localhost:*")
	AllowedOrigins []string `json:"allowed_origins"`
	AllowedMethods []string `json:"allowed_methods"`
	AllowedHeaders []string `json:"allowed_headers"`
}

// AuthConfig contains optional token authentication settings.
// When disabled every endpoint is public.
type AuthConfig struct {
	Enabled bool `json:"enabled"`

	// JWTSecret signs issued tokens (should be loaded from environment)
	JWTSecret string `json:"jwt_secret"`

	// TokenDurationMinutes is how long issued tokens stay valid (default: 1440)
	TokenDurationMinutes int `json:"token_duration_minutes"`

	// Users that may log in to obtain a token
	Users []UserConfig `json:"users"`
}

// UserConfig is a statically configured API user.
type UserConfig struct {
	Username string `json:"username"`

	// PasswordHash is a bcrypt hash of the user's password
	PasswordHash string `json:"password_hash"`

	// Role is "admin", "recorder" or "viewer"
	Role string `json:"role"`
}

// LoggingConfig controls the optional rotating log file.
type LoggingConfig struct {
	// File is the log file path; empty logs to stderr only
	File string `json:"file"`

	MaxSizeMB  int  `json:"max_size_mb"`
	MaxBackups int  `json:"max_backups"`
	MaxAgeDays int  `json:"max_age_days"`
	Compress   bool `json:"compress"`
}

// Load reads configuration from a JSON file.
// If the file doesn't exist, returns a default configuration.
// Values missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.applyEnvironmentOverrides()
		return cfg, nil
	}

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON over the defaults
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvironmentOverrides()

	return cfg, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Marshal to JSON with indentation
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                "127.0.0.1",
			Port:                1337,
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 15,
		},
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         5432,
			Database:     "flight_data",
			Username:     "flightpath",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
		},
		// Empty host means "same as Database"
		QueryDatabase: DatabaseConfig{},
		Ingest: IngestConfig{
			MinAltitudeFt:       10000,
			MaxRecordsPerSecond: 0,
			RecordBurst:         10,
		},
		Reconstruct: ReconstructConfig{
			Strategy: "adjacent",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Content-Type"},
		},
		Auth: AuthConfig{
			Enabled:              false,
			TokenDurationMinutes: 24 * 60,
		},
		Logging: LoggingConfig{
			MaxSizeMB:  64,
			MaxBackups: 3,
			MaxAgeDays: 14,
			Compress:   true,
		},
	}
}

// EffectiveQueryDatabase returns the database used by the ad-hoc query endpoint.
// Falls back to the main database when no separate host is configured.
func (c *Config) EffectiveQueryDatabase() DatabaseConfig {
	if c.QueryDatabase.Host == "" {
		return c.Database
	}
	q := c.QueryDatabase
	if q.Port == 0 {
		q.Port = c.Database.Port
	}
	if q.SSLMode == "" {
		q.SSLMode = c.Database.SSLMode
	}
	if q.MaxOpenConns == 0 {
		q.MaxOpenConns = c.Database.MaxOpenConns
	}
	if q.MaxIdleConns == 0 {
		q.MaxIdleConns = c.Database.MaxIdleConns
	}
	return q
}

// Validate checks for values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, errors.New("database.host is required"))
	}
	if c.Ingest.MaxRecordsPerSecond < 0 {
		errs = append(errs, errors.New("ingest.max_records_per_second must not be negative"))
	}
	switch c.Reconstruct.Strategy {
	case "", "adjacent", "last_known_good":
	default:
		errs = append(errs, fmt.Errorf("reconstruct.strategy %q is not supported", c.Reconstruct.Strategy))
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required when auth is enabled"))
	}

	return errors.Join(errs...)
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
// This allows sensitive data like passwords to be kept out of config files.
func (c *Config) applyEnvironmentOverrides() {
	if port := os.Getenv("FLIGHTPATH_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if airline := os.Getenv("FLIGHTPATH_AIRLINE"); airline != "" {
		c.Server.Airline = airline
	}
	if dbPassword := os.Getenv("FLIGHTPATH_DB_PASSWORD"); dbPassword != "" {
		c.Database.Password = dbPassword
	}
	if queryPassword := os.Getenv("FLIGHTPATH_QUERY_DB_PASSWORD"); queryPassword != "" {
		c.QueryDatabase.Password = queryPassword
	}
	if secret := os.Getenv("FLIGHTPATH_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
}
