package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Driver identifies the storage engine behind the gorm connection.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL environment variable is required")
	ErrUnknownDriver      = errors.New("unknown database driver")
	ErrInvalidRateBurst   = errors.New("GEODATA_RATE_BURST must be at least 1 when rate limiting is on")
)

// Config holds runtime settings for the server and CLI.
type Config struct {
	Database Database
	Port     string

	// Requests per second and burst allowed per client address.
	RateLimit float64
	RateBurst int

	AllowedOrigins []string
}

// Database configures the storage connection.
type Database struct {
	Driver Driver
	URL    string

	// gorm logger level: "silent", "error", "warn" or "info".
	LogLevel      string
	SlowThreshold time.Duration

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Default values, applied when the matching variable is unset.
const (
	DefaultPort      = "5050"
	DefaultRateLimit = 20
	DefaultRateBurst = 40
)

// Load reads envFile (if it exists) into the process environment and then
// builds the configuration from it.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	cfg := LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFromEnv builds the configuration from environment variables.
//
// Environment variables:
//   - GEODATA_DB_DRIVER: "postgres" or "sqlite" (default: "postgres")
//   - DATABASE_URL: Postgres DSN or SQLite file path (required)
//   - PORT: HTTP listen port (default: 5050)
//   - GEODATA_LOG_LEVEL: gorm log level (default: "warn")
//   - GEODATA_SLOW_QUERY_MS: slow query threshold in ms (default: 100)
//   - GEODATA_RATE_LIMIT / GEODATA_RATE_BURST: per-client request rate (default: 20/s, burst 40)
//   - GEODATA_ALLOWED_ORIGINS: comma separated CORS allow-list
func LoadFromEnv() Config {
	driver := Driver(strings.ToLower(strings.TrimSpace(os.Getenv("GEODATA_DB_DRIVER"))))
	if driver == "" {
		driver = DriverPostgres
	}

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = DefaultPort
	}

	logLevel := strings.ToLower(strings.TrimSpace(os.Getenv("GEODATA_LOG_LEVEL")))
	if logLevel == "" {
		logLevel = "warn"
	}

	return Config{
		Database: Database{
			Driver:          driver,
			URL:             strings.TrimSpace(os.Getenv("DATABASE_URL")),
			LogLevel:        logLevel,
			SlowThreshold:   time.Duration(envInt("GEODATA_SLOW_QUERY_MS", 100)) * time.Millisecond,
			MaxOpenConns:    20,
			MaxIdleConns:    20,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Port:           port,
		RateLimit:      envFloat("GEODATA_RATE_LIMIT", DefaultRateLimit),
		RateBurst:      envInt("GEODATA_RATE_BURST", DefaultRateBurst),
		AllowedOrigins: splitList(os.Getenv("GEODATA_ALLOWED_ORIGINS")),
	}
}

// Validate checks that the configuration can open a connection.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownDriver, c.Database.Driver)
	}
	if c.Database.URL == "" {
		return ErrMissingDatabaseURL
	}
	// A zero burst with a finite rate would reject every request.
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidRateBurst, c.RateBurst)
	}
	return nil
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
