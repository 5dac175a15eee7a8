package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Server struct {
		Port         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
		LogLevel     string
	}

	Archive struct {
		URL     string
		Timeout time.Duration
	}

	Location struct {
		Latitude  float64
		Longitude float64
	}

	Store struct {
		Driver      string
		FilePath    string
		DatabaseURL string
	}

	Connectivity struct {
		Mode     string
		ProbeURL string
		Interval time.Duration
	}

	CircuitBreaker struct {
		Threshold int
		Timeout   time.Duration
	}
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		zap.L().Info("No .env file found, using environment variables")
	}

	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("FIBER_PORT", "8080")
	cfg.Server.ReadTimeout = parseDuration(getEnv("FIBER_READ_TIMEOUT", "10s"))
	cfg.Server.WriteTimeout = parseDuration(getEnv("FIBER_WRITE_TIMEOUT", "30s"))
	cfg.Server.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))

	// Archive configuration
	cfg.Archive.URL = getEnv("ARCHIVE_URL", "https://archive-api.open-meteo.com/v1")
	cfg.Archive.Timeout = parseDuration(getEnv("HTTP_TIMEOUT", "10s"))

	// Reference location
	cfg.Location.Latitude = parseFloat(getEnv("LATITUDE", "52.52"))
	cfg.Location.Longitude = parseFloat(getEnv("LONGITUDE", "13.41"))

	// Local store configuration
	cfg.Store.Driver = strings.ToLower(getEnv("STORE_DRIVER", "file"))
	cfg.Store.FilePath = getEnv("STORE_FILE_PATH", "data/weather.toml")
	cfg.Store.DatabaseURL = getEnv("DATABASE_URL", "")

	// Connectivity configuration
	cfg.Connectivity.Mode = strings.ToLower(getEnv("CONNECTIVITY_MODE", "probe"))
	cfg.Connectivity.ProbeURL = getEnv("CONNECTIVITY_PROBE_URL", cfg.Archive.URL)
	cfg.Connectivity.Interval = parseDuration(getEnv("CONNECTIVITY_INTERVAL", "30s"))

	// Circuit breaker configuration
	cfg.CircuitBreaker.Threshold = parseInt(getEnv("CIRCUIT_BREAKER_THRESHOLD", "3"))
	cfg.CircuitBreaker.Timeout = parseDuration(getEnv("CIRCUIT_BREAKER_TIMEOUT", "30s"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		errs = append(errs, fmt.Errorf("LATITUDE must be within [-90, 90], got %v", c.Location.Latitude))
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		errs = append(errs, fmt.Errorf("LONGITUDE must be within [-180, 180], got %v", c.Location.Longitude))
	}

	switch c.Store.Driver {
	case "memory":
	case "file":
		if c.Store.FilePath == "" {
			errs = append(errs, errors.New("STORE_FILE_PATH is required for the file store"))
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver))
	}

	switch c.Connectivity.Mode {
	case "probe":
		if c.Connectivity.Interval <= 0 {
			errs = append(errs, errors.New("CONNECTIVITY_INTERVAL must be positive in probe mode"))
		}
	case "online", "offline":
	default:
		errs = append(errs, fmt.Errorf("unknown CONNECTIVITY_MODE %q", c.Connectivity.Mode))
	}

	if c.Archive.Timeout <= 0 {
		errs = append(errs, errors.New("HTTP_TIMEOUT must be positive"))
	}

	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown LOG_LEVEL %q", c.Server.LogLevel))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(value string) time.Duration {
	duration, err := time.ParseDuration(value)
	if err != nil {
		zap.L().Warn("Failed to parse duration", zap.String("value", value), zap.Error(err))
		return 0
	}
	return duration
}

func parseInt(value string) int {
	intValue, err := strconv.Atoi(value)
	if err != nil {
		zap.L().Warn("Failed to parse int", zap.String("value", value), zap.Error(err))
		return 0
	}
	return intValue
}

func parseFloat(value string) float64 {
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		zap.L().Warn("Failed to parse float", zap.String("value", value), zap.Error(err))
		return 0
	}
	return floatValue
}

// NewLogger builds a production JSON logger at the given level.
func NewLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(parsed)
	return zapConfig.Build()
}
