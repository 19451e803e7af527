// Package config loads runtime settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tropicaldog17/coinbasis/internal/db"
)

// Storage drivers for price history.
const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
	StorageFile     = "file"
)

// Config holds application configuration
type Config struct {
	Env             string
	LogLevel        string
	ServerPort      string
	DefaultCurrency string

	StorageDriver string
	DataDir       string
	DB            *db.Config

	PriceAPIBaseURL   string
	RequestsPerMinute int
	APIMaxRetries     int

	RefreshSchedule string
	RefreshSymbols  []string
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:             getEnv("APP_ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", ""),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		DefaultCurrency: strings.ToUpper(getEnv("DEFAULT_CURRENCY", "USD")),
		StorageDriver:   strings.ToLower(getEnv("STORAGE_DRIVER", StorageSQLite)),
		DataDir:         getEnv("DATA_DIR", "./data"),
		DB:              db.NewConfig(),
		PriceAPIBaseURL: getEnv("PRICE_API_BASE_URL", "https://query2.finance.yahoo.com"),
		RefreshSchedule: getEnv("PRICE_REFRESH_SCHEDULE", ""),
		RefreshSymbols:  splitList(getEnv("PRICE_REFRESH_SYMBOLS", "")),
	}

	cfg.DB.Driver = cfg.StorageDriver

	var err error
	if cfg.RequestsPerMinute, err = getEnvInt("PRICE_API_REQUESTS_PER_MINUTE", 30); err != nil {
		return nil, err
	}
	if cfg.APIMaxRetries, err = getEnvInt("PRICE_API_MAX_RETRIES", 2); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StoragePostgres, StorageSQLite, StorageFile:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.RequestsPerMinute <= 0 {
		return fmt.Errorf("PRICE_API_REQUESTS_PER_MINUTE must be positive, got %d", c.RequestsPerMinute)
	}
	if c.APIMaxRetries < 0 {
		return fmt.Errorf("PRICE_API_MAX_RETRIES must be non-negative, got %d", c.APIMaxRetries)
	}
	if c.DefaultCurrency == "" {
		return fmt.Errorf("DEFAULT_CURRENCY is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.ToUpper(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
