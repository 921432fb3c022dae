// Package common provides shared utilities for Carteira
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Carteira
type Config struct {
	Environment string            `toml:"environment"`
	Server      ServerConfig      `toml:"server"`
	Storage     StorageConfig     `toml:"storage"`
	Market      MarketConfig      `toml:"market"`
	Performance PerformanceConfig `toml:"performance"`
	Logging     LoggingConfig     `toml:"logging"`
	Auth        AuthConfig        `toml:"auth"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig selects and configures the persistence backend.
// Driver is "surrealdb" (default) or "postgres".
type StorageConfig struct {
	Driver      string `toml:"driver"`
	Address     string `toml:"address"`
	Namespace   string `toml:"namespace"`
	Database    string `toml:"database"`
	Username    string `toml:"username"`
	Password    string `toml:"password"`
	PostgresURL string `toml:"postgres_url"`
	PoolMax     int    `toml:"pool_max"`
}

// MarketConfig configures where price and benchmark histories come from.
// Source "storage" reads them from the configured storage backend,
// "http" calls the market-data service at BaseURL. When BaseURL is set the
// collector can also copy remote history into storage, on demand or every
// CollectInterval.
type MarketConfig struct {
	Source          string `toml:"source"`
	BaseURL         string `toml:"base_url"`
	APIKey          string `toml:"api_key"`
	RateLimit       int    `toml:"rate_limit"`
	Timeout         string `toml:"timeout"`
	CollectInterval string `toml:"collect_interval"`
}

// GetTimeout parses and returns the timeout duration
func (c *MarketConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetCollectInterval parses the benchmark refresh interval; zero disables the scheduler.
func (c *MarketConfig) GetCollectInterval() time.Duration {
	d, err := time.ParseDuration(c.CollectInterval)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// PerformanceConfig tunes the performance history engine.
type PerformanceConfig struct {
	MinMonths            int              `toml:"min_months"`
	JumpThreshold        float64          `toml:"jump_threshold"`
	MaxConcurrentFetches int              `toml:"max_concurrent_fetches"`
	FetchTimeout         string           `toml:"fetch_timeout"`
	Timezone             string           `toml:"timezone"`
	Benchmarks           BenchmarksConfig `toml:"benchmarks"`
}

// BenchmarksConfig maps each asset class (and the total view) to a benchmark code.
type BenchmarksConfig struct {
	Stock string `toml:"stock"`
	ETF   string `toml:"etf"`
	FII   string `toml:"fii"`
	Total string `toml:"total"`
}

// GetFetchTimeout parses the per-fetch timeout, defaulting to 20s.
func (c *PerformanceConfig) GetFetchTimeout() time.Duration {
	d, err := time.ParseDuration(c.FetchTimeout)
	if err != nil || d <= 0 {
		return 20 * time.Second
	}
	return d
}

// GetLocation resolves the configured timezone; calendar-day arithmetic happens in it.
func (c *PerformanceConfig) GetLocation() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AuthConfig holds bearer token validation settings. Tokens are issued elsewhere;
// Carteira only verifies them and reads the subject claim.
type AuthConfig struct {
	JWTSecret   string `toml:"jwt_secret"`
	RequireAuth bool   `toml:"require_auth"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Format   string   `toml:"format"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Driver:    "surrealdb",
			Address:   "ws://localhost:8000/rpc",
			Namespace: "carteira",
			Database:  "carteira",
			Username:  "root",
			Password:  "root",
			PoolMax:   4,
		},
		Market: MarketConfig{
			Source:    "storage",
			RateLimit: 10,
			Timeout:   "30s",
		},
		Performance: PerformanceConfig{
			MinMonths:            6,
			JumpThreshold:        0.30,
			MaxConcurrentFetches: 8,
			FetchTimeout:         "20s",
			Timezone:             "America/Sao_Paulo",
			Benchmarks: BenchmarksConfig{
				Stock: "IBOV",
				ETF:   "SP500",
				FII:   "IFIX",
				Total: "CDI",
			},
		},
		Auth: AuthConfig{
			JWTSecret: "dev-jwt-secret-change-in-production",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "console",
			Outputs:  []string{"console"},
			FilePath: "./logs/carteira.log",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	normalize(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CARTEIRA_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("CARTEIRA_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("CARTEIRA_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("CARTEIRA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	// Storage overrides
	if v := os.Getenv("CARTEIRA_STORAGE_DRIVER"); v != "" {
		config.Storage.Driver = v
	}
	if v := os.Getenv("CARTEIRA_STORAGE_ADDRESS"); v != "" {
		config.Storage.Address = v
	}
	if v := os.Getenv("CARTEIRA_STORAGE_USERNAME"); v != "" {
		config.Storage.Username = v
	}
	if v := os.Getenv("CARTEIRA_STORAGE_PASSWORD"); v != "" {
		config.Storage.Password = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		config.Storage.PostgresURL = v
	}

	// Market data overrides
	if v := os.Getenv("CARTEIRA_MARKET_SOURCE"); v != "" {
		config.Market.Source = v
	}
	if v := os.Getenv("CARTEIRA_MARKET_BASE_URL"); v != "" {
		config.Market.BaseURL = v
	}
	if v := os.Getenv("CARTEIRA_MARKET_API_KEY"); v != "" {
		config.Market.APIKey = v
	}
	if v := os.Getenv("CARTEIRA_MARKET_COLLECT_INTERVAL"); v != "" {
		config.Market.CollectInterval = v
	}

	if v := os.Getenv("CARTEIRA_TIMEZONE"); v != "" {
		config.Performance.Timezone = v
	}

	if v := os.Getenv("CARTEIRA_AUTH_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("CARTEIRA_AUTH_REQUIRE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Auth.RequireAuth = b
		}
	}
}

// normalize lower-cases enum-like fields and restores defaults for invalid values.
func normalize(config *Config) {
	config.Storage.Driver = strings.ToLower(strings.TrimSpace(config.Storage.Driver))
	if config.Storage.Driver != "postgres" {
		config.Storage.Driver = "surrealdb"
	}

	config.Market.Source = strings.ToLower(strings.TrimSpace(config.Market.Source))
	if config.Market.Source != "http" {
		config.Market.Source = "storage"
	}

	if config.Performance.MinMonths <= 0 {
		config.Performance.MinMonths = 6
	}
	if config.Performance.JumpThreshold <= 0 {
		config.Performance.JumpThreshold = 0.30
	}
	if config.Performance.MaxConcurrentFetches <= 0 {
		config.Performance.MaxConcurrentFetches = 8
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
