// Package config loads the seeder configuration from an optional YAML file
// and the environment. Environment variables win over file values.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable holding the YAML config path.
const FileEnv = "FUT_CONFIG_FILE"

// Defaults.
const (
	DefaultBaseURL    = "https://api.football-data.org/v4"
	DefaultSeedAmount = 1000
	DefaultCooldown   = 60 * time.Second
	DefaultMaxWindows = 10_000
	DefaultPort       = "8080"
	DefaultLogLevel   = "info"
)

// Configuration validation errors.
var (
	ErrMissingAPIKey      = errors.New("football.api_key (FOOTBALL_API_KEY) is required")
	ErrMissingDatabaseURL = errors.New("database.url (DATABASE_URL) is required")
	ErrInvalidBaseURL     = errors.New("football.base_url must be an absolute http(s) url")
	ErrInvalidCooldown    = errors.New("football.cooldown must be non-negative")
	ErrInvalidSeedAmount  = errors.New("seed.amount must be at least 1")
	ErrInvalidMaxWindows  = errors.New("seed.max_windows must be at least 1")
	ErrInvalidLogLevel    = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Config is the complete configuration.
type Config struct {
	Football FootballConfig `yaml:"football"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Seed     SeedConfig     `yaml:"seed"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// FootballConfig configures the upstream API.
type FootballConfig struct {
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Cooldown time.Duration `yaml:"cooldown"`
}

// DatabaseConfig configures the Postgres sink.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

// RedisConfig configures the optional window cache and quota tracking.
type RedisConfig struct {
	// URL is redis://... or a bare host:port. Empty disables Redis.
	URL string `yaml:"url"`
}

// SeedConfig configures seeding runs.
type SeedConfig struct {
	Amount int `yaml:"amount"`
	// Schedule is a cron spec; empty means run once and exit.
	Schedule   string `yaml:"schedule"`
	MaxWindows int    `yaml:"max_windows"`
}

// ServerConfig holds listener settings. Port and AllowedOrigins belong to the
// serving API and are not used by the seeder.
type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	MetricsAddr    string   `yaml:"metrics_addr"`
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the configuration with every default applied.
func Default() *Config {
	return &Config{
		Football: FootballConfig{
			BaseURL:  DefaultBaseURL,
			Cooldown: DefaultCooldown,
		},
		Seed: SeedConfig{
			Amount:     DefaultSeedAmount,
			MaxWindows: DefaultMaxWindows,
		},
		Server: ServerConfig{
			Port: DefaultPort,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Load builds the configuration from defaults, the file named by
// FUT_CONFIG_FILE (if set) and the environment, then validates it.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

func (c *Config) applyEnv() error {
	c.Football.BaseURL = getEnv("FOOTBALL_API_BASE_URL", c.Football.BaseURL)
	c.Football.APIKey = getEnv("FOOTBALL_API_KEY", c.Football.APIKey)
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Redis.URL = getEnv("REDIS_URL", c.Redis.URL)
	c.Seed.Schedule = getEnv("SEED_SCHEDULE", c.Seed.Schedule)
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.MetricsAddr = getEnv("METRICS_ADDR", c.Server.MetricsAddr)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)

	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}

	var err error
	if c.Seed.Amount, err = getEnvInt("SEED_AMOUNT", c.Seed.Amount); err != nil {
		return err
	}
	if c.Seed.MaxWindows, err = getEnvInt("SEED_MAX_WINDOWS", c.Seed.MaxWindows); err != nil {
		return err
	}
	if c.Football.Cooldown, err = getEnvDuration("COOLDOWN", c.Football.Cooldown); err != nil {
		return err
	}
	if c.Logging.Pretty, err = getEnvBool("LOG_PRETTY", c.Logging.Pretty); err != nil {
		return err
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Football.APIKey == "" {
		return ErrMissingAPIKey
	}

	u, err := url.Parse(c.Football.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.Football.BaseURL)
	}

	if c.Football.Cooldown < 0 {
		return ErrInvalidCooldown
	}

	if c.Database.URL == "" {
		return ErrMissingDatabaseURL
	}

	if c.Seed.Amount < 1 {
		return ErrInvalidSeedAmount
	}

	if c.Seed.MaxWindows < 1 {
		return ErrInvalidMaxWindows
	}

	if c.Redis.URL != "" {
		if _, err := c.RedisOptions(); err != nil {
			return err
		}
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return ErrInvalidLogLevel
	}

	return nil
}

// RedisOptions returns client options for Redis.URL, or nil when Redis is
// not configured.
func (c *Config) RedisOptions() (*redis.Options, error) {
	if c.Redis.URL == "" {
		return nil, nil
	}

	if strings.Contains(c.Redis.URL, "://") {
		opts, err := redis.ParseURL(c.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opts, nil
	}

	return &redis.Options{Addr: c.Redis.URL}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, value)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, value)
	}
	return d, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, value)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
