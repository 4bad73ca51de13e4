// Package config loads server configuration from an optional YAML file and
// environment variables. Environment variables win.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds server configuration.
type Config struct {
	Port           int           `yaml:"port"`
	DatabaseURL    string        `yaml:"database_url"`
	CacheBackend   string        `yaml:"cache_backend"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	RedisAddr      string        `yaml:"redis_addr"`
	RedisDB        int           `yaml:"redis_db"`
	PayloadBaseURL string        `yaml:"payload_base_url"`
	FetchTimeout   time.Duration `yaml:"fetch_timeout"`
	FetchRPS       float64       `yaml:"fetch_rps"`
	FetchBurst     int           `yaml:"fetch_burst"`
	Locale         string        `yaml:"locale"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Port:         8080,
		DatabaseURL:  "file:sheets.db",
		CacheBackend: "memory",
		CacheTTL:     15 * time.Minute,
		RedisAddr:    "localhost:6379",
		FetchTimeout: 10 * time.Second,
		FetchRPS:     20,
		FetchBurst:   5,
		Locale:       "en-IN",
	}
}

// Load reads SHEETS_CONFIG (if set) and then the environment.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom is Load with a custom variable lookup.
func LoadFrom(getenv func(string) string) (*Config, error) {
	cfg := Default()
	if path := getenv("SHEETS_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	var err error
	setString(getenv, "DATABASE_URL", &cfg.DatabaseURL)
	setString(getenv, "CACHE_BACKEND", &cfg.CacheBackend)
	setString(getenv, "REDIS_ADDR", &cfg.RedisAddr)
	setString(getenv, "PAYLOAD_BASE_URL", &cfg.PayloadBaseURL)
	setString(getenv, "SHEETS_LOCALE", &cfg.Locale)
	if err = setInt(getenv, "PORT", &cfg.Port); err != nil {
		return nil, err
	}
	if err = setInt(getenv, "REDIS_DB", &cfg.RedisDB); err != nil {
		return nil, err
	}
	if err = setInt(getenv, "FETCH_BURST", &cfg.FetchBurst); err != nil {
		return nil, err
	}
	if err = setFloat(getenv, "FETCH_RPS", &cfg.FetchRPS); err != nil {
		return nil, err
	}
	if err = setDuration(getenv, "FETCH_TIMEOUT", &cfg.FetchTimeout); err != nil {
		return nil, err
	}
	if err = setDuration(getenv, "CACHE_TTL", &cfg.CacheTTL); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.CacheBackend {
	case "memory", "sqlite", "redis":
	default:
		return fmt.Errorf("CACHE_BACKEND must be memory, sqlite or redis, got %q", c.CacheBackend)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.FetchRPS < 0 {
		return fmt.Errorf("FETCH_RPS must not be negative")
	}
	if c.CacheTTL < 0 || c.FetchTimeout < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

func setString(getenv func(string) string, key string, dst *string) {
	if v := getenv(key); v != "" {
		*dst = v
	}
}

func setInt(getenv func(string) string, key string, dst *int) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setFloat(getenv func(string) string, key string, dst *float64) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func setDuration(getenv func(string) string, key string, dst *time.Duration) error {
	v := getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
