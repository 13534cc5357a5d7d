// Package config loads optilist settings from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy names.
const (
	PolicyPerResource = "per-resource"
	PolicyUnified     = "unified"
)

// Store backends for the demo server.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config is the full configuration.
type Config struct {
	API    APIConfig    `yaml:"api"`
	Policy string       `yaml:"policy"`
	Log    LogConfig    `yaml:"log"`
	Server ServerConfig `yaml:"server"`
}

// APIConfig describes the remote API the client talks to.
type APIConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"` // requests per second, 0 = unlimited
	Burst     int           `yaml:"burst"`
}

// LogConfig controls logger construction.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// ServerConfig configures the demo API server.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	Store     string `yaml:"store"`
	RedisAddr string `yaml:"redis_addr"`
	Seed      bool   `yaml:"seed"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:   "https://dummyjson.com",
			Timeout:   30 * time.Second,
			RateLimit: 10,
			Burst:     5,
		},
		Policy: PolicyPerResource,
		Log:    LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{
			Addr:      ":9090",
			Store:     StoreMemory,
			RedisAddr: "localhost:6379",
			Seed:      true,
		},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("OPTILIST_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := getenv("OPTILIST_POLICY"); v != "" {
		c.Policy = v
	}
	if v := getenv("OPTILIST_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("OPTILIST_RATE_LIMIT"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("OPTILIST_RATE_LIMIT: %w", err)
		}
		c.API.RateLimit = r
	}
	if v := getenv("HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Server.RedisAddr = v
		c.Server.Store = StoreRedis
	}
	return nil
}

// Validate checks enumerated fields and required values.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	switch c.Policy {
	case PolicyPerResource, PolicyUnified:
	default:
		return fmt.Errorf("unknown policy %q (want %s or %s)", c.Policy, PolicyPerResource, PolicyUnified)
	}
	switch c.Server.Store {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("unknown server.store %q", c.Server.Store)
	}
	return nil
}

// Unified reports whether every resource should revert failed mutations.
func (c *Config) Unified() bool { return c.Policy == PolicyUnified }
