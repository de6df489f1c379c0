// Package config defines the engine's configuration surface.
package config

import (
	"fmt"
	"time"

	"github.com/farescout/farescout/internal/infra/provider/googleflights"
)

// StoreBackend enumerates the supported job store backends.
type StoreBackend string

const (
	StoreBackendMemory   StoreBackend = "memory"
	StoreBackendRedis    StoreBackend = "redis"
	StoreBackendPostgres StoreBackend = "postgres"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig selects and configures the job store backend.
type StoreConfig struct {
	Backend StoreBackend `yaml:"backend"`

	// RedisURL configures the redis backend, e.g. "redis://localhost:6379/0".
	RedisURL string `yaml:"redis_url,omitempty"`

	// PostgresDSN configures the postgres backend.
	PostgresDSN string `yaml:"postgres_dsn,omitempty"`

	// RetentionTTL is how long finished jobs remain pollable.
	RetentionTTL time.Duration `yaml:"retention_ttl"`
}

// ProviderConfig wraps the flight data provider settings.
type ProviderConfig struct {
	googleflights.Config `yaml:",inline"`

	// RequestsPerSecond paces provider calls across all running jobs.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// Config is the top-level configuration document.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Provider ProviderConfig `yaml:"provider"`
}

// Default values applied by Normalize for fields left unset.
const (
	DefaultPort            = 8000
	DefaultShutdownTimeout = 20 * time.Second
	DefaultRetentionTTL    = time.Hour
	DefaultRPS             = 1.0
	DefaultBurst           = 1
)

// Normalize fills unset fields with defaults and validates what remains.
func (c *Config) Normalize() error {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Store.Backend == "" {
		c.Store.Backend = StoreBackendMemory
	}
	if c.Store.RetentionTTL <= 0 {
		c.Store.RetentionTTL = DefaultRetentionTTL
	}
	if c.Provider.RequestsPerSecond <= 0 {
		c.Provider.RequestsPerSecond = DefaultRPS
	}
	if c.Provider.Burst <= 0 {
		c.Provider.Burst = DefaultBurst
	}

	switch c.Store.Backend {
	case StoreBackendMemory:
	case StoreBackendRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store.redis_url is required for the redis backend")
		}
	case StoreBackendPostgres:
		if c.Store.PostgresDSN == "" {
			return fmt.Errorf("store.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}

	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url is required")
	}
	return nil
}
