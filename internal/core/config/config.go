package config

import (
	"time"

	"github.com/r0zar/innkeeper/internal/events"
	redisclient "github.com/r0zar/innkeeper/internal/infra/redis"
	"github.com/r0zar/innkeeper/internal/infra/stacks"
	"github.com/r0zar/innkeeper/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server     ServerConfig       `yaml:"server"`
	API        stacks.Config      `yaml:"api"`
	Validation ValidationConfig   `yaml:"validation"`
	Redis      redisclient.Config `yaml:"redis"`
	NATS       events.Config      `yaml:"nats"`
	Logging    LoggingConfig      `yaml:"logging"`
	Database   postgres.Config    `yaml:"database"`
}

// ServerConfig holds ops HTTP server settings (health + metrics).
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// ValidationConfig holds the runner's scheduling tunables. Intervals are
// status-dependent: failures are revisited less eagerly than successes.
type ValidationConfig struct {
	SweepInterval   time.Duration `yaml:"sweep_interval"`
	SuccessInterval time.Duration `yaml:"success_interval"`
	ErrorInterval   time.Duration `yaml:"error_interval"`
	RecentSwapLimit int           `yaml:"recent_swap_limit"`
	PriceCacheTTL   time.Duration `yaml:"price_cache_ttl"`
}
