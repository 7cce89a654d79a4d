package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 10 * time.Second
	}
	if cfg.API.MaxRetries == 0 {
		cfg.API.MaxRetries = 3
	}
	if cfg.API.RetryBaseDelay == 0 {
		cfg.API.RetryBaseDelay = 100 * time.Millisecond
	}
	if cfg.Validation.SweepInterval == 0 {
		cfg.Validation.SweepInterval = 5 * time.Minute
	}
	if cfg.Validation.SuccessInterval == 0 {
		cfg.Validation.SuccessInterval = 10 * time.Minute
	}
	if cfg.Validation.ErrorInterval == 0 {
		cfg.Validation.ErrorInterval = 15 * time.Minute
	}
	if cfg.Validation.RecentSwapLimit == 0 {
		cfg.Validation.RecentSwapLimit = 200
	}
	if cfg.Validation.PriceCacheTTL == 0 {
		cfg.Validation.PriceCacheTTL = time.Minute
	}
}
