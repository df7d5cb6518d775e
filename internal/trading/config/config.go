package config

import (
	"nsplit-trader/pkg/config"
)

// Worker holds strategy worker configuration.
type Worker struct {
	PollingInterval string `mapstructure:"polling_interval"`
	SessionLockTTL  string `mapstructure:"session_lock_ttl"`
}

// Simulator holds the client configuration for the simulated exchange.
type Simulator struct {
	BaseURL             string `mapstructure:"base_url"`
	APIKey              string `mapstructure:"api_key"`
	Timeout             string `mapstructure:"timeout"`
	MaxRetries          int    `mapstructure:"max_retries"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Config holds the full configuration for the trading service.
type Config struct {
	App       config.App      `mapstructure:"app"`
	Logger    config.Logger   `mapstructure:"logger"`
	Database  config.Database `mapstructure:"database"`
	Redis     config.Redis    `mapstructure:"redis"`
	API       config.API      `mapstructure:"api"`
	Telegram  config.Telegram `mapstructure:"telegram"`
	Worker    Worker          `mapstructure:"worker"`
	Simulator Simulator       `mapstructure:"simulator"`
}

// Load loads the trading service configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
