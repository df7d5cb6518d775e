package config

import (
	"nsplit-trader/pkg/config"
)

// Simulator holds simulator-specific configuration.
type Simulator struct {
	APIKey               string  `mapstructure:"api_key"`
	DefaultVolatilityPct float64 `mapstructure:"default_volatility_pct"`
	PriceUpdateInterval  string  `mapstructure:"price_update_interval"`
	InitialCash          float64 `mapstructure:"initial_cash"`
	HistoryRetention     string  `mapstructure:"history_retention"`
	HistoryPruneCron     string  `mapstructure:"history_prune_cron"`
}

// Config holds the full configuration for the simulator service.
type Config struct {
	App       config.App      `mapstructure:"app"`
	Logger    config.Logger   `mapstructure:"logger"`
	Database  config.Database `mapstructure:"database"`
	Redis     config.Redis    `mapstructure:"redis"`
	API       config.API      `mapstructure:"api"`
	Simulator Simulator       `mapstructure:"simulator"`
}

// Load loads the simulator configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
