// Package config loads server settings from the environment (and an
// optional .env file).
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds every server setting. Command-line flags in cmd/server
// override Port and DBPath.
type Config struct {
	Port           int      `envconfig:"PORT" default:"8080"`
	DBPath         string   `envconfig:"DB_PATH" default:"incentives.db"`
	LogLevel       string   `envconfig:"LOG_LEVEL" default:"info"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS"`
	SeedPresets    bool     `envconfig:"SEED_PRESETS" default:"true"`
}

// Prefix is prepended to every variable: INCENTIVE_PORT, INCENTIVE_DB_PATH, ...
const Prefix = "INCENTIVE"

// Load reads .env (if present) and then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &c, nil
}

// NewLogger builds a production zap logger at the configured level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}
