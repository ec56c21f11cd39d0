// Package config loads the optional handc.yaml project configuration.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config represents the handc configuration
type Config struct {
	Build     BuildConfig  `mapstructure:"build"`
	Approvals []string     `mapstructure:"approvals"`
	Oracle    OracleConfig `mapstructure:"oracle"`
}

// BuildConfig represents build configuration
type BuildConfig struct {
	Level int    `mapstructure:"level"`
	Out   string `mapstructure:"out"`
}

// OracleConfig represents equivalence-oracle configuration
type OracleConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Python         string `mapstructure:"python"`
}

// Load loads the configuration from handc.yml or handc.yaml, falling back to
// defaults when no file exists.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("build.level", 2)
	v.SetDefault("build.out", "dist")
	v.SetDefault("oracle.timeout_seconds", 10)
	v.SetDefault("oracle.python", "python3")

	v.SetConfigName("handc")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.Build.Level < 1 || cfg.Build.Level > 4 {
		return fmt.Errorf("build.level must be 1..4, got: %d", cfg.Build.Level)
	}
	if cfg.Oracle.TimeoutSeconds <= 0 {
		return fmt.Errorf("oracle.timeout_seconds must be positive, got: %d", cfg.Oracle.TimeoutSeconds)
	}
	return nil
}
