package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. RECONCILER_DATABASE_HOST
	EnvPrefix = "RECONCILER"

	// DefaultConfigPath is used when no path is given
	DefaultConfigPath = "config/config.yaml"
)

// Load reads and parses the configuration from file and environment variables.
// ${VAR} placeholders in the YAML file are expanded before parsing.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	setDefaults(v)

	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults behaves like Load but tolerates a missing file, relying on
// defaults and environment variables instead
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// setDefaults registers every optional key so environment overrides apply even
// when the file omits it
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "race-reconciler")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "text")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)
	v.SetDefault("database.bets_table", "bets")

	v.SetDefault("results_provider.source", "racing_api")
	v.SetDefault("results_provider.requests_per_second", 2.0)
	v.SetDefault("results_provider.burst", 1)
	v.SetDefault("results_provider.timeout_seconds", 30)
	v.SetDefault("results_provider.retry_attempts", 3)

	v.SetDefault("reference.source", "file")
	v.SetDefault("reference.path", "config/courses.yaml")

	v.SetDefault("reconciler.settle_workers", 1)
	v.SetDefault("reconciler.dry_run", false)
	v.SetDefault("reconciler.multiple_place_fraction", 0.2)
	v.SetDefault("reconciler.lookback_days", 0)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.ttl_minutes", 360)
	v.SetDefault("cache.key_prefix", "results:")

	v.SetDefault("events.enabled", false)
	v.SetDefault("events.topic", "bet.settled")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("schedule.reconcile", "*/30 * * * *")
}

// ReloadFromEnv reloads the configuration from RECONCILER_CONFIG_PATH when set
func ReloadFromEnv(cfg *Config) error {
	if envPath := os.Getenv(EnvPrefix + "_CONFIG_PATH"); envPath != "" {
		newCfg, err := Load(envPath)
		if err != nil {
			return err
		}
		*cfg = *newCfg
	}

	return nil
}
