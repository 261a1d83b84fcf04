// Package config provides configuration management for the race reconciler.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App             AppConfig             `mapstructure:"app" validate:"required"`
	Database        DatabaseConfig        `mapstructure:"database" validate:"required"`
	ResultsProvider ResultsProviderConfig `mapstructure:"results_provider" validate:"required"`
	Reference       ReferenceConfig       `mapstructure:"reference" validate:"required"`
	Reconciler      ReconcilerConfig      `mapstructure:"reconciler" validate:"required"`
	Cache           CacheConfig           `mapstructure:"cache"`
	Events          EventsConfig          `mapstructure:"events"`
	Metrics         MetricsConfig         `mapstructure:"metrics" validate:"required"`
	Schedule        ScheduleConfig        `mapstructure:"schedule" validate:"required"`
	Secrets         SecretsConfig         `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
	LogFormat   string `mapstructure:"log_format" validate:"omitempty,oneof=json text"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
	BetsTable          string `mapstructure:"bets_table" validate:"required,sqlident"`
}

// ResultsProviderConfig configures where race results are fetched from
type ResultsProviderConfig struct {
	Source            string  `mapstructure:"source" validate:"required,provider"`
	BaseURL           string  `mapstructure:"base_url" validate:"omitempty,url"`
	Username          string  `mapstructure:"username"`
	Password          string  `mapstructure:"password"`
	PayloadDir        string  `mapstructure:"payload_dir"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"required,gt=0"`
	Burst             int     `mapstructure:"burst" validate:"required,gt=0"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RetryAttempts     int     `mapstructure:"retry_attempts" validate:"gte=0"`
}

// ReferenceConfig configures the track reference table
type ReferenceConfig struct {
	Source string `mapstructure:"source" validate:"required,oneof=file database"`
	Path   string `mapstructure:"path"`
}

// ReconcilerConfig tunes a reconciliation run
type ReconcilerConfig struct {
	SettleWorkers         int     `mapstructure:"settle_workers" validate:"required,gt=0,lte=64"`
	DryRun                bool    `mapstructure:"dry_run"`
	MultiplePlaceFraction float64 `mapstructure:"multiple_place_fraction" validate:"required,gt=0,lte=1"`
	LookbackDays          int     `mapstructure:"lookback_days" validate:"gte=0"`
}

// CacheConfig configures the cross-run payload cache
type CacheConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	RedisAddr  string `mapstructure:"redis_addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db" validate:"gte=0"`
	TTLMinutes int    `mapstructure:"ttl_minutes" validate:"gte=0"`
	KeyPrefix  string `mapstructure:"key_prefix"`
}

// EventsConfig configures settlement event publishing
type EventsConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// ScheduleConfig represents reconciliation scheduling
type ScheduleConfig struct {
	Reconcile string `mapstructure:"reconcile" validate:"required,cronspec"`
}

// SecretsConfig points at an optional AWS Secrets Manager secret
type SecretsConfig struct {
	AWSRegion  string `mapstructure:"aws_region"`
	SecretName string `mapstructure:"secret_name"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// ProviderTimeout returns the per-request timeout for the results provider
func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.ResultsProvider.TimeoutSeconds) * time.Second
}

// CacheTTL returns how long fetched payloads stay cached
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// UsesSecretsManager reports whether secrets should be overlaid from AWS
func (c *Config) UsesSecretsManager() bool {
	return c.Secrets.SecretName != "" && c.Secrets.AWSRegion != ""
}
