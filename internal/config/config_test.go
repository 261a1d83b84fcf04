package config

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

const (
	validConfigPath              = "testdata/valid_config.yaml"
	expansionConfigPath          = "testdata/expansion_config.yaml"
	minimalConfigPath            = "testdata/minimal_config.yaml"
	nonexistentConfigPath        = "testdata/nonexistent_config.yaml"
	expectedNoErrorLoadingConfig = "expected no error loading config, got %v"
	expectedNoErrorMsg           = "expected no error, got %v"
	expectedNonNilConfig         = "expected non-nil config"
	reconcilerName               = "race-reconciler"
	developmentEnv               = "development"
	localhostHost                = "localhost"
	postgresPort                 = 5432
	postgresPrefix               = "postgres://"
	testAppName                  = "test-app"
	expandedSecretValue          = "expanded_secret_value"
)

func loadValid(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}
	return cfg
}

// TestLoadConfigSuccess tests loading a valid configuration file
func TestLoadConfigSuccess(t *testing.T) {
	cfg := loadValid(t)
	if cfg == nil {
		t.Fatal(expectedNonNilConfig)
	}

	if cfg.App.Name != reconcilerName {
		t.Errorf("expected app name '%s', got '%s'", reconcilerName, cfg.App.Name)
	}
	if cfg.App.Environment != developmentEnv {
		t.Errorf("expected environment '%s', got '%s'", developmentEnv, cfg.App.Environment)
	}
	if cfg.Database.Host != localhostHost {
		t.Errorf("expected database host '%s', got '%s'", localhostHost, cfg.Database.Host)
	}
	if cfg.Database.Port != postgresPort {
		t.Errorf("expected database port %d, got %d", postgresPort, cfg.Database.Port)
	}
	if cfg.Reconciler.SettleWorkers != 4 {
		t.Errorf("expected 4 settle workers, got %d", cfg.Reconciler.SettleWorkers)
	}
	if len(cfg.Events.Brokers) != 1 || cfg.Events.Brokers[0] != "localhost:9092" {
		t.Errorf("unexpected brokers %v", cfg.Events.Brokers)
	}
	if cfg.CacheTTL().Hours() != 6 {
		t.Errorf("expected a 6h cache ttl, got %s", cfg.CacheTTL())
	}
}

// TestLoadConfigFileNotFound tests handling of missing configuration file
func TestLoadConfigFileNotFound(t *testing.T) {
	if _, err := Load(nonexistentConfigPath); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

// TestLoadConfigEnvironmentVariables tests environment variable override
func TestLoadConfigEnvironmentVariables(t *testing.T) {
	t.Setenv("RECONCILER_APP_NAME", testAppName)
	t.Setenv("RECONCILER_RECONCILER_SETTLE_WORKERS", "8")

	cfg := loadValid(t)
	if cfg.App.Name != testAppName {
		t.Errorf("expected app name '%s' from environment, got '%s'", testAppName, cfg.App.Name)
	}
	if cfg.Reconciler.SettleWorkers != 8 {
		t.Errorf("expected 8 settle workers from environment, got %d", cfg.Reconciler.SettleWorkers)
	}
}

// TestLoadConfigEnvironmentVariableExpansion tests ${VAR} expansion in the config file
func TestLoadConfigEnvironmentVariableExpansion(t *testing.T) {
	t.Setenv("TEST_DB_PASSWORD", expandedSecretValue)
	t.Setenv("TEST_PAYLOAD_DIR", "/var/lib/payloads")

	cfg, err := Load(expansionConfigPath)
	if err != nil {
		t.Fatalf("expected no error loading config with expansion, got %v", err)
	}

	if cfg.Database.Password != expandedSecretValue {
		t.Errorf("expected password '%s' from environment expansion, got '%s'", expandedSecretValue, cfg.Database.Password)
	}
	if cfg.ResultsProvider.PayloadDir != "/var/lib/payloads" {
		t.Errorf("expected expanded payload dir, got '%s'", cfg.ResultsProvider.PayloadDir)
	}
	if cfg.Reconciler.SettleWorkers != 1 {
		t.Errorf("expected default settle workers 1, got %d", cfg.Reconciler.SettleWorkers)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf(expectedNoErrorMsg, err)
	}
}

// TestLoadWithDefaultsMissingFile tests that defaults apply without a config file
func TestLoadWithDefaultsMissingFile(t *testing.T) {
	cfg, err := LoadWithDefaults(nonexistentConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg.ResultsProvider.Source != ProviderRacingAPI {
		t.Errorf("expected default provider '%s', got '%s'", ProviderRacingAPI, cfg.ResultsProvider.Source)
	}
	if cfg.Reconciler.MultiplePlaceFraction != 0.2 {
		t.Errorf("expected default place fraction 0.2, got %v", cfg.Reconciler.MultiplePlaceFraction)
	}
	if cfg.Events.Topic != "bet.settled" {
		t.Errorf("expected default topic 'bet.settled', got '%s'", cfg.Events.Topic)
	}
}

// TestValidateSuccess tests validation of a valid configuration
func TestValidateSuccess(t *testing.T) {
	if err := Validate(loadValid(t)); err != nil {
		t.Fatalf("expected no validation error, got %v", err)
	}
}

// TestValidateMinimalConfig tests that defaults complete a minimal file
func TestValidateMinimalConfig(t *testing.T) {
	cfg, err := Load(minimalConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("expected no validation error, got %v", err)
	}
}

// TestValidateFieldRules tests the custom and built-in field rules
func TestValidateFieldRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"environment", func(c *Config) { c.App.Environment = "invalid" }, "Environment"},
		{"log level", func(c *Config) { c.App.LogLevel = "verbose" }, "LogLevel"},
		{"provider", func(c *Config) { c.ResultsProvider.Source = "ftp" }, "Source"},
		{"bets table", func(c *Config) { c.Database.BetsTable = "bets; drop table bets" }, "BetsTable"},
		{"schedule", func(c *Config) { c.Schedule.Reconcile = "every day" }, "Reconcile"},
		{"workers", func(c *Config) { c.Reconciler.SettleWorkers = 0 }, "SettleWorkers"},
		{"place fraction", func(c *Config) { c.Reconciler.MultiplePlaceFraction = 1.5 }, "MultiplePlaceFraction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadValid(t)
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatalf("expected validation error for %s", tt.name)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %s, got: %v", tt.want, err)
			}
		})
	}
}

// TestValidateCrossField tests rules spanning several sections
func TestValidateCrossField(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"api without base url", func(c *Config) { c.ResultsProvider.BaseURL = "" }},
		{"file without payload dir", func(c *Config) { c.ResultsProvider.Source = ProviderFile }},
		{"reference file without path", func(c *Config) { c.Reference.Path = "" }},
		{"cache without redis", func(c *Config) { c.Cache.RedisAddr = "" }},
		{"events without brokers", func(c *Config) { c.Events.Brokers = nil }},
		{"idle above max", func(c *Config) { c.Database.MaxIdleConnections = 20 }},
		{"production without ssl", func(c *Config) { c.App.Environment = "production" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadValid(t)
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Fatalf("expected validation error for %s", tt.name)
			}
		})
	}
}

// TestValidateEnvironment tests production-only requirements
func TestValidateEnvironment(t *testing.T) {
	cfg := loadValid(t)
	if err := ValidateEnvironment(cfg); err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	cfg.App.Environment = "production"
	cfg.Database.SSLMode = "require"
	cfg.ResultsProvider.Username = "demo-user"
	if err := ValidateEnvironment(cfg); err == nil {
		t.Fatal("expected error for test credentials in production")
	}

	cfg.ResultsProvider.Username = "reconciler"
	if err := ValidateEnvironment(cfg); err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}
}

// TestGetDatabaseDSN tests DSN generation
func TestGetDatabaseDSN(t *testing.T) {
	dsn := loadValid(t).GetDatabaseDSN()
	if !strings.HasPrefix(dsn, postgresPrefix) {
		t.Errorf("expected DSN to start with '%s', got '%s'", postgresPrefix, dsn)
	}
	if !strings.Contains(dsn, "sslmode=disable") {
		t.Errorf("expected DSN to carry the ssl mode, got '%s'", dsn)
	}
}

// TestEnvironmentChecks tests the environment helpers
func TestEnvironmentChecks(t *testing.T) {
	cfg := &Config{App: AppConfig{Environment: developmentEnv}}
	if !cfg.IsDevelopment() || cfg.IsProduction() || cfg.IsStaging() {
		t.Error("expected only IsDevelopment() to be true")
	}

	cfg.App.Environment = "staging"
	if !cfg.IsStaging() || cfg.IsDevelopment() {
		t.Error("expected only IsStaging() to be true")
	}

	cfg.App.Environment = "production"
	if !cfg.IsProduction() || cfg.IsStaging() {
		t.Error("expected only IsProduction() to be true")
	}
}

type fakeSecretsClient struct {
	output *secretsmanager.GetSecretValueOutput
	err    error
}

func (f *fakeSecretsClient) GetSecretValue(_ context.Context, _ *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	return f.output, f.err
}

// TestSecretsOverlay tests applying AWS secrets onto the configuration
func TestSecretsOverlay(t *testing.T) {
	client := &fakeSecretsClient{output: &secretsmanager.GetSecretValueOutput{
		SecretString: aws.String(`{"database_password": "from-aws", "results_provider_password": "api-secret"}`),
	}}

	secrets, err := fetchSecrets(context.Background(), client, "reconciler/prod")
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	cfg := loadValid(t)
	overlaySecretsOnConfig(cfg, secrets)

	if cfg.Database.Password != "from-aws" {
		t.Errorf("expected database password from secrets, got '%s'", cfg.Database.Password)
	}
	if cfg.ResultsProvider.Password != "api-secret" {
		t.Errorf("expected provider password from secrets, got '%s'", cfg.ResultsProvider.Password)
	}
	if cfg.ResultsProvider.Username != "reconciler" {
		t.Errorf("expected provider username to be kept, got '%s'", cfg.ResultsProvider.Username)
	}
}

// TestSecretsErrors tests secret retrieval failures
func TestSecretsErrors(t *testing.T) {
	_, err := fetchSecrets(context.Background(), &fakeSecretsClient{err: errors.New("denied")}, "x")
	if err == nil {
		t.Fatal("expected error when the secret cannot be read")
	}

	_, err = parseSecretData(&secretsmanager.GetSecretValueOutput{})
	if !errors.Is(err, errNoSecretData) {
		t.Errorf("expected errNoSecretData, got %v", err)
	}

	_, err = parseSecretData(&secretsmanager.GetSecretValueOutput{SecretString: aws.String("not json")})
	if err == nil {
		t.Error("expected error for malformed secret JSON")
	}

	cfg := &Config{}
	if err := LoadSecretsFromAWS(context.Background(), cfg); err != nil {
		t.Errorf("expected no-op without a configured secret, got %v", err)
	}
}
