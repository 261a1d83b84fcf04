package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// Results provider sources
const (
	ProviderRacingAPI = "racing_api"
	ProviderFile      = "file"
)

var sqlIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	rules := map[string]validator.Func{
		"environment": validateEnvironment,
		"loglevel":    validateLogLevel,
		"provider":    validateProvider,
		"sqlident":    validateSQLIdentifier,
		"cronspec":    validateCronSpec,
	}
	for tag, fn := range rules {
		// registration only fails for an empty tag
		_ = v.RegisterValidation(tag, fn)
	}

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	return NewValidator().Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	if err := cv.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	return validateCrossField(cfg)
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validateProvider(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case ProviderRacingAPI, ProviderFile:
		return true
	default:
		return false
	}
}

// validateSQLIdentifier guards table names that are interpolated into queries
func validateSQLIdentifier(fl validator.FieldLevel) bool {
	return sqlIdentifier.MatchString(fl.Field().String())
}

func validateCronSpec(fl validator.FieldLevel) bool {
	_, err := cron.ParseStandard(fl.Field().String())
	return err == nil
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	switch cfg.ResultsProvider.Source {
	case ProviderRacingAPI:
		if cfg.ResultsProvider.BaseURL == "" {
			return fmt.Errorf("results_provider.base_url is required for source %q", ProviderRacingAPI)
		}
	case ProviderFile:
		if cfg.ResultsProvider.PayloadDir == "" {
			return fmt.Errorf("results_provider.payload_dir is required for source %q", ProviderFile)
		}
	}

	if cfg.Reference.Source == "file" && cfg.Reference.Path == "" {
		return fmt.Errorf("reference.path is required when reference.source is 'file'")
	}

	if cfg.Cache.Enabled && cfg.Cache.RedisAddr == "" {
		return fmt.Errorf("cache.redis_addr is required when the payload cache is enabled")
	}

	if cfg.Events.Enabled && (len(cfg.Events.Brokers) == 0 || cfg.Events.Topic == "") {
		return fmt.Errorf("events.brokers and events.topic are required when events are enabled")
	}

	if cfg.IsProduction() && cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
	}

	if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
		return fmt.Errorf("max_idle_connections cannot exceed max_connections")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var b strings.Builder
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		value := fieldError.Value()

		switch fieldError.Tag() {
		case "required":
			fmt.Fprintf(&b, "- Field '%s' is required\n", field)
		case "url":
			fmt.Fprintf(&b, "- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max", "gt", "gte", "lt", "lte":
			fmt.Fprintf(&b, "- Field '%s' validation failed: %s constraint violated\n", field, fieldError.Tag())
		case "environment":
			fmt.Fprintf(&b, "- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			fmt.Fprintf(&b, "- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "provider":
			fmt.Fprintf(&b, "- Field '%s' must be one of: %s, %s\n", field, ProviderRacingAPI, ProviderFile)
		case "sqlident":
			fmt.Fprintf(&b, "- Field '%s' must be a plain SQL identifier, got '%v'\n", field, value)
		case "cronspec":
			fmt.Fprintf(&b, "- Field '%s' must be a five-field cron expression, got '%v'\n", field, value)
		case "oneof":
			fmt.Fprintf(&b, "- Field '%s' has invalid value '%v'\n", field, value)
		default:
			fmt.Fprintf(&b, "- Field '%s' failed validation: %s\n", field, fieldError.Tag())
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", b.String())
}

// ValidateEnvironment validates environment-specific requirements
func ValidateEnvironment(cfg *Config) error {
	if cfg.IsProduction() {
		if cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires database SSL mode to be 'require' or 'verify-full'")
		}
		if isTestCredential(cfg.ResultsProvider.Username) {
			return fmt.Errorf("production environment should not use test results provider credentials")
		}
		if cfg.ResultsProvider.Source == ProviderFile {
			return fmt.Errorf("production environment must fetch results from a live provider")
		}
	}

	return nil
}

var testCredential = regexp.MustCompile(`(?i)test|demo|example|placeholder|YOUR_`)

func isTestCredential(credential string) bool {
	return testCredential.MatchString(credential)
}
