package datasource

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/race-reconciler/internal/config"
)

// NewHTTPClientConfig derives client settings from the results provider section
func NewHTTPClientConfig(cfg config.ResultsProviderConfig) HTTPClientConfig {
	httpCfg := DefaultHTTPClientConfig()
	if cfg.TimeoutSeconds > 0 {
		httpCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if cfg.RequestsPerSecond > 0 {
		httpCfg.RateLimit = cfg.RequestsPerSecond
	}
	if cfg.Burst > 0 {
		httpCfg.Burst = cfg.Burst
	}
	httpCfg.MaxRetries = cfg.RetryAttempts
	return httpCfg
}

// NewResultsProvider creates the ResultsProvider named by cfg.Source
func NewResultsProvider(cfg config.ResultsProviderConfig, logger *logrus.Logger) (ResultsProvider, error) {
	switch cfg.Source {
	case config.ProviderRacingAPI:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("results provider %q requires a base URL", cfg.Source)
		}
		httpClient := NewRateLimitedHTTPClient(NewHTTPClientConfig(cfg), logger)
		return NewRacingAPIClient(httpClient, cfg.BaseURL, cfg.Username, cfg.Password, logger), nil

	case config.ProviderFile:
		if cfg.PayloadDir == "" {
			return nil, fmt.Errorf("results provider %q requires a payload directory", cfg.Source)
		}
		return NewFileProvider(cfg.PayloadDir), nil

	default:
		return nil, fmt.Errorf("unknown results provider: %s", cfg.Source)
	}
}

func isCircuitOpen(err error) bool {
	return errors.Is(err, ErrCircuitOpen)
}
