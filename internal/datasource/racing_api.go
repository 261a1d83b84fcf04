package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	racingAPISource = "racing_api"

	// maxPayloadBytes caps a single results response
	maxPayloadBytes = 32 << 20
)

// RacingAPIClient implements ResultsProvider over an HTTP results API
type RacingAPIClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	username   string
	password   string
	logger     *logrus.Entry
}

// NewRacingAPIClient creates a new results API client
func NewRacingAPIClient(httpClient *RateLimitedHTTPClient, baseURL, username, password string, logger *logrus.Logger) *RacingAPIClient {
	if logger == nil {
		logger = logrus.New()
	}
	return &RacingAPIClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		password:   password,
		logger:     logger.WithField("component", racingAPISource),
	}
}

// Name returns the name of the provider
func (c *RacingAPIClient) Name() string {
	return racingAPISource
}

// FetchResults retrieves the results payload for date, narrowed to courseID when set
func (c *RacingAPIClient) FetchResults(ctx context.Context, date time.Time, courseID string) ([]byte, error) {
	endpoint := c.resultsURL(date, courseID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, NewDataSourceError(racingAPISource, ErrCodeNetworkError, "failed to create request", err)
	}
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		code := ErrCodeNetworkError
		if ctx.Err() == nil && isCircuitOpen(err) {
			code = ErrCodeCircuitOpen
		}
		return nil, NewDataSourceError(racingAPISource, code, "failed to fetch results", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, NewDataSourceError(racingAPISource, ErrCodeAuthenticationFailed, "invalid credentials", nil)
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewDataSourceError(racingAPISource, ErrCodeNotFound,
			fmt.Sprintf("no results for %s course %q", date.Format("2006-01-02"), courseID), nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewDataSourceError(racingAPISource, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, NewDataSourceError(racingAPISource, ErrCodeServerError,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, NewDataSourceError(racingAPISource, ErrCodeNetworkError, "failed to read response", err)
	}
	if !json.Valid(body) {
		return nil, NewDataSourceError(racingAPISource, ErrCodeInvalidData, "response is not valid JSON", nil)
	}

	c.logger.WithFields(logrus.Fields{
		"date":      date.Format("2006-01-02"),
		"course_id": courseID,
		"bytes":     len(body),
	}).Debug("Fetched results payload")

	return body, nil
}

func (c *RacingAPIClient) resultsURL(date time.Time, courseID string) string {
	day := date.Format("2006-01-02")
	q := url.Values{}
	q.Set("start_date", day)
	q.Set("end_date", day)
	if courseID != "" {
		q.Set("course", courseID)
	}
	return c.baseURL + "/results?" + q.Encode()
}
