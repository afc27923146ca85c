package cwa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	defaultBaseURL = "https://opendata.cwa.gov.tw/api"
	datasetID      = "F-A0021-001"

	// A single retry on transport-level errors only. Upstream HTTP errors
	// are never retried.
	maxAttempts = 2
)

// FetchError reports a failure talking to the CWA API, carrying the
// upstream status and message when there is one.
type FetchError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cwa api: %s: %v", e.Message, e.Err)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("cwa api: %s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("cwa api: %s", e.Message)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Client calls the CWA open data platform.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL: opts.BaseURL,
		apiKey:  opts.APIKey,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
	}
}

// FetchForecast retrieves the tide forecast for one location. The returned
// response may contain forecasts for other locations as well; callers match
// on LocationId.
func (c *Client) FetchForecast(ctx context.Context, locationID string) (*ForecastResponse, error) {
	addr, err := url.Parse(c.baseURL + "/v1/rest/datastore/" + datasetID)
	if err != nil {
		return nil, &FetchError{Message: "building request URL", Err: err}
	}
	addr.RawQuery = c.query(locationID).Encode()

	resp, err := c.do(ctx, addr.String())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little of the body for the error message; CWA returns a
		// short text or JSON blurb on failures.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, &FetchError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("unexpected status fetching forecast: %s", snippet),
		}
	}

	var result ForecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &FetchError{Message: "decoding forecast response", Err: err}
	}

	// The platform reports application-level failures with a 200 status.
	if result.Success != "true" {
		return nil, &FetchError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("api reported success=%q", result.Success),
		}
	}

	log.Debug().Str("location_id", locationID).Msg("fetched tide forecast")
	return &result, nil
}

func (c *Client) query(locationID string) url.Values {
	vals := make(url.Values)
	vals.Add("Authorization", c.apiKey)
	vals.Add("format", "JSON")
	vals.Add("LocationId", locationID)
	return vals
}

// do issues the GET request, retrying once if the transport itself failed
// (connection reset, DNS). HTTP-level errors are returned to the caller.
func (c *Client) do(ctx context.Context, addr string) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
		if err != nil {
			return nil, &FetchError{Message: "building request", Err: err}
		}

		resp, err := c.httpClient.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt+1).Msg("cwa request failed, retrying")
	}
	return nil, &FetchError{Message: "request failed", Err: lastErr}
}
