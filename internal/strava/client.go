package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fitsync/internal/auth"
	"fitsync/internal/errs"
	"fitsync/internal/observability"
)

const BaseURL = "https://www.strava.com/api/v3"

// Client is a Strava API client. Requests carry a bearer token from the
// broker and are retried once after a 401.
type Client struct {
	BaseURL     string
	HTTPClient  *http.Client
	Tokens      auth.TokenProvider
	RateLimiter *RateLimiter
}

// NewClient creates a new Strava API client.
func NewClient(tokens auth.TokenProvider, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:     BaseURL,
		HTTPClient:  &http.Client{Timeout: timeout},
		Tokens:      tokens,
		RateLimiter: NewRateLimiter(),
	}
}

// GetActivity fetches a detailed activity, including splits and laps.
// The raw response body is kept on Activity.Raw.
func (c *Client) GetActivity(ctx context.Context, id int64) (*Activity, error) {
	path := fmt.Sprintf("/activities/%d", id)

	var body []byte
	err := auth.WithToken(ctx, c.Tokens, "strava GET "+path, func(ctx context.Context, token string) error {
		var err error
		body, err = c.get(ctx, path, token)
		return err
	})
	if err != nil {
		return nil, err
	}

	var activity Activity
	if err := json.Unmarshal(body, &activity); err != nil {
		return nil, fmt.Errorf("decoding activity %d: %w", id, err)
	}
	activity.Raw = json.RawMessage(body)
	return &activity, nil
}

// RateLimitStatus returns the current rate limit status
func (c *Client) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	if c.RateLimiter == nil {
		return 0, 0
	}
	return c.RateLimiter.Status()
}

func (c *Client) get(ctx context.Context, path, token string) ([]byte, error) {
	op := "strava GET " + path

	if c.RateLimiter != nil {
		if err := c.RateLimiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	baseURL := strings.TrimRight(c.BaseURL, "/")
	if baseURL == "" {
		baseURL = BaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := httpClient.Do(req)
	if err != nil {
		observability.RecordUpstreamRequest("strava", 0)
		return nil, errs.Transport(op, err)
	}
	defer resp.Body.Close()
	observability.RecordUpstreamRequest("strava", resp.StatusCode)

	// Update rate limiter from response headers
	if c.RateLimiter != nil {
		c.RateLimiter.UpdateFromHeaders(resp.Header)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Transport(op, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, errs.Errorf(errs.KindUnauthorized, op, "API error %d: %s", resp.StatusCode, string(body))
	case resp.StatusCode == http.StatusNotFound:
		return nil, errs.Errorf(errs.KindNotFound, op, "API error %d: %s", resp.StatusCode, string(body))
	case resp.StatusCode != http.StatusOK:
		return nil, errs.Errorf(errs.KindUpstream, op, "API error %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}
