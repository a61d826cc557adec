package withings

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fitsync/internal/auth"
	"fitsync/internal/errs"
	"fitsync/internal/observability"
)

const BaseURL = "https://wbsapi.withings.net"

// statusInvalidToken is the envelope status for a rejected access token;
// Withings reports it with HTTP 200.
const statusInvalidToken = 401

// Client fetches body measurements from the Withings API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     auth.TokenProvider

	now func() time.Time
}

// NewClient creates a Withings client. An empty baseURL uses the public API.
func NewClient(tokens auth.TokenProvider, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: timeout},
		Tokens:     tokens,
	}
}

type measureResponse struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Body   struct {
		MeasureGroups []MeasureGroup `json:"measuregrps"`
	} `json:"body"`
}

// GetMeasurements returns the weigh-ins of the last days days, in the order
// the API returns them.
func (c *Client) GetMeasurements(ctx context.Context, days int) ([]BodyMeasurement, error) {
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	end := now().Unix()
	start := end - int64(days)*24*60*60

	params := url.Values{}
	params.Set("action", "getmeas")
	params.Set("startdate", strconv.FormatInt(start, 10))
	params.Set("enddate", strconv.FormatInt(end, 10))

	var groups []MeasureGroup
	err := auth.WithToken(ctx, c.Tokens, "withings getmeas", func(ctx context.Context, token string) error {
		var err error
		groups, err = c.getmeas(ctx, params, token)
		return err
	})
	if err != nil {
		return nil, err
	}

	measurements := make([]BodyMeasurement, 0, len(groups))
	for _, g := range groups {
		measurements = append(measurements, g.Decode())
	}
	return measurements, nil
}

func (c *Client) getmeas(ctx context.Context, params url.Values, token string) ([]MeasureGroup, error) {
	const op = "withings getmeas"

	baseURL := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if baseURL == "" {
		baseURL = BaseURL
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/v2/measure?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := httpClient.Do(req)
	if err != nil {
		observability.RecordUpstreamRequest("withings", 0)
		return nil, errs.Transport(op, err)
	}
	defer resp.Body.Close()
	observability.RecordUpstreamRequest("withings", resp.StatusCode)

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, errs.Errorf(errs.KindUnauthorized, op, "API error %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errs.Errorf(errs.KindUpstream, op, "API error %d: %s", resp.StatusCode, string(body))
	}

	var data measureResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, errs.E(errs.KindUpstream, op, fmt.Errorf("decoding measurements: %w", err))
	}

	switch data.Status {
	case 0:
		return data.Body.MeasureGroups, nil
	case statusInvalidToken:
		return nil, errs.Errorf(errs.KindUnauthorized, op, "Withings API error %d: %s", data.Status, data.Error)
	default:
		return nil, errs.Errorf(errs.KindUpstream, op, "Withings API error %d: %s", data.Status, data.Error)
	}
}
