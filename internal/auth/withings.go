package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"fitsync/internal/errs"
	"fitsync/internal/observability"
)

const (
	WithingsAuthURL = "https://account.withings.com/oauth2_user/authorize2"
	WithingsAPIURL  = "https://wbsapi.withings.net"
	WithingsScope   = "user.metrics"
)

// WithingsExchanger talks to the Withings token endpoint, which wraps its
// response in a {status, body} envelope that x/oauth2 cannot parse.
type WithingsExchanger struct {
	Config     Config
	BaseURL    string // defaults to WithingsAPIURL
	HTTPClient *http.Client
}

type withingsTokenResponse struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
	Body   struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
		UserID       string `json:"userid"`
	} `json:"body"`
}

// Exchange implements Exchanger.
func (e *WithingsExchanger) Exchange(ctx context.Context, refreshToken string) (*Credential, error) {
	return e.request(ctx, "withings token refresh", url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	})
}

// AuthCodeURL implements Flow.
func (e *WithingsExchanger) AuthCodeURL(state string) string {
	params := url.Values{
		"response_type": {"code"},
		"client_id":     {e.Config.ClientID},
		"redirect_uri":  {e.Config.RedirectURL},
		"scope":         {WithingsScope},
		"state":         {state},
	}
	return WithingsAuthURL + "?" + params.Encode()
}

// ExchangeCode implements Flow.
func (e *WithingsExchanger) ExchangeCode(ctx context.Context, code string) (*Credential, error) {
	return e.request(ctx, "withings code exchange", url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {e.Config.RedirectURL},
	})
}

// Name implements Flow.
func (e *WithingsExchanger) Name() string { return "Withings" }

func (e *WithingsExchanger) request(ctx context.Context, op string, form url.Values) (*Credential, error) {
	if e.Config.ClientID == "" || e.Config.ClientSecret == "" {
		return nil, errs.Errorf(errs.KindAuthConfiguration, op, "client credentials not configured")
	}

	baseURL := strings.TrimRight(strings.TrimSpace(e.BaseURL), "/")
	if baseURL == "" {
		baseURL = WithingsAPIURL
	}
	httpClient := e.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	form.Set("action", "requesttoken")
	form.Set("client_id", e.Config.ClientID)
	form.Set("client_secret", e.Config.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v2/oauth2", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		observability.RecordUpstreamRequest("withings", 0)
		return nil, errs.Transport(op, err)
	}
	defer resp.Body.Close()
	observability.RecordUpstreamRequest("withings", resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errs.Errorf(errs.KindAuthRefresh, op, "token endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var data withingsTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, errs.E(errs.KindAuthProtocol, op, fmt.Errorf("decoding token response: %w", err))
	}
	if data.Status != 0 {
		return nil, errs.Errorf(errs.KindAuthRefresh, op, "Withings API error %d: %s", data.Status, data.Error)
	}
	if data.Body.AccessToken == "" {
		return nil, errs.Errorf(errs.KindAuthProtocol, op, "token response missing access_token")
	}

	return &Credential{
		Provider:     "withings",
		AccessToken:  data.Body.AccessToken,
		RefreshToken: data.Body.RefreshToken,
		ExpiresIn:    time.Duration(data.Body.ExpiresIn) * time.Second,
		Account:      data.Body.UserID,
	}, nil
}
