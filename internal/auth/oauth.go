package auth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"fitsync/internal/errs"
)

const (
	// Strava OAuth endpoints
	StravaAuthURL  = "https://www.strava.com/oauth/authorize"
	StravaTokenURL = "https://www.strava.com/api/v3/oauth/token"
)

// StravaScopes are requested during the authorization-code flow
// (Strava uses comma-separated scopes).
var StravaScopes = []string{
	"read,activity:read_all",
}

// Config holds the OAuth client credentials of one provider.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "http://localhost:8089/callback"
}

// NewStravaOAuthConfig creates an oauth2.Config for Strava. tokenURL
// overrides the token endpoint when non-empty.
func NewStravaOAuthConfig(cfg Config, tokenURL string) *oauth2.Config {
	if tokenURL == "" {
		tokenURL = StravaTokenURL
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   StravaAuthURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: cfg.RedirectURL,
		Scopes:      StravaScopes,
	}
}

// StravaExchanger refreshes Strava tokens through golang.org/x/oauth2.
type StravaExchanger struct {
	OAuth      *oauth2.Config
	HTTPClient *http.Client // optional
}

// Exchange implements Exchanger.
func (e *StravaExchanger) Exchange(ctx context.Context, refreshToken string) (*Credential, error) {
	if e.OAuth.ClientID == "" || e.OAuth.ClientSecret == "" {
		return nil, errs.Errorf(errs.KindAuthConfiguration, "strava token refresh", "client credentials not configured")
	}
	ctx = e.withClient(ctx)

	token, err := e.OAuth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, classifyOAuthError("strava token refresh", err)
	}
	return credentialFromToken("strava", token), nil
}

// AuthCodeURL implements Flow.
func (e *StravaExchanger) AuthCodeURL(state string) string {
	return e.OAuth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// ExchangeCode implements Flow.
func (e *StravaExchanger) ExchangeCode(ctx context.Context, code string) (*Credential, error) {
	token, err := e.OAuth.Exchange(e.withClient(ctx), code)
	if err != nil {
		return nil, classifyOAuthError("strava code exchange", err)
	}
	cred := credentialFromToken("strava", token)
	if cred.AccessToken == "" {
		return nil, errs.Errorf(errs.KindAuthProtocol, "strava code exchange", "token response missing access_token")
	}
	if id := ExtractAthleteID(token); id != 0 {
		cred.Account = strconv.FormatInt(id, 10)
	}
	return cred, nil
}

// Name implements Flow.
func (e *StravaExchanger) Name() string { return "Strava" }

func (e *StravaExchanger) withClient(ctx context.Context) context.Context {
	if e.HTTPClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, e.HTTPClient)
}

// ExtractAthleteID extracts the athlete ID from the token extras.
// Strava includes athlete info in the authorization-code response.
func ExtractAthleteID(token *oauth2.Token) int64 {
	if athlete, ok := token.Extra("athlete").(map[string]interface{}); ok {
		if id, ok := athlete["id"].(float64); ok {
			return int64(id)
		}
	}
	return 0
}

func credentialFromToken(provider string, token *oauth2.Token) *Credential {
	cred := &Credential{
		Provider:     provider,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if !token.Expiry.IsZero() {
		cred.ExpiresIn = time.Until(token.Expiry).Round(time.Second)
	}
	return cred
}

// classifyOAuthError maps x/oauth2 failures onto the error taxonomy
func classifyOAuthError(op string, err error) error {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		return errs.E(errs.KindAuthRefresh, op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return errs.Transport(op, err)
	}
	// unparsable body or missing access_token
	return errs.E(errs.KindAuthProtocol, op, err)
}
