package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"fitsync/internal/errs"
	"fitsync/internal/observability"
)

const (
	// expirySafety is subtracted from the provider-reported lifetime
	expirySafety = 30 * time.Second
	// RefreshTokenTTL is how long a refresh token stays cached
	RefreshTokenTTL = 365 * 24 * time.Hour
	// refreshTimeout bounds a shared refresh once detached from its caller
	refreshTimeout = time.Minute
)

// Cache is a key-value store with per-key TTL. A ttl <= 0 never expires.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Credential is the result of a token exchange.
type Credential struct {
	Provider     string
	AccessToken  string
	RefreshToken string        // empty when the provider did not rotate it
	ExpiresIn    time.Duration // zero when the provider did not say
	Account      string        // provider user id, set by code exchanges
}

// Exchanger trades a refresh token for a new credential at a provider's
// token endpoint.
type Exchanger interface {
	Exchange(ctx context.Context, refreshToken string) (*Credential, error)
}

// TokenProvider is what authenticated clients need from a broker.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// Broker owns the access/refresh token pair of one provider.
// Concurrent refreshes are collapsed into one upstream call.
type Broker struct {
	provider  string
	cache     Cache
	exchanger Exchanger
	logger    *slog.Logger
	group     singleflight.Group
}

// NewBroker creates a broker for provider. A nil logger uses slog.Default().
func NewBroker(provider string, cache Cache, exchanger Exchanger, logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		provider:  provider,
		cache:     cache,
		exchanger: exchanger,
		logger:    logger.With("provider", provider),
	}
}

func (b *Broker) accessKey() string  { return b.provider + "_access_token" }
func (b *Broker) refreshKey() string { return b.provider + "_refresh_token" }

// Token returns the cached access token, refreshing when there is none.
func (b *Broker) Token(ctx context.Context) (string, error) {
	token, ok, err := b.cache.Get(ctx, b.accessKey())
	if err != nil {
		return "", errs.E(errs.KindAuthConfiguration, "read "+b.accessKey(), err)
	}
	if ok && token != "" {
		return token, nil
	}
	return b.Refresh(ctx)
}

// Refresh exchanges the cached refresh token for a new access token and
// stores the result. Failures are returned to the caller, never retried.
func (b *Broker) Refresh(ctx context.Context) (string, error) {
	v, err, shared := b.group.Do("refresh", func() (any, error) {
		// joined callers must not fail because the first caller went away
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		return b.refresh(ctx)
	})
	if shared {
		b.logger.Debug("joined in-flight token refresh")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (b *Broker) refresh(ctx context.Context) (string, error) {
	op := b.provider + " token refresh"

	refreshToken, ok, err := b.cache.Get(ctx, b.refreshKey())
	if err != nil {
		return "", errs.E(errs.KindAuthConfiguration, op, err)
	}
	if !ok || refreshToken == "" {
		return "", errs.Errorf(errs.KindAuthConfiguration, op, "no refresh token stored for %s", b.provider)
	}

	cred, err := b.exchanger.Exchange(ctx, refreshToken)
	observability.RecordTokenRefresh(b.provider, err)
	if err != nil {
		b.logger.Warn("token refresh failed", "error", err)
		var tagged *errs.Error
		if errors.As(err, &tagged) {
			return "", err
		}
		return "", errs.E(errs.KindAuthRefresh, op, err)
	}
	if cred.AccessToken == "" {
		return "", errs.Errorf(errs.KindAuthProtocol, op, "token response missing access_token")
	}

	if err := b.Store(ctx, cred); err != nil {
		return "", err
	}

	b.logger.Info("refreshed access token", "expires_in", cred.ExpiresIn)
	return cred.AccessToken, nil
}

// Store writes a credential to the cache. The access token lives for the
// reported lifetime minus a 30 second margin; without a lifetime it has no
// TTL. The refresh token is only written when present.
func (b *Broker) Store(ctx context.Context, cred *Credential) error {
	switch {
	case cred.ExpiresIn <= 0:
		if err := b.cache.Set(ctx, b.accessKey(), cred.AccessToken, 0); err != nil {
			return errs.E(errs.KindAuthConfiguration, "write "+b.accessKey(), err)
		}
	case cred.ExpiresIn > expirySafety:
		if err := b.cache.Set(ctx, b.accessKey(), cred.AccessToken, cred.ExpiresIn-expirySafety); err != nil {
			return errs.E(errs.KindAuthConfiguration, "write "+b.accessKey(), err)
		}
	default:
		// expires within the margin: use it once, do not cache
	}

	if cred.RefreshToken != "" {
		if err := b.cache.Set(ctx, b.refreshKey(), cred.RefreshToken, RefreshTokenTTL); err != nil {
			return errs.E(errs.KindAuthConfiguration, "write "+b.refreshKey(), err)
		}
	}
	return nil
}

// Seed stores an initial refresh token unless one is already cached.
func (b *Broker) Seed(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	_, ok, err := b.cache.Get(ctx, b.refreshKey())
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return b.cache.Set(ctx, b.refreshKey(), refreshToken, RefreshTokenTTL)
}
