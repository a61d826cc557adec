package auth

import (
	"context"
	"errors"

	"fitsync/internal/errs"
)

// WithToken runs call with the provider's current access token. When call
// reports errs.ErrUnauthorized the token is refreshed exactly once and call
// is retried; a second rejection is a fatal upstream auth error.
func WithToken(ctx context.Context, tokens TokenProvider, op string, call func(ctx context.Context, token string) error) error {
	token, err := tokens.Token(ctx)
	if err != nil {
		return err
	}

	err = call(ctx, token)
	if !errors.Is(err, errs.ErrUnauthorized) {
		return err
	}

	token, err = tokens.Refresh(ctx)
	if err != nil {
		return err
	}

	err = call(ctx, token)
	if errors.Is(err, errs.ErrUnauthorized) {
		return errs.E(errs.KindUpstreamAuth, op, err)
	}
	return err
}
