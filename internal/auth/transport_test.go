package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"fitsync/internal/errs"
)

type countingTokens struct {
	refreshes  int
	refreshErr error
}

func (c *countingTokens) Token(context.Context) (string, error) { return "old", nil }

func (c *countingTokens) Refresh(context.Context) (string, error) {
	c.refreshes++
	return "new", c.refreshErr
}

func TestWithToken(t *testing.T) {
	unauthorized := errs.E(errs.KindUnauthorized, "get", nil)

	t.Run("success needs no refresh", func(t *testing.T) {
		tokens := &countingTokens{}
		var seen []string
		err := WithToken(context.Background(), tokens, "get", func(_ context.Context, tok string) error {
			seen = append(seen, tok)
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, []string{"old"}, seen)
		assert.Equal(t, 0, tokens.refreshes)
	})

	t.Run("401 then success retries once", func(t *testing.T) {
		tokens := &countingTokens{}
		var seen []string
		err := WithToken(context.Background(), tokens, "get", func(_ context.Context, tok string) error {
			seen = append(seen, tok)
			if tok == "old" {
				return unauthorized
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, []string{"old", "new"}, seen)
		assert.Equal(t, 1, tokens.refreshes)
	})

	t.Run("second 401 is fatal", func(t *testing.T) {
		tokens := &countingTokens{}
		calls := 0
		err := WithToken(context.Background(), tokens, "get", func(context.Context, string) error {
			calls++
			return unauthorized
		})
		assert.ErrorIs(t, err, errs.ErrUpstreamAuth)
		assert.Equal(t, errs.KindUpstreamAuth, errs.KindOf(err))
		assert.True(t, errs.Fatal(err))
		assert.Equal(t, 2, calls)
		assert.Equal(t, 1, tokens.refreshes)
	})

	t.Run("refresh failure stops", func(t *testing.T) {
		tokens := &countingTokens{refreshErr: errs.E(errs.KindAuthRefresh, "refresh", nil)}
		calls := 0
		err := WithToken(context.Background(), tokens, "get", func(context.Context, string) error {
			calls++
			return unauthorized
		})
		assert.ErrorIs(t, err, errs.ErrAuthRefresh)
		assert.Equal(t, 1, calls)
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		tokens := &countingTokens{}
		boom := errors.New("boom")
		err := WithToken(context.Background(), tokens, "get", func(context.Context, string) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, tokens.refreshes)
	})
}
