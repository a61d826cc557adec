package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TokenCache is a key-value cache with per-key expiry, backed by SQLite.
// Expired keys read as absent and are removed lazily.
type TokenCache struct {
	store *Store
}

// Tokens returns the token cache view of the store.
func (s *Store) Tokens() *TokenCache {
	return &TokenCache{store: s}
}

// Get returns the value for key. ok is false when the key is absent or expired.
func (c *TokenCache) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	var expiresAt sql.NullInt64
	err := c.store.db.QueryRowContext(ctx, `
		SELECT value, expires_at FROM token_cache WHERE key = ?
	`, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	if expiresAt.Valid && c.store.now().Unix() >= expiresAt.Int64 {
		_, err := c.store.db.ExecContext(ctx, `DELETE FROM token_cache WHERE key = ?`, key)
		return "", false, err
	}

	return value, true, nil
}

// Set stores value under key. A ttl of zero or less never expires.
func (c *TokenCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: c.store.now().Add(ttl).Unix(), Valid: true}
	}

	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO token_cache (key, value, expires_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			expires_at = excluded.expires_at,
			updated_at = CURRENT_TIMESTAMP
	`, key, value, expiresAt)
	return err
}

// Delete removes key.
func (c *TokenCache) Delete(ctx context.Context, key string) error {
	_, err := c.store.db.ExecContext(ctx, `DELETE FROM token_cache WHERE key = ?`, key)
	return err
}
