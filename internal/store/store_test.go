package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// newTestStore opens an in-memory store with a controllable clock.
func newTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()
	s, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	return s, &now
}
