package strava

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterHeaders(t *testing.T) {
	r := NewRateLimiter()

	h := http.Header{}
	h.Set("X-RateLimit-Limit", "200,2000")
	h.Set("X-RateLimit-Usage", "34,512")
	r.UpdateFromHeaders(h)

	short, daily := r.Usage()
	assert.Equal(t, 34, short)
	assert.Equal(t, 512, daily)

	shortLeft, dailyLeft := r.Status()
	assert.Equal(t, 166, shortLeft)
	assert.Equal(t, 1488, dailyLeft)
}

func TestRateLimiterIgnoresMalformedHeaders(t *testing.T) {
	r := NewRateLimiter()

	h := http.Header{}
	h.Set("X-RateLimit-Usage", "garbage")
	h.Set("X-RateLimit-Limit", "10,x")
	r.UpdateFromHeaders(h)

	shortLeft, dailyLeft := r.Status()
	assert.Equal(t, DefaultShortLimit, shortLeft)
	assert.Equal(t, DefaultDailyLimit, dailyLeft)
}

func TestRateLimiterWaitCountsUsage(t *testing.T) {
	r := NewRateLimiter()
	r.minInterval = 0

	for i := 0; i < 3; i++ {
		assert.NoError(t, r.Wait(context.Background()))
	}
	short, daily := r.Usage()
	assert.Equal(t, 3, short)
	assert.Equal(t, 3, daily)
}

func TestRateLimiterWaitHonorsContext(t *testing.T) {
	r := NewRateLimiter()
	r.short.usage = r.short.limit

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := r.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiterRollsWindows(t *testing.T) {
	r := NewRateLimiter()
	r.minInterval = 0
	now := time.Now()
	r.now = func() time.Time { return now }
	r.short.usage = r.short.limit
	r.short.resetsAt = now.Add(-time.Second)

	assert.NoError(t, r.Wait(context.Background()))
	short, _ := r.Usage()
	assert.Equal(t, 1, short)
}
