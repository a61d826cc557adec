package strava

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Default Strava read limits: 100 requests per 15 minutes, 1000 per day.
const (
	DefaultShortLimit = 100
	DefaultDailyLimit = 1000
	shortWindow       = 15 * time.Minute
)

// RateLimiter tracks Strava's two request windows. Usage is seeded from the
// X-RateLimit-* response headers, so the limiter stays accurate when other
// processes share the same application.
type RateLimiter struct {
	mu sync.Mutex

	short window
	daily window

	// Minimum interval between requests
	minInterval time.Duration
	lastRequest time.Time

	now func() time.Time
}

type window struct {
	limit    int
	usage    int
	resetsAt time.Time
}

// NewRateLimiter creates a rate limiter with Strava's default limits
func NewRateLimiter() *RateLimiter {
	r := &RateLimiter{
		minInterval: 150 * time.Millisecond,
		now:         time.Now,
	}
	now := r.now()
	r.short = window{limit: DefaultShortLimit, resetsAt: now.Add(shortWindow)}
	r.daily = window{limit: DefaultDailyLimit, resetsAt: nextUTCMidnight(now)}
	return r
}

// Wait blocks until a request can be made without exceeding either window.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.roll()

	for _, w := range []*window{&r.short, &r.daily} {
		if w.usage < w.limit {
			continue
		}
		if err := r.sleep(ctx, w.resetsAt.Sub(r.now())); err != nil {
			return err
		}
		r.roll()
	}

	if elapsed := r.now().Sub(r.lastRequest); elapsed < r.minInterval {
		if err := r.sleep(ctx, r.minInterval-elapsed); err != nil {
			return err
		}
	}

	r.short.usage++
	r.daily.usage++
	r.lastRequest = r.now()
	return nil
}

// sleep waits for d with the lock released. Caller holds r.mu.
func (r *RateLimiter) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	r.mu.Unlock()
	defer r.mu.Lock()

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// roll resets windows whose period has passed. Caller holds r.mu.
func (r *RateLimiter) roll() {
	now := r.now()
	if !now.Before(r.short.resetsAt) {
		r.short.usage = 0
		r.short.resetsAt = now.Add(shortWindow)
	}
	if !now.Before(r.daily.resetsAt) {
		r.daily.usage = 0
		r.daily.resetsAt = nextUTCMidnight(now)
	}
}

// UpdateFromHeaders updates rate limit state from Strava response headers.
// Strava returns X-RateLimit-Limit: "100,1000" and X-RateLimit-Usage: "34,512".
func (r *RateLimiter) UpdateFromHeaders(h http.Header) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if short, daily, ok := parsePair(h.Get("X-RateLimit-Usage")); ok {
		r.short.usage, r.daily.usage = short, daily
	}
	if short, daily, ok := parsePair(h.Get("X-RateLimit-Limit")); ok {
		r.short.limit, r.daily.limit = short, daily
	}
}

// Status returns the requests remaining in each window
func (r *RateLimiter) Status() (shortRemaining, dailyRemaining int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.short.limit - r.short.usage, r.daily.limit - r.daily.usage
}

// Usage returns current usage counts
func (r *RateLimiter) Usage() (shortUsage, dailyUsage int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.short.usage, r.daily.usage
}

func parsePair(v string) (int, int, bool) {
	a, b, found := strings.Cut(v, ",")
	if !found {
		return 0, 0, false
	}
	x, err1 := strconv.Atoi(strings.TrimSpace(a))
	y, err2 := strconv.Atoi(strings.TrimSpace(b))
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return x, y, true
}

func nextUTCMidnight(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
}
