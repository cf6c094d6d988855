// Package ratelimit throttles outgoing RPC calls per procedure with a fixed
// one-minute window.
package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Limiter provides rate limiting functionality
type Limiter struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time

	throttled atomic.Int64

	// Configuration
	requestsPerMinute int
}

type window struct {
	start    time.Time
	requests int
}

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 600,
	}
}

// NewLimiter creates a new rate limiter
func NewLimiter(config Config) *Limiter {
	if config.RequestsPerMinute <= 0 {
		config = DefaultConfig()
	}
	return &Limiter{
		windows:           make(map[string]*window),
		now:               time.Now,
		requestsPerMinute: config.RequestsPerMinute,
	}
}

// reserve counts one call for key. It returns zero when the call may go
// now, or how long to wait for the next window.
func (rl *Limiter) reserve(key string) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= time.Minute {
		rl.windows[key] = &window{start: now, requests: 1}
		return 0
	}
	if w.requests < rl.requestsPerMinute {
		w.requests++
		return 0
	}
	return w.start.Add(time.Minute).Sub(now)
}

// Allow reports whether a call for key fits in the current window, and
// counts it if so.
func (rl *Limiter) Allow(key string) bool {
	return rl.reserve(key) == 0
}

// Wait blocks until a call for key is allowed or ctx is done.
func (rl *Limiter) Wait(ctx context.Context, key string) error {
	for {
		delay := rl.reserve(key)
		if delay == 0 {
			return nil
		}
		rl.throttled.Add(1)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Metrics for monitoring rate limit performance
type Metrics struct {
	Throttled int64
	Keys      int64
}

// GetMetrics returns current rate limiting metrics
func (rl *Limiter) GetMetrics() Metrics {
	rl.mu.Lock()
	keys := int64(len(rl.windows))
	rl.mu.Unlock()

	return Metrics{
		Throttled: rl.throttled.Load(),
		Keys:      keys,
	}
}

// Transport returns a RoundTripper that waits for the limiter before each
// request, keyed by URL path so each procedure has its own window.
func (rl *Limiter) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if err := rl.Wait(r.Context(), r.URL.Path); err != nil {
			return nil, err
		}
		return base.RoundTrip(r)
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
