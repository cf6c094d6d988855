// Package trace tags outgoing RPC requests so server logs can be matched
// with client logs, and keeps call metrics.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// ContextKey type for context keys
type ContextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey ContextKey = "request_id"

	HeaderRequestID = "X-Request-ID"
	HeaderSession   = "X-Session-ID"
)

// Transport is an http.RoundTripper that stamps each request with a
// request ID and the session ID before handing it to Base.
type Transport struct {
	Base    http.RoundTripper
	Session string

	total    atomic.Int64
	failures atomic.Int64
	elapsed  atomic.Int64 // microseconds, summed
}

// Metrics tracks request metrics
type Metrics struct {
	TotalRequests       int64
	Failures            int64
	AverageResponseTime int64 // in microseconds
}

// NewTransport wraps base. A nil base means http.DefaultTransport.
func NewTransport(base http.RoundTripper, session string) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Session: session}
}

func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()

	ctx := r.Context()
	requestID := GetRequestID(ctx)
	if requestID == "" {
		requestID = GenerateRequestID()
		ctx = WithRequestID(ctx, requestID)
	}

	// RoundTrip must not modify the caller's request.
	r = r.Clone(ctx)
	r.Header.Set(HeaderRequestID, requestID)
	if t.Session != "" {
		r.Header.Set(HeaderSession, t.Session)
	}

	resp, err := t.Base.RoundTrip(r)

	duration := time.Since(start)
	t.total.Add(1)
	t.elapsed.Add(duration.Microseconds())

	status := 0
	if err != nil {
		t.failures.Add(1)
	} else {
		status = resp.StatusCode
		if status >= 500 {
			t.failures.Add(1)
		}
	}

	slog.DebugContext(ctx, "RPC request sent",
		"request_id", requestID,
		"path", r.URL.Path,
		"status_code", status,
		"duration_ms", duration.Milliseconds())

	return resp, err
}

// GetMetrics returns current metrics
func (t *Transport) GetMetrics() Metrics {
	m := Metrics{
		TotalRequests: t.total.Load(),
		Failures:      t.failures.Load(),
	}
	if m.TotalRequests > 0 {
		m.AverageResponseTime = t.elapsed.Load() / m.TotalRequests
	}
	return m
}

// GenerateRequestID creates a unique request ID for tracing
func GenerateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// WithRequestID returns a context carrying id. Requests sent with it reuse
// the id instead of generating one.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
