package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowPerKeyWindow(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	rl := NewLimiter(Config{RequestsPerMinute: 2})
	rl.now = func() time.Time { return now }

	steps := []struct {
		key     string
		advance time.Duration
		want    bool
	}{
		{"/api/rpc/a", 0, true},
		{"/api/rpc/a", 0, true},
		{"/api/rpc/a", 0, false},
		{"/api/rpc/b", 0, true},
		{"/api/rpc/a", 59 * time.Second, false},
		{"/api/rpc/a", time.Second, true},
	}
	for i, s := range steps {
		now = now.Add(s.advance)
		if got := rl.Allow(s.key); got != s.want {
			t.Fatalf("step %d: Allow(%s) = %v, want %v", i, s.key, got, s.want)
		}
	}

	if m := rl.GetMetrics(); m.Keys != 2 {
		t.Errorf("Keys = %d, want 2", m.Keys)
	}
}

func TestWaitHonoursContext(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1})
	if err := rl.Wait(context.Background(), "k"); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := rl.Wait(ctx, "k")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait error = %v, want deadline exceeded", err)
	}
	if m := rl.GetMetrics(); m.Throttled != 1 {
		t.Errorf("Throttled = %d, want 1", m.Throttled)
	}
}

func TestTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	rl := NewLimiter(Config{RequestsPerMinute: 1})
	client := &http.Client{Transport: rl.Transport(nil)}

	resp, err := client.Get(srv.URL + "/api/rpc/findUser")
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	resp.Body.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/rpc/findUser", nil)
	if _, err := client.Do(req); err == nil {
		t.Fatal("second request in the same window should be held back")
	}

	resp, err = client.Get(srv.URL + "/api/rpc/getAccounts")
	if err != nil {
		t.Fatalf("other procedure: %v", err)
	}
	resp.Body.Close()
}
