package trace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestTransportStampsHeaders(t *testing.T) {
	var gotID, gotSession string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(HeaderRequestID)
		gotSession = r.Header.Get(HeaderSession)
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := NewTransport(nil, "s1")
	client := &http.Client{Transport: tr}

	req, _ := http.NewRequestWithContext(WithRequestID(context.Background(), "req_fixed"), http.MethodPost, srv.URL+"/ok", nil)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if gotID != "req_fixed" {
		t.Errorf("request id = %q, want req_fixed", gotID)
	}
	if gotSession != "s1" {
		t.Errorf("session = %q, want s1", gotSession)
	}
	if req.Header.Get(HeaderRequestID) != "" {
		t.Error("caller's request was modified")
	}

	resp, err = client.Post(srv.URL+"/fail", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if !strings.HasPrefix(gotID, "req_") || gotID == "req_fixed" {
		t.Errorf("generated request id = %q", gotID)
	}

	m := tr.GetMetrics()
	if m.TotalRequests != 2 || m.Failures != 1 {
		t.Errorf("metrics = %+v, want 2 requests and 1 failure", m)
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateRequestID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
