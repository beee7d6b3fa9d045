package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestHealthz(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if body := readBody(t, resp); body != "ok\n" {
		t.Errorf("body = %q, want %q", body, "ok\n")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	// Touch an API route first so the request counters exist.
	resp := getURL(t, testEnv.BaseURL()+"/api/v1/posts")
	resp.Body.Close()

	resp = getURL(t, testEnv.BaseURL()+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := readBody(t, resp)
	if !strings.Contains(body, "plume_requests_total") {
		t.Error("exposition is missing plume_requests_total")
	}
	if !strings.Contains(body, "plume_request_duration_seconds") {
		t.Error("exposition is missing plume_request_duration_seconds")
	}
}
