package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hit sends one GET from remoteAddr through h.
func hit(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/job-1/snapshot", nil)
	req.RemoteAddr = remoteAddr
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func limited(cfg RateLimitConfig) http.Handler {
	return NewRateLimiter(cfg).Handler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

func TestRateLimiter_BurstThenReject(t *testing.T) {
	h := limited(RateLimitConfig{RequestsPerSecond: 1, Burst: 3})

	for i := range 3 {
		rr := hit(h, "10.0.0.1:1000")
		require.Equal(t, http.StatusOK, rr.Code, "request %d", i)
		assert.Equal(t, "3", rr.Header().Get("X-RateLimit-Limit"))
	}

	rr := hit(h, "10.0.0.1:1000")
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, []string{"1", "2"}, rr.Header().Get("Retry-After"))
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, http.StatusTooManyRequests, body.Code)
	assert.Equal(t, "rate limit exceeded", body.Message)
}

func TestRateLimiter_KeysByClient(t *testing.T) {
	h := limited(RateLimitConfig{RequestsPerSecond: 0.01, Burst: 1})

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:2000").Code, "same host, new port")
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1000").Code)
}

func TestRateLimiter_ClientKey(t *testing.T) {
	tests := []struct {
		remote string
		xff    string
		trust  bool
		want   string
	}{
		{remote: "192.0.2.7:4431", want: "192.0.2.7"},
		{remote: "[2001:db8::1]:80", want: "2001:db8::1"},
		{remote: "pipe", want: "pipe"},
		{remote: "10.0.0.1:1", xff: "203.0.113.9", want: "10.0.0.1"},
		{remote: "10.0.0.1:1", xff: "203.0.113.9, 10.0.0.1", trust: true, want: "203.0.113.9"},
		{remote: "10.0.0.1:1", xff: " , 10.0.0.3", trust: true, want: "10.0.0.1"},
		{remote: "10.0.0.1:1", trust: true, want: "10.0.0.1"},
	}

	for _, tt := range tests {
		rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, TrustForwardedFor: tt.trust})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tt.remote
		if tt.xff != "" {
			req.Header.Set("X-Forwarded-For", tt.xff)
		}
		assert.Equal(t, tt.want, rl.clientKey(req), "remote=%s xff=%q trust=%v", tt.remote, tt.xff, tt.trust)
	}
}

func TestRateLimiter_SweepDropsIdleClients(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, IdleTTL: time.Minute})
	rl.now = func() time.Time { return now }

	rl.limiter("idle")
	rl.limiter("busy")
	now = now.Add(45 * time.Second)
	rl.limiter("busy")
	now = now.Add(30 * time.Second)

	assert.Equal(t, 1, rl.Sweep())
	assert.Equal(t, 0, rl.Sweep())
	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.Len(t, rl.clients, 1)
	assert.Contains(t, rl.clients, "busy")
}

func TestRateLimiter_RunStopsWithContext(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
