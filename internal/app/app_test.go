package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Deji-py/insta-enricher/internal/config"
	"github.com/Deji-py/insta-enricher/internal/service/status"
)

func newTestApp(t *testing.T, cfg *config.Config) (*App, http.Handler) {
	t.Helper()
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/enrichment/job-1/status":
			_, _ = io.WriteString(w, `{"success":true,"data":{"id":"job-1","status":"running","total_profiles":10,"processed_profiles":4,"selected_nodes":["1"],"created_at":"2026-03-01T11:55:00Z"}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"success":false,"error":"not found"}`)
		}
	}))
	t.Cleanup(backend.Close)

	if cfg == nil {
		cfg = &config.Config{}
	}
	cfg.APIURL = backend.URL
	if cfg.PollInterval == 0 {
		cfg.PollInterval = time.Hour
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
		cfg.RateLimitBurst = 100
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	a, err := New(context.Background(), Deps{Cfg: cfg, Logger: slog.New(slog.DiscardHandler)})
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	t.Cleanup(a.Close)
	return a, a.Router()
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(context.Background(), Deps{})
	require.Error(t, err)
}

func TestRouter_Healthz(t *testing.T) {
	_, h := newTestApp(t, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestRouter_RootRedirects(t *testing.T) {
	_, h := newTestApp(t, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/ui", rr.Header().Get("Location"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ui", nil))
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/ui/upload", rr.Header().Get("Location"))
}

func TestRouter_SnapshotAPIWithCORS(t *testing.T) {
	a, h := newTestApp(t, &config.Config{CORSAllowedOrigins: []string{"https://ops.example.com"}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs/job-1/snapshot", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "https://ops.example.com", rr.Header().Get("Access-Control-Allow-Origin"))

	var snap status.Snapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Equal(t, "job-1", snap.JobID)
	assert.Equal(t, 1, a.Services.Pollers.Len())
}

func TestRouter_RateLimited(t *testing.T) {
	_, h := newTestApp(t, &config.Config{RateLimitRPS: 0.001, RateLimitBurst: 1})

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestApp_SchedulerFromConfig(t *testing.T) {
	a, _ := newTestApp(t, &config.Config{ExportSchedule: "@daily", ExportDest: t.TempDir() + "/"})
	require.NotNil(t, a.Scheduler)
}

func TestApp_CloseStopsPollers(t *testing.T) {
	a, h := newTestApp(t, nil)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/job-1/snapshot", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	a.Close()
	_, err := a.Services.Pollers.Get("job-2")
	assert.ErrorIs(t, err, status.ErrClosed)
}
