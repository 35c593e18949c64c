package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradeboard/internal/metrics"
	"tradeboard/internal/transport/http/chart"
	"tradeboard/internal/transport/http/middleware"
	"tradeboard/internal/transport/http/preset"
)

func newServer(t *testing.T) *HTTPServer {
	t.Helper()
	reg := prometheus.NewRegistry()
	srv, err := NewHTTPServer(HTTPConfig{
		Addr:     "127.0.0.1:0",
		Chart:    chart.NewRouter(chart.Deps{}),
		Presets:  preset.NewRouter(filepath.Join(t.TempDir(), "presets.yaml")),
		Metrics:  metrics.NewWithRegistry(reg),
		Gatherer: reg,
	})
	require.NoError(t, err)
	return srv
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRoutes(t *testing.T) {
	h := newServer(t).Handler()

	index := get(h, "/")
	assert.Equal(t, http.StatusOK, index.Code)
	assert.Contains(t, index.Body.String(), "tradeboard")
	assert.NotEmpty(t, index.Header().Get(middleware.HeaderRequestID))

	assert.Equal(t, http.StatusOK, get(h, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(h, "/static/app.css").Code)
	assert.Equal(t, http.StatusOK, get(h, "/api/presets").Code)
	assert.Equal(t, http.StatusNotFound, get(h, "/api/series/missing").Code)

	m := get(h, "/metrics")
	require.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), "tradeboard_http_requests_total")
}

func TestRequestIDPassThrough(t *testing.T) {
	h := newServer(t).Handler()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(middleware.HeaderRequestID, "abc-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(middleware.HeaderRequestID))
}

func TestStartStopsOnCancel(t *testing.T) {
	srv := newServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestRequiresChartRouter(t *testing.T) {
	_, err := NewHTTPServer(HTTPConfig{})
	assert.Error(t, err)
}
