package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pacificfuels/lcfs-backend/pkg/config"
	"github.com/pacificfuels/lcfs-backend/pkg/logger"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev", Port: "0"},
	}
}

func newTestRouter(dbErr, redisErr error) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		testConfig(),
		logg,
		stubPinger{err: dbErr},
		stubPinger{err: redisErr},
		prometheus.NewRegistry(),
	)
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if env := resp.Header().Get("X-LCFS-Env"); env != "dev" {
		t.Fatalf("env header = %q, want dev", env)
	}
	if reqID := resp.Header().Get("X-Request-Id"); reqID == "" {
		t.Fatalf("expected a generated request id header")
	}
}

func TestHealthReadyChecksDependencies(t *testing.T) {
	router := newTestRouter(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 when all dependencies answer, got %d", resp.Code)
	}

	router = newTestRouter(fmt.Errorf("connection refused"), nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when db is down, got %d", resp.Code)
	}

	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if body.Error.Details["dependency"] != "postgres" {
		t.Fatalf("dependency detail = %v, want postgres", body.Error.Details["dependency"])
	}

	router = newTestRouter(nil, fmt.Errorf("connection refused"))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when redis is down, got %d", resp.Code)
	}
}

func TestMetricsEndpointServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_counter_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	router := NewRouter(testConfig(), logg, stubPinger{}, stubPinger{}, reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(payload), "test_counter_total 1") {
		t.Fatalf("metrics output missing counter:\n%s", payload)
	}
}
