package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"herdbook-backend/internal/observability"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMonitoringRouter(t *testing.T) (chi.Router, *observability.Collector, string) {
	t.Helper()
	collector := observability.NewCollector("test")
	logsDir := t.TempDir()
	handler := NewMonitoringHandler(collector, logsDir, "1.0.0")

	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router, collector, logsDir
}

func getJSON(t *testing.T, router chi.Router, target string) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestHealth(t *testing.T) {
	router, _, _ := newMonitoringRouter(t)

	code, body := getJSON(t, router, "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.NotEmpty(t, body["timestamp"])
	assert.Contains(t, body, "uptime_seconds")
}

func TestDetailedHealth(t *testing.T) {
	router, collector, _ := newMonitoringRouter(t)
	collector.RecordRequest("/a", "GET", 200, 0.01)

	code, body := getJSON(t, router, "/health/detailed")
	// Status depends on host memory and disk pressure, so only pin the
	// two codes the endpoint can emit.
	assert.Contains(t, []int{http.StatusOK, http.StatusServiceUnavailable}, code)

	system, ok := body["system"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"cpu_percent", "memory_percent", "memory_mb", "disk_usage_percent", "open_files", "network_connections"} {
		assert.Contains(t, system, key)
	}

	service, ok := body["service"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, service["total_requests"])

	components, ok := body["components"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "healthy", components["api"])
	assert.Equal(t, "healthy", components["logging"])
}

func TestDetailedHealthDegradedOnErrorRate(t *testing.T) {
	router, collector, _ := newMonitoringRouter(t)
	// 50% error rate, past the 10% degradation threshold.
	collector.RecordRequest("/a", "GET", 200, 0.01)
	collector.RecordRequest("/a", "GET", 500, 0.01)

	code, body := getJSON(t, router, "/health/detailed")
	if body["status"] != statusUnhealthy {
		// Degraded is still serving traffic.
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, statusDegraded, body["status"])
	}
}

func TestMetrics(t *testing.T) {
	router, collector, _ := newMonitoringRouter(t)
	collector.RecordRequest("/api/v1/breeds", "GET", 200, 0.02)

	code, body := getJSON(t, router, "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "service")
	assert.Contains(t, body, "system")
	assert.Contains(t, body, "uptime_seconds")

	info, ok := body["system_info"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, info["hostname"])
	assert.NotEmpty(t, info["go_version"])
}

func TestPerformanceMetrics(t *testing.T) {
	router, collector, _ := newMonitoringRouter(t)
	collector.RecordRequest("/api/v1/breeds", "GET", 200, 0.02)
	collector.RecordRequest("/api/v1/breeds", "GET", 500, 0.05)

	code, body := getJSON(t, router, "/metrics/performance")
	assert.Equal(t, http.StatusOK, code)

	requests := body["request_metrics"].(map[string]any)
	assert.EqualValues(t, 2, requests["total_requests"])

	errors := body["error_metrics"].(map[string]any)
	assert.EqualValues(t, 1, errors["total_errors"])
	assert.EqualValues(t, 50, errors["error_rate"])

	endpoints := body["endpoint_metrics"].([]any)
	require.Len(t, endpoints, 1)
}

func TestPrometheusEndpoint(t *testing.T) {
	router, collector, _ := newMonitoringRouter(t)
	collector.RecordRequest("/api/v1/breeds", "GET", 200, 0.02)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics/prometheus", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_http_requests_total")
}

func TestLogMetrics(t *testing.T) {
	router, _, logsDir := newMonitoringRouter(t)

	lines := []string{
		`{"@timestamp":"2026-08-29T10:00:00Z","level":"INFO","message":"Request started"}`,
		`{"@timestamp":"2026-08-29T10:00:01Z","level":"ERROR","message":"store unavailable"}`,
		`{"@timestamp":"2026-08-29T10:00:02Z","level":"INFO","message":"Request completed"}`,
	}
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	require.NoError(t, os.WriteFile(filepath.Join(logsDir, "herdbook.log"), []byte(content), 0o644))

	code, body := getJSON(t, router, "/logs/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, body["total_log_entries"])

	levels := body["log_levels"].(map[string]any)
	assert.EqualValues(t, 2, levels["INFO"])
	assert.EqualValues(t, 1, levels["ERROR"])

	recent := body["recent_errors"].([]any)
	require.Len(t, recent, 1)
	assert.Equal(t, "store unavailable", recent[0].(map[string]any)["message"])

	files := body["log_files"].(map[string]any)
	assert.Contains(t, files, "herdbook.log")
}

func TestStatus(t *testing.T) {
	router, collector, _ := newMonitoringRouter(t)
	collector.RecordRequest("/a", "GET", 200, 0.01)

	code, body := getJSON(t, router, "/status")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "uptime")
	assert.Contains(t, body, "components")

	quick := body["quick_metrics"].(map[string]any)
	assert.EqualValues(t, 1, quick["total_requests"])
}
