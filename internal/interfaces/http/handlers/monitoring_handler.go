package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"herdbook-backend/internal/logging"
	"herdbook-backend/internal/observability"
	"herdbook-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Component status strings used by the health surface.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// MonitoringHandler serves the health, metrics and status endpoints.
type MonitoringHandler struct {
	collector *observability.Collector
	logsDir   string
	version   string
}

// NewMonitoringHandler creates a monitoring handler.
func NewMonitoringHandler(collector *observability.Collector, logsDir, version string) *MonitoringHandler {
	return &MonitoringHandler{
		collector: collector,
		logsDir:   logsDir,
		version:   version,
	}
}

// RegisterRoutes mounts the monitoring routes on the router.
func (h *MonitoringHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/health/detailed", h.DetailedHealth)
	r.Get("/metrics", h.Metrics)
	r.Get("/metrics/performance", h.PerformanceMetrics)
	r.Method(http.MethodGet, "/metrics/prometheus",
		promhttp.HandlerFor(h.collector.Registry(), promhttp.HandlerOpts{}))
	r.Get("/logs/metrics", h.LogMetrics)
	r.Get("/status", h.Status)
}

// Health handles GET /health, the basic liveness probe.
func (h *MonitoringHandler) Health(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, map[string]any{
		"status":         statusHealthy,
		"timestamp":      time.Now().UTC().Format(time.RFC3339Nano),
		"version":        h.version,
		"uptime_seconds": h.collector.GetSummary().UptimeSeconds,
	})
}

// DetailedHealth handles GET /health/detailed.
func (h *MonitoringHandler) DetailedHealth(w http.ResponseWriter, r *http.Request) {
	summary := h.collector.GetSummary()
	system := h.systemMetrics()
	components := h.componentChecks(system)

	status := statusHealthy
	for _, state := range components {
		if strings.HasPrefix(state, statusUnhealthy) {
			status = statusUnhealthy
			break
		}
		if strings.HasPrefix(state, "warning") {
			status = statusDegraded
		}
	}
	if status == statusHealthy && summary.ErrorRate > 10 {
		status = statusDegraded
	}

	code := http.StatusOK
	if status == statusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	api.Success(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system":    system,
		"service": map[string]any{
			"total_requests":        summary.TotalRequests,
			"total_errors":          summary.TotalErrors,
			"average_response_time": summary.AverageResponseTime,
			"requests_per_second":   summary.RequestsPerSecond,
			"error_rate":            summary.ErrorRate,
		},
		"components": components,
	})
}

// Metrics handles GET /metrics, the full metrics dump.
func (h *MonitoringHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	summary := h.collector.GetSummary()
	hostname, _ := os.Hostname()

	api.Success(w, http.StatusOK, map[string]any{
		"service": summary,
		"system":  h.systemMetrics(),
		"system_info": map[string]any{
			"hostname":   hostname,
			"pid":        os.Getpid(),
			"goroutines": runtime.NumGoroutine(),
			"go_version": runtime.Version(),
		},
		"uptime_seconds": summary.UptimeSeconds,
	})
}

// PerformanceMetrics handles GET /metrics/performance.
func (h *MonitoringHandler) PerformanceMetrics(w http.ResponseWriter, r *http.Request) {
	summary := h.collector.GetSummary()
	api.Success(w, http.StatusOK, map[string]any{
		"request_metrics": map[string]any{
			"total_requests":        summary.TotalRequests,
			"requests_per_second":   summary.RequestsPerSecond,
			"average_response_time": summary.AverageResponseTime,
		},
		"error_metrics": map[string]any{
			"total_errors":   summary.TotalErrors,
			"total_warnings": summary.TotalWarnings,
			"error_rate":     summary.ErrorRate,
		},
		"endpoint_metrics": summary.TopEndpoints,
	})
}

// logFileInfo describes one log file on disk.
type logFileInfo struct {
	SizeBytes int64  `json:"size_bytes"`
	Modified  string `json:"modified"`
}

// LogMetrics handles GET /logs/metrics. It scans the log directory
// and parses the main log to build a level histogram and the most
// recent errors.
func (h *MonitoringHandler) LogMetrics(w http.ResponseWriter, r *http.Request) {
	files := make(map[string]logFileInfo)
	entries, err := os.ReadDir(h.logsDir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() || !strings.Contains(entry.Name(), ".log") {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			files[entry.Name()] = logFileInfo{
				SizeBytes: info.Size(),
				Modified:  info.ModTime().UTC().Format(time.RFC3339),
			}
		}
	}

	totalEntries, levels, recentErrors := h.scanMainLog()

	api.Success(w, http.StatusOK, map[string]any{
		"total_log_entries": totalEntries,
		"log_levels":        levels,
		"recent_errors":     recentErrors,
		"log_files":         files,
	})
}

// scanMainLog reads the active main log, counting entries per level
// and keeping the last five error records.
func (h *MonitoringHandler) scanMainLog() (int, map[string]int, []map[string]any) {
	levels := make(map[string]int)
	recentErrors := make([]map[string]any, 0, 5)
	total := 0

	file, err := os.Open(filepath.Join(h.logsDir, "herdbook.log"))
	if err != nil {
		return total, levels, recentErrors
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		total++
		var record struct {
			Timestamp string `json:"@timestamp"`
			Level     string `json:"level"`
			Message   string `json:"message"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			continue
		}
		levels[record.Level]++
		if record.Level == "ERROR" || record.Level == "CRITICAL" {
			if len(recentErrors) == 5 {
				recentErrors = recentErrors[1:]
			}
			recentErrors = append(recentErrors, map[string]any{
				"timestamp": record.Timestamp,
				"level":     record.Level,
				"message":   record.Message,
			})
		}
	}
	return total, levels, recentErrors
}

// Status handles GET /status, the human-oriented summary.
func (h *MonitoringHandler) Status(w http.ResponseWriter, r *http.Request) {
	summary := h.collector.GetSummary()
	system := h.systemMetrics()
	components := h.componentChecks(system)

	status := statusHealthy
	for _, state := range components {
		if strings.HasPrefix(state, statusUnhealthy) {
			status = statusUnhealthy
			break
		}
		if strings.HasPrefix(state, "warning") {
			status = statusDegraded
		}
	}
	if status == statusHealthy && summary.ErrorRate > 10 {
		status = statusDegraded
	}

	api.Success(w, http.StatusOK, map[string]any{
		"status":     status,
		"uptime":     humanUptime(time.Since(h.collector.StartTime())),
		"components": components,
		"quick_metrics": map[string]any{
			"total_requests":        summary.TotalRequests,
			"error_rate":            summary.ErrorRate,
			"average_response_time": summary.AverageResponseTime,
		},
	})
}

// systemMetrics merges the process snapshot with disk usage for the
// log volume.
func (h *MonitoringHandler) systemMetrics() map[string]any {
	metrics := map[string]any{
		"cpu_percent":         0.0,
		"memory_percent":      0.0,
		"memory_mb":           0.0,
		"disk_usage_percent":  0.0,
		"open_files":          0,
		"network_connections": 0,
	}
	if snap, err := logging.CaptureSystem(); err == nil {
		metrics["cpu_percent"] = snap.CPUPercent
		metrics["memory_percent"] = snap.MemoryPercent
		metrics["memory_mb"] = snap.MemoryMB
		metrics["open_files"] = snap.OpenFiles
		metrics["network_connections"] = snap.Connections
	}
	if pct, err := diskUsagePercent("/"); err == nil {
		metrics["disk_usage_percent"] = pct
	}
	return metrics
}

// componentChecks evaluates each component against its thresholds.
func (h *MonitoringHandler) componentChecks(system map[string]any) map[string]string {
	components := map[string]string{
		"api": statusHealthy,
	}

	if info, err := os.Stat(h.logsDir); err != nil || !info.IsDir() {
		components["logging"] = "unhealthy: log directory unavailable"
	} else {
		components["logging"] = statusHealthy
	}

	if mem, ok := system["memory_percent"].(float64); ok {
		switch {
		case mem > 90:
			components["memory"] = fmt.Sprintf("unhealthy: %.1f%% used", mem)
		case mem > 75:
			components["memory"] = fmt.Sprintf("warning: %.1f%% used", mem)
		default:
			components["memory"] = statusHealthy
		}
	}

	if disk, ok := system["disk_usage_percent"].(float64); ok {
		switch {
		case disk > 90:
			components["disk"] = fmt.Sprintf("unhealthy: %.1f%% used", disk)
		case disk > 80:
			components["disk"] = fmt.Sprintf("warning: %.1f%% used", disk)
		default:
			components["disk"] = statusHealthy
		}
	}

	return components
}

func diskUsagePercent(path string) (float64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	if total == 0 {
		return 0, fmt.Errorf("zero-size filesystem at %s", path)
	}
	free := stat.Bavail * uint64(stat.Bsize)
	used := float64(total-free) / float64(total) * 100
	return used, nil
}

// humanUptime renders a duration as "1d 2h 3m".
func humanUptime(d time.Duration) string {
	d = d.Round(time.Minute)
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	parts := make([]string, 0, 3)
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	parts = append(parts, fmt.Sprintf("%dm", minutes))
	return strings.Join(parts, " ")
}
