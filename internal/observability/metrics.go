// Package observability provides the process-wide request metrics
// collector and its point-in-time summaries.
package observability

import (
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// endpointStats is one "METHOD path" rollup bucket.
type endpointStats struct {
	count     int64
	totalTime float64
	minTime   float64
	maxTime   float64
	errors    int64
	seq       int // first-seen order, breaks top-endpoint ties
}

// Collector aggregates per-request statistics for the process lifetime.
// All writes are serialized by one mutex so concurrent request handlers
// never lose updates; reads take a snapshot and compute outside the
// lock. A prometheus registry is maintained alongside the snapshot
// state for scrape-based monitoring.
type Collector struct {
	mu            sync.Mutex
	startTime     time.Time
	totalRequests int64
	totalErrors   int64
	totalWarnings int64
	responseTimes []float64
	statusCodes   map[int]int64
	endpoints     map[string]*endpointStats

	registry     *prometheus.Registry
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewCollector creates a collector. One explicitly constructed instance
// is injected into every component that records or reads metrics.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	registry.MustRegister(httpRequests, httpDuration)

	return &Collector{
		startTime:    time.Now(),
		statusCodes:  make(map[int]int64),
		endpoints:    make(map[string]*endpointStats),
		registry:     registry,
		httpRequests: httpRequests,
		httpDuration: httpDuration,
	}
}

// RecordRequest records one completed request. It always succeeds:
// every call increments exactly one status bucket and exactly one
// endpoint bucket, and appends one latency sample.
func (c *Collector) RecordRequest(endpoint, method string, statusCode int, elapsedSeconds float64) {
	c.mu.Lock()
	c.totalRequests++
	c.responseTimes = append(c.responseTimes, elapsedSeconds)
	c.statusCodes[statusCode]++

	key := method + " " + endpoint
	bucket, ok := c.endpoints[key]
	if !ok {
		bucket = &endpointStats{minTime: math.Inf(1), seq: len(c.endpoints)}
		c.endpoints[key] = bucket
	}
	bucket.count++
	bucket.totalTime += elapsedSeconds
	if elapsedSeconds < bucket.minTime {
		bucket.minTime = elapsedSeconds
	}
	if elapsedSeconds > bucket.maxTime {
		bucket.maxTime = elapsedSeconds
	}

	if statusCode >= 400 {
		bucket.errors++
		if statusCode >= 500 {
			c.totalErrors++
		} else {
			c.totalWarnings++
		}
	}
	c.mu.Unlock()

	c.httpRequests.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	c.httpDuration.WithLabelValues(method, endpoint).Observe(elapsedSeconds)
}

// EndpointSummary is one entry of the top-endpoints rollup.
type EndpointSummary struct {
	Endpoint  string  `json:"endpoint"`
	Count     int64   `json:"count"`
	TotalTime float64 `json:"total_time"`
	MinTime   float64 `json:"min_time"`
	MaxTime   float64 `json:"max_time"`
	Errors    int64   `json:"errors"`
}

// Summary is a derived point-in-time view; it is computed on read and
// never stored.
type Summary struct {
	UptimeSeconds       float64           `json:"uptime_seconds"`
	TotalRequests       int64             `json:"total_requests"`
	TotalErrors         int64             `json:"total_errors"`
	TotalWarnings       int64             `json:"total_warnings"`
	AverageResponseTime float64           `json:"average_response_time"`
	RequestsPerSecond   float64           `json:"requests_per_second"`
	ErrorRate           float64           `json:"error_rate"`
	StatusCodes         map[string]int64  `json:"status_codes"`
	TopEndpoints        []EndpointSummary `json:"top_endpoints"`
}

// GetSummary computes the current summary. The lock is held only long
// enough to snapshot state; derived values are computed afterwards so
// readers never stall writers.
func (c *Collector) GetSummary() Summary {
	c.mu.Lock()
	uptime := time.Since(c.startTime).Seconds()
	totalRequests := c.totalRequests
	totalErrors := c.totalErrors
	totalWarnings := c.totalWarnings

	var totalTime float64
	for _, t := range c.responseTimes {
		totalTime += t
	}
	sampleCount := len(c.responseTimes)

	statusCodes := make(map[string]int64, len(c.statusCodes))
	for code, n := range c.statusCodes {
		statusCodes[strconv.Itoa(code)] = n
	}

	type keyedStats struct {
		key   string
		stats endpointStats
	}
	buckets := make([]keyedStats, 0, len(c.endpoints))
	for key, stats := range c.endpoints {
		buckets = append(buckets, keyedStats{key: key, stats: *stats})
	}
	c.mu.Unlock()

	var avg float64
	if sampleCount > 0 {
		avg = totalTime / float64(sampleCount)
	}
	var rps float64
	if uptime > 0 {
		rps = float64(totalRequests) / uptime
	}
	var errorRate float64
	if totalRequests > 0 {
		errorRate = float64(totalErrors) / float64(totalRequests) * 100
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		if buckets[i].stats.count != buckets[j].stats.count {
			return buckets[i].stats.count > buckets[j].stats.count
		}
		return buckets[i].stats.seq < buckets[j].stats.seq
	})
	if len(buckets) > 10 {
		buckets = buckets[:10]
	}
	top := make([]EndpointSummary, 0, len(buckets))
	for _, b := range buckets {
		minTime := b.stats.minTime
		if math.IsInf(minTime, 1) {
			minTime = 0
		}
		top = append(top, EndpointSummary{
			Endpoint:  b.key,
			Count:     b.stats.count,
			TotalTime: round(b.stats.totalTime, 4),
			MinTime:   round(minTime, 4),
			MaxTime:   round(b.stats.maxTime, 4),
			Errors:    b.stats.errors,
		})
	}

	return Summary{
		UptimeSeconds:       round(uptime, 2),
		TotalRequests:       totalRequests,
		TotalErrors:         totalErrors,
		TotalWarnings:       totalWarnings,
		AverageResponseTime: round(avg, 4),
		RequestsPerSecond:   round(rps, 2),
		ErrorRate:           round(errorRate, 2),
		StatusCodes:         statusCodes,
		TopEndpoints:        top,
	}
}

// StartTime returns when the collector (and the process) started.
func (c *Collector) StartTime() time.Time {
	return c.startTime
}

// Registry exposes the prometheus registry for the scrape endpoint.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func round(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}
