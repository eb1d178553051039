package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/bus-console-api/internal/models"
)

// MetricsService owns the console's Prometheus registry and keeps cheap counters for snapshots.
type MetricsService struct {
	registry         *prometheus.Registry
	handler          http.Handler
	requestDuration  *prometheus.HistogramVec
	requestTotal     *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	upstreamTotal    *prometheus.CounterVec
	cacheLatency     prometheus.Histogram
	cacheWrite       prometheus.Histogram
	cacheHitRatio    prometheus.Gauge
	cacheLookups     *prometheus.CounterVec
	fareRejections   *prometheus.CounterVec
	conflicts        *prometheus.CounterVec
	eventsPublished  *prometheus.CounterVec
	dbQueryDuration  *prometheus.HistogramVec

	inFlight func() int

	requestCount          uint64
	requestDurationTotal  uint64
	upstreamCount         uint64
	upstreamFailureCount  uint64
	upstreamDurationTotal uint64
	cacheHitCount         uint64
	cacheMissCount        uint64
	fareRejectionCount    uint64
	conflictCount         uint64
}

// NewMetricsService registers the console collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	m := &MetricsService{registry: registry}

	m.requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "console_http_request_duration_seconds",
		Help:    "Duration of console HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	m.requestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_http_requests_total",
		Help: "Total number of console HTTP requests",
	}, []string{"method", "path", "status"})

	m.upstreamDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "console_upstream_request_duration_seconds",
		Help:    "Duration of calls to the platform backend",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"method", "endpoint"})

	m.upstreamTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_upstream_requests_total",
		Help: "Calls to the platform backend by outcome",
	}, []string{"method", "endpoint", "outcome"})

	m.cacheLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "console_cache_latency_seconds",
		Help:    "Latency for tariff cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	m.cacheWrite = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "console_cache_write_seconds",
		Help:    "Latency for tariff cache writes",
		Buckets: prometheus.DefBuckets,
	})

	m.cacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "console_cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	m.cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_cache_lookups_total",
		Help: "Tariff cache lookups by result",
	}, []string{"result"})

	m.fareRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_fare_rejections_total",
		Help: "Schedule submissions rejected by fare validation",
	}, []string{"reason"})

	m.conflicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_schedule_conflicts_total",
		Help: "Driver or bus double bookings detected",
	}, []string{"kind"})

	m.eventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "console_schedule_events_total",
		Help: "Schedule events handed to the broker by outcome",
	}, []string{"type", "outcome"})

	m.dbQueryDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "console_db_query_duration_seconds",
		Help:    "Duration of audit store queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "console_goroutines",
		Help: "Number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	inFlight := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "console_upstream_in_flight",
		Help: "Upstream requests currently tracked by the request manager",
	}, func() float64 {
		return float64(m.inFlightCount())
	})

	registry.MustRegister(m.requestDuration, m.requestTotal, m.upstreamDuration, m.upstreamTotal,
		m.cacheLatency, m.cacheWrite, m.cacheHitRatio, m.cacheLookups, m.fareRejections, m.conflicts,
		m.eventsPublished, m.dbQueryDuration, goroutines, inFlight)

	m.handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	return m
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	return m.registry
}

// TrackInFlight wires a source for the in-flight upstream gauge, normally RequestManager.InFlight.
func (m *MetricsService) TrackInFlight(fn func() int) {
	if m == nil {
		return
	}
	m.inFlight = fn
}

func (m *MetricsService) inFlightCount() int {
	if m == nil || m.inFlight == nil {
		return 0
	}
	return m.inFlight()
}

// ObserveHTTPRequest records console request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveUpstream records one backend call. Any outcome other than "ok" counts as a failure.
func (m *MetricsService) ObserveUpstream(method, endpoint, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.upstreamDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	m.upstreamTotal.WithLabelValues(method, endpoint, outcome).Inc()
	atomic.AddUint64(&m.upstreamCount, 1)
	atomic.AddUint64(&m.upstreamDurationTotal, uint64(duration.Nanoseconds()))
	if outcome != "ok" {
		atomic.AddUint64(&m.upstreamFailureCount, 1)
	}
}

// RecordCacheOperation records a cache hit or miss and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordFareRejection counts a submission refused by fare validation.
func (m *MetricsService) RecordFareRejection(reason string) {
	if m == nil {
		return
	}
	m.fareRejections.WithLabelValues(reason).Inc()
	atomic.AddUint64(&m.fareRejectionCount, 1)
}

// RecordConflicts counts detected double bookings by kind.
func (m *MetricsService) RecordConflicts(conflicts []models.ScheduleConflict) {
	if m == nil {
		return
	}
	for _, c := range conflicts {
		m.conflicts.WithLabelValues(string(c.Kind)).Inc()
		atomic.AddUint64(&m.conflictCount, 1)
	}
}

// RecordEvent counts a schedule event delivery attempt outcome.
func (m *MetricsService) RecordEvent(eventType models.ScheduleEventType, outcome string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(string(eventType), outcome).Inc()
}

// ObserveDBQuery records audit store query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// Snapshot returns aggregated counters for the admin system endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{GeneratedAt: time.Now().UTC()}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)
	upstreamCalls := atomic.LoadUint64(&m.upstreamCount)
	upstreamDuration := atomic.LoadUint64(&m.upstreamDurationTotal)
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)

	snapshot := models.SystemMetrics{
		RequestsTotal:      requests,
		UpstreamCallsTotal: upstreamCalls,
		UpstreamFailures:   atomic.LoadUint64(&m.upstreamFailureCount),
		CacheHits:          hits,
		CacheMisses:        misses,
		FareRejections:     atomic.LoadUint64(&m.fareRejectionCount),
		ScheduleConflicts:  atomic.LoadUint64(&m.conflictCount),
		InFlightRequests:   m.inFlightCount(),
		Goroutines:         runtime.NumGoroutine(),
		GeneratedAt:        time.Now().UTC(),
	}
	if requests > 0 {
		snapshot.AverageRequestDurationMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}
	if upstreamCalls > 0 {
		snapshot.AverageUpstreamDurationMs = float64(upstreamDuration) / float64(upstreamCalls) / float64(time.Millisecond)
	}
	if hits+misses > 0 {
		snapshot.CacheHitRatio = float64(hits) / float64(hits+misses)
	}
	return snapshot
}
