package models

import "time"

// SystemMetrics is a point-in-time snapshot of console health counters.
type SystemMetrics struct {
	RequestsTotal             uint64    `json:"requests_total"`
	AverageRequestDurationMs  float64   `json:"average_request_duration_ms"`
	UpstreamCallsTotal        uint64    `json:"upstream_calls_total"`
	UpstreamFailures          uint64    `json:"upstream_failures"`
	AverageUpstreamDurationMs float64   `json:"average_upstream_duration_ms"`
	CacheHits                 uint64    `json:"cache_hits"`
	CacheMisses               uint64    `json:"cache_misses"`
	CacheHitRatio             float64   `json:"cache_hit_ratio"`
	FareRejections            uint64    `json:"fare_rejections"`
	ScheduleConflicts         uint64    `json:"schedule_conflicts"`
	InFlightRequests          int       `json:"in_flight_requests"`
	Goroutines                int       `json:"goroutines"`
	GeneratedAt               time.Time `json:"generated_at"`
}
