package models

import "time"

// SystemMetrics is a lightweight snapshot of process level counters.
type SystemMetrics struct {
	CacheHitRatio               float64   `json:"cache_hit_ratio"`
	CacheHits                   uint64    `json:"cache_hits"`
	CacheMisses                 uint64    `json:"cache_misses"`
	RequestsTotal               uint64    `json:"requests_total"`
	AverageRequestDurationMs    float64   `json:"avg_request_duration_ms"`
	ComplianceRuns              uint64    `json:"compliance_runs"`
	AverageComplianceDurationMs float64   `json:"avg_compliance_duration_ms"`
	SubmissionsSkipped          uint64    `json:"submissions_skipped"`
	ReportQueueDepth            int       `json:"report_queue_depth"`
	Goroutines                  int       `json:"goroutines"`
	GeneratedAt                 time.Time `json:"generated_at"`
}
