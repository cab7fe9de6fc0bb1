// Package observability provides OpenTelemetry metrics (Prometheus exporter),
// optional tracing, and trace-aware structured logging for the taste hub.
package observability

// Metric names (Prometheus / OpenTelemetry).
const (
	MetricNameRequestCount        = "http.server.request_count"
	MetricNameRequestDuration     = "http.server.duration"
	MetricNameRequestBodyTooLarge = "taste_request_body_too_large_total"
	MetricNameSearches            = "taste_searches_total"
	MetricNameSearchDuration      = "taste_search_duration_seconds"
	MetricNameFeedback            = "taste_feedback_total"
	MetricNameIngestEvents        = "taste_ingest_events_total"
	MetricNameEmbeddingDuration   = "taste_embedding_duration_seconds"
	MetricNameQueueDepth          = "taste_ingest_queue_depth"
	MetricNameCacheHits           = "taste_cache_hits_total"
	MetricNameCacheMisses         = "taste_cache_misses_total"
)

// Attribute keys.
const (
	AttrOutcome   = "outcome"
	AttrFeedback  = "feedback"
	AttrOperation = "operation"
	AttrCache     = "cache"
	AttrQueue     = "queue"
	AttrStatus    = "status"
)

// normalizeFeedback maps feedback values to a bounded set for cardinality control.
func normalizeFeedback(s string) string {
	switch s {
	case "more", "less", "perfect":
		return s
	default:
		return "unknown"
	}
}

// normalizeFeedbackOutcome maps feedback apply outcomes to a bounded set.
func normalizeFeedbackOutcome(s string) string {
	switch s {
	case "updated", "not_found", "invalid", "error":
		return s
	default:
		return "unknown"
	}
}

// normalizeSearchOutcome maps search outcomes to a bounded set.
func normalizeSearchOutcome(s string) string {
	switch s {
	case "hit", "no_match", "error":
		return s
	default:
		return "unknown"
	}
}

// normalizeOperation maps change event operations to a bounded set.
func normalizeOperation(s string) string {
	switch s {
	case "insert", "update", "replace", "delete":
		return s
	default:
		return "unknown"
	}
}

// normalizeIngestOutcome maps ingest event outcomes to a bounded set.
func normalizeIngestOutcome(s string) string {
	switch s {
	case "indexed", "rejected", "ignored", "error":
		return s
	default:
		return "unknown"
	}
}

// normalizeCacheName maps cache names to a bounded set.
func normalizeCacheName(s string) string {
	switch s {
	case "query_embedding":
		return s
	default:
		return "other"
	}
}
