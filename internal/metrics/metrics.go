package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the insights service.
type Metrics struct {
	// Upload pipeline metrics
	UploadsProcessed *prometheus.CounterVec
	UploadFailures   *prometheus.CounterVec
	UploadDuration   *prometheus.HistogramVec
	UploadBytes      prometheus.Histogram
	DecodeFailures   prometheus.Counter
	UploadsInFlight  prometheus.Gauge

	// Aggregation metrics
	AggregationRuns     prometheus.Counter
	AggregationDuration prometheus.Histogram
	AggCacheHits        prometheus.Counter
	AggCacheMisses      prometheus.Counter
	AggCacheBypasses    prometheus.Counter

	// Storage metrics
	DocumentReads        *prometheus.CounterVec
	DocumentWrites       *prometheus.CounterVec
	StorageReadFailures  *prometheus.CounterVec
	StorageWriteFailures *prometheus.CounterVec
	DocCacheHits         prometheus.Counter
	DocCacheMisses       prometheus.Counter

	// System metrics
	StoredUploads prometheus.Gauge
	DBConnections *prometheus.GaugeVec
	RedisLatency  *prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

var (
	// DefaultMetrics is the global metrics instance
	DefaultMetrics *Metrics
)

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(namespace string) *Metrics {
	m := &Metrics{
		// Upload pipeline metrics
		UploadsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uploads_processed_total",
				Help:      "Total uploads processed, by detected category",
			},
			[]string{"category"},
		),
		UploadFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upload_failures_total",
				Help:      "Upload failures by reason",
			},
			[]string{"reason"},
		),
		UploadDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upload_processing_seconds",
				Help:      "Time to parse, classify and aggregate one upload",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15},
			},
			[]string{"category"},
		),
		UploadBytes: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upload_bytes",
				Help:      "Size of uploaded files in bytes",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
			},
		),
		DecodeFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "decode_failures_total",
				Help:      "Files rejected by every supported text encoding",
			},
		),
		UploadsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "uploads_in_flight",
				Help:      "Uploads currently being processed",
			},
		),

		// Aggregation metrics
		AggregationRuns: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "aggregation_runs_total",
				Help:      "Full multi-report aggregation passes",
			},
		),
		AggregationDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "aggregation_seconds",
				Help:      "Time to assemble the unified view",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		AggCacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "aggregation_cache_hits_total",
				Help:      "Unified view served from the aggregation cache",
			},
		),
		AggCacheMisses: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "aggregation_cache_misses_total",
				Help:      "Unified view recomputed on cache miss",
			},
		),
		AggCacheBypasses: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "aggregation_cache_bypasses_total",
				Help:      "Filtered requests that skipped the cache",
			},
		),

		// Storage metrics
		DocumentReads: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "document_reads_total",
				Help:      "Aggregate document reads by backend",
			},
			[]string{"backend"},
		),
		DocumentWrites: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "document_writes_total",
				Help:      "Aggregate document writes by backend",
			},
			[]string{"backend"},
		),
		StorageReadFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_read_failures_total",
				Help:      "Document reads that failed or were skipped",
			},
			[]string{"backend"},
		),
		StorageWriteFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_write_failures_total",
				Help:      "Document writes that failed",
			},
			[]string{"backend"},
		),
		DocCacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "document_cache_hits_total",
				Help:      "Document reads served from Redis",
			},
		),
		DocCacheMisses: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "document_cache_misses_total",
				Help:      "Document reads that fell through to the store",
			},
		),

		// System metrics
		StoredUploads: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "stored_uploads",
				Help:      "Upload records currently stored",
			},
		),
		DBConnections: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "db_connections",
				Help:      "Database connection pool stats",
			},
			[]string{"state"}, // idle, in_use, total
		),
		RedisLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "redis_latency_seconds",
				Help:      "Redis operation latency",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
			},
			[]string{"operation"},
		),

		// Rate limiting metrics
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limit_hits_total",
				Help:      "Rate limit rejections",
			},
			[]string{"endpoint", "ip"},
		),
	}

	DefaultMetrics = m
	return m
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordUpload records a successfully processed upload.
func (m *Metrics) RecordUpload(category string, size int, duration time.Duration) {
	m.UploadsProcessed.WithLabelValues(category).Inc()
	m.UploadDuration.WithLabelValues(category).Observe(duration.Seconds())
	m.UploadBytes.Observe(float64(size))
}

// RecordUploadFailure records a failed upload.
func (m *Metrics) RecordUploadFailure(reason string) {
	m.UploadFailures.WithLabelValues(reason).Inc()
}

// RecordDecodeFailure records a file no supported encoding could decode.
func (m *Metrics) RecordDecodeFailure() {
	m.DecodeFailures.Inc()
	m.UploadFailures.WithLabelValues("decode").Inc()
}

// RecordAggregation records a full aggregation pass.
func (m *Metrics) RecordAggregation(duration time.Duration) {
	m.AggregationRuns.Inc()
	m.AggregationDuration.Observe(duration.Seconds())
}

// RecordAggCache records an aggregation cache outcome.
func (m *Metrics) RecordAggCache(outcome string) {
	switch outcome {
	case "hit":
		m.AggCacheHits.Inc()
	case "miss":
		m.AggCacheMisses.Inc()
	case "bypass":
		m.AggCacheBypasses.Inc()
	}
}

// RecordDocumentRead records a document read against a backend.
func (m *Metrics) RecordDocumentRead(backend string, err error) {
	if err != nil {
		m.StorageReadFailures.WithLabelValues(backend).Inc()
		return
	}
	m.DocumentReads.WithLabelValues(backend).Inc()
}

// RecordDocumentWrite records a document write against a backend.
func (m *Metrics) RecordDocumentWrite(backend string, err error) {
	if err != nil {
		m.StorageWriteFailures.WithLabelValues(backend).Inc()
		return
	}
	m.DocumentWrites.WithLabelValues(backend).Inc()
}

// RecordDocCache records a Redis document cache outcome.
func (m *Metrics) RecordDocCache(hit bool) {
	if hit {
		m.DocCacheHits.Inc()
		return
	}
	m.DocCacheMisses.Inc()
}

// RecordRedisLatency records a Redis operation latency.
func (m *Metrics) RecordRedisLatency(operation string, latency time.Duration) {
	m.RedisLatency.WithLabelValues(operation).Observe(latency.Seconds())
}

// UpdateDBStats updates database connection metrics.
func (m *Metrics) UpdateDBStats(idle, inUse, total int) {
	m.DBConnections.WithLabelValues("idle").Set(float64(idle))
	m.DBConnections.WithLabelValues("in_use").Set(float64(inUse))
	m.DBConnections.WithLabelValues("total").Set(float64(total))
}

// UpdateStoredUploads updates the stored upload count.
func (m *Metrics) UpdateStoredUploads(n int) {
	m.StoredUploads.Set(float64(n))
}

// RecordRateLimitHit records a rate limit hit.
func (m *Metrics) RecordRateLimitHit(endpoint, ip string) {
	m.RateLimitHits.WithLabelValues(endpoint, ip).Inc()
}
