package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocache_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photocache_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photocache_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Rendition generation metrics
var (
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocache_generations_total",
			Help: "Total number of rendition generations by kind and outcome",
		},
		[]string{"kind", "status"}, // status: "success", "error", "panic"
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photocache_generation_duration_seconds",
			Help:    "End-to-end rendition generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind"},
	)

	GenerationPhaseDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photocache_generation_phase_duration_seconds",
			Help:    "Duration of each generation phase in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"kind", "phase"}, // phase: "decode", "render", "write"
	)

	GenerationsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photocache_generations_in_flight",
			Help: "Number of renditions currently being generated",
		},
		[]string{"kind"},
	)

	DedupJoinsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocache_dedup_joins_total",
			Help: "Requests that joined an in-flight generation instead of starting one",
		},
		[]string{"kind"},
	)

	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocache_cache_hits_total",
			Help: "Total number of rendition cache hits",
		},
		[]string{"kind"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocache_cache_misses_total",
			Help: "Total number of rendition cache misses",
		},
		[]string{"kind"},
	)

	CacheSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photocache_cache_size_bytes",
			Help: "Total size of stored renditions in bytes",
		},
		[]string{"kind"},
	)

	CacheClearsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocache_cache_clears_total",
			Help: "Total number of cache clear operations",
		},
		[]string{"kind"},
	)
)

// Decoder metrics
var (
	DecodeSourceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocache_decode_source_total",
			Help: "Decoded rasters by the stage that produced them",
		},
		[]string{"source"}, // "embedded", "raw", "raster", "ffmpeg"
	)

	DecodeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocache_decode_errors_total",
			Help: "Decode failures by stage",
		},
		[]string{"stage"},
	)

	OrientationAppliedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocache_orientation_applied_total",
			Help: "Orientation corrections applied by EXIF orientation value",
		},
		[]string{"orientation"},
	)
)

// Worker pool metrics
var (
	PoolQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photocache_pool_queue_depth",
			Help: "Tasks waiting for a worker in each pool",
		},
		[]string{"pool"},
	)

	PoolBusyWorkers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photocache_pool_busy_workers",
			Help: "Workers currently running a task in each pool",
		},
		[]string{"pool"},
	)

	PoolWorkers = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photocache_pool_workers",
			Help: "Configured worker count of each pool",
		},
		[]string{"pool"},
	)

	RawLimiterWaitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photocache_raw_limiter_wait_seconds",
			Help:    "Time prefetch tasks spent waiting for a RAW development slot",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)

	PrefetchItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocache_prefetch_items_total",
			Help: "Prefetch items by kind and outcome",
		},
		[]string{"kind", "status"}, // "generated", "skipped", "joined", "failed"
	)

	MetadataRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocache_metadata_refresh_total",
			Help: "EXIF metadata refreshes by outcome",
		},
		[]string{"status"},
	)
)

// Full-resolution load metrics
var (
	FullLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocache_full_loads_total",
			Help: "Full-resolution loads by outcome",
		},
		[]string{"status"}, // "delivered", "superseded", "error"
	)

	FullLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photocache_full_load_duration_seconds",
			Help:    "Full-resolution decode duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocache_db_query_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photocache_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photocache_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"status"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photocache_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photocache_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photocache_memory_paused",
			Help: "Whether background prefetch is paused for memory pressure (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photocache_memory_gc_pauses_total",
			Help: "Times the memory monitor paused work and forced a GC",
		},
	)
)

// Filesystem metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocache_filesystem_retry_attempts_total",
			Help: "Filesystem operation retries after stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocache_filesystem_retry_success_total",
			Help: "Filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocache_filesystem_retry_failures_total",
			Help: "Filesystem operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photocache_filesystem_retry_duration_seconds",
			Help:    "Total duration of filesystem operations including retries",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photocache_filesystem_stale_errors_total",
			Help: "Stale file handle (ESTALE) errors observed",
		},
		[]string{"operation", "volume"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photocache_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
