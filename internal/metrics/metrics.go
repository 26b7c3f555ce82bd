package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "justified_gallery_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "justified_gallery_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "justified_gallery_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Probe metrics
var (
	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "justified_gallery_probes_total",
			Help: "Total number of image dimension probes",
		},
		[]string{"status"}, // "success", "error", "rejected"
	)

	ProbeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "justified_gallery_probe_duration_seconds",
			Help:    "Image dimension probe duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	ProbesInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "justified_gallery_probes_in_flight",
			Help: "Number of probes currently running",
		},
	)

	DimensionCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "justified_gallery_dimension_cache_hits_total",
			Help: "Total number of dimension cache hits",
		},
	)

	DimensionCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "justified_gallery_dimension_cache_misses_total",
			Help: "Total number of dimension cache misses",
		},
	)
)

// Gallery layout metrics
var (
	GalleriesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "justified_gallery_galleries_active",
			Help: "Number of gallery instances that have been initialized and not destroyed",
		},
	)

	RowsFlushed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "justified_gallery_rows_flushed_total",
			Help: "Total number of rows flushed",
		},
		[]string{"kind"}, // "row", "last", "hidden"
	)

	LayoutRewinds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "justified_gallery_layout_rewinds_total",
			Help: "Total number of full layout rewinds caused by width changes or settings changes",
		},
	)

	ScanYields = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "justified_gallery_scan_yields_total",
			Help: "Total number of cooperative yields during row scanning",
		},
	)

	LayoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "justified_gallery_layouts_total",
			Help: "Total number of layouts computed by the service",
		},
		[]string{"status"}, // "complete", "timeout", "error"
	)

	LayoutDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "justified_gallery_layout_duration_seconds",
			Help:    "Time from gallery init to completion for service layouts",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	EntriesByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "justified_gallery_last_layout_entries",
			Help: "Entries of the most recent service layout by load status",
		},
		[]string{"status"},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "justified_gallery_thumbnail_generations_total",
			Help: "Total number of thumbnail generations",
		},
		[]string{"backend", "status"}, // backend: "imaging", "vips"
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "justified_gallery_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"backend"},
	)

	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "justified_gallery_thumbnail_cache_hits_total",
			Help: "Total number of thumbnail cache hits",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "justified_gallery_thumbnail_cache_misses_total",
			Help: "Total number of thumbnail cache misses",
		},
	)
)

// Library metrics, refreshed by the Collector
var (
	AlbumsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "justified_gallery_albums",
			Help: "Number of album directories under the media directory",
		},
	)

	ImagesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "justified_gallery_images",
			Help: "Number of images across all albums",
		},
	)

	DimensionCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "justified_gallery_dimension_cache_entries",
			Help: "Number of rows in the dimension cache",
		},
	)

	ThumbnailCacheBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "justified_gallery_thumbnail_cache_size_bytes",
			Help: "Total size of the thumbnail cache in bytes",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "justified_gallery_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "justified_gallery_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// Filesystem metrics, recorded through the filesystem.Observer implementation
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "justified_gallery_filesystem_operation_duration_seconds",
			Help:    "Duration of filesystem operations by volume and operation",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "justified_gallery_filesystem_operation_errors_total",
			Help: "Total number of failed filesystem operations",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "justified_gallery_filesystem_retry_attempts_total",
			Help: "Total number of filesystem retry attempts for NFS stale handles",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "justified_gallery_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "justified_gallery_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "justified_gallery_filesystem_retry_duration_seconds",
			Help:    "Total duration of retried filesystem operations",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "justified_gallery_filesystem_stale_errors_total",
			Help: "Total number of NFS stale file handle errors",
		},
		[]string{"operation", "volume"},
	)
)

// Indexer metrics
var (
	IndexerRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "justified_gallery_indexer_runs_total",
			Help: "Total number of dimension cache warm-up runs",
		},
	)

	IndexerLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "justified_gallery_indexer_last_run_timestamp",
			Help: "Timestamp of the last warm-up run",
		},
	)

	IndexerLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "justified_gallery_indexer_last_run_duration_seconds",
			Help: "Duration of the last warm-up run in seconds",
		},
	)

	IndexerImagesProbed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "justified_gallery_indexer_images_probed_total",
			Help: "Total number of images whose size the indexer probed",
		},
	)

	IndexerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "justified_gallery_indexer_errors_total",
			Help: "Total number of images the indexer could not probe",
		},
	)

	IndexerIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "justified_gallery_indexer_running",
			Help: "Whether the indexer is currently running (1 = running, 0 = idle)",
		},
	)

	IndexerParallelWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "justified_gallery_indexer_parallel_workers",
			Help: "Number of parallel workers used by the last warm-up run",
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "justified_gallery_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "justified_gallery_memory_paused",
			Help: "Whether thumbnail generation is paused for memory (1 = paused)",
		},
	)
)

// Application info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "justified_gallery_app_info",
			Help: "Application build information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
