// Package metrics provides Prometheus instrumentation for the gallery service.
//
// All metrics are prefixed with "justified_gallery_" and registered with the
// default registry through promauto. Mount promhttp.Handler() to expose them.
//
// # Metric Categories
//
// HTTP: request counts, durations and in-flight requests.
//
// Probes: dimension probes by status, probe latency, probes in flight and
// dimension cache hits/misses.
//
// Layout: active galleries, rows flushed by kind (row/last/hidden), full
// rewinds, cooperative scan yields, service layouts by status and their
// duration, and the entry status breakdown of the latest layout.
//
// Thumbnails: generations by backend and status, generation latency,
// thumbnail cache hits/misses.
//
// Library: album and image counts, dimension cache rows and thumbnail cache
// size, refreshed by a [Collector] from a [StatsProvider].
//
// Database and filesystem: query counts/latency and NFS retry behaviour. The
// filesystem package reports through [NewFilesystemObserver] to avoid an
// import cycle.
//
// # Prometheus Queries
//
// Dimension cache hit rate:
//
//	rate(justified_gallery_dimension_cache_hits_total[5m]) /
//	(rate(justified_gallery_dimension_cache_hits_total[5m]) + rate(justified_gallery_dimension_cache_misses_total[5m]))
//
// Share of hidden rows:
//
//	rate(justified_gallery_rows_flushed_total{kind="hidden"}[1h]) / rate(justified_gallery_rows_flushed_total[1h])
package metrics
