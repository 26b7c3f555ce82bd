package metrics

// InitializeMetrics pre-populates the expected label combinations so that
// every metric is exported from the first Prometheus scrape.
func InitializeMetrics() {
	for _, status := range []string{"success", "error", "rejected"} {
		ProbesTotal.WithLabelValues(status)
	}

	for _, kind := range []string{"row", "last", "hidden"} {
		RowsFlushed.WithLabelValues(kind)
	}

	for _, status := range []string{"complete", "timeout", "error"} {
		LayoutsTotal.WithLabelValues(status)
	}

	for _, status := range []string{"unloaded", "loading", "loaded", "skipped", "error"} {
		EntriesByStatus.WithLabelValues(status)
	}

	for _, backend := range []string{"imaging", "vips"} {
		ThumbnailGenerationsTotal.WithLabelValues(backend, "success")
		ThumbnailGenerationsTotal.WithLabelValues(backend, "error")
		ThumbnailGenerationDuration.WithLabelValues(backend)
	}

	for _, op := range []string{"initialize_schema", "get_dimensions", "put_dimensions", "count_dimensions", "prune_dimensions"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	volumes := []string{"media", "cache", "database", "unknown"}
	for _, vol := range volumes {
		for _, op := range []string{"stat", "open", "readdir"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}
}
