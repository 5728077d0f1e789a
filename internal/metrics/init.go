package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	kinds := []string{"thumbnail", "preview"}

	for _, kind := range kinds {
		for _, status := range []string{"success", "error", "panic"} {
			GenerationsTotal.WithLabelValues(kind, status)
		}
		GenerationDuration.WithLabelValues(kind)
		for _, phase := range []string{"decode", "render", "write"} {
			GenerationPhaseDuration.WithLabelValues(kind, phase)
		}
		GenerationsInFlight.WithLabelValues(kind)
		DedupJoinsTotal.WithLabelValues(kind)
		CacheHitsTotal.WithLabelValues(kind)
		CacheMissesTotal.WithLabelValues(kind)
		for _, status := range []string{"generated", "skipped", "joined", "failed"} {
			PrefetchItemsTotal.WithLabelValues(kind, status)
		}
	}

	for _, kind := range append(kinds, "all") {
		CacheSizeBytes.WithLabelValues(kind)
		CacheClearsTotal.WithLabelValues(kind)
	}

	for _, source := range []string{"embedded", "raw", "raster", "ffmpeg"} {
		DecodeSourceTotal.WithLabelValues(source)
	}

	for _, pool := range []string{"thumbnail", "preview", "metadata"} {
		PoolQueueDepth.WithLabelValues(pool)
		PoolBusyWorkers.WithLabelValues(pool)
	}

	for _, status := range []string{"delivered", "superseded", "error"} {
		FullLoadsTotal.WithLabelValues(status)
	}

	for _, status := range []string{"extracted", "unchanged", "missing", "error"} {
		MetadataRefreshTotal.WithLabelValues(status)
	}

	for _, op := range []string{"get_exif", "upsert_exif", "set_ratings", "set_flags", "get_annotations"} {
		for _, status := range []string{"success", "error"} {
			DBQueryTotal.WithLabelValues(op, status)
		}
		DBQueryDuration.WithLabelValues(op)
	}

	volumes := []string{"source", "cache", "unknown"}
	for _, op := range []string{"stat", "open"} {
		for _, vol := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}
}
