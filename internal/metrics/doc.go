// Package metrics provides Prometheus instrumentation for photocache.
//
// All collectors are registered with the default registry through promauto
// and prefixed with "photocache_".
//
// # Metric Categories
//
// ## Generation
//
//   - GenerationsTotal: renditions built, by kind and outcome
//   - GenerationDuration / GenerationPhaseDuration: end-to-end and per phase
//     (decode, render, write)
//   - GenerationsInFlight: renditions currently being built
//   - DedupJoinsTotal: requests that waited on somebody else's generation
//   - CacheHitsTotal / CacheMissesTotal: fast-path outcomes
//
// ## Decoding
//
//   - DecodeSourceTotal: which stage of the fallback chain produced the raster
//   - DecodeErrorsTotal: failures by stage
//   - OrientationAppliedTotal: EXIF orientation corrections
//
// ## Pools
//
//   - PoolWorkers, PoolQueueDepth, PoolBusyWorkers: per-pool saturation
//   - RawLimiterWaitDuration: time prefetch spends waiting for a RAW slot
//   - PrefetchItemsTotal, MetadataRefreshTotal: background batch outcomes
//
// ## Cache
//
//   - CacheSizeBytes: refreshed by Collector on an interval
//   - CacheClearsTotal
//
// # Latency quantiles
//
// LatencyTracker keeps DDSketch quantile sketches per operation. The
// generation coordinator records decode/render/write durations into it and
// the HTTP stats endpoint serves Snapshot().
package metrics
