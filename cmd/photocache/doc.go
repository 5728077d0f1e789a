// Package main provides the entry point for the photocache service.
//
// photocache generates and caches downscaled JPEG renditions (thumbnails and
// previews) of photographs, including camera RAW files, and serves them over
// an HTTP API together with histograms, full-resolution pixel loads, EXIF
// metadata and user annotations.
//
// # Application Lifecycle
//
//  1. Configuration Loading: Reads .env and environment variables, validates directories
//  2. Memory Configuration: Sets GOMEMLIMIT from MEMORY_LIMIT and starts the monitor
//  3. Decoder Initialization: Starts libvips for RAW development when enabled
//  4. Cache and Database: Opens the locked cache root and the SQLite store
//  5. Worker Pools: Sizes the thumbnail, preview and metadata pools
//  6. HTTP Servers: API server plus an optional Prometheus metrics server
//  7. Graceful Shutdown: Handles SIGINT/SIGTERM, drains pools, closes stores
//
// # Background Services
//
//   - Memory Monitor: Pauses prefetch dispatch under memory pressure
//   - Cache Size Collector: Walks the cache and updates size gauges
//   - Database Metrics: Refreshes connection pool gauges
package main
