// Package startup loads configuration and logs the application lifecycle.
//
// # Configuration
//
// [LoadConfig] reads settings from the environment, optionally seeded from
// a .env file in the working directory. Recognized variables:
//
//   - CACHE_DIR: rendition cache root (default: /cache)
//   - DATABASE_PATH: SQLite metadata database (default: /database/photocache.db)
//   - PORT: HTTP API port (default: 8080)
//   - METRICS_PORT: Prometheus metrics port (default: 9090)
//   - METRICS_ENABLED: serve metrics (default: true)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: log /healthz requests (default: false)
//   - THUMBNAIL_WORKERS, PREVIEW_WORKERS, METADATA_WORKERS: pool sizes
//     (default: derived from GOMAXPROCS)
//   - RAW_PREFETCH_LIMIT: concurrent RAW developments during prefetch
//     (default: derived from GOMAXPROCS)
//   - RESIZE_FILTER: lanczos or linear (default: lanczos)
//   - VIPS_ENABLED: use libvips for RAW development (default: true)
//   - FFMPEG_ENABLED: fall back to ffmpeg for HEIC/AVIF (default: true)
//   - MEMORY_LIMIT, MEMORY_RATIO: see package memory
//
// The cache directory and the database's directory are created if missing
// and must be writable.
package startup
