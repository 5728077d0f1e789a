// Package logging provides the leveled logger used across photocache.
//
// Levels, from most to least verbose:
//   - DEBUG: cache hits, decode fallbacks, pool dispatch
//   - INFO: startup configuration, generated renditions, prefetch batches
//   - WARN: recoverable failures (a single rendition could not be built)
//   - ERROR: failures the caller cannot recover from
//
// The initial level comes from DEBUG or LOG_LEVEL; config.Load may override it
// with SetLevel once the full configuration is known.
package logging
