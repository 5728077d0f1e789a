// Package handlers provides the HTTP command surface of photocache.
//
// It includes handlers for:
//   - Thumbnail, preview and histogram generation
//   - Full-resolution pixel loads
//   - Background prefetch
//   - EXIF metadata refresh and lookup
//   - Ratings and flags
//   - Cache size reporting and clearing
//   - Health checks, version and latency stats
package handlers
