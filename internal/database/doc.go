// Package database provides SQLite storage for per-image metadata.
//
// It handles storage and retrieval of:
//   - EXIF summaries, invalidated by the source's size and mtime
//   - Ratings (0..5) and pick/reject flags
//   - Small key/value application state such as cache-clear timestamps
//
// The database uses WAL mode and is safe for concurrent use.
package database
