// Package generation coordinates thumbnail and preview generation.
//
// A request first computes the rendition's cache path. If the file exists
// it is returned without touching a pool. Otherwise the request either
// starts a generation (decode, render, atomic write) on the kind's worker
// pool or, if one is already running for that path, waits for it and then
// re-checks the filesystem. The in-flight map is locked only around its own
// updates.
//
// Thumbnails and previews run on separate pools so a burst of expensive
// previews cannot starve thumbnails. Background prefetch keeps at most one
// item per pool worker outstanding, waits out memory pressure before
// dispatching each item, and bounds concurrent full RAW developments with
// a weighted semaphore.
package generation
