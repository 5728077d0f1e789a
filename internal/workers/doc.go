/*
Package workers provides the bounded goroutine pools that run CPU-bound
rendition work, and the sizing rules for them.

# Pools

Each rendition kind gets its own Pool, plus one for metadata refresh:

	sizes := workers.DefaultSizes()
	thumbs := workers.NewPool("thumbnail", sizes.Thumbnail)
	defer thumbs.Close()

	_ = thumbs.Submit(func() {
	    // decode, resize, encode
	})

Submit never blocks: the task queue is unbounded and only the number of
concurrently running tasks is limited. This keeps request goroutines from
stalling behind a prefetch sweep while still capping CPU use.

# Sizing

Sizes are derived from runtime.GOMAXPROCS, which follows container CPU
limits on Go 1.19+:

  - Thumbnail, Preview: 3/4 of the cores, clamped to 2..8
  - Metadata: half the thumbnail size, clamped to 1..2
  - RawPrefetch: 1/4 of the cores, clamped to 1..2

On an 8-core machine that is 6/6/2 workers and 2 RAW slots. Operators can
override any of them through configuration (THUMBNAIL_WORKERS,
PREVIEW_WORKERS, METADATA_WORKERS, RAW_PREFETCH_LIMIT).

# Panics

A panicking task is logged and the worker keeps running. Callers that need
to report a panic to a waiter should recover inside the task.
*/
package workers
