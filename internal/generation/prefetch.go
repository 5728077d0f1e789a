package generation

import (
	"golang.org/x/sync/semaphore"

	"photocache/internal/cache"
	"photocache/internal/decoder"
	"photocache/internal/logging"
	"photocache/internal/metrics"
)

// Prefetch generates the kind's renditions for paths in the background and
// returns immediately. Cached entries are skipped and entries already being
// generated are left to their owner. At most one item per pool worker is
// outstanding at a time, and dispatch pauses while memory is critical.
func (c *Coordinator) Prefetch(paths []string, kind cache.Kind) {
	if !kind.Renderable() || len(paths) == 0 {
		return
	}

	// Copy so the caller may reuse its slice.
	queue := append([]string(nil), paths...)

	c.bg.Add(1)
	go func() {
		defer c.bg.Done()

		label := kind.String()
		pool := c.pool(kind)
		slots := semaphore.NewWeighted(int64(max(pool.Size(), 1)))

		for _, path := range queue {
			path := path
			if slots.Acquire(c.ctx, 1) != nil {
				logging.Debug("Prefetch of %d %s renditions stopped", len(queue), label)
				return
			}
			if !c.monitor.WaitIfPaused(c.ctx) {
				slots.Release(1)
				logging.Debug("Prefetch of %d %s renditions stopped", len(queue), label)
				return
			}

			err := pool.Submit(func() {
				defer slots.Release(1)
				c.prefetchOne(path, kind)
			})
			if err != nil {
				slots.Release(1)
				metrics.PrefetchItemsTotal.WithLabelValues(label, "failed").Inc()
				logging.Warn("Prefetch dispatch failed for %s: %v", path, err)
				return
			}
		}
	}()
}

// prefetchOne runs on a pool worker. It generates inline rather than
// submitting again, so a saturated pool cannot wait on itself.
func (c *Coordinator) prefetchOne(path string, kind cache.Kind) {
	label := kind.String()

	cachePath, err := c.fp.Path(path, kind)
	if err != nil {
		metrics.PrefetchItemsTotal.WithLabelValues(label, "failed").Inc()
		logging.Debug("Prefetch skipped %s: %v", path, err)
		return
	}

	if _, ok := c.lookup(cachePath, false); ok {
		metrics.PrefetchItemsTotal.WithLabelValues(label, "skipped").Inc()
		return
	}

	f, leader := c.claim(cachePath)
	if !leader {
		metrics.DedupJoinsTotal.WithLabelValues(label).Inc()
		metrics.PrefetchItemsTotal.WithLabelValues(label, "joined").Inc()
		return
	}
	defer c.release(cachePath, f)

	if _, ok := c.lookup(cachePath, true); ok {
		metrics.PrefetchItemsTotal.WithLabelValues(label, "skipped").Inc()
		return
	}

	_, err = c.protect(func() (Rendition, error) {
		return c.generate(path, cachePath, kind, decoder.WithDevelopGate(c.acquireRaw))
	})
	if err != nil {
		metrics.PrefetchItemsTotal.WithLabelValues(label, "failed").Inc()
		logging.Warn("Prefetch failed for %s: %v", path, err)
		return
	}
	metrics.PrefetchItemsTotal.WithLabelValues(label, "generated").Inc()
}

// acquireRaw takes a RAW development slot. On shutdown the development
// proceeds without one.
func (c *Coordinator) acquireRaw() func() {
	if err := c.raw.Acquire(c.ctx, 1); err != nil {
		return func() {}
	}
	return func() { c.raw.Release(1) }
}
