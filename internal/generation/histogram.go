package generation

import (
	"context"
	"fmt"

	"photocache/internal/cache"
	"photocache/internal/histogram"
)

// Histogram computes the channel histogram of path from its preview,
// generating the preview first if needed. The computation runs on the
// preview pool.
func (c *Coordinator) Histogram(ctx context.Context, path string) (histogram.Histogram, error) {
	r, err := c.GetOrCreate(ctx, path, cache.Preview)
	if err != nil {
		return histogram.Histogram{}, err
	}

	type outcome struct {
		h   histogram.Histogram
		err error
	}
	done := make(chan outcome, 1)

	err = c.pools.Preview.Submit(func() {
		defer func() {
			if p := recover(); p != nil {
				done <- outcome{err: fmt.Errorf("%w: %v", ErrJoin, p)}
			}
		}()
		h, err := histogram.FromFile(r.Path)
		done <- outcome{h, err}
	})
	if err != nil {
		return histogram.Histogram{}, fmt.Errorf("failed to dispatch histogram for %s: %w", path, err)
	}

	select {
	case out := <-done:
		return out.h, out.err
	case <-ctx.Done():
		return histogram.Histogram{}, ctx.Err()
	}
}
