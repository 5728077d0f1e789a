package generation

import (
	"fmt"
	"time"

	"photocache/internal/cache"
	"photocache/internal/decoder"
	"photocache/internal/logging"
	"photocache/internal/metrics"
	"photocache/internal/render"
)

// policy is the embedded-preview rule per kind. A thumbnail takes any
// embedded preview; a preview needs one that already covers its long edge.
func policy(kind cache.Kind) decoder.Policy {
	if kind == cache.Thumbnail {
		return decoder.PolicyAny
	}
	return decoder.PolicyMinSize(kind.LongEdge())
}

// generate decodes, renders and stores one rendition. It runs on a pool
// worker.
func (c *Coordinator) generate(path, cachePath string, kind cache.Kind, opts ...decoder.DecodeOption) (Rendition, error) {
	label := kind.String()
	start := time.Now()

	metrics.GenerationsInFlight.WithLabelValues(label).Inc()
	defer metrics.GenerationsInFlight.WithLabelValues(label).Dec()

	var (
		out render.Output
		err error
	)
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.GenerationsTotal.WithLabelValues(label, status).Inc()
		metrics.GenerationDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	}()

	var res decoder.Result
	err = c.phase(label, "decode", func() error {
		var derr error
		res, derr = c.decoder.DecodeResult(path, policy(kind), opts...)
		return derr
	})
	if err != nil {
		return Rendition{}, fmt.Errorf("failed to generate %s for %s: %w", label, path, err)
	}

	err = c.phase(label, "render", func() error {
		var rerr error
		out, rerr = render.Render(res.Image, kind.LongEdge(), kind.Quality(), c.filter)
		return rerr
	})
	if err != nil {
		return Rendition{}, fmt.Errorf("failed to generate %s for %s: %w", label, path, err)
	}

	err = c.phase(label, "write", func() error {
		if werr := cache.WriteAtomic(cachePath, out.Data); werr != nil {
			return &render.EncodeError{Err: werr}
		}
		return nil
	})
	if err != nil {
		return Rendition{}, fmt.Errorf("failed to generate %s for %s: %w", label, path, err)
	}

	logging.Debug("Generated %s for %s from %s: %dx%d in %v",
		label, path, res.Source, out.Width, out.Height, time.Since(start))

	return Rendition{Path: cachePath, Width: out.Width, Height: out.Height}, nil
}

// phase times fn into the phase histogram and the latency tracker.
func (c *Coordinator) phase(kind, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	metrics.GenerationPhaseDuration.WithLabelValues(kind, name).Observe(elapsed.Seconds())
	if c.latency != nil {
		c.latency.Record(kind+"_"+name, elapsed)
	}
	return err
}
