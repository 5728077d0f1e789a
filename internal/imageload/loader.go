package imageload

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"photocache/internal/decoder"
	"photocache/internal/logging"
	"photocache/internal/metrics"
)

// ErrSuperseded is returned when a newer load began before this one
// finished.
var ErrSuperseded = errors.New("load superseded by a newer request")

// Image is a decoded full-resolution image as tightly packed,
// non-premultiplied RGBA bytes.
type Image struct {
	Pixels []byte
	Width  int
	Height int
}

// Loader decodes full-resolution images outside the rendition cache. Only
// the most recently begun load is active; results of older loads are
// dropped.
type Loader struct {
	decoder *decoder.Decoder
	current atomic.Uint64
}

// New returns a Loader.
func New(dec *decoder.Decoder) *Loader {
	if dec == nil {
		dec = decoder.New()
	}
	return &Loader{decoder: dec}
}

// Begin starts a new request and returns its id. Every earlier id stops
// being active.
func (l *Loader) Begin() uint64 {
	return l.current.Add(1)
}

// IsActive reports whether id is the most recent request.
func (l *Loader) IsActive(id uint64) bool {
	return l.current.Load() == id
}

// DecodeFull decodes path at full resolution with orientation applied.
func (l *Loader) DecodeFull(path string) ([]byte, int, int, error) {
	img, err := l.decoder.Decode(path, decoder.PolicyNone)
	if err != nil {
		return nil, 0, 0, err
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	// Decode returns a fresh image, but its stride may exceed w*4.
	if img.Stride == w*4 && len(img.Pix) == w*h*4 {
		return img.Pix, w, h, nil
	}
	pix := make([]byte, 0, w*h*4)
	for y := range h {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		pix = append(pix, img.Pix[off:off+w*4]...)
	}
	return pix, w, h, nil
}

// Load begins a new request for path and runs it with LoadAs.
func (l *Loader) Load(ctx context.Context, path string, deliver func(Image)) error {
	return l.LoadAs(ctx, l.Begin(), path, deliver)
}

// LoadAs decodes path on its own goroutine under request id and calls
// deliver only if id is still active when decoding finishes. It returns
// when decoding finishes or ctx ends, whichever is first.
func (l *Loader) LoadAs(ctx context.Context, id uint64, path string, deliver func(Image)) error {
	type outcome struct {
		img Image
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		start := time.Now()
		pix, w, h, err := l.DecodeFull(path)
		metrics.FullLoadDuration.Observe(time.Since(start).Seconds())
		done <- outcome{Image{Pixels: pix, Width: w, Height: h}, err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			metrics.FullLoadsTotal.WithLabelValues("error").Inc()
			return fmt.Errorf("failed to load %s: %w", path, out.err)
		}
		if !l.IsActive(id) {
			metrics.FullLoadsTotal.WithLabelValues("superseded").Inc()
			logging.Debug("Discarding superseded full load %d of %s", id, path)
			return ErrSuperseded
		}
		if deliver != nil {
			deliver(out.img)
		}
		metrics.FullLoadsTotal.WithLabelValues("delivered").Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
