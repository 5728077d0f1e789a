package workers

import (
	"runtime"
)

// Count returns a worker count for a pool: the available parallelism scaled
// by multiplier and clamped to [lower, upper]. It respects container CPU
// limits via GOMAXPROCS (Go 1.19+). An upper of 0 means no cap.
func Count(multiplier float64, lower, upper int) int {
	available := runtime.GOMAXPROCS(0)
	return clamp(int(float64(available)*multiplier), lower, upper)
}

func clamp(n, lower, upper int) int {
	if lower < 1 {
		lower = 1
	}
	if n < lower {
		n = lower
	}
	if upper > 0 && n > upper {
		n = upper
	}
	return n
}

// Sizes holds the worker count of each generation pool and the number of
// concurrent RAW developments allowed during prefetch.
type Sizes struct {
	Thumbnail   int
	Preview     int
	Metadata    int
	RawPrefetch int
}

// DefaultSizes derives pool sizes from the available parallelism.
//
// Thumbnail and preview pools get three quarters of the cores (2..8) each so
// that a burst of expensive previews cannot starve thumbnails. Metadata
// refresh is light and gets half of that (1..2). RAW development during an
// unattended prefetch sweep is capped at a quarter of the cores (1..2).
func DefaultSizes() Sizes {
	return sizesFor(runtime.GOMAXPROCS(0))
}

func sizesFor(cores int) Sizes {
	generated := clamp(cores*3/4, 2, 8)
	return Sizes{
		Thumbnail:   generated,
		Preview:     generated,
		Metadata:    clamp(generated/2, 1, 2),
		RawPrefetch: clamp(cores/4, 1, 2),
	}
}

// WithOverrides replaces any size for which the override is positive.
func (s Sizes) WithOverrides(o Sizes) Sizes {
	if o.Thumbnail > 0 {
		s.Thumbnail = o.Thumbnail
	}
	if o.Preview > 0 {
		s.Preview = o.Preview
	}
	if o.Metadata > 0 {
		s.Metadata = o.Metadata
	}
	if o.RawPrefetch > 0 {
		s.RawPrefetch = o.RawPrefetch
	}
	return s
}
