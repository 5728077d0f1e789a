package histogram

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Bins is the number of buckets per channel.
const Bins = 256

// Histogram holds per-channel pixel counts for an 8-bit image.
type Histogram struct {
	Red   []uint32 `json:"red"`
	Green []uint32 `json:"green"`
	Blue  []uint32 `json:"blue"`
	Luma  []uint32 `json:"luma"`
}

// Rec. 709 luma coefficients.
const (
	lumaR = 0.2126
	lumaG = 0.7152
	lumaB = 0.0722
)

// Compute counts every pixel of img. Alpha is ignored.
func Compute(img *image.NRGBA) Histogram {
	h := Histogram{
		Red:   make([]uint32, Bins),
		Green: make([]uint32, Bins),
		Blue:  make([]uint32, Bins),
		Luma:  make([]uint32, Bins),
	}

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		row := img.Pix[off : off+b.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			r, g, bl := row[i], row[i+1], row[i+2]
			h.Red[r]++
			h.Green[g]++
			h.Blue[bl]++
			h.Luma[lumaIndex(r, g, bl)]++
		}
	}

	return h
}

func lumaIndex(r, g, b uint8) int {
	l := math.Round(lumaR*float64(r) + lumaG*float64(g) + lumaB*float64(b))
	return int(min(max(l, 0), 255))
}

// FromFile decodes the image at path and computes its histogram.
func FromFile(path string) (Histogram, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return Histogram{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return Compute(imaging.Clone(img)), nil
}

// Total returns the number of pixels counted.
func (h Histogram) Total() uint64 {
	var n uint64
	for _, c := range h.Luma {
		n += uint64(c)
	}
	return n
}
