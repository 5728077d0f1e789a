package render

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"math"
	"strings"

	"github.com/disintegration/imaging"
)

// Filter selects the resampling filter.
type Filter int

const (
	// Lanczos is a high-quality convolution filter and the default.
	Lanczos Filter = iota
	// Linear is bilinear interpolation, faster and slightly softer.
	Linear
)

func (f Filter) String() string {
	if f == Linear {
		return "linear"
	}
	return "lanczos"
}

// ParseFilter parses a filter name. Unknown names return Lanczos and false.
func ParseFilter(s string) (Filter, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lanczos", "lanczos3", "":
		return Lanczos, true
	case "linear", "bilinear":
		return Linear, true
	default:
		return Lanczos, false
	}
}

func (f Filter) resample() imaging.ResampleFilter {
	if f == Linear {
		return imaging.Linear
	}
	return imaging.Lanczos
}

// EncodeError reports a failure to produce the JPEG bytes of a rendition.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode jpeg: %v", e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// FitDimensions returns the size of a (w, h) image scaled so its long edge
// equals longEdge, preserving aspect ratio. Images already within the bound
// keep their size. Results are at least 1 and never exceed the original.
func FitDimensions(w, h, longEdge int) (int, int) {
	if w <= longEdge && h <= longEdge {
		return w, h
	}

	aspect := float64(w) / float64(h)

	var tw, th int
	if aspect >= 1 {
		tw = longEdge
		th = max(int(math.Round(float64(longEdge)/aspect)), 1)
	} else {
		th = longEdge
		tw = max(int(math.Round(float64(longEdge)*aspect)), 1)
	}

	return min(tw, w), min(th, h)
}

// Resize scales img to fit within longEdge. It returns img unchanged if no
// resize is needed.
func Resize(img *image.NRGBA, longEdge int, filter Filter) *image.NRGBA {
	b := img.Bounds()
	tw, th := FitDimensions(b.Dx(), b.Dy(), longEdge)
	if tw == b.Dx() && th == b.Dy() {
		return img
	}
	return imaging.Resize(img, tw, th, filter.resample())
}

// Flatten composites img onto an opaque white background:
// out = (c*a + 255*(255-a)) / 255 per channel.
func Flatten(img *image.NRGBA) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	for y := 0; y < b.Dy(); y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		src := img.Pix[off : off+b.Dx()*4]
		dst := out.Pix[y*out.Stride : y*out.Stride+b.Dx()*4]

		for i := 0; i < len(src); i += 4 {
			a := uint16(src[i+3])
			inv := 255 - a
			dst[i+0] = uint8((uint16(src[i+0])*a + 255*inv) / 255)
			dst[i+1] = uint8((uint16(src[i+1])*a + 255*inv) / 255)
			dst[i+2] = uint8((uint16(src[i+2])*a + 255*inv) / 255)
			dst[i+3] = 255
		}
	}

	return out
}

// Encode writes img as a baseline JPEG at quality.
func Encode(w io.Writer, img image.Image, quality int) error {
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
		return &EncodeError{Err: err}
	}
	return nil
}

// Output is an encoded rendition.
type Output struct {
	Data   []byte
	Width  int
	Height int
}

// Render resizes, flattens and encodes img.
func Render(img *image.NRGBA, longEdge, quality int, filter Filter) (Output, error) {
	resized := Resize(img, longEdge, filter)
	flat := Flatten(resized)

	var buf bytes.Buffer
	if err := Encode(&buf, flat, quality); err != nil {
		return Output{}, err
	}

	b := flat.Bounds()
	return Output{Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}
