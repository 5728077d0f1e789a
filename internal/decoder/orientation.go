package decoder

import (
	"image"
	"io"
	"strconv"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"

	"photocache/internal/filesystem"
	"photocache/internal/metrics"
)

// ApplyOrientation transforms img so that it displays upright for the given
// EXIF orientation. Values outside 2..8 return img unchanged.
//
// imaging rotates counter-clockwise, so a clockwise quarter turn is Rotate270.
func ApplyOrientation(img *image.NRGBA, orientation int) *image.NRGBA {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

func applyOrientation(img *image.NRGBA, orientation int) *image.NRGBA {
	if orientation < 2 || orientation > 8 {
		return img
	}
	metrics.OrientationAppliedTotal.WithLabelValues(strconv.Itoa(orientation)).Inc()
	return ApplyOrientation(img, orientation)
}

// containerOrientation reads the IFD0 Orientation tag, or 0 if absent.
func containerOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil && x == nil {
		return 0
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 0
	}
	v, err := tag.Int(0)
	if err != nil {
		return 0
	}
	return v
}

func fileOrientation(path string, retry filesystem.RetryConfig) int {
	f, err := filesystem.OpenWithRetry(path, retry)
	if err != nil {
		return 0
	}
	defer f.Close()
	return containerOrientation(f)
}
