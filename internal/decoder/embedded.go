package decoder

import (
	"bytes"
	"image"
	_ "image/jpeg"

	"github.com/rwcarlsen/goexif/exif"
)

const (
	tagJPEGInterchangeFormat       = 0x0201
	tagJPEGInterchangeFormatLength = 0x0202
)

// embeddedPreview extracts and decodes the JPEG referenced by the
// JPEGInterchangeFormat fields of IFD0 or IFD1. It returns nil if there is
// no usable preview or neither dimension reaches minSize.
func embeddedPreview(data []byte, minSize int) image.Image {
	if len(data) == 0 {
		return nil
	}

	jpegBytes := extractJPEG(data)
	if jpegBytes == nil {
		return nil
	}

	img, _, err := image.Decode(bytes.NewReader(jpegBytes))
	if err != nil {
		return nil
	}

	b := img.Bounds()
	if b.Dx() < minSize && b.Dy() < minSize {
		return nil
	}
	return img
}

// extractJPEG returns the embedded JPEG byte range, or nil. Offsets are
// relative to the TIFF header, which is the start of x.Raw.
func extractJPEG(data []byte) []byte {
	// A parser error after the TIFF directories were read still leaves a
	// usable result.
	x, _ := exif.Decode(bytes.NewReader(data))
	if x == nil || x.Tiff == nil {
		return nil
	}

	buf := x.Raw
	for i, dir := range x.Tiff.Dirs {
		if i > 1 {
			break
		}

		var offset, length int64 = -1, -1
		for _, tag := range dir.Tags {
			switch tag.Id {
			case tagJPEGInterchangeFormat:
				if v, err := tag.Int64(0); err == nil {
					offset = v
				}
			case tagJPEGInterchangeFormatLength:
				if v, err := tag.Int64(0); err == nil {
					length = v
				}
			}
		}

		if offset < 0 || length <= 0 {
			continue
		}
		if offset+length <= int64(len(buf)) {
			return buf[offset : offset+length]
		}
	}

	return nil
}
