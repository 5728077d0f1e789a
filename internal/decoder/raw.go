package decoder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/davidbyttow/govips/v2/vips"
)

// RawDeveloper develops camera-RAW files into displayable images.
//
// Development covers demosaic, white balance, color matrix, crop and gamma.
// It does not apply a tone curve or highlight recovery.
type RawDeveloper interface {
	Develop(path string) (image.Image, error)
	// Orientation returns the EXIF orientation from the RAW metadata.
	Orientation(path string) (int, bool)
}

// ErrVipsUnavailable is returned when libvips has not been started.
var ErrVipsUnavailable = errors.New("libvips not available")

// VipsDeveloper develops RAW files with libvips' loaders.
type VipsDeveloper struct{}

func (VipsDeveloper) load(path string) (*vips.ImageRef, error) {
	if !IsVipsAvailable() {
		return nil, ErrVipsUnavailable
	}

	params := vips.NewImportParams()
	params.AutoRotate.Set(false)

	ref, err := vips.LoadImageFromFile(path, params)
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	return ref, nil
}

// Develop loads path through libvips and returns the developed image.
// Orientation is left to the caller.
func (v VipsDeveloper) Develop(path string) (image.Image, error) {
	ref, err := v.load(path)
	if err != nil {
		return nil, err
	}
	defer ref.Close()

	params := vips.NewPngExportParams()
	params.Compression = 1
	params.StripMetadata = true

	buf, _, err := ref.ExportPng(params)
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}
	return img, nil
}

// Orientation reads the orientation libvips reports for path. libvips only
// reads the header here.
func (v VipsDeveloper) Orientation(path string) (int, bool) {
	ref, err := v.load(path)
	if err != nil {
		return 0, false
	}
	defer ref.Close()

	o := ref.Orientation()
	if o < 1 || o > 8 {
		return 0, false
	}
	return o, true
}
