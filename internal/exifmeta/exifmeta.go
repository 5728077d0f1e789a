package exifmeta

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"photocache/internal/filesystem"
	"photocache/internal/mediatypes"
)

// ErrNoMetadata is returned for RAW files whose container carries no
// readable EXIF.
var ErrNoMetadata = errors.New("no readable EXIF metadata")

// Metadata is the EXIF summary stored for a source image. Fields the file
// does not carry are nil or empty.
type Metadata struct {
	Make            string   `json:"make,omitempty"`
	Model           string   `json:"model,omitempty"`
	LensMake        string   `json:"lensMake,omitempty"`
	LensModel       string   `json:"lensModel,omitempty"`
	ISO             *int     `json:"iso,omitempty"`
	ShutterSpeed    *float64 `json:"shutterSpeed,omitempty"`
	Aperture        *float64 `json:"aperture,omitempty"`
	FocalLength     *float64 `json:"focalLength,omitempty"`
	ExposureBias    *float64 `json:"exposureBias,omitempty"`
	WhiteBalance    *int     `json:"whiteBalance,omitempty"`
	MeteringMode    *int     `json:"meteringMode,omitempty"`
	ExposureProgram *int     `json:"exposureProgram,omitempty"`
	ColorSpace      *int     `json:"colorSpace,omitempty"`
	Flash           *int     `json:"flash,omitempty"`
	DateTaken       string   `json:"dateTaken,omitempty"`
	Orientation     *int     `json:"orientation,omitempty"`
	Width           *int     `json:"width,omitempty"`
	Height          *int     `json:"height,omitempty"`
	GPSLat          *float64 `json:"gpsLat,omitempty"`
	GPSLon          *float64 `json:"gpsLon,omitempty"`
	GPSAlt          *float64 `json:"gpsAlt,omitempty"`
}

// Extract reads the EXIF metadata of the image at path.
//
// Raster files without EXIF are not an error: the result carries only the
// pixel dimensions. RAW files without EXIF return ErrNoMetadata.
func Extract(path string) (Metadata, error) {
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to open image for EXIF: %w", err)
	}
	defer f.Close()

	x, _ := exif.Decode(f)
	if x == nil {
		if mediatypes.IsRaw(path) {
			return Metadata{}, fmt.Errorf("%s: %w", path, ErrNoMetadata)
		}
		var m Metadata
		fillDimensionsFromFile(&m, f)
		return m, nil
	}

	m := fromExif(x)
	if m.Width == nil || m.Height == nil {
		fillDimensionsFromFile(&m, f)
	}
	return m, nil
}

func fromExif(x *exif.Exif) Metadata {
	var m Metadata

	m.Make = stringField(x, exif.Make)
	m.Model = stringField(x, exif.Model)
	m.LensMake = stringField(x, exif.LensMake)
	m.LensModel = stringField(x, exif.LensModel)

	m.ISO = intField(x, exif.ISOSpeedRatings)
	m.ShutterSpeed = ratField(x, exif.ExposureTime)
	m.Aperture = ratField(x, exif.FNumber)
	m.FocalLength = ratField(x, exif.FocalLength)
	m.ExposureBias = ratField(x, exif.ExposureBiasValue)
	m.WhiteBalance = intField(x, exif.WhiteBalance)
	m.MeteringMode = intField(x, exif.MeteringMode)
	m.ExposureProgram = intField(x, exif.ExposureProgram)
	m.ColorSpace = intField(x, exif.ColorSpace)
	m.Flash = intField(x, exif.Flash)
	m.Orientation = intField(x, exif.Orientation)

	for _, name := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTimeDigitized, exif.DateTime} {
		if v := stringField(x, name); v != "" {
			m.DateTaken = v
			break
		}
	}

	m.Width = firstInt(x, exif.PixelXDimension, exif.ImageWidth)
	m.Height = firstInt(x, exif.PixelYDimension, exif.ImageLength)
	if m.Width == nil || m.Height == nil {
		m.Width, m.Height = nil, nil
	}

	if lat, lon, err := x.LatLong(); err == nil {
		m.GPSLat = &lat
		m.GPSLon = &lon
	}
	if alt := ratField(x, exif.GPSAltitude); alt != nil {
		if ref := intField(x, exif.GPSAltitudeRef); ref != nil && *ref == 1 {
			*alt = -*alt
		}
		m.GPSAlt = alt
	}

	return m
}

func fillDimensionsFromFile(m *Metadata, r io.ReadSeeker) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return
	}
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return
	}
	w, h := cfg.Width, cfg.Height
	m.Width, m.Height = &w, &h
}

func stringField(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil || tag.Format() != tiff.StringVal {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(s, "\x00"))
}

func intField(x *exif.Exif, name exif.FieldName) *int {
	tag, err := x.Get(name)
	if err != nil || tag.Format() != tiff.IntVal {
		return nil
	}
	v, err := tag.Int(0)
	if err != nil {
		return nil
	}
	return &v
}

func firstInt(x *exif.Exif, names ...exif.FieldName) *int {
	for _, name := range names {
		if v := intField(x, name); v != nil {
			return v
		}
	}
	return nil
}

func ratField(x *exif.Exif, name exif.FieldName) *float64 {
	tag, err := x.Get(name)
	if err != nil || tag.Format() != tiff.RatVal {
		return nil
	}
	num, den, err := tag.Rat2(0)
	if err != nil || den == 0 {
		return nil
	}
	v := float64(num) / float64(den)
	return &v
}

// Entry is the stored metadata of a source together with the file
// signature it was read from.
type Entry struct {
	Path     string   `json:"path"`
	FileSize int64    `json:"fileSize"`
	ModTime  int64    `json:"modifiedTime"`
	Metadata Metadata `json:"metadata"`
}

// Matches reports whether the entry was read from a file with this signature.
func (e Entry) Matches(size, modTime int64) bool {
	return e.FileSize == size && e.ModTime == modTime
}
