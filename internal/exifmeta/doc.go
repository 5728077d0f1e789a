// Package exifmeta extracts camera and capture metadata from image files.
//
// TIFF-based RAW formats (CR2, NEF, ARW, DNG, ...) and JPEGs are read
// directly. Rasters without EXIF fall back to the decoder's image config for
// dimensions.
package exifmeta
