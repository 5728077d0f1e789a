// Package render resizes decoded rasters and encodes them as JPEG renditions.
//
// Resizing preserves aspect ratio and never upscales. Transparency is
// flattened onto white before encoding since JPEG has no alpha channel.
package render
