/*
Package decoder turns source images into upright RGBA rasters.

A Decode call runs an ordered chain of attempts and returns the first image
one of them produces:

 1. embedded: the JPEG preview referenced from the EXIF/TIFF directories
    (IFD0, then IFD1), only when the Policy allows it and the preview is
    large enough
 2. raw: full development through a RawDeveloper, for camera-RAW extensions
 3. raster: the Go image decoders (JPEG, PNG, GIF, BMP, TIFF, WebP)
 4. ffmpeg: the last resort for rasters Go cannot read, when ffmpeg is on PATH

RAW files never fall through to raster or ffmpeg. The embedded attempt reads
the file through a read-only memory mapping where the platform supports it.

After a successful attempt the EXIF orientation is resolved independently
(RAW metadata first for RAW files, then the container's IFD0) and applied:

	2 flip horizontal      6 rotate 90 clockwise
	3 rotate 180           7 flip horizontal, then rotate 90 clockwise
	4 flip vertical        8 rotate 270 clockwise
	5 flip horizontal, then rotate 270 clockwise

Failures are returned as *DecodeError carrying the source path and the last
stage tried. Panics inside codec libraries are recovered into errors.

The default RawDeveloper uses libvips; call InitVips at startup and
ShutdownVips on exit.
*/
package decoder
