package mediatypes

import (
	"path/filepath"
	"strings"
)

// FileType represents the kind of source file.
type FileType string

const (
	// FileTypeRaster is an image in a container format decodable without development.
	FileTypeRaster FileType = "raster"
	// FileTypeRaw is a camera-RAW file that needs development.
	FileTypeRaw FileType = "raw"
	// FileTypeOther is an unsupported file.
	FileTypeOther FileType = "other"
)

// RasterExtensions maps extensions to whether they are supported raster formats.
var RasterExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
	".heic": true,
	".heif": true,
	".avif": true,
}

// RawExtensions maps extensions to whether they are supported camera-RAW formats.
// Plain ".raw" is left out because too many unrelated formats use it.
var RawExtensions = map[string]bool{
	".3fr": true,
	".ari": true,
	".arw": true,
	".cr2": true,
	".cr3": true,
	".crm": true,
	".crw": true,
	".dcr": true,
	".dcs": true,
	".dng": true,
	".erf": true,
	".fff": true,
	".iiq": true,
	".kdc": true,
	".mef": true,
	".mos": true,
	".mrw": true,
	".nef": true,
	".nrw": true,
	".orf": true,
	".ori": true,
	".pef": true,
	".qtk": true,
	".raf": true,
	".rw2": true,
	".rwl": true,
	".srw": true,
	".x3f": true,
}

// NativeExtensions are the raster formats the Go image decoders registered by
// the decoder package handle directly. Anything else needs an external tool.
var NativeExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// MimeTypes maps extensions to MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",
	".heic": "image/heic",
	".heif": "image/heif",
	".avif": "image/avif",
}

// Ext returns the lowercased extension of path, including the leading dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// GetFileType returns the FileType for an extension.
// The extension should be lowercase and include the leading dot (e.g., ".cr2").
func GetFileType(ext string) FileType {
	if RawExtensions[ext] {
		return FileTypeRaw
	}
	if RasterExtensions[ext] {
		return FileTypeRaster
	}
	return FileTypeOther
}

// IsRaw reports whether path has a camera-RAW extension. Case-insensitive.
func IsRaw(path string) bool {
	return RawExtensions[Ext(path)]
}

// IsNative reports whether path can be decoded by the registered Go decoders.
func IsNative(path string) bool {
	return NativeExtensions[Ext(path)]
}

// IsSupported reports whether path is a raster or RAW image this module can process.
func IsSupported(path string) bool {
	return GetFileType(Ext(path)) != FileTypeOther
}

// GetMimeType returns the MIME type for an extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	if RawExtensions[ext] {
		return "image/x-raw"
	}
	return "application/octet-stream"
}
