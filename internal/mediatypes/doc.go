// Package mediatypes classifies source files by extension.
//
// It is dependency-free so the decoder, the coordinator and the HTTP layer
// can share it without import cycles.
//
//	mediatypes.IsRaw("/photos/IMG_0001.CR2")   // true
//	mediatypes.IsNative("/photos/a.heic")      // false, needs ffmpeg
//	mediatypes.GetFileType(".nef")             // FileTypeRaw
//
// RAW detection is purely by extension; the file contents are not sniffed.
package mediatypes
