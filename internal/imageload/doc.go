// Package imageload decodes images at full resolution for display.
//
// Full loads bypass the rendition cache and are never written to disk. A
// viewer that steps through images quickly starts a new load for every
// step, so each load is tagged with a request id from [Loader.Begin] and its
// result is dropped unless that id is still the newest when decoding ends.
package imageload
