// Package streaming writes large in-memory payloads, such as full-resolution
// pixel buffers, to HTTP clients in chunks with a per-chunk write deadline.
//
// The API server runs without a global write timeout because a decoded
// 60-megapixel frame is several hundred megabytes. WriteChunked bounds each
// chunk instead, so a stalled client releases its connection and its buffer
// after one ChunkTimeout rather than never.
//
// Basic usage:
//
//	n, err := streaming.WriteChunked(r.Context(), w, pixels, streaming.DefaultConfig())
//	if errors.Is(err, streaming.ErrClientGone) {
//	    // client disconnected
//	}
package streaming
