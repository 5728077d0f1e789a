package handlers

import (
	"net/http"
	"strconv"

	"photocache/internal/cache"
	"photocache/internal/imageload"
	"photocache/internal/logging"
	"photocache/internal/streaming"
)

// GetThumbnail returns the thumbnail rendition of ?path=, generating it if
// needed.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	h.getRendition(w, r, cache.Thumbnail)
}

// GetPreview returns the preview rendition of ?path=, generating it if
// needed.
func (h *Handlers) GetPreview(w http.ResponseWriter, r *http.Request) {
	h.getRendition(w, r, cache.Preview)
}

func (h *Handlers) getRendition(w http.ResponseWriter, r *http.Request, kind cache.Kind) {
	path, err := sourcePath(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	logging.Debug("%s requested: %s", kind, path)

	rendition, err := h.coord.GetOrCreate(r.Context(), path, kind)
	if err != nil {
		writeOpError(w, kind.String(), err)
		return
	}

	writeJSONResponse(w, http.StatusOK, rendition)
}

// GetHistogram returns the channel histograms of ?path=, computed from its
// preview rendition.
func (h *Handlers) GetHistogram(w http.ResponseWriter, r *http.Request) {
	path, err := sourcePath(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	hist, err := h.coord.Histogram(r.Context(), path)
	if err != nil {
		writeOpError(w, "histogram", err)
		return
	}

	writeJSONResponse(w, http.StatusOK, hist)
}

// GetImage streams the full-resolution pixels of ?path= as tightly packed
// RGBA bytes. A request that is overtaken by a newer one before decoding
// finishes gets 409.
func (h *Handlers) GetImage(w http.ResponseWriter, r *http.Request) {
	path, err := sourcePath(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := h.loader.Begin()
	w.Header().Set("X-Request-Id", strconv.FormatUint(id, 10))

	var (
		pixels        []byte
		width, height int
	)
	err = h.loader.LoadAs(r.Context(), id, path, func(img imageload.Image) {
		pixels, width, height = img.Pixels, img.Width, img.Height
	})
	if err != nil {
		writeOpError(w, "full image", err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(pixels)))
	w.Header().Set("X-Image-Width", strconv.Itoa(width))
	w.Header().Set("X-Image-Height", strconv.Itoa(height))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := streaming.WriteChunked(r.Context(), w, pixels, streaming.DefaultConfig()); err != nil {
		logging.Debug("full image write for %s: %v", path, err)
	}
}
