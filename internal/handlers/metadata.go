package handlers

import (
	"errors"
	"net/http"

	"photocache/internal/database"
	"photocache/internal/exifmeta"
)

// PathsRequest is a body carrying a batch of source paths.
type PathsRequest struct {
	Paths []string `json:"paths"`
}

// RefreshMetadata re-reads EXIF metadata for paths whose file signature
// changed since it was stored and returns the entries in request order.
// Unreadable paths are omitted.
func (h *Handlers) RefreshMetadata(w http.ResponseWriter, r *http.Request) {
	var req PathsRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	paths, err := validPaths(req.Paths)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	entries, err := h.coord.RefreshMetadata(r.Context(), paths)
	if err != nil {
		writeOpError(w, "metadata refresh", err)
		return
	}
	if entries == nil {
		entries = []exifmeta.Entry{}
	}

	writeJSONResponse(w, http.StatusOK, entries)
}

// GetMetadata returns the stored EXIF entry of ?path= without touching the
// source file.
func (h *Handlers) GetMetadata(w http.ResponseWriter, r *http.Request) {
	path, err := sourcePath(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	entry, err := h.db.GetExif(r.Context(), path)
	if errors.Is(err, database.ErrNotFound) {
		writeJSONError(w, "no stored metadata for path", http.StatusNotFound)
		return
	}
	if err != nil {
		writeOpError(w, "get metadata", err)
		return
	}

	writeJSONResponse(w, http.StatusOK, entry)
}
