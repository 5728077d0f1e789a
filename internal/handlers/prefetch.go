package handlers

import (
	"net/http"

	"photocache/internal/cache"
)

// PrefetchRequest is the body of POST /api/prefetch.
type PrefetchRequest struct {
	Paths []string `json:"paths"`
	Kind  string   `json:"kind"`
}

// Prefetch queues background generation of renditions and returns 202
// without waiting for any of them.
func (h *Handlers) Prefetch(w http.ResponseWriter, r *http.Request) {
	var req PrefetchRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	kind, err := cache.ParseKind(req.Kind)
	if err != nil || !kind.Renderable() {
		writeJSONError(w, "kind must be thumbnail or preview", http.StatusBadRequest)
		return
	}

	paths, err := validPaths(req.Paths)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.coord.Prefetch(paths, kind)

	writeJSONResponse(w, http.StatusAccepted, map[string]any{
		"status": "queued",
		"kind":   kind.String(),
		"count":  len(paths),
	})
}
