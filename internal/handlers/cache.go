package handlers

import (
	"net/http"
	"time"

	"photocache/internal/cache"
	"photocache/internal/logging"
)

// CacheSizeResponse is returned by GET /api/cache/{kind}/size.
type CacheSizeResponse struct {
	Kind        string `json:"kind"`
	Bytes       uint64 `json:"bytes"`
	LastCleared string `json:"lastCleared,omitempty"`
}

// GetCacheSize reports the bytes stored for a rendition kind, or for the
// whole cache when kind is "all".
func (h *Handlers) GetCacheSize(w http.ResponseWriter, r *http.Request) {
	kind, err := kindVar(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	size, err := h.coord.CacheSize(r.Context(), kind)
	if err != nil {
		writeOpError(w, "cache size", err)
		return
	}

	resp := CacheSizeResponse{Kind: kind.String(), Bytes: size}
	if h.db != nil {
		cleared, err := h.db.GetLastCacheClear(r.Context(), kind.String())
		if err != nil {
			logging.Warn("failed to read last %s cache clear: %v", kind, err)
		} else if !cleared.IsZero() {
			resp.LastCleared = cleared.Format(time.RFC3339)
		}
	}

	writeJSONResponse(w, http.StatusOK, resp)
}

// ClearCache removes every stored rendition of a kind.
func (h *Handlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	kind, err := kindVar(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.coord.ClearCache(r.Context(), kind); err != nil {
		writeOpError(w, "clear cache", err)
		return
	}

	if h.db != nil {
		kinds := []cache.Kind{kind}
		if kind == cache.All {
			kinds = append(kinds, cache.Kinds()...)
		}
		now := time.Now()
		for _, k := range kinds {
			if err := h.db.SetLastCacheClear(r.Context(), k.String(), now); err != nil {
				logging.Warn("failed to record %s cache clear: %v", k, err)
			}
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
