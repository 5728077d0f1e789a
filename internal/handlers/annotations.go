package handlers

import (
	"net/http"

	"photocache/internal/database"
)

// RatingsRequest is the body of POST /api/ratings.
type RatingsRequest struct {
	Entries []database.RatingEntry `json:"entries"`
}

// FlagsRequest is the body of POST /api/flags.
type FlagsRequest struct {
	Entries []database.FlagEntry `json:"entries"`
}

// SetRatings stores star ratings. Out-of-range ratings are clamped to 0..5.
func (h *Handlers) SetRatings(w http.ResponseWriter, r *http.Request) {
	var req RatingsRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	for _, e := range req.Entries {
		if _, err := validPaths([]string{e.Path}); err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	if err := h.db.SetRatings(r.Context(), req.Entries); err != nil {
		writeOpError(w, "set ratings", err)
		return
	}

	writeJSONStatus(w, "ok")
}

// SetFlags stores pick/reject flags. Unknown flags are stored as unflagged.
func (h *Handlers) SetFlags(w http.ResponseWriter, r *http.Request) {
	var req FlagsRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	for _, e := range req.Entries {
		if _, err := validPaths([]string{e.Path}); err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	if err := h.db.SetFlags(r.Context(), req.Entries); err != nil {
		writeOpError(w, "set flags", err)
		return
	}

	writeJSONStatus(w, "ok")
}

// GetAnnotations returns the stored rating and flag of each requested path.
func (h *Handlers) GetAnnotations(w http.ResponseWriter, r *http.Request) {
	var req PathsRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	annotations, err := h.db.GetAnnotations(r.Context(), req.Paths)
	if err != nil {
		writeOpError(w, "get annotations", err)
		return
	}
	if annotations == nil {
		annotations = []database.Annotation{}
	}

	writeJSONResponse(w, http.StatusOK, annotations)
}
