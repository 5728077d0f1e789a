package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter registers every API route of h.
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet)

	// Renditions
	api.HandleFunc("/thumbnail", h.GetThumbnail).Methods(http.MethodGet)
	api.HandleFunc("/preview", h.GetPreview).Methods(http.MethodGet)
	api.HandleFunc("/histogram", h.GetHistogram).Methods(http.MethodGet)
	api.HandleFunc("/image", h.GetImage).Methods(http.MethodGet)
	api.HandleFunc("/prefetch", h.Prefetch).Methods(http.MethodPost)

	// Metadata and annotations
	api.HandleFunc("/metadata", h.GetMetadata).Methods(http.MethodGet)
	api.HandleFunc("/metadata/refresh", h.RefreshMetadata).Methods(http.MethodPost)
	api.HandleFunc("/ratings", h.SetRatings).Methods(http.MethodPost)
	api.HandleFunc("/flags", h.SetFlags).Methods(http.MethodPost)
	api.HandleFunc("/annotations", h.GetAnnotations).Methods(http.MethodPost)

	// Cache maintenance
	api.HandleFunc("/cache/{kind}/size", h.GetCacheSize).Methods(http.MethodGet)
	api.HandleFunc("/cache/{kind}", h.ClearCache).Methods(http.MethodDelete)

	return r
}
