package handlers

import (
	"net/http"

	"photocache/internal/metrics"
)

// MemoryStats is the memory section of the stats response.
type MemoryStats struct {
	CurrentBytes int64   `json:"currentBytes"`
	LimitBytes   int64   `json:"limitBytes"`
	Usage        float64 `json:"usage"`
	Paused       bool    `json:"paused"`
}

// StatsResponse is returned by GET /api/stats.
type StatsResponse struct {
	Latency []metrics.LatencyStats `json:"latency"`
	Memory  *MemoryStats           `json:"memory,omitempty"`
}

// GetStats returns per-phase latency quantiles and memory pressure.
func (h *Handlers) GetStats(w http.ResponseWriter, _ *http.Request) {
	resp := StatsResponse{Latency: []metrics.LatencyStats{}}

	if h.latency != nil {
		resp.Latency = h.latency.Snapshot()
	}

	if h.monitor != nil {
		current, limit, usage := h.monitor.Stats()
		resp.Memory = &MemoryStats{
			CurrentBytes: current,
			LimitBytes:   limit,
			Usage:        usage,
			Paused:       h.monitor.IsPaused(),
		}
	}

	w.Header().Set("Cache-Control", "no-cache")
	writeJSONResponse(w, http.StatusOK, resp)
}
