package handlers

import (
	"time"

	"photocache/internal/database"
	"photocache/internal/generation"
	"photocache/internal/imageload"
	"photocache/internal/memory"
	"photocache/internal/metrics"
)

// Handlers serves the HTTP API.
type Handlers struct {
	coord   *generation.Coordinator
	loader  *imageload.Loader
	db      *database.Database
	latency *metrics.LatencyTracker
	monitor *memory.Monitor
	started time.Time
}

// Config wires the collaborators of Handlers. Latency and Monitor are
// optional.
type Config struct {
	Coordinator *generation.Coordinator
	Loader      *imageload.Loader
	Database    *database.Database
	Latency     *metrics.LatencyTracker
	Monitor     *memory.Monitor
}

func New(cfg Config) *Handlers {
	return &Handlers{
		coord:   cfg.Coordinator,
		loader:  cfg.Loader,
		db:      cfg.Database,
		latency: cfg.Latency,
		monitor: cfg.Monitor,
		started: time.Now(),
	}
}
