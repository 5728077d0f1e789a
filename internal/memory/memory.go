package memory

import (
	"context"
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"photocache/internal/logging"
	"photocache/internal/metrics"
)

// Config holds memory monitor thresholds.
type Config struct {
	// LimitBytes is the reference limit. Zero means GOMEMLIMIT.
	LimitBytes int64

	// PauseAt is the usage ratio at which background work pauses.
	PauseAt float64

	// ResumeAt is the usage ratio below which paused work resumes.
	ResumeAt float64

	CheckInterval time.Duration

	// Sample reports the current heap size. Nil reads runtime heap stats.
	Sample func() uint64
}

// DefaultConfig returns the thresholds used by the service.
func DefaultConfig() Config {
	return Config{
		PauseAt:       0.85,
		ResumeAt:      0.70,
		CheckInterval: 2 * time.Second,
	}
}

// Monitor samples heap usage and lets background prefetch wait out memory
// pressure. Interactive requests never consult it.
type Monitor struct {
	config Config
	limit  int64
	alloc  func() uint64

	mu      sync.RWMutex
	current uint64
	paused  bool
	resume  chan struct{}

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMonitor creates a monitor. Without a limit it never pauses.
func NewMonitor(config Config) *Monitor {
	limit := config.LimitBytes
	if limit == 0 {
		if goMemLimit := debug.SetMemoryLimit(-1); goMemLimit > 0 && goMemLimit < math.MaxInt64 {
			limit = goMemLimit
			logging.Info("Memory monitor using GOMEMLIMIT: %s", FormatBytes(limit))
		}
	}
	if limit == 0 {
		logging.Warn("Memory monitor: no memory limit configured, prefetch backpressure disabled")
	}

	alloc := config.Sample
	if alloc == nil {
		alloc = heapAlloc
	}

	return &Monitor{
		config: config,
		limit:  limit,
		alloc:  alloc,
		resume: make(chan struct{}),
		stop:   make(chan struct{}),
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Alloc
}

// Start begins periodic sampling.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(m.config.CheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.check()
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends sampling and releases every waiter.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Monitor) check() {
	alloc := m.alloc()
	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.current = alloc
	switch {
	case usage >= m.config.PauseAt && !m.paused:
		logging.Warn("Memory critical (%.1f%% of limit), pausing prefetch", usage*100)
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryGCPauses.Inc()
		go runtime.GC()
	case usage < m.config.ResumeAt && m.paused:
		logging.Info("Memory recovered (%.1f%% of limit), resuming prefetch", usage*100)
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.resume)
		m.resume = make(chan struct{})
	}
}

// WaitIfPaused blocks while memory is critical. It returns false if ctx is
// done or the monitor stopped before pressure cleared.
func (m *Monitor) WaitIfPaused(ctx context.Context) bool {
	if m == nil {
		return true
	}

	m.mu.RLock()
	if !m.paused {
		m.mu.RUnlock()
		return true
	}
	resume := m.resume
	m.mu.RUnlock()

	select {
	case <-resume:
		return true
	case <-m.stop:
		return false
	case <-ctx.Done():
		return false
	}
}

// IsPaused reports whether background work is currently held back. A nil
// Monitor is never paused.
func (m *Monitor) IsPaused() bool {
	if m == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Stats returns the last sampled heap size, the limit, and their ratio.
func (m *Monitor) Stats() (current, limit int64, usage float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	current = int64(min(m.current, uint64(math.MaxInt64)))
	if m.limit > 0 {
		usage = float64(m.current) / float64(m.limit)
	}
	return current, m.limit, usage
}
