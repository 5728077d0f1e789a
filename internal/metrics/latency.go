package metrics

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
)

// LatencyTracker keeps per-operation latency quantiles using DDSketch.
// Histograms answer "how many requests were slow"; the tracker answers
// "what is p99 right now" for the stats endpoint without a Prometheus server.
type LatencyTracker struct {
	mu               sync.Mutex
	sketches         map[string]*ddsketch.DDSketch
	relativeAccuracy float64
}

// LatencyStats summarizes the recorded durations of one operation, in milliseconds.
type LatencyStats struct {
	Operation string  `json:"operation"`
	Count     float64 `json:"count"`
	P50       float64 `json:"p50Ms"`
	P90       float64 `json:"p90Ms"`
	P99       float64 `json:"p99Ms"`
	Max       float64 `json:"maxMs"`
}

// NewLatencyTracker creates a tracker. relativeAccuracy is the sketch's
// relative error bound (0.01 = 1%).
func NewLatencyTracker(relativeAccuracy float64) *LatencyTracker {
	return &LatencyTracker{
		sketches:         make(map[string]*ddsketch.DDSketch),
		relativeAccuracy: relativeAccuracy,
	}
}

// Record adds one duration sample for operation.
func (lt *LatencyTracker) Record(operation string, duration time.Duration) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	sketch, exists := lt.sketches[operation]
	if !exists {
		var err error
		sketch, err = ddsketch.LogUnboundedDenseDDSketch(lt.relativeAccuracy)
		if err != nil {
			sketch, _ = ddsketch.NewDefaultDDSketch(lt.relativeAccuracy)
		}
		lt.sketches[operation] = sketch
	}

	// DDSketch only accepts non-negative values; durations are never negative
	// but a zero sample from a coarse clock is fine.
	_ = sketch.Add(float64(duration.Microseconds()) / 1000.0)
}

// Time runs fn and records its duration under operation.
func (lt *LatencyTracker) Time(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	lt.Record(operation, time.Since(start))
	return err
}

// Quantile returns the value in milliseconds at quantile q for operation.
func (lt *LatencyTracker) Quantile(operation string, q float64) (float64, error) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	sketch, exists := lt.sketches[operation]
	if !exists {
		return 0, fmt.Errorf("no data for operation: %s", operation)
	}

	return sketch.GetValueAtQuantile(q)
}

// Snapshot returns stats for every recorded operation, sorted by name.
func (lt *LatencyTracker) Snapshot() []LatencyStats {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	stats := make([]LatencyStats, 0, len(lt.sketches))
	for operation, sketch := range lt.sketches {
		if sketch.IsEmpty() {
			continue
		}
		s := LatencyStats{
			Operation: operation,
			Count:     sketch.GetCount(),
		}
		if quantiles, err := sketch.GetValuesAtQuantiles([]float64{0.5, 0.9, 0.99}); err == nil {
			s.P50, s.P90, s.P99 = quantiles[0], quantiles[1], quantiles[2]
		}
		if maxValue, err := sketch.GetMaxValue(); err == nil {
			s.Max = maxValue
		}
		stats = append(stats, s)
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Operation < stats[j].Operation
	})

	return stats
}
