package metrics

import (
	"context"
	"time"

	"photocache/internal/logging"
)

// SizeReporter reports the on-disk size of each rendition namespace, keyed
// by kind name.
type SizeReporter interface {
	ReportSizes(ctx context.Context) (map[string]uint64, error)
}

// Collector periodically walks the cache and updates the size gauges.
// Walking a large cache is I/O heavy, so this runs on its own interval
// instead of on every scrape.
type Collector struct {
	reporter SizeReporter
	interval time.Duration
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewCollector creates a new cache size collector
func NewCollector(reporter SizeReporter, interval time.Duration) *Collector {
	return &Collector{
		reporter: reporter,
		interval: interval,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

// Start begins the collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the collection loop and waits for an in-progress walk to finish
func (c *Collector) Stop() {
	close(c.stopChan)
	<-c.doneChan
}

func (c *Collector) collectLoop() {
	defer close(c.doneChan)

	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.reporter == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.interval)
	defer cancel()

	sizes, err := c.reporter.ReportSizes(ctx)
	if err != nil {
		logging.Warn("Cache size collection failed: %v", err)
		return
	}

	for kind, size := range sizes {
		CacheSizeBytes.WithLabelValues(kind).Set(float64(size))
	}

	logging.Debug("Cache sizes collected: %v", sizes)
}
