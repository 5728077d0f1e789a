package generation

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // cached renditions are JPEG
	"io/fs"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"photocache/internal/cache"
	"photocache/internal/decoder"
	"photocache/internal/filesystem"
	"photocache/internal/fingerprint"
	"photocache/internal/logging"
	"photocache/internal/memory"
	"photocache/internal/metrics"
	"photocache/internal/render"
	"photocache/internal/workers"
)

var (
	// ErrGenerationFailed is what a request that joined another request's
	// generation sees when that generation left no cache entry behind.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrGenerationCancelled is returned when the caller stopped waiting.
	// The generation itself keeps running.
	ErrGenerationCancelled = errors.New("generation cancelled")

	// ErrJoin is returned when a pool task panicked.
	ErrJoin = errors.New("generation task panicked")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("coordinator closed")
)

// Rendition is a cached derived image.
type Rendition struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Pools are the worker pools the coordinator dispatches onto. The caller
// owns them and closes them after the coordinator.
type Pools struct {
	Thumbnail *workers.Pool
	Preview   *workers.Pool
	Metadata  *workers.Pool
}

// Config configures a Coordinator.
type Config struct {
	Cache   *cache.Manager
	Decoder *decoder.Decoder
	Pools   Pools

	// RawPrefetchLimit bounds concurrent full RAW developments started by
	// Prefetch. Zero means one.
	RawPrefetchLimit int

	Filter render.Filter

	// Optional collaborators.
	Monitor *memory.Monitor
	Store   MetadataStore
	Latency *metrics.LatencyTracker
}

// Coordinator produces renditions, running at most one generation per cache
// entry at a time.
type Coordinator struct {
	cache   *cache.Manager
	fp      *fingerprint.Fingerprinter
	decoder *decoder.Decoder
	pools   Pools
	filter  render.Filter
	raw     *semaphore.Weighted
	monitor *memory.Monitor
	store   MetadataStore
	latency *metrics.LatencyTracker
	retry   filesystem.RetryConfig

	mu       sync.Mutex
	inFlight map[string]*flight

	ctx    context.Context
	cancel context.CancelFunc
	bg     sync.WaitGroup
}

// flight is an in-progress generation. done is closed exactly once, when
// the generation has finished and the entry has left the in-flight map.
type flight struct {
	done chan struct{}
}

// New returns a Coordinator.
func New(cfg Config) (*Coordinator, error) {
	if cfg.Cache == nil {
		return nil, errors.New("cache manager is required")
	}
	if cfg.Pools.Thumbnail == nil || cfg.Pools.Preview == nil || cfg.Pools.Metadata == nil {
		return nil, errors.New("thumbnail, preview and metadata pools are required")
	}
	if cfg.Decoder == nil {
		cfg.Decoder = decoder.New()
	}
	if cfg.RawPrefetchLimit < 1 {
		cfg.RawPrefetchLimit = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		cache:    cfg.Cache,
		fp:       fingerprint.New(cfg.Cache.Root()),
		decoder:  cfg.Decoder,
		pools:    cfg.Pools,
		filter:   cfg.Filter,
		raw:      semaphore.NewWeighted(int64(cfg.RawPrefetchLimit)),
		monitor:  cfg.Monitor,
		store:    cfg.Store,
		latency:  cfg.Latency,
		retry:    filesystem.DefaultRetryConfig(),
		inFlight: make(map[string]*flight),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Close stops background prefetch dispatch and waits for it to return.
// Tasks already handed to a pool still run to completion.
func (c *Coordinator) Close() {
	c.cancel()
	c.bg.Wait()
}

func (c *Coordinator) pool(kind cache.Kind) *workers.Pool {
	if kind == cache.Preview {
		return c.pools.Preview
	}
	return c.pools.Thumbnail
}

// GetOrCreate returns the rendition of kind for path, generating it if it
// is not cached. Concurrent requests for the same entry share a single
// generation. Cancelling ctx stops the wait, not the generation.
func (c *Coordinator) GetOrCreate(ctx context.Context, path string, kind cache.Kind) (Rendition, error) {
	if !kind.Renderable() {
		return Rendition{}, fmt.Errorf("cannot render kind %q", kind)
	}

	cachePath, err := c.fp.Path(path, kind)
	if err != nil {
		return Rendition{}, err
	}

	if r, ok := c.lookup(cachePath, false); ok {
		metrics.CacheHitsTotal.WithLabelValues(kind.String()).Inc()
		return r, nil
	}
	metrics.CacheMissesTotal.WithLabelValues(kind.String()).Inc()

	f, leader := c.claim(cachePath)
	if !leader {
		metrics.DedupJoinsTotal.WithLabelValues(kind.String()).Inc()
		return c.follow(ctx, f, cachePath)
	}

	return c.lead(ctx, f, path, cachePath, kind)
}

// lead runs the generation for a flight the caller owns. It re-checks the
// cache first, since another generation may have finished between the
// caller's lookup and its claim.
func (c *Coordinator) lead(ctx context.Context, f *flight, path, cachePath string, kind cache.Kind) (Rendition, error) {
	if r, ok := c.lookup(cachePath, true); ok {
		c.release(cachePath, f)
		return r, nil
	}

	type outcome struct {
		rendition Rendition
		err       error
	}
	result := make(chan outcome, 1)

	err := c.pool(kind).Submit(func() {
		defer c.release(cachePath, f)
		r, err := c.protect(func() (Rendition, error) {
			return c.generate(path, cachePath, kind)
		})
		result <- outcome{r, err}
	})
	if err != nil {
		c.release(cachePath, f)
		return Rendition{}, fmt.Errorf("failed to dispatch %s for %s: %w", kind, path, err)
	}

	select {
	case out := <-result:
		return out.rendition, out.err
	case <-ctx.Done():
		return Rendition{}, fmt.Errorf("%s for %s: %w", kind, path, ErrGenerationCancelled)
	}
}

// claim registers a generation for cachePath. It returns the existing
// flight and false if one is already running.
func (c *Coordinator) claim(cachePath string) (*flight, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.inFlight[cachePath]; ok {
		return f, false
	}
	f := &flight{done: make(chan struct{})}
	c.inFlight[cachePath] = f
	return f, true
}

// release removes the flight and wakes everyone waiting on it.
func (c *Coordinator) release(cachePath string, f *flight) {
	c.mu.Lock()
	if c.inFlight[cachePath] == f {
		delete(c.inFlight, cachePath)
	}
	c.mu.Unlock()
	close(f.done)
}

// follow waits for another request's generation and reports the state of
// the filesystem afterwards.
func (c *Coordinator) follow(ctx context.Context, f *flight, cachePath string) (Rendition, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		return Rendition{}, ErrGenerationCancelled
	}

	if !cache.Exists(cachePath) {
		return Rendition{}, ErrGenerationFailed
	}
	return c.cached(cachePath)
}

// protect runs fn, turning a panic into ErrJoin.
func (c *Coordinator) protect(fn func() (Rendition, error)) (r Rendition, err error) {
	defer func() {
		if p := recover(); p != nil {
			logging.Error("Generation task panicked: %v", p)
			r = Rendition{}
			err = fmt.Errorf("%w: %v", ErrJoin, p)
		}
	}()
	return fn()
}

// lookup returns the rendition cached at cachePath if it is present and
// readable. With evict set, an unreadable entry is removed so it can be
// regenerated; only the owner of the path's flight may evict.
func (c *Coordinator) lookup(cachePath string, evict bool) (Rendition, bool) {
	if !cache.Exists(cachePath) {
		return Rendition{}, false
	}
	r, err := c.cached(cachePath)
	if err == nil {
		return r, true
	}
	if !evict {
		logging.Debug("Cache entry unreadable, regenerating: %v", err)
		return Rendition{}, false
	}

	logging.Warn("Removing unreadable cache entry: %v", err)
	if err := os.Remove(cachePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.Warn("Failed to remove cache entry %s: %v", cachePath, err)
	}
	return Rendition{}, false
}

// cached returns the rendition stored at cachePath.
func (c *Coordinator) cached(cachePath string) (Rendition, error) {
	f, err := filesystem.OpenWithRetry(cachePath, c.retry)
	if err != nil {
		return Rendition{}, fmt.Errorf("failed to open cached rendition: %w", err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return Rendition{}, fmt.Errorf("failed to read cached rendition %s: %w", cachePath, err)
	}
	return Rendition{Path: cachePath, Width: cfg.Width, Height: cfg.Height}, nil
}

// CacheSize returns the bytes stored for kind.
func (c *Coordinator) CacheSize(ctx context.Context, kind cache.Kind) (uint64, error) {
	return c.cache.Size(ctx, kind)
}

// ClearCache removes every stored rendition of kind.
func (c *Coordinator) ClearCache(ctx context.Context, kind cache.Kind) error {
	start := time.Now()
	if err := c.cache.Clear(ctx, kind); err != nil {
		return err
	}
	logging.Info("Cleared %s cache in %v", kind, time.Since(start))
	return nil
}
