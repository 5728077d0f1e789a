package generation

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"photocache/internal/cache"
	"photocache/internal/decoder"
	"photocache/internal/exifmeta"
	"photocache/internal/render"
	"photocache/internal/workers"
)

// fakeDeveloper stands in for libvips. When hold is non-nil, Develop blocks
// until it is closed.
type fakeDeveloper struct {
	width, height int
	orientation   int
	err           error
	hold          chan struct{}

	calls   atomic.Int32
	active  atomic.Int32
	maxSeen atomic.Int32
}

func (f *fakeDeveloper) Develop(string) (image.Image, error) {
	f.calls.Add(1)
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	if f.hold != nil {
		<-f.hold
	}
	if f.err != nil {
		return nil, f.err
	}
	return solid(f.width, f.height), nil
}

func (f *fakeDeveloper) Orientation(string) (int, bool) {
	if f.orientation == 0 {
		return 0, false
	}
	return f.orientation, true
}

func solid(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	return img
}

type testEnv struct {
	coord *Coordinator
	cache *cache.Manager
	dir   string
}

func newTestEnv(t *testing.T, dev decoder.RawDeveloper, mutate ...func(*Config)) *testEnv {
	t.Helper()

	dir := t.TempDir()
	mgr, err := cache.Open(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}

	pools := Pools{
		Thumbnail: workers.NewPool("test-thumbnail", 4),
		Preview:   workers.NewPool("test-preview", 4),
		Metadata:  workers.NewPool("test-metadata", 2),
	}

	cfg := Config{
		Cache:            mgr,
		Decoder:          decoder.New(decoder.WithRawDeveloper(dev), decoder.WithFFmpeg(false)),
		Pools:            pools,
		RawPrefetchLimit: 1,
		Filter:           render.Lanczos,
	}
	for _, m := range mutate {
		m(&cfg)
	}

	coord, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	t.Cleanup(func() {
		coord.Close()
		pools.Thumbnail.Close()
		pools.Preview.Close()
		pools.Metadata.Close()
		_ = mgr.Close()
	})

	return &testEnv{coord: coord, cache: mgr, dir: dir}
}

// rawFile writes a file with a RAW extension and no parsable container, so
// decoding always falls through to the developer.
func (e *testEnv) rawFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, []byte("not a tiff container"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func (e *testEnv) jpegFile(t *testing.T, name string, w, h int) string {
	t.Helper()
	path := filepath.Join(e.dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, solid(w, h), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}
	return path
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// memoryStore is an in-memory MetadataStore.
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]exifmeta.Entry
	upserts int
	failGet bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string]exifmeta.Entry)}
}

func (s *memoryStore) GetExifEntries(_ context.Context, paths []string) ([]exifmeta.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet {
		return nil, errors.New("store unavailable")
	}
	var out []exifmeta.Entry
	for _, p := range paths {
		if e, ok := s.entries[p]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memoryStore) UpsertExifEntries(_ context.Context, entries []exifmeta.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	for _, e := range entries {
		s.entries[e.Path] = e
	}
	return nil
}
