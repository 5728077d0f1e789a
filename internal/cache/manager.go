package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"photocache/internal/logging"
	"photocache/internal/metrics"
)

// ErrLocked is returned by Open when another process owns the cache root.
var ErrLocked = errors.New("cache root is locked by another process")

// Manager owns a cache root and its per-kind subdirectories.
type Manager struct {
	root string
	lock *flock.Flock
}

// Open prepares root for use: it creates the root and the per-kind
// subdirectories and takes an exclusive advisory lock on "{root}.lock" that
// is held until Close.
func Open(root string) (*Manager, error) {
	root = filepath.Clean(root)

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache root %s: %w", root, err)
	}

	lock := flock.New(root + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock cache root %s: %w", root, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", root, ErrLocked)
	}

	m := &Manager{root: root, lock: lock}

	for _, kind := range Kinds() {
		if err := os.MkdirAll(m.Dir(kind), 0o755); err != nil {
			_ = lock.Unlock()
			return nil, fmt.Errorf("failed to create %s cache directory: %w", kind, err)
		}
	}

	logging.Info("Cache root: %s", root)
	return m, nil
}

// Close releases the cache root lock.
func (m *Manager) Close() error {
	if m.lock == nil {
		return nil
	}
	return m.lock.Unlock()
}

// Root returns the cache root directory.
func (m *Manager) Root() string {
	return m.root
}

// Dir returns the directory for kind. All returns the root.
func (m *Manager) Dir(kind Kind) string {
	return filepath.Join(m.root, kind.Subdir())
}

// Size returns the total byte length of the cache entries of kind. A missing
// directory has size zero.
//
// The walk runs on its own goroutine; if ctx is cancelled first, Size
// returns ctx.Err() and the walk finishes in the background.
func (m *Manager) Size(ctx context.Context, kind Kind) (uint64, error) {
	type result struct {
		size uint64
		err  error
	}

	dir := m.Dir(kind)
	done := make(chan result, 1)
	go func() {
		size, err := dirSize(dir)
		done <- result{size, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return 0, fmt.Errorf("failed to size %s cache: %w", kind, r.err)
		}
		return r.size, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Clear removes every entry of kind and recreates the directory empty.
// Clearing a missing directory succeeds.
func (m *Manager) Clear(ctx context.Context, kind Kind) error {
	dir := m.Dir(kind)
	done := make(chan error, 1)
	go func() {
		done <- clearDir(dir)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to clear %s cache: %w", kind, err)
		}
		metrics.CacheClearsTotal.WithLabelValues(kind.String()).Inc()
		logging.Info("Cleared %s cache at %s", kind, dir)
		if kind == All {
			for _, k := range Kinds() {
				if err := os.MkdirAll(m.Dir(k), 0o755); err != nil {
					return fmt.Errorf("failed to recreate %s cache directory: %w", k, err)
				}
			}
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReportSizes returns the size of every kind, including All, keyed by the
// kind's name.
func (m *Manager) ReportSizes(ctx context.Context) (map[string]uint64, error) {
	sizes := make(map[string]uint64, len(Kinds())+1)
	for _, kind := range append(Kinds(), All) {
		size, err := m.Size(ctx, kind)
		if err != nil {
			return nil, err
		}
		sizes[kind.String()] = size
	}
	return sizes, nil
}

func dirSize(dir string) (uint64, error) {
	var total uint64

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				if path == dir {
					return fs.SkipAll
				}
				return nil
			}
			return err
		}
		if !d.Type().IsRegular() || !strings.EqualFold(filepath.Ext(path), Extension) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		total += uint64(info.Size())
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func clearDir(dir string) error {
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}
