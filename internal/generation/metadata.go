package generation

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"photocache/internal/exifmeta"
	"photocache/internal/filesystem"
	"photocache/internal/logging"
	"photocache/internal/metrics"
)

// MetadataStore persists extracted EXIF metadata.
type MetadataStore interface {
	GetExifEntries(ctx context.Context, paths []string) ([]exifmeta.Entry, error)
	UpsertExifEntries(ctx context.Context, entries []exifmeta.Entry) error
}

// RefreshMetadata returns EXIF metadata for paths. Stored entries whose file
// size and mtime still match are reused; the rest are extracted on the
// metadata pool and written back in one batch. Unreadable paths are left
// out. If ctx ends first the refresh still completes and is stored.
func (c *Coordinator) RefreshMetadata(ctx context.Context, paths []string) ([]exifmeta.Entry, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	type outcome struct {
		entries []exifmeta.Entry
		err     error
	}
	done := make(chan outcome, 1)

	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		entries, err := c.refresh(context.WithoutCancel(ctx), paths)
		done <- outcome{entries, err}
	}()

	select {
	case out := <-done:
		return out.entries, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Coordinator) refresh(ctx context.Context, paths []string) ([]exifmeta.Entry, error) {
	existing := make(map[string]exifmeta.Entry)
	if c.store != nil {
		stored, err := c.store.GetExifEntries(ctx, paths)
		if err != nil {
			return nil, fmt.Errorf("failed to load stored metadata: %w", err)
		}
		for _, e := range stored {
			existing[e.Path] = e
		}
	}

	results := make([]*exifmeta.Entry, len(paths))
	fresh := make([]bool, len(paths))

	var wg sync.WaitGroup
	for i, path := range paths {
		i, path := i, path
		size, modTime, ok := c.signature(path)
		if !ok {
			metrics.MetadataRefreshTotal.WithLabelValues("missing").Inc()
			continue
		}

		if e, found := existing[path]; found && e.Matches(size, modTime) {
			results[i] = &e
			metrics.MetadataRefreshTotal.WithLabelValues("unchanged").Inc()
			continue
		}

		wg.Add(1)
		err := c.pools.Metadata.Submit(func() {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					logging.Error("Metadata extraction panicked for %s: %v", path, p)
					metrics.MetadataRefreshTotal.WithLabelValues("error").Inc()
				}
			}()

			md, err := exifmeta.Extract(path)
			if err != nil {
				logging.Warn("Failed to read EXIF from %s: %v", path, err)
				metrics.MetadataRefreshTotal.WithLabelValues("error").Inc()
				return
			}
			// Each task owns its own index.
			results[i] = &exifmeta.Entry{Path: path, FileSize: size, ModTime: modTime, Metadata: md}
			fresh[i] = true
			metrics.MetadataRefreshTotal.WithLabelValues("extracted").Inc()
		})
		if err != nil {
			wg.Done()
			return nil, fmt.Errorf("failed to dispatch metadata extraction: %w", err)
		}
	}
	wg.Wait()

	var entries, pending []exifmeta.Entry
	for i, e := range results {
		if e == nil {
			continue
		}
		entries = append(entries, *e)
		if fresh[i] {
			pending = append(pending, *e)
		}
	}

	if c.store != nil && len(pending) > 0 {
		if err := c.store.UpsertExifEntries(ctx, pending); err != nil {
			return entries, fmt.Errorf("failed to store metadata: %w", err)
		}
	}

	logging.Debug("Metadata refresh: %d requested, %d returned, %d extracted", len(paths), len(entries), len(pending))
	return entries, nil
}

// signature is the (size, mtime seconds) pair stored entries are checked
// against.
func (c *Coordinator) signature(path string) (size, modTime int64, ok bool) {
	info, err := filesystem.StatWithRetry(path, c.retry)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.Debug("Cannot stat %s for metadata: %v", path, err)
		}
		return 0, 0, false
	}
	secs := info.ModTime().Unix()
	if secs < 0 {
		return 0, 0, false
	}
	return info.Size(), secs, true
}
