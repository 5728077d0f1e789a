package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"photocache/internal/exifmeta"
	"photocache/internal/logging"
)

// ErrNotFound is returned when no row exists for a path.
var ErrNotFound = errors.New("not found")

// GetExifEntries returns the stored entries for paths. Paths without an
// entry are omitted.
func (d *Database) GetExifEntries(ctx context.Context, paths []string) ([]exifmeta.Entry, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	start := time.Now()
	var err error
	defer func() { recordQuery("get_exif", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	in, args := placeholders(paths)
	query := fmt.Sprintf(`
	SELECT file_path, file_size, modified_time, metadata_json
	FROM exif_metadata WHERE file_path IN (%s)
	`, in)

	var rows *sql.Rows
	rows, err = d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []exifmeta.Entry
	for rows.Next() {
		var e exifmeta.Entry
		var raw string
		if err = rows.Scan(&e.Path, &e.FileSize, &e.ModTime, &raw); err != nil {
			return nil, err
		}
		if err = json.Unmarshal([]byte(raw), &e.Metadata); err != nil {
			return nil, fmt.Errorf("corrupt metadata for %s: %w", e.Path, err)
		}
		entries = append(entries, e)
	}
	err = rows.Err()
	return entries, err
}

// GetExif returns the stored entry for path, or ErrNotFound.
func (d *Database) GetExif(ctx context.Context, path string) (exifmeta.Entry, error) {
	entries, err := d.GetExifEntries(ctx, []string{path})
	if err != nil {
		return exifmeta.Entry{}, err
	}
	if len(entries) == 0 {
		return exifmeta.Entry{}, fmt.Errorf("exif for %s: %w", path, ErrNotFound)
	}
	return entries[0], nil
}

// UpsertExifEntries stores entries in a single transaction.
func (d *Database) UpsertExifEntries(ctx context.Context, entries []exifmeta.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	defer func() { recordQuery("upsert_exif", start, err) }()

	err = d.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO exif_metadata (file_path, file_size, modified_time, metadata_json, updated_at)
		VALUES (?, ?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT(file_path) DO UPDATE SET
			file_size = excluded.file_size,
			modified_time = excluded.modified_time,
			metadata_json = excluded.metadata_json,
			updated_at = excluded.updated_at
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range entries {
			raw, err := json.Marshal(e.Metadata)
			if err != nil {
				return fmt.Errorf("failed to encode metadata for %s: %w", e.Path, err)
			}
			if _, err := stmt.ExecContext(ctx, e.Path, e.FileSize, e.ModTime, string(raw)); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		logging.Debug("Persisted %d EXIF entries", len(entries))
	}
	return err
}
