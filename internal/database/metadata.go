package database

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// GetMetadata retrieves a metadata value by key.
// Returns sql.ErrNoRows if the key doesn't exist.
func (d *Database) GetMetadata(ctx context.Context, key string) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var value string
	err := d.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetMetadata sets a metadata key-value pair.
func (d *Database) SetMetadata(ctx context.Context, key, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func lastClearKey(kind string) string {
	return "last_cache_clear_" + kind
}

// GetLastCacheClear returns when the cache of kind was last cleared.
// Returns zero time if never cleared.
func (d *Database) GetLastCacheClear(ctx context.Context, kind string) (time.Time, error) {
	value, err := d.GetMetadata(ctx, lastClearKey(kind))
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}

// SetLastCacheClear records when the cache of kind was cleared.
func (d *Database) SetLastCacheClear(ctx context.Context, kind string, t time.Time) error {
	if t.IsZero() {
		return d.SetMetadata(ctx, lastClearKey(kind), "")
	}
	return d.SetMetadata(ctx, lastClearKey(kind), t.UTC().Format(time.RFC3339))
}
