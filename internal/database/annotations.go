package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"photocache/internal/logging"
)

// Flag values. Anything else is stored as FlagUnflagged.
const (
	FlagUnflagged = "unflagged"
	FlagPicked    = "picked"
	FlagRejected  = "rejected"
)

// Annotation is the user-assigned rating and flag of a source image.
type Annotation struct {
	Path   string `json:"path"`
	Rating int    `json:"rating"`
	Flag   string `json:"flag"`
}

// RatingEntry sets the star rating of one path.
type RatingEntry struct {
	Path   string `json:"path"`
	Rating int    `json:"rating"`
}

// FlagEntry sets the flag of one path.
type FlagEntry struct {
	Path string `json:"path"`
	Flag string `json:"flag"`
}

// ClampRating limits a rating to 0..5.
func ClampRating(r int) int {
	return min(max(r, 0), 5)
}

// NormalizeFlag maps unknown flags to FlagUnflagged.
func NormalizeFlag(f string) string {
	switch f {
	case FlagPicked, FlagRejected, FlagUnflagged:
		return f
	default:
		return FlagUnflagged
	}
}

// SetRatings stores ratings, clamped to 0..5, leaving flags untouched.
func (d *Database) SetRatings(ctx context.Context, entries []RatingEntry) error {
	if len(entries) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	defer func() { recordQuery("set_ratings", start, err) }()

	err = d.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO image_annotations (file_path, rating, updated_at)
		VALUES (?, ?, strftime('%s', 'now'))
		ON CONFLICT(file_path) DO UPDATE SET
			rating = excluded.rating,
			updated_at = excluded.updated_at
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, e.Path, ClampRating(e.Rating)); err != nil {
				return fmt.Errorf("failed to set rating for %s: %w", e.Path, err)
			}
		}
		return nil
	})
	if err == nil {
		logging.Debug("Persisted %d ratings", len(entries))
	}
	return err
}

// SetFlags stores flags, leaving ratings untouched.
func (d *Database) SetFlags(ctx context.Context, entries []FlagEntry) error {
	if len(entries) == 0 {
		return nil
	}

	start := time.Now()
	var err error
	defer func() { recordQuery("set_flags", start, err) }()

	err = d.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO image_annotations (file_path, flag, updated_at)
		VALUES (?, ?, strftime('%s', 'now'))
		ON CONFLICT(file_path) DO UPDATE SET
			flag = excluded.flag,
			updated_at = excluded.updated_at
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, e := range entries {
			if _, err := stmt.ExecContext(ctx, e.Path, NormalizeFlag(e.Flag)); err != nil {
				return fmt.Errorf("failed to set flag for %s: %w", e.Path, err)
			}
		}
		return nil
	})
	if err == nil {
		logging.Debug("Persisted %d flags", len(entries))
	}
	return err
}

// GetAnnotations returns the annotations stored for paths. Paths without a
// row are omitted.
func (d *Database) GetAnnotations(ctx context.Context, paths []string) ([]Annotation, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	start := time.Now()
	var err error
	defer func() { recordQuery("get_annotations", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	in, args := placeholders(paths)
	var rows *sql.Rows
	rows, err = d.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT file_path, rating, flag FROM image_annotations WHERE file_path IN (%s)", in), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Annotation
	for rows.Next() {
		var a Annotation
		if err = rows.Scan(&a.Path, &a.Rating, &a.Flag); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	err = rows.Err()
	return out, err
}
