package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"photocache/internal/exifmeta"
)

func setupTestDB(t testing.TB) (db *Database, dbPath string) {
	t.Helper()

	dbPath = filepath.Join(t.TempDir(), "test.db")
	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, dbPath
}

func TestNewCreatesDatabaseFile(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	_, dbPath := setupTestDB(t)

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestNewReopensExistingDatabase(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "reopen.db")

	db, err := New(ctx, dbPath)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := db.SetRatings(ctx, []RatingEntry{{Path: "/a.jpg", Rating: 4}}); err != nil {
		t.Fatalf("SetRatings failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	db, err = New(ctx, dbPath)
	if err != nil {
		t.Fatalf("second New failed: %v", err)
	}
	defer db.Close()

	got, err := db.GetAnnotations(ctx, []string{"/a.jpg"})
	if err != nil {
		t.Fatalf("GetAnnotations failed: %v", err)
	}
	if len(got) != 1 || got[0].Rating != 4 {
		t.Errorf("annotations after reopen = %+v, want rating 4", got)
	}
}

func TestNewFailsForMissingDirectory(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	_, err := New(context.Background(), filepath.Join(t.TempDir(), "missing", "sub", "test.db"))
	if err == nil {
		t.Error("expected error for database in nonexistent directory")
	}
}

func TestExifRoundTripIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()

	mk := "Canon"
	iso := 400
	w, h := 6000, 4000
	entries := []exifmeta.Entry{
		{Path: "/photos/a.cr2", FileSize: 1024, ModTime: 1700000000, Metadata: exifmeta.Metadata{Make: mk, ISO: &iso}},
		{Path: "/photos/b.jpg", FileSize: 2048, ModTime: 1700000001, Metadata: exifmeta.Metadata{Width: &w, Height: &h}},
	}
	if err := db.UpsertExifEntries(ctx, entries); err != nil {
		t.Fatalf("UpsertExifEntries failed: %v", err)
	}

	got, err := db.GetExif(ctx, "/photos/a.cr2")
	if err != nil {
		t.Fatalf("GetExif failed: %v", err)
	}
	if !got.Matches(1024, 1700000000) {
		t.Errorf("stored signature = (%d, %d), want (1024, 1700000000)", got.FileSize, got.ModTime)
	}
	if got.Metadata.Make != "Canon" {
		t.Errorf("Make = %q, want Canon", got.Metadata.Make)
	}
	if got.Metadata.ISO == nil || *got.Metadata.ISO != 400 {
		t.Errorf("ISO = %v, want 400", got.Metadata.ISO)
	}

	all, err := db.GetExifEntries(ctx, []string{"/photos/a.cr2", "/photos/b.jpg", "/photos/missing.jpg"})
	if err != nil {
		t.Fatalf("GetExifEntries failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("GetExifEntries returned %d entries, want 2", len(all))
	}
}

func TestExifUpsertReplacesIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()

	first := "Nikon"
	second := "Sony"
	if err := db.UpsertExifEntries(ctx, []exifmeta.Entry{{Path: "/x.nef", FileSize: 1, ModTime: 1, Metadata: exifmeta.Metadata{Make: first}}}); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if err := db.UpsertExifEntries(ctx, []exifmeta.Entry{{Path: "/x.nef", FileSize: 2, ModTime: 2, Metadata: exifmeta.Metadata{Make: second}}}); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	got, err := db.GetExif(ctx, "/x.nef")
	if err != nil {
		t.Fatalf("GetExif failed: %v", err)
	}
	if !got.Matches(2, 2) || got.Metadata.Make != "Sony" {
		t.Errorf("GetExif = %+v, want replaced entry", got)
	}
}

func TestGetExifNotFoundIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)

	_, err := db.GetExif(context.Background(), "/nope.jpg")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetExif error = %v, want ErrNotFound", err)
	}
}

func TestEmptyBatchesAreNoOps(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()

	if err := db.UpsertExifEntries(ctx, nil); err != nil {
		t.Errorf("UpsertExifEntries(nil) = %v", err)
	}
	if err := db.SetRatings(ctx, nil); err != nil {
		t.Errorf("SetRatings(nil) = %v", err)
	}
	if err := db.SetFlags(ctx, nil); err != nil {
		t.Errorf("SetFlags(nil) = %v", err)
	}
	if got, err := db.GetExifEntries(ctx, nil); err != nil || got != nil {
		t.Errorf("GetExifEntries(nil) = %v, %v", got, err)
	}
	if got, err := db.GetAnnotations(ctx, nil); err != nil || got != nil {
		t.Errorf("GetAnnotations(nil) = %v, %v", got, err)
	}
}

func TestAnnotationsIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()

	if err := db.SetRatings(ctx, []RatingEntry{
		{Path: "/a.jpg", Rating: 3},
		{Path: "/b.jpg", Rating: 12},
		{Path: "/c.jpg", Rating: -1},
	}); err != nil {
		t.Fatalf("SetRatings failed: %v", err)
	}
	if err := db.SetFlags(ctx, []FlagEntry{
		{Path: "/a.jpg", Flag: FlagPicked},
		{Path: "/d.jpg", Flag: "bogus"},
	}); err != nil {
		t.Fatalf("SetFlags failed: %v", err)
	}

	got, err := db.GetAnnotations(ctx, []string{"/a.jpg", "/b.jpg", "/c.jpg", "/d.jpg", "/e.jpg"})
	if err != nil {
		t.Fatalf("GetAnnotations failed: %v", err)
	}

	want := map[string]Annotation{
		"/a.jpg": {Path: "/a.jpg", Rating: 3, Flag: FlagPicked},
		"/b.jpg": {Path: "/b.jpg", Rating: 5, Flag: FlagUnflagged},
		"/c.jpg": {Path: "/c.jpg", Rating: 0, Flag: FlagUnflagged},
		"/d.jpg": {Path: "/d.jpg", Rating: 0, Flag: FlagUnflagged},
	}
	if len(got) != len(want) {
		t.Fatalf("GetAnnotations returned %d rows, want %d: %+v", len(got), len(want), got)
	}
	for _, a := range got {
		if w, ok := want[a.Path]; !ok || w != a {
			t.Errorf("annotation %s = %+v, want %+v", a.Path, a, w)
		}
	}
}

func TestSetFlagsKeepsRatingIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()

	if err := db.SetRatings(ctx, []RatingEntry{{Path: "/a.jpg", Rating: 5}}); err != nil {
		t.Fatalf("SetRatings failed: %v", err)
	}
	if err := db.SetFlags(ctx, []FlagEntry{{Path: "/a.jpg", Flag: FlagRejected}}); err != nil {
		t.Fatalf("SetFlags failed: %v", err)
	}
	if err := db.SetRatings(ctx, []RatingEntry{{Path: "/a.jpg", Rating: 2}}); err != nil {
		t.Fatalf("second SetRatings failed: %v", err)
	}

	got, err := db.GetAnnotations(ctx, []string{"/a.jpg"})
	if err != nil {
		t.Fatalf("GetAnnotations failed: %v", err)
	}
	if len(got) != 1 || got[0].Rating != 2 || got[0].Flag != FlagRejected {
		t.Errorf("annotation = %+v, want rating 2 rejected", got)
	}
}

func TestConcurrentWritesIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := db.SetRatings(ctx, []RatingEntry{{Path: "/same.jpg", Rating: n % 6}}); err != nil {
				t.Errorf("SetRatings failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := db.GetAnnotations(ctx, []string{"/same.jpg"})
	if err != nil {
		t.Fatalf("GetAnnotations failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected exactly one row, got %d", len(got))
	}
}

func TestLastCacheClearIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	db, _ := setupTestDB(t)
	ctx := context.Background()

	got, err := db.GetLastCacheClear(ctx, "thumbnail")
	if err != nil {
		t.Fatalf("GetLastCacheClear failed: %v", err)
	}
	if !got.IsZero() {
		t.Errorf("GetLastCacheClear before any clear = %v, want zero", got)
	}

	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := db.SetLastCacheClear(ctx, "thumbnail", when); err != nil {
		t.Fatalf("SetLastCacheClear failed: %v", err)
	}
	got, err = db.GetLastCacheClear(ctx, "thumbnail")
	if err != nil {
		t.Fatalf("GetLastCacheClear failed: %v", err)
	}
	if !got.Equal(when) {
		t.Errorf("GetLastCacheClear = %v, want %v", got, when)
	}

	other, err := db.GetLastCacheClear(ctx, "preview")
	if err != nil || !other.IsZero() {
		t.Errorf("GetLastCacheClear(preview) = %v, %v; want zero", other, err)
	}
}
