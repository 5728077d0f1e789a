package cache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "entry.jpg")
	data := []byte("jpeg bytes")

	if err := WriteAtomic(path, data); err != nil {
		t.Fatalf("WriteAtomic() error: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("content = %q, want %q", got, data)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1 (temp file left behind?)", len(entries))
	}
}

func TestWriteAtomicOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entry.jpg")

	if err := WriteAtomic(path, []byte("old")); err != nil {
		t.Fatal(err)
	}
	if err := WriteAtomic(path, []byte("new")); err != nil {
		t.Fatal(err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "new" {
		t.Errorf("content = %q, want %q", got, "new")
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entry.jpg")

	if Exists(path) {
		t.Error("Exists() = true before write")
	}
	if err := WriteAtomic(path, []byte("x")); err != nil {
		t.Fatal(err)
	}
	if !Exists(path) {
		t.Error("Exists() = false after write")
	}
	if Exists(dir) {
		t.Error("Exists() = true for a directory")
	}
}

func TestWriteAtomicSyncFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "entry.jpg")

	errSync := errors.New("sync failed")
	var synced int
	orig := syncFile
	syncFile = func(*os.File) error {
		synced++
		return errSync
	}
	t.Cleanup(func() { syncFile = orig })

	if err := WriteAtomic(path, []byte("data")); !errors.Is(err, errSync) {
		t.Fatalf("WriteAtomic() error = %v, want %v", err, errSync)
	}
	if synced != 1 {
		t.Errorf("sync called %d times, want 1", synced)
	}
	if Exists(path) {
		t.Error("entry published despite failed sync")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("directory has %d entries, want 0", len(entries))
	}
}
