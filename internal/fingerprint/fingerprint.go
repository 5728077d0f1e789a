package fingerprint

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/blake2b"

	"photocache/internal/cache"
	"photocache/internal/filesystem"
)

var (
	// ErrSourceNotFound is returned when the source file does not exist.
	ErrSourceNotFound = errors.New("source file not found")
	// ErrMetadataUnavailable is returned when the source cannot be stat'ed
	// or the filesystem does not report a modification time.
	ErrMetadataUnavailable = errors.New("source metadata unavailable")
	// ErrClock is returned when the source modification time predates the Unix epoch.
	ErrClock = errors.New("modification time before unix epoch")
)

// Size is the digest length in bytes.
const Size = blake2b.Size256

// Key is the content-address of a source at a given modification time.
type Key [Size]byte

// Hex returns the lowercase hexadecimal form of the key.
func (k Key) Hex() string {
	return hex.EncodeToString(k[:])
}

// Filename returns the cache entry filename for the key.
func (k Key) Filename() string {
	return k.Hex() + cache.Extension
}

// KeyFor hashes the path bytes followed by the modification time in whole
// seconds as a little-endian uint64. Sub-second changes do not change the key.
func KeyFor(sourcePath string, modSeconds uint64) Key {
	buf := make([]byte, len(sourcePath), len(sourcePath)+8)
	copy(buf, sourcePath)
	buf = binary.LittleEndian.AppendUint64(buf, modSeconds)
	return Key(blake2b.Sum256(buf))
}

// Fingerprinter computes cache paths for source files under a cache root.
// It is safe for concurrent use.
type Fingerprinter struct {
	root  string
	retry filesystem.RetryConfig
}

// New returns a Fingerprinter for the cache root.
func New(root string) *Fingerprinter {
	return &Fingerprinter{
		root:  root,
		retry: filesystem.DefaultRetryConfig(),
	}
}

// Stat returns the key for sourcePath from its current modification time.
func (f *Fingerprinter) Stat(sourcePath string) (Key, error) {
	info, err := filesystem.StatWithRetry(sourcePath, f.retry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Key{}, fmt.Errorf("%s: %w", sourcePath, ErrSourceNotFound)
		}
		return Key{}, fmt.Errorf("%s: %w: %v", sourcePath, ErrMetadataUnavailable, err)
	}

	secs, err := modSeconds(info.ModTime())
	if err != nil {
		return Key{}, fmt.Errorf("%s: %w", sourcePath, err)
	}

	return KeyFor(sourcePath, secs), nil
}

// Path returns the cache path of the kind's rendition of sourcePath,
// creating the kind's subdirectory if needed.
func (f *Fingerprinter) Path(sourcePath string, kind cache.Kind) (string, error) {
	key, err := f.Stat(sourcePath)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(f.root, kind.Subdir())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}

	return filepath.Join(dir, key.Filename()), nil
}

// Path is a convenience wrapper around New(root).Path.
func Path(root, sourcePath string, kind cache.Kind) (string, error) {
	return New(root).Path(sourcePath, kind)
}

func modSeconds(t time.Time) (uint64, error) {
	if t.IsZero() {
		return 0, ErrMetadataUnavailable
	}
	secs := t.Unix()
	if secs < 0 {
		return 0, ErrClock
	}
	return uint64(secs), nil
}
