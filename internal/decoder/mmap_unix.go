//go:build unix

package decoder

import (
	"fmt"
	"io"

	"golang.org/x/sys/unix"

	"photocache/internal/filesystem"
)

// mapFile maps path read-only. The returned release must be called once the
// bytes are no longer referenced. If mapping fails the file is read instead.
func mapFile(path string, retry filesystem.RetryConfig) ([]byte, func(), error) {
	f, err := filesystem.OpenWithRetry(path, retry)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}

	size := info.Size()
	if size == 0 {
		return nil, func() {}, nil
	}
	if int64(int(size)) != size {
		return nil, nil, fmt.Errorf("file too large to map: %d bytes", size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		data, err = io.ReadAll(f)
		if err != nil {
			return nil, nil, err
		}
		return data, func() {}, nil
	}

	return data, func() { _ = unix.Munmap(data) }, nil
}
