//go:build !unix

package decoder

import (
	"photocache/internal/filesystem"
)

func mapFile(path string, retry filesystem.RetryConfig) ([]byte, func(), error) {
	data, err := filesystem.ReadFileWithRetry(path, retry)
	if err != nil {
		return nil, nil, err
	}
	return data, func() {}, nil
}
