package streaming

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"photocache/internal/logging"
)

// Sentinel errors for streaming operations.
var (
	// ErrWriteTimeout indicates that a chunk could not be written before its
	// deadline, or that the whole payload exceeded MaxDuration.
	ErrWriteTimeout = errors.New("write timeout exceeded")

	// ErrClientGone indicates that the request context ended before the
	// payload was fully written.
	ErrClientGone = errors.New("client disconnected")
)

// Config configures chunked writes.
type Config struct {
	// ChunkSize is the number of bytes written per chunk.
	ChunkSize int
	// ChunkTimeout is the write deadline for each chunk.
	ChunkTimeout time.Duration
	// MaxDuration bounds the whole payload (0 = unlimited).
	MaxDuration time.Duration
}

// DefaultConfig returns the settings used for full-resolution pixel loads.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    256 * 1024,
		ChunkTimeout: 30 * time.Second,
		MaxDuration:  0,
	}
}

// WriteChunked writes data to w in chunks, flushing after each. Headers must
// already be set. It returns the number of bytes written.
func WriteChunked(ctx context.Context, w http.ResponseWriter, data []byte, cfg Config) (int64, error) {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultConfig().ChunkSize
	}

	rc := http.NewResponseController(w)
	deadlines := cfg.ChunkTimeout > 0
	defer func() {
		if deadlines {
			_ = rc.SetWriteDeadline(time.Time{})
		}
	}()

	start := time.Now()
	var written int64

	for len(data) > 0 {
		if ctx.Err() != nil {
			return written, ErrClientGone
		}
		if cfg.MaxDuration > 0 && time.Since(start) > cfg.MaxDuration {
			return written, ErrWriteTimeout
		}

		if deadlines {
			if err := rc.SetWriteDeadline(time.Now().Add(cfg.ChunkTimeout)); err != nil {
				// Writers that cannot take deadlines are written unbounded.
				deadlines = !errors.Is(err, http.ErrNotSupported)
			}
		}

		chunk := data[:min(cfg.ChunkSize, len(data))]
		n, err := w.Write(chunk)
		written += int64(n)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return written, ErrWriteTimeout
			}
			if ctx.Err() != nil {
				return written, ErrClientGone
			}
			return written, fmt.Errorf("stream write failed after %d bytes: %w", written, err)
		}
		data = data[n:]

		if err := rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return written, fmt.Errorf("stream flush failed after %d bytes: %w", written, err)
		}
	}

	logging.Debug("Stream completed: %d bytes in %v", written, time.Since(start))
	return written, nil
}
