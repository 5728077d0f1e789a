package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"

	"github.com/gorilla/mux"

	"photocache/internal/cache"
	"photocache/internal/decoder"
	"photocache/internal/fingerprint"
	"photocache/internal/generation"
	"photocache/internal/imageload"
	"photocache/internal/logging"
	"photocache/internal/workers"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 4 << 20

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v any) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONResponse writes v as JSON with the given status code.
func writeJSONResponse(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, v)
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONResponse(w, statusCode, map[string]string{"error": message})
}

// writeJSONStatus writes a simple status response as JSON.
func writeJSONStatus(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{"status": status})
}

// decodeBody reads a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// sourcePath returns the cleaned absolute source path from the "path"
// query parameter.
func sourcePath(r *http.Request) (string, error) {
	p := r.URL.Query().Get("path")
	if p == "" {
		return "", errors.New("path is required")
	}
	if !filepath.IsAbs(p) {
		return "", errors.New("path must be absolute")
	}
	return filepath.Clean(p), nil
}

// validPaths cleans every path of a batch request, rejecting the batch if
// any path is relative.
func validPaths(paths []string) ([]string, error) {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" || !filepath.IsAbs(p) {
			return nil, fmt.Errorf("path %q must be absolute", p)
		}
		out = append(out, filepath.Clean(p))
	}
	return out, nil
}

// kindVar parses the {kind} route variable.
func kindVar(r *http.Request) (cache.Kind, error) {
	name, ok := mux.Vars(r)["kind"]
	if !ok || name == "" {
		return cache.All, errors.New("kind is required")
	}
	return cache.ParseKind(name)
}

// statusFor maps an operation error to an HTTP status code.
func statusFor(err error) int {
	var decodeErr *decoder.DecodeError

	switch {
	case errors.Is(err, fingerprint.ErrSourceNotFound), errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case errors.As(err, &decodeErr), errors.Is(err, fingerprint.ErrClock):
		return http.StatusUnprocessableEntity
	case errors.Is(err, imageload.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, generation.ErrGenerationCancelled),
		errors.Is(err, generation.ErrClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, workers.ErrPoolClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeOpError logs err and writes it with the status statusFor chooses.
func writeOpError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.Error("%s: %v", op, err)
	} else {
		logging.Debug("%s: %v", op, err)
	}
	writeJSONError(w, err.Error(), status)
}
