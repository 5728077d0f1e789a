// Package fingerprint derives deterministic cache paths for source images.
//
// A cache key is BLAKE2b-256 over the source path bytes followed by the
// source's modification time in whole seconds (little-endian uint64). The
// entry for a kind lives at {root}/{kind subdir}/{hex key}.jpg. Changing the
// file's mtime by at least a second produces a new key; the stale entry is
// left in place until the cache is cleared.
package fingerprint
