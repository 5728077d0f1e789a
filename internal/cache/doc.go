/*
Package cache owns the on-disk rendition cache.

Layout:

	{root}/thumbnails/{64-hex}.jpg
	{root}/previews/{64-hex}.jpg
	{root}.lock

Entries are content-addressed (see package fingerprint) and never indexed in
memory; existence is always a stat against the deterministic path. Entries
are written with WriteAtomic, so a crash mid-write leaves at most a stray
temporary file that Size ignores and Clear removes.

A Manager holds an advisory flock on "{root}.lock" for its lifetime so two
server processes cannot share one cache root.
*/
package cache
