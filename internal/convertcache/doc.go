// Package convertcache persists a content-addressed index of completed
// conversions. Entries are keyed by the SHA-256 of the source bytes plus the
// conversion mode that produced them: an artifact converted directly is
// invisible to an api-assisted run and vice versa. The JSON index is written
// atomically (temp file + rename) after every store, and a copy of each
// rendered artifact is kept inside the cache directory under its hash so a
// hit can be replayed even when the original output path has moved. A
// corrupt or version-mismatched index is treated as absent, never fatal.
package convertcache
