// Package cache stores pipeline results keyed by content hash.
//
// # Overview
//
// Optimizing a model is deterministic: the same input bytes and the same
// pass list always produce the same output. The pipeline therefore keys its
// results by the SHA-256 of the input plus the options and skips the work
// on a hit.
//
// Three backends implement [Cache]:
//
//   - [FileCache]: one file per entry under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the HTTP server
//   - [NullCache]: stores nothing, for --no-cache and tests
//
// [Open] selects a backend by name.
//
// # Keys
//
// A [Keyer] builds keys. [DefaultKeyer] hashes its inputs; [ScopedKeyer]
// adds a prefix so several deployments can share one Redis database.
package cache

import (
	"context"
	"time"
)

// TTLs for cached entries.
const (
	ResultTTL   = 7 * 24 * time.Hour
	ArtifactTTL = 24 * time.Hour
)

// Cache is a byte store with per-entry expiry.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. A zero ttl means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
