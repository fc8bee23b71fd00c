// Package cache stores computed results and upstream responses.
//
// All backends implement [Cache], a byte-oriented key/value store with
// per-entry TTLs:
//
//   - [FileCache] for the CLI, one JSON file per entry under a directory
//   - [MemoryCache] for a single server process, a bounded LRU
//   - [RedisCache] for servers sharing results
//   - [NullCache] when caching is disabled
//
// Keys are built by a [Keyer] so that every component agrees on the layout.
// A computation result is addressed by the hash of its inputs, which makes
// cached results safe to reuse: the computation is deterministic.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Default TTLs.
const (
	// TTLResult is how long a computed result stays cached.
	TTLResult = 24 * time.Hour
	// TTLHTTP is how long an upstream response stays cached.
	TTLHTTP = time.Hour
)

// Cache is a key/value store for opaque bytes.
type Cache interface {
	// Get returns the value for key and whether it was found. Expired
	// entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the backend's resources.
	Close() error
}

// ResultKeyOpts are the inputs of a computation besides the snapshot itself.
type ResultKeyOpts struct {
	Voters []string `json:"voters,omitempty"`
}

// Keyer builds cache keys.
type Keyer interface {
	// ResultKey addresses the result of computing snapshotHash for a space.
	ResultKey(space, snapshotHash string, opts ResultKeyOpts) string
	// HTTPKey addresses an upstream response.
	HTTPKey(namespace, key string) string
}

// DefaultKeyer is the standard key layout:
//
//	result:<space>:<sha256 of snapshot hash and options>
//	http:<namespace>:<key>
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ResultKey implements Keyer.
func (DefaultKeyer) ResultKey(space, snapshotHash string, opts ResultKeyOpts) string {
	return hashKey(fmt.Sprintf("result:%s", space), snapshotHash, opts)
}

// HTTPKey implements Keyer.
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return fmt.Sprintf("http:%s:%s", namespace, key)
}
