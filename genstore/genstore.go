// Package genstore holds the per-key generation counters querycache uses to
// decide whether a stored entry is still authoritative. Invalidating a key
// bumps its generation; entries remember the generations they were loaded
// under and are rejected once any of them moves.
package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where generations live: in-process (LocalGenStore, the
// default) or in Redis when several processes share one provider.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, key string) (uint64, error)
	// SnapshotMany returns gens for many keys in one round trip; missing => 0.
	SnapshotMany(ctx context.Context, keys []string) (map[string]uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, key string) (uint64, error)
	// Cleanup prunes metadata untouched for longer than retention (no-op for Redis).
	Cleanup(retention time.Duration)
	// Close releases resources.
	Close(context.Context) error
}
