// Package provider defines the byte store behind querycache.
//
// Implementations must be byte-for-byte transparent: Get returns exactly the
// bytes previously given to Set for the key. The "q:<ns>:" keyspace belongs to
// querycache; anything else written there is treated as corruption and deleted
// on read.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store with TTLs. Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit and (nil, false, nil) on miss.
	// IO/remote failures return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value with the given TTL; ttl <= 0 means no expiry where the
	// store supports it. cost may be ignored. ok=false reports a write the
	// store refused under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort).
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
