// Package db defines the storage facade shared by all service instances:
// plain key-value operations for the result cache and atomic lock primitives
// for the session lock manager.
package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
type Store interface {
	Pinger
	KVStore
	Locker
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Locker provides the atomic primitives the session lock manager is built
// on: acquire-if-absent with expiry and compare-and-delete release.
type Locker interface {
	// SetNX stores value at key with a TTL only if the key does not exist.
	// Returns true when the key was set.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// DelIfEqual deletes key only if it still holds value. Returns true when
	// the key was deleted, false when it expired or was taken over.
	DelIfEqual(ctx context.Context, key, value string) (bool, error)
}
