// Package db defines the storage facade shared by the Redis/Valkey and
// in-memory drivers.
package db

import (
	"context"
	"time"
)

// Store is everything the discovery service keeps outside the process:
// profiles (JSON), annotations and spend (hashes), cached candidate sets
// (strings with TTL) and the daily cost counter.
//
//nolint:interfacebloat // driver facade; repositories depend on narrow sub-interfaces
type Store interface {
	Pinger
	HashStore
	JSONStore
	KVStore
	CounterStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore backs annotation and spend records.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	// HGetAllMulti returns one map per key, in key order. Missing keys yield empty maps.
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
}

// JSONStore backs dietary profiles.
type JSONStore interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
}

// KVStore backs the shared candidate cache tier.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// CounterStore backs the daily provider cost counter.
type CounterStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// IncrByExpireNX adds val to an integer counter and returns the new value.
	// ttl is applied only when the counter has no expiry yet, so the first
	// write of a period fixes its deadline.
	IncrByExpireNX(ctx context.Context, key string, val int64, ttl time.Duration) (int64, error)
}
