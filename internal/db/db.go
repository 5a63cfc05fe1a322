package db

import (
	"context"
	"time"
)

// Store is everything the service needs from Redis or Valkey.
type Store interface {
	Pinger
	HashStore
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashWrite is one hash update inside an atomic batch. Replace deletes the
// existing hash before Fields are written. Defaults are set only on fields
// the hash does not hold yet.
type HashWrite struct {
	Key      string
	Fields   map[string]string
	Defaults map[string]string
	Replace  bool
}

// HashStore holds the recipe catalog.
type HashStore interface {
	WriteHashes(ctx context.Context, writes []HashWrite) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	HGet(ctx context.Context, key, field string) (string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// KVStore provides string and counter operations for caches and budgets.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// IncrByWithTTL increments a counter and sets its TTL only if it has none yet.
	IncrByWithTTL(ctx context.Context, key string, delta int64, ttl time.Duration) (int64, error)
}
