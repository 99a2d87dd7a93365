package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	HashStore
	KVStore
	AtomicStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGet(ctx context.Context, key, field string) (string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
}

// FieldSwap is a guarded single-field swap with counter increments.
//
// The swap applies only when Guard exists and Key[Field] still equals Expected
// ("" means absent). Value "" deletes the field. Increments are applied to Guard
// in the same atomic step.
type FieldSwap struct {
	Guard      string
	Key        string
	Field      string
	Expected   string
	Value      string
	Increments map[string]int64
}

// SwapResult is the outcome of a FieldSwap.
type SwapResult struct {
	Swapped bool
	// Counters holds the post-increment values of every Increments field.
	Counters map[string]int64
}

// AtomicStore provides multi-step operations executed atomically by the backend.
type AtomicStore interface {
	// CompareAndSwapField returns ErrKeyNotFound when the guard key is missing.
	CompareAndSwapField(ctx context.Context, s *FieldSwap) (*SwapResult, error)
	// CompareAndSetFields writes next only if every expected field still matches.
	CompareAndSetFields(ctx context.Context, key string, expected, next map[string]string) (bool, error)
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SupportsSearch(ctx context.Context) bool
}

// Searcher provides filtered, sorted listing over FT indexes.
type Searcher interface {
	Aggregate(ctx context.Context, q *SearchQuery) (*SearchResult, error)
	Count(ctx context.Context, q *SearchQuery) (int, error)
}
