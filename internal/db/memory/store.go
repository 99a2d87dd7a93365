// Package memory is an in-process db.Store for local runs and tests.
// It has no query engine: SupportsSearch is false and callers scan instead.
package memory

import (
	"context"
	"maps"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/kailas-cloud/incidex/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

type kvEntry struct {
	value   []byte
	expires time.Time
}

// Store keeps hashes and values in maps behind one mutex.
// Every method is atomic with respect to every other.
type Store struct {
	mu     sync.Mutex
	hashes map[string]map[string]string
	values map[string]kvEntry
	now    func() time.Time
}

// NewStore creates an empty memory store.
func NewStore() *Store {
	return &Store{
		hashes: make(map[string]map[string]string),
		values: make(map[string]kvEntry),
		now:    time.Now,
	}
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

// HSet sets hash fields.
func (s *Store) HSet(_ context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		s.hashes[key] = h
	}
	maps.Copy(h, fields)
	return nil
}

// HGet returns a single hash field. Missing key or field yields ErrKeyNotFound.
func (s *Store) HGet(_ context.Context, key, field string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.hashes[key][field]
	if !ok {
		return "", db.ErrKeyNotFound
	}
	return v, nil
}

// HGetAll returns a copy of the hash. A missing key yields an empty map.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyHash(key), nil
}

// HGetAllMulti returns copies of several hashes in key order.
func (s *Store) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = s.copyHash(k)
	}
	return out, nil
}

func (s *Store) copyHash(key string) map[string]string {
	h := s.hashes[key]
	out := make(map[string]string, len(h))
	maps.Copy(out, h)
	return out
}

// Del deletes keys of any kind.
func (s *Store) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.hashes, k)
		delete(s.values, k)
	}
	return nil
}

// Exists checks if a key exists.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hashes[key]; ok {
		return true, nil
	}
	_, ok := s.liveValue(key)
	return ok, nil
}

// Scan returns keys matching a glob pattern.
func (s *Store) Scan(_ context.Context, pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.hashes {
		ok, err := path.Match(pattern, k)
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		if ok {
			keys = append(keys, k)
		}
	}
	for k := range s.values {
		if _, live := s.liveValue(k); !live {
			continue
		}
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.liveValue(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return append([]byte(nil), e.value...), nil
}

// SetWithTTL stores a value with an expiration. ttl <= 0 means no expiry.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := kvEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}
	s.values[key] = e
	return nil
}

// IncrBy increments an integer value and returns the result.
func (s *Store) IncrBy(_ context.Context, key string, val int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cur int64
	if e, ok := s.liveValue(key); ok {
		n, err := strconv.ParseInt(string(e.value), 10, 64)
		if err != nil {
			return 0, &db.Error{Op: db.OpIncrBy, Err: err}
		}
		cur = n
	}
	cur += val
	s.values[key] = kvEntry{value: []byte(strconv.FormatInt(cur, 10))}
	return cur, nil
}

func (s *Store) liveValue(key string) (kvEntry, bool) {
	e, ok := s.values[key]
	if !ok {
		return kvEntry{}, false
	}
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		delete(s.values, key)
		return kvEntry{}, false
	}
	return e, true
}

// CompareAndSwapField applies the guarded swap and increments under the store lock.
func (s *Store) CompareAndSwapField(_ context.Context, fs *db.FieldSwap) (*db.SwapResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	guard, ok := s.hashes[fs.Guard]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	target := s.hashes[fs.Key]
	if target[fs.Field] != fs.Expected {
		return &db.SwapResult{}, nil
	}

	// Validate every counter before mutating anything.
	next := make(map[string]int64, len(fs.Increments))
	for f, d := range fs.Increments {
		var cur int64
		if v, ok := guard[f]; ok {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return nil, &db.Error{Op: db.OpEval, Err: err}
			}
			cur = n
		}
		next[f] = cur + d
	}

	if fs.Value == "" {
		delete(target, fs.Field)
		if len(target) == 0 {
			delete(s.hashes, fs.Key)
		}
	} else {
		if target == nil {
			target = make(map[string]string)
			s.hashes[fs.Key] = target
		}
		target[fs.Field] = fs.Value
	}
	for f, v := range next {
		guard[f] = strconv.FormatInt(v, 10)
	}
	return &db.SwapResult{Swapped: true, Counters: next}, nil
}

// CompareAndSetFields writes next only while every expected field is unchanged.
func (s *Store) CompareAndSetFields(
	_ context.Context, key string, expected, next map[string]string,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hashes[key]
	if !ok {
		return false, db.ErrKeyNotFound
	}
	for f, want := range expected {
		if h[f] != want {
			return false, nil
		}
	}
	maps.Copy(h, next)
	return true, nil
}

// CreateIndex is unsupported.
func (s *Store) CreateIndex(_ context.Context, _ *db.IndexDefinition) error {
	return db.ErrSearchNotSupported
}

// DropIndex reports that no index exists.
func (s *Store) DropIndex(_ context.Context, _ string) error {
	return db.ErrIndexNotFound
}

// IndexExists is always false.
func (s *Store) IndexExists(_ context.Context, _ string) (bool, error) {
	return false, nil
}

// SupportsSearch is false: callers evaluate queries in process.
func (s *Store) SupportsSearch(_ context.Context) bool { return false }

// Aggregate is unsupported.
func (s *Store) Aggregate(_ context.Context, _ *db.SearchQuery) (*db.SearchResult, error) {
	return nil, db.ErrSearchNotSupported
}

// Count is unsupported.
func (s *Store) Count(_ context.Context, _ *db.SearchQuery) (int, error) {
	return 0, db.ErrSearchNotSupported
}
