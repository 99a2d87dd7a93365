package vote

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/incidex/internal/db"
	"github.com/kailas-cloud/incidex/internal/db/memory"
	"github.com/kailas-cloud/incidex/internal/repository/keys"
)

// hookedStore wraps a memory store and lets tests intercept single calls.
type hookedStore struct {
	*memory.Store
	hgetFn    func(ctx context.Context, key, field string) (string, error)
	swapFn    func(ctx context.Context, s *db.FieldSwap) (*db.SwapResult, error)
	hgetAllFn func(ctx context.Context, key string) (map[string]string, error)
}

func (s *hookedStore) HGet(ctx context.Context, key, field string) (string, error) {
	if s.hgetFn != nil {
		return s.hgetFn(ctx, key, field)
	}
	return s.Store.HGet(ctx, key, field)
}

func (s *hookedStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if s.hgetAllFn != nil {
		return s.hgetAllFn(ctx, key)
	}
	return s.Store.HGetAll(ctx, key)
}

func (s *hookedStore) CompareAndSwapField(ctx context.Context, fs *db.FieldSwap) (*db.SwapResult, error) {
	if s.swapFn != nil {
		return s.swapFn(ctx, fs)
	}
	return s.Store.CompareAndSwapField(ctx, fs)
}

var now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

var ks = keys.New("")

func newTestRepo(t *testing.T) (*Repo, *hookedStore) {
	t.Helper()
	s := &hookedStore{Store: memory.NewStore()}
	return New(s, ks), s
}

// seedReport stores a bare report hash with zeroed counters.
func seedReport(t *testing.T, s *hookedStore, id string) {
	t.Helper()
	err := s.HSet(context.Background(), ks.Report(id), map[string]string{
		"id":                id,
		keys.FieldUpvotes:   "0",
		keys.FieldDownvotes: "0",
		keys.FieldNetScore:  "0",
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}
