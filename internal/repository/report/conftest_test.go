package report

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/incidex/internal/db"
	"github.com/kailas-cloud/incidex/internal/db/memory"
	"github.com/kailas-cloud/incidex/internal/domain/geo"
	domreport "github.com/kailas-cloud/incidex/internal/domain/report"
	"github.com/kailas-cloud/incidex/internal/repository/keys"
)

// indexedStore is a memory store that pretends to have a query engine.
type indexedStore struct {
	*memory.Store
	createIndexFn func(ctx context.Context, def *db.IndexDefinition) error
	indexExistsFn func(ctx context.Context, name string) (bool, error)
	aggregateFn   func(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	countFn       func(ctx context.Context, q *db.SearchQuery) (int, error)
}

func (s *indexedStore) SupportsSearch(context.Context) bool { return true }

func (s *indexedStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if s.createIndexFn != nil {
		return s.createIndexFn(ctx, def)
	}
	return nil
}

func (s *indexedStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if s.indexExistsFn != nil {
		return s.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (s *indexedStore) Aggregate(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if s.aggregateFn != nil {
		return s.aggregateFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (s *indexedStore) Count(ctx context.Context, q *db.SearchQuery) (int, error) {
	if s.countFn != nil {
		return s.countFn(ctx, q)
	}
	return 0, nil
}

var baseTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestRepo(t *testing.T) (*Repo, *memory.Store) {
	t.Helper()
	s := memory.NewStore()
	return New(s, keys.New("")), s
}

func newIndexedRepo(t *testing.T) (*Repo, *indexedStore) {
	t.Helper()
	s := &indexedStore{Store: memory.NewStore()}
	return New(s, keys.New("")), s
}

func seed(t *testing.T, r *Repo, id, author string, offset time.Duration, mutate func(*domreport.Content)) domreport.Report {
	t.Helper()
	c := domreport.Content{
		Title:        "Phone snatched " + id,
		Description:  "Two men on a motorbike",
		LocationName: "Gulshan 1, Dhaka",
		Point:        geo.Point{Lng: 90.413, Lat: 23.7925},
		Category:     "Robbery",
	}
	if mutate != nil {
		mutate(&c)
	}
	rep, err := domreport.New(id, author, c, baseTime.Add(offset))
	if err != nil {
		t.Fatalf("new report: %v", err)
	}
	stored, err := r.Create(context.Background(), &rep)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return stored
}
