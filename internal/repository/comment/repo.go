// Package comment stores the per-report comment ledger.
package comment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/kailas-cloud/incidex/internal/db"
	"github.com/kailas-cloud/incidex/internal/domain"
	domcomment "github.com/kailas-cloud/incidex/internal/domain/comment"
	"github.com/kailas-cloud/incidex/internal/repository/keys"
)

// store is the consumer interface for the comment ledger (ISP).
type store interface {
	HGet(ctx context.Context, key, field string) (string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	CompareAndSwapField(ctx context.Context, s *db.FieldSwap) (*db.SwapResult, error)
}

// Repo implements the comment ledger. Each report owns one hash
// mapping comment id to the JSON-encoded comment.
type Repo struct {
	store store
	keys  keys.Space
}

// New creates a comment repository.
func New(s store, ks keys.Space) *Repo {
	return &Repo{store: s, keys: ks}
}

// Create stores c while its report still exists.
// A missing report yields domain.ErrReportNotFound.
func (r *Repo) Create(ctx context.Context, c *domcomment.Comment) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode comment: %w", err)
	}
	ledger := r.keys.Comments(c.ReportID)
	res, err := r.store.CompareAndSwapField(ctx, &db.FieldSwap{
		Guard: r.keys.Report(c.ReportID),
		Key:   ledger,
		Field: c.ID,
		Value: string(raw),
	})
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ErrReportNotFound
		}
		return fmt.Errorf("store comment %s/%s: %w", ledger, c.ID, err)
	}
	if !res.Swapped {
		return fmt.Errorf("comment %s already exists", c.ID)
	}
	return nil
}

// Get returns one comment of a report, nil when there is none.
func (r *Repo) Get(ctx context.Context, reportID, id string) (*domcomment.Comment, error) {
	ledger := r.keys.Comments(reportID)
	raw, err := r.store.HGet(ctx, ledger, id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("hget %s: %w", ledger, err)
	}
	c, err := decodeComment(raw)
	if err != nil {
		return nil, fmt.Errorf("decode comment %s/%s: %w", reportID, id, err)
	}
	return c, nil
}

// List returns every comment of a report, oldest first.
func (r *Repo) List(ctx context.Context, reportID string) ([]domcomment.Comment, error) {
	ledger := r.keys.Comments(reportID)
	rows, err := r.store.HGetAll(ctx, ledger)
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", ledger, err)
	}
	out := make([]domcomment.Comment, 0, len(rows))
	for id, raw := range rows {
		c, err := decodeComment(raw)
		if err != nil {
			return nil, fmt.Errorf("decode comment %s/%s: %w", reportID, id, err)
		}
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b domcomment.Comment) int {
		if domcomment.Less(&a, &b) {
			return -1
		}
		if domcomment.Less(&b, &a) {
			return 1
		}
		return 0
	})
	return out, nil
}

func decodeComment(raw string) (*domcomment.Comment, error) {
	var c domcomment.Comment
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, err
	}
	if c.ID == "" {
		return nil, fmt.Errorf("comment without id")
	}
	return &c, nil
}
