// Package vote stores the per-report vote ledger and keeps the report's
// counters in step with it.
package vote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/incidex/internal/db"
	"github.com/kailas-cloud/incidex/internal/domain"
	domvote "github.com/kailas-cloud/incidex/internal/domain/vote"
	"github.com/kailas-cloud/incidex/internal/repository/keys"
)

// store is the consumer interface for the vote ledger (ISP).
type store interface {
	HGet(ctx context.Context, key, field string) (string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	CompareAndSwapField(ctx context.Context, s *db.FieldSwap) (*db.SwapResult, error)
	CompareAndSetFields(ctx context.Context, key string, expected, next map[string]string) (bool, error)
}

// Repo implements the vote ledger.
type Repo struct {
	store store
	keys  keys.Space
}

// New creates a vote repository.
func New(s store, ks keys.Space) *Repo {
	return &Repo{store: s, keys: ks}
}

// Apply computes the transition for (reportID, userID) and commits the row
// change with its counter delta in one compare-and-swap.
// A concurrent change of the same row yields domain.ErrVoteConflict.
func (r *Repo) Apply(
	ctx context.Context, reportID, userID string, dir domvote.Direction, now time.Time,
) (domvote.Outcome, error) {
	ledger := r.keys.Votes(reportID)
	raw, current, err := r.read(ctx, ledger, userID)
	if err != nil {
		return domvote.Outcome{}, err
	}

	tr, err := domvote.Next(current.State(), dir)
	if err != nil {
		return domvote.Outcome{}, domain.NewValidationError("vote", err.Error())
	}

	var next *domvote.Vote
	var value string
	if tr.To != domvote.None {
		next = &domvote.Vote{
			ReportID:  reportID,
			UserID:    userID,
			Direction: domvote.Direction(tr.To),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if current != nil {
			next.CreatedAt = current.CreatedAt
		}
		b, err := json.Marshal(next)
		if err != nil {
			return domvote.Outcome{}, fmt.Errorf("encode vote: %w", err)
		}
		value = string(b)
	}

	res, err := r.store.CompareAndSwapField(ctx, &db.FieldSwap{
		Guard:    r.keys.Report(reportID),
		Key:      ledger,
		Field:    userID,
		Expected: raw,
		Value:    value,
		Increments: map[string]int64{
			keys.FieldUpvotes:   tr.Delta.Up,
			keys.FieldDownvotes: tr.Delta.Down,
			keys.FieldNetScore:  tr.Delta.Net(),
			keys.FieldVoteRev:   1,
		},
	})
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domvote.Outcome{}, domain.ErrReportNotFound
		}
		return domvote.Outcome{}, fmt.Errorf("swap vote %s/%s: %w", reportID, userID, err)
	}
	if !res.Swapped {
		return domvote.Outcome{}, domain.ErrVoteConflict
	}

	return domvote.Outcome{
		Transition: tr,
		Vote:       next,
		Previous:   current,
		Counters: domvote.Counters{
			Upvotes:   res.Counters[keys.FieldUpvotes],
			Downvotes: res.Counters[keys.FieldDownvotes],
		},
	}, nil
}

// Current returns the caller's vote on a report, nil when there is none.
func (r *Repo) Current(ctx context.Context, reportID, userID string) (*domvote.Vote, error) {
	_, v, err := r.read(ctx, r.keys.Votes(reportID), userID)
	return v, err
}

func (r *Repo) read(ctx context.Context, ledger, userID string) (string, *domvote.Vote, error) {
	raw, err := r.store.HGet(ctx, ledger, userID)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return "", nil, nil
		}
		return "", nil, fmt.Errorf("hget %s: %w", ledger, err)
	}
	v, err := decodeVote(raw)
	if err != nil {
		return "", nil, fmt.Errorf("decode vote %s/%s: %w", ledger, userID, err)
	}
	return raw, v, nil
}

// Reconcile recomputes the report's counters from its ledger.
// The write is skipped with domain.ErrVoteConflict if any transition
// committed while the ledger was being read.
func (r *Repo) Reconcile(ctx context.Context, reportID string) (domvote.Counters, error) {
	key := r.keys.Report(reportID)
	h, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domvote.Counters{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(h) == 0 {
		return domvote.Counters{}, domain.ErrReportNotFound
	}
	rev := h[keys.FieldVoteRev]

	ledger := r.keys.Votes(reportID)
	rows, err := r.store.HGetAll(ctx, ledger)
	if err != nil {
		return domvote.Counters{}, fmt.Errorf("hgetall %s: %w", ledger, err)
	}
	votes := make([]domvote.Vote, 0, len(rows))
	for uid, raw := range rows {
		v, err := decodeVote(raw)
		if err != nil {
			return domvote.Counters{}, fmt.Errorf("decode vote %s/%s: %w", reportID, uid, err)
		}
		votes = append(votes, *v)
	}
	c := domvote.Tally(votes)

	ok, err := r.store.CompareAndSetFields(ctx, key,
		map[string]string{keys.FieldVoteRev: rev},
		map[string]string{
			keys.FieldUpvotes:   strconv.FormatInt(c.Upvotes, 10),
			keys.FieldDownvotes: strconv.FormatInt(c.Downvotes, 10),
			keys.FieldNetScore:  strconv.FormatInt(c.Net(), 10),
		})
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domvote.Counters{}, domain.ErrReportNotFound
		}
		return domvote.Counters{}, fmt.Errorf("reconcile %s: %w", key, err)
	}
	if !ok {
		return domvote.Counters{}, domain.ErrVoteConflict
	}
	return c, nil
}

func decodeVote(raw string) (*domvote.Vote, error) {
	var v domvote.Vote
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	if !v.Direction.IsValid() {
		return nil, fmt.Errorf("unsupported vote direction %q", v.Direction)
	}
	return &v, nil
}
