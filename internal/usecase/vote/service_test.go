package vote

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/incidex/internal/db/memory"
	"github.com/kailas-cloud/incidex/internal/domain"
	"github.com/kailas-cloud/incidex/internal/domain/auth"
	"github.com/kailas-cloud/incidex/internal/domain/geo"
	domreport "github.com/kailas-cloud/incidex/internal/domain/report"
	domvote "github.com/kailas-cloud/incidex/internal/domain/vote"
	"github.com/kailas-cloud/incidex/internal/metrics"
	"github.com/kailas-cloud/incidex/internal/repository/keys"
	reportrepo "github.com/kailas-cloud/incidex/internal/repository/report"
	voterepo "github.com/kailas-cloud/incidex/internal/repository/vote"
)

// --- Mocks ---

type mockLedger struct {
	applyFn   func(ctx context.Context, reportID, userID string, dir domvote.Direction, now time.Time) (domvote.Outcome, error)
	currentFn func(ctx context.Context, reportID, userID string) (*domvote.Vote, error)
}

func (m *mockLedger) Apply(
	ctx context.Context, reportID, userID string, dir domvote.Direction, now time.Time,
) (domvote.Outcome, error) {
	return m.applyFn(ctx, reportID, userID, dir, now)
}

func (m *mockLedger) Current(ctx context.Context, reportID, userID string) (*domvote.Vote, error) {
	return m.currentFn(ctx, reportID, userID)
}

type mockReports struct {
	err error
}

func (m *mockReports) Get(_ context.Context, id string) (domreport.Report, error) {
	if m.err != nil {
		return domreport.Report{}, m.err
	}
	return domreport.Report{ID: id}, nil
}

var alice = &auth.Principal{UserID: "alice", Role: auth.RoleUser}

func added() domvote.Outcome {
	return domvote.Outcome{
		Transition: domvote.Transition{To: domvote.Upvote, Kind: domvote.Added, Delta: domvote.Delta{Up: 1}},
		Counters:   domvote.Counters{Upvotes: 1},
	}
}

// --- Validation ---

func TestCast_Validation(t *testing.T) {
	ledger := &mockLedger{applyFn: func(context.Context, string, string, domvote.Direction, time.Time) (domvote.Outcome, error) {
		t.Fatal("ledger must not be called")
		return domvote.Outcome{}, nil
	}}

	tests := []struct {
		name      string
		caller    *auth.Principal
		reportID  string
		direction string
		reports   *mockReports
		wantErr   error
	}{
		{"anonymous", nil, "r1", "upvote", &mockReports{}, domain.ErrUnauthorized},
		{"no report id", alice, "", "upvote", &mockReports{}, domain.ErrInvalidInput},
		{"bad direction", alice, "r1", "like", &mockReports{}, domain.ErrInvalidInput},
		{"empty direction", alice, "r1", "", &mockReports{}, domain.ErrInvalidInput},
		{"missing report", alice, "r1", "upvote", &mockReports{err: domain.ErrReportNotFound}, domain.ErrReportNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := New(ledger, tc.reports)
			_, err := svc.Cast(context.Background(), tc.caller, tc.reportID, tc.direction)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

// --- Retry ---

func TestCast_RetriesOnceOnConflict(t *testing.T) {
	calls := 0
	ledger := &mockLedger{applyFn: func(context.Context, string, string, domvote.Direction, time.Time) (domvote.Outcome, error) {
		calls++
		if calls == 1 {
			return domvote.Outcome{}, domain.ErrVoteConflict
		}
		return added(), nil
	}}
	before := testutil.ToFloat64(metrics.VoteConflictsTotal.WithLabelValues("retried"))

	out, err := New(ledger, &mockReports{}).Cast(context.Background(), alice, "r1", "upvote")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if out.Transition.Kind != domvote.Added {
		t.Errorf("kind = %s", out.Transition.Kind)
	}
	if after := testutil.ToFloat64(metrics.VoteConflictsTotal.WithLabelValues("retried")); after != before+1 {
		t.Errorf("retried conflicts = %f, want %f", after, before+1)
	}
}

func TestCast_SurfacesSecondConflict(t *testing.T) {
	calls := 0
	ledger := &mockLedger{applyFn: func(context.Context, string, string, domvote.Direction, time.Time) (domvote.Outcome, error) {
		calls++
		return domvote.Outcome{}, domain.ErrVoteConflict
	}}

	_, err := New(ledger, &mockReports{}).Cast(context.Background(), alice, "r1", "downvote")
	if !errors.Is(err, domain.ErrVoteConflict) {
		t.Fatalf("expected ErrVoteConflict, got %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestCast_NoRetries(t *testing.T) {
	calls := 0
	ledger := &mockLedger{applyFn: func(context.Context, string, string, domvote.Direction, time.Time) (domvote.Outcome, error) {
		calls++
		return domvote.Outcome{}, domain.ErrVoteConflict
	}}

	svc := New(ledger, &mockReports{}).WithConflictRetries(0)
	if _, err := svc.Cast(context.Background(), alice, "r1", "upvote"); !errors.Is(err, domain.ErrVoteConflict) {
		t.Fatalf("expected ErrVoteConflict, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestCast_StorageErrorNotRetried(t *testing.T) {
	calls := 0
	boom := errors.New("boom")
	ledger := &mockLedger{applyFn: func(context.Context, string, string, domvote.Direction, time.Time) (domvote.Outcome, error) {
		calls++
		return domvote.Outcome{}, boom
	}}

	if _, err := New(ledger, &mockReports{}).Cast(context.Background(), alice, "r1", "upvote"); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestCast_PassesCallerAndDirection(t *testing.T) {
	fixed := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	ledger := &mockLedger{applyFn: func(_ context.Context, reportID, userID string, dir domvote.Direction, now time.Time) (domvote.Outcome, error) {
		if reportID != "r1" || userID != "alice" || dir != domvote.Down || !now.Equal(fixed) {
			t.Errorf("apply(%s, %s, %s, %v)", reportID, userID, dir, now)
		}
		return added(), nil
	}}
	svc := New(ledger, &mockReports{})
	svc.now = func() time.Time { return fixed }

	if _, err := svc.Cast(context.Background(), alice, "r1", "downvote"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- Current ---

func TestCurrent(t *testing.T) {
	want := &domvote.Vote{ReportID: "r1", UserID: "alice", Direction: domvote.Up}
	ledger := &mockLedger{currentFn: func(context.Context, string, string) (*domvote.Vote, error) { return want, nil }}
	svc := New(ledger, &mockReports{})

	got, err := svc.Current(context.Background(), alice, "r1")
	if err != nil || got != want {
		t.Fatalf("got %+v, %v", got, err)
	}
	if _, err := svc.Current(context.Background(), nil, "r1"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("anonymous: %v", err)
	}
	svc = New(ledger, &mockReports{err: domain.ErrReportNotFound})
	if _, err := svc.Current(context.Background(), alice, "r1"); !errors.Is(err, domain.ErrReportNotFound) {
		t.Errorf("missing report: %v", err)
	}
}

// --- End to end on the memory store ---

func newMemoryService(t *testing.T) (*Service, *reportrepo.Repo, *voterepo.Repo) {
	t.Helper()
	s := memory.NewStore()
	ks := keys.New("")
	reports := reportrepo.New(s, ks)
	rep, err := domreport.New("r1", "author", domreport.Content{
		Title:        "Mugging",
		Description:  "Near the bridge",
		LocationName: "Mirpur",
		Point:        geo.Point{Lng: 90.36, Lat: 23.8},
	}, time.Now())
	if err != nil {
		t.Fatalf("new report: %v", err)
	}
	if _, err := reports.Create(context.Background(), &rep); err != nil {
		t.Fatalf("create report: %v", err)
	}
	votes := voterepo.New(s, ks)
	return New(votes, reports), reports, votes
}

func TestCast_SameRequestTwice(t *testing.T) {
	ctx := context.Background()
	svc, reports, _ := newMemoryService(t)

	first, err := svc.Cast(ctx, alice, "r1", "upvote")
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := svc.Cast(ctx, alice, "r1", "upvote")
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.Transition.Kind != domvote.Added || second.Transition.Kind != domvote.Removed {
		t.Errorf("kinds = %s, %s", first.Transition.Kind, second.Transition.Kind)
	}
	rep, _ := reports.Get(ctx, "r1")
	if rep.Counters != (domvote.Counters{}) {
		t.Errorf("counters = %+v", rep.Counters)
	}
}

func TestCast_ConcurrentUpvotes(t *testing.T) {
	ctx := context.Background()
	svc, reports, _ := newMemoryService(t)

	const n = 25
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			caller := &auth.Principal{UserID: fmt.Sprintf("u%d", i), Role: auth.RoleUser}
			if _, err := svc.Cast(ctx, caller, "r1", "upvote"); err != nil {
				t.Errorf("cast: %v", err)
			}
		}()
	}
	wg.Wait()

	rep, err := reports.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rep.Counters != (domvote.Counters{Upvotes: n}) || rep.NetScore() != n {
		t.Errorf("counters = %+v", rep.Counters)
	}
}

func TestCast_ConcurrentDoubleSubmitsKeepCountersEqualToLedger(t *testing.T) {
	ctx := context.Background()
	svc, reports, votes := newMemoryService(t)

	const (
		users   = 4
		perUser = 10
		rounds  = 20
	)
	for round := range rounds {
		var wg sync.WaitGroup
		for u := range users {
			caller := &auth.Principal{UserID: fmt.Sprintf("u%d", u), Role: auth.RoleUser}
			for g := range perUser {
				wg.Add(1)
				go func() {
					defer wg.Done()
					dir := "upvote"
					if (g+u+round)%3 == 0 {
						dir = "downvote"
					}
					_, err := svc.Cast(ctx, caller, "r1", dir)
					if err != nil && !errors.Is(err, domain.ErrVoteConflict) {
						t.Errorf("cast: %v", err)
					}
				}()
			}
		}
		wg.Wait()

		rep, err := reports.Get(ctx, "r1")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		tallied, err := votes.Reconcile(ctx, "r1")
		if err != nil {
			t.Fatalf("round %d: reconcile: %v", round, err)
		}
		if rep.Counters != tallied {
			t.Fatalf("round %d: counters %+v drifted from ledger %+v", round, rep.Counters, tallied)
		}
		if rep.Counters.Upvotes+rep.Counters.Downvotes > users {
			t.Fatalf("round %d: more votes than voters: %+v", round, rep.Counters)
		}
	}
}
