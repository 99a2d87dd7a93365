package vote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/incidex/internal/domain"
	"github.com/kailas-cloud/incidex/internal/domain/auth"
	domvote "github.com/kailas-cloud/incidex/internal/domain/vote"
	"github.com/kailas-cloud/incidex/internal/logger"
	"github.com/kailas-cloud/incidex/internal/metrics"
)

// DefaultConflictRetries is how many times a lost compare-and-swap is retried.
const DefaultConflictRetries = 1

// Service casts and reads votes.
type Service struct {
	ledger  Ledger
	reports ReportReader
	retries int
	now     func() time.Time
}

// New creates a vote service.
func New(ledger Ledger, reports ReportReader) *Service {
	return &Service{
		ledger:  ledger,
		reports: reports,
		retries: DefaultConflictRetries,
		now:     time.Now,
	}
}

// WithConflictRetries overrides the retry count. Negative values are ignored.
func (s *Service) WithConflictRetries(n int) *Service {
	if n >= 0 {
		s.retries = n
	}
	return s
}

// Cast applies the caller's requested direction to a report.
// Repeating the current direction removes the vote.
func (s *Service) Cast(
	ctx context.Context, caller *auth.Principal, reportID, direction string,
) (domvote.Outcome, error) {
	if caller == nil {
		return domvote.Outcome{}, domain.ErrUnauthorized
	}
	if reportID == "" {
		return domvote.Outcome{}, domain.NewValidationError("reportId", "is required")
	}
	dir, err := domvote.ParseDirection(direction)
	if err != nil {
		return domvote.Outcome{}, domain.NewValidationError("vote", "must be upvote or downvote")
	}
	if _, err := s.reports.Get(ctx, reportID); err != nil {
		return domvote.Outcome{}, fmt.Errorf("get report: %w", err)
	}

	log := logger.FromContext(ctx)
	for attempt := 0; ; attempt++ {
		out, err := s.ledger.Apply(ctx, reportID, caller.UserID, dir, s.now())
		if err == nil {
			metrics.VoteTransitionsTotal.WithLabelValues(string(out.Transition.Kind)).Inc()
			log.Debug("Vote transition",
				zap.String("report_id", reportID),
				zap.String("user_id", caller.UserID),
				zap.String("from", string(out.Transition.From)),
				zap.String("to", string(out.Transition.To)),
				zap.String("kind", string(out.Transition.Kind)),
			)
			return out, nil
		}
		if !errors.Is(err, domain.ErrVoteConflict) {
			return domvote.Outcome{}, fmt.Errorf("apply vote: %w", err)
		}
		if attempt >= s.retries {
			metrics.VoteConflictsTotal.WithLabelValues("surfaced").Inc()
			log.Warn("Vote conflict",
				zap.String("report_id", reportID),
				zap.String("user_id", caller.UserID),
				zap.Int("attempts", attempt+1),
			)
			return domvote.Outcome{}, err
		}
		metrics.VoteConflictsTotal.WithLabelValues("retried").Inc()
	}
}

// Current returns the caller's vote on a report, nil when there is none.
func (s *Service) Current(ctx context.Context, caller *auth.Principal, reportID string) (*domvote.Vote, error) {
	if caller == nil {
		return nil, domain.ErrUnauthorized
	}
	if _, err := s.reports.Get(ctx, reportID); err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	v, err := s.ledger.Current(ctx, reportID, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("current vote: %w", err)
	}
	return v, nil
}
