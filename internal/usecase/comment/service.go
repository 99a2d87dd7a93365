package comment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/incidex/internal/domain"
	"github.com/kailas-cloud/incidex/internal/domain/auth"
	domcomment "github.com/kailas-cloud/incidex/internal/domain/comment"
	"github.com/kailas-cloud/incidex/internal/logger"
	"github.com/kailas-cloud/incidex/internal/metrics"
)

// Service posts and lists report comments.
type Service struct {
	ledger    Ledger
	reports   ReportReader
	directory Directory
	newID     func() string
	now       func() time.Time
}

// New creates a comment service.
func New(ledger Ledger, reports ReportReader, directory Directory) *Service {
	return &Service{
		ledger:    ledger,
		reports:   reports,
		directory: directory,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Create posts a comment on a report for any signed-in caller.
// replyOf, when set, must name a comment on the same report.
func (s *Service) Create(
	ctx context.Context, caller *auth.Principal, reportID, content, replyOf string,
) (domcomment.Item, error) {
	if caller == nil {
		return domcomment.Item{}, domain.ErrUnauthorized
	}
	if reportID == "" {
		return domcomment.Item{}, domain.NewValidationError("reportId", "is required")
	}
	c, err := domcomment.New(s.newID(), reportID, caller.UserID, content, replyOf, s.now())
	if err != nil {
		return domcomment.Item{}, domain.NewValidationError("comment", err.Error())
	}
	if _, err := s.reports.Get(ctx, reportID); err != nil {
		return domcomment.Item{}, fmt.Errorf("get report: %w", err)
	}
	if c.IsReply() {
		parent, err := s.ledger.Get(ctx, reportID, c.ReplyOf)
		if err != nil {
			return domcomment.Item{}, fmt.Errorf("get parent comment: %w", err)
		}
		if parent == nil {
			return domcomment.Item{}, domain.NewValidationError("replyOf", "no such comment on this report")
		}
	}
	if err := s.ledger.Create(ctx, &c); err != nil {
		return domcomment.Item{}, fmt.Errorf("create comment: %w", err)
	}

	kind := "comment"
	if c.IsReply() {
		kind = "reply"
	}
	metrics.CommentsCreatedTotal.WithLabelValues(kind).Inc()
	logger.FromContext(ctx).Info("Comment created",
		zap.String("report_id", reportID),
		zap.String("comment_id", c.ID),
		zap.String("user_id", caller.UserID),
		zap.String("reply_of", c.ReplyOf),
	)

	items, err := s.enrich(ctx, []domcomment.Comment{c})
	if err != nil {
		return domcomment.Item{}, err
	}
	return items[0], nil
}

// List returns a report's comments oldest first with their authors.
func (s *Service) List(ctx context.Context, reportID string) ([]domcomment.Item, error) {
	if _, err := s.reports.Get(ctx, reportID); err != nil {
		return nil, fmt.Errorf("get report: %w", err)
	}
	comments, err := s.ledger.List(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return s.enrich(ctx, comments)
}

func (s *Service) enrich(ctx context.Context, comments []domcomment.Comment) ([]domcomment.Item, error) {
	ids := domcomment.AuthorIDs(comments)
	if len(ids) == 0 {
		return domcomment.Join(comments, nil, nil), nil
	}

	var names, avatars map[string]string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		names, err = s.directory.LookupNames(gctx, ids)
		if err != nil {
			return fmt.Errorf("lookup names: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		avatars, err = s.directory.LookupAvatars(gctx, ids)
		if err != nil {
			return fmt.Errorf("lookup avatars: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return domcomment.Join(comments, names, avatars), nil
}
