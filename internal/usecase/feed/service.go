package feed

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/incidex/internal/domain"
	domfeed "github.com/kailas-cloud/incidex/internal/domain/feed"
	"github.com/kailas-cloud/incidex/internal/domain/feed/query"
	domreport "github.com/kailas-cloud/incidex/internal/domain/report"
	"github.com/kailas-cloud/incidex/internal/logger"
	"github.com/kailas-cloud/incidex/internal/metrics"
)

// Service is the feed query engine.
type Service struct {
	reports   ReportSearcher
	directory Directory
	limits    query.Limits
}

// New creates a feed service.
func New(reports ReportSearcher, directory Directory) *Service {
	return &Service{reports: reports, directory: directory, limits: query.DefaultLimits}
}

// WithLimits overrides the paging bounds.
func (s *Service) WithLimits(l query.Limits) *Service {
	s.limits = l
	return s
}

// Search returns one page of reports enriched with their authors.
// A failed author lookup fails the whole page.
func (s *Service) Search(ctx context.Context, p query.Params) (domfeed.Page, error) {
	q, err := query.NewWithLimits(p, s.limits)
	if err != nil {
		return domfeed.Page{}, domain.NewValidationError("query", err.Error())
	}

	start := time.Now()
	reports, total, err := s.reports.Search(ctx, &q)
	if err != nil {
		return domfeed.Page{}, fmt.Errorf("search reports: %w", err)
	}

	items, err := s.Enrich(ctx, reports)
	if err != nil {
		return domfeed.Page{}, err
	}

	metrics.FeedQueryDuration.WithLabelValues(string(q.Sort())).Observe(time.Since(start).Seconds())
	metrics.FeedPageItems.Observe(float64(len(items)))
	logger.FromContext(ctx).Debug("Feed page served",
		zap.String("sort", string(q.Sort())),
		zap.Int("page", q.Page()),
		zap.Int("items", len(items)),
		zap.Int("total", total),
	)

	return domfeed.Page{
		Items:       items,
		TotalItems:  total,
		TotalPages:  q.TotalPages(total),
		CurrentPage: q.Page(),
	}, nil
}

// Enrich attaches author views to reports with one batched name lookup
// and one batched avatar lookup, run concurrently.
func (s *Service) Enrich(ctx context.Context, reports []domreport.Report) ([]domfeed.Item, error) {
	ids := domfeed.AuthorIDs(reports)
	if len(ids) == 0 {
		return domfeed.Join(reports, nil, nil), nil
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
	return domfeed.Join(reports, names, avatars), nil
}
