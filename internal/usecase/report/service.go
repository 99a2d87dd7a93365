package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/incidex/internal/domain"
	"github.com/kailas-cloud/incidex/internal/domain/auth"
	domreport "github.com/kailas-cloud/incidex/internal/domain/report"
	domvote "github.com/kailas-cloud/incidex/internal/domain/vote"
	"github.com/kailas-cloud/incidex/internal/logger"
	"github.com/kailas-cloud/incidex/internal/metrics"
)

// Service handles the report lifecycle.
type Service struct {
	repo       Repository
	reconciler CounterReconciler
	newID      func() string
	now        func() time.Time
}

// New creates a report service.
func New(repo Repository, reconciler CounterReconciler) *Service {
	return &Service{
		repo:       repo,
		reconciler: reconciler,
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// Create stores a new report authored by a verified caller.
func (s *Service) Create(ctx context.Context, caller *auth.Principal, c *domreport.Content) (domreport.Report, error) {
	if err := requireVerified(caller); err != nil {
		return domreport.Report{}, err
	}
	rep, err := domreport.New(s.newID(), caller.UserID, *c, s.now())
	if err != nil {
		return domreport.Report{}, domain.NewValidationError("report", err.Error())
	}
	stored, err := s.repo.Create(ctx, &rep)
	if err != nil {
		return domreport.Report{}, fmt.Errorf("create report: %w", err)
	}
	logger.FromContext(ctx).Info("Report created",
		zap.String("report_id", stored.ID),
		zap.String("user_id", caller.UserID),
	)
	return stored, nil
}

// Get returns a report and whether caller authored it. caller may be nil.
func (s *Service) Get(ctx context.Context, caller *auth.Principal, id string) (domreport.Report, bool, error) {
	rep, err := s.repo.Get(ctx, id)
	if err != nil {
		return domreport.Report{}, false, fmt.Errorf("get report: %w", err)
	}
	isAuthor := caller != nil && rep.IsAuthor(caller.UserID)
	return rep, isAuthor, nil
}

// Update applies a content patch on behalf of the report's author.
func (s *Service) Update(
	ctx context.Context, caller *auth.Principal, id string, p *domreport.Patch,
) (domreport.Report, error) {
	if err := requireVerified(caller); err != nil {
		return domreport.Report{}, err
	}
	if p.IsEmpty() {
		return domreport.Report{}, domain.NewValidationError("body", "no fields to update")
	}
	rep, err := s.repo.Get(ctx, id)
	if err != nil {
		return domreport.Report{}, fmt.Errorf("get report: %w", err)
	}
	if !rep.IsAuthor(caller.UserID) {
		return domreport.Report{}, fmt.Errorf("only the author can edit this report: %w", domain.ErrForbidden)
	}
	next, err := rep.Apply(p, s.now())
	if err != nil {
		return domreport.Report{}, domain.NewValidationError("report", err.Error())
	}
	if err := s.repo.UpdateContent(ctx, &next); err != nil {
		return domreport.Report{}, fmt.Errorf("update report: %w", err)
	}
	return next, nil
}

// Delete removes a report and its votes. Allowed for the author and admins.
func (s *Service) Delete(ctx context.Context, caller *auth.Principal, id string) error {
	if caller == nil {
		return domain.ErrUnauthorized
	}
	rep, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get report: %w", err)
	}
	if !rep.IsAuthor(caller.UserID) && !caller.IsAdmin() {
		return fmt.Errorf("only the author or an admin can delete this report: %w", domain.ErrForbidden)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	logger.FromContext(ctx).Info("Report deleted",
		zap.String("report_id", id),
		zap.String("user_id", caller.UserID),
		zap.Bool("admin", caller.IsAdmin()),
	)
	return nil
}

// ListMine returns the caller's reports, newest first.
func (s *Service) ListMine(ctx context.Context, caller *auth.Principal) ([]domreport.Report, error) {
	if caller == nil {
		return nil, domain.ErrUnauthorized
	}
	reports, err := s.repo.ListByAuthor(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	return reports, nil
}

// StatusChange is an admin update of a report's review state.
// Nil fields keep their current value.
type StatusChange struct {
	Status   *string
	Verified *bool
}

// SetStatus updates the investigation status and verified flag.
func (s *Service) SetStatus(
	ctx context.Context, caller *auth.Principal, id string, ch StatusChange,
) (domreport.Report, error) {
	if err := requireAdmin(caller); err != nil {
		return domreport.Report{}, err
	}
	if ch.Status == nil && ch.Verified == nil {
		return domreport.Report{}, domain.NewValidationError("body", "status or verified is required")
	}
	rep, err := s.repo.Get(ctx, id)
	if err != nil {
		return domreport.Report{}, fmt.Errorf("get report: %w", err)
	}
	if ch.Status != nil {
		st := domreport.Status(*ch.Status)
		if !st.IsValid() {
			return domreport.Report{}, domain.NewValidationError("status", fmt.Sprintf("unknown value %q", *ch.Status))
		}
		rep.Status = st
	}
	if ch.Verified != nil {
		rep.Verified = *ch.Verified
	}
	rep.UpdatedAt = s.now()
	if err := s.repo.SetStatus(ctx, id, rep.Status, rep.Verified, rep.UpdatedAt); err != nil {
		return domreport.Report{}, fmt.Errorf("set status: %w", err)
	}
	return rep, nil
}

// Reconcile recomputes a report's vote counters from its ledger.
func (s *Service) Reconcile(ctx context.Context, caller *auth.Principal, id string) (domvote.Counters, error) {
	if err := requireAdmin(caller); err != nil {
		return domvote.Counters{}, err
	}
	rep, err := s.repo.Get(ctx, id)
	if err != nil {
		return domvote.Counters{}, fmt.Errorf("get report: %w", err)
	}
	c, err := s.reconciler.Reconcile(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrVoteConflict) {
			metrics.CounterReconcilesTotal.WithLabelValues("conflict").Inc()
		}
		return domvote.Counters{}, fmt.Errorf("reconcile counters: %w", err)
	}
	result := "clean"
	if c != rep.Counters {
		result = "repaired"
		logger.FromContext(ctx).Warn("Counters drifted from ledger",
			zap.String("report_id", id),
			zap.Int64("stored_upvotes", rep.Counters.Upvotes),
			zap.Int64("stored_downvotes", rep.Counters.Downvotes),
			zap.Int64("upvotes", c.Upvotes),
			zap.Int64("downvotes", c.Downvotes),
		)
	}
	metrics.CounterReconcilesTotal.WithLabelValues(result).Inc()
	return c, nil
}

func requireVerified(caller *auth.Principal) error {
	if caller == nil {
		return domain.ErrUnauthorized
	}
	if !caller.Verified {
		return fmt.Errorf("account is not verified: %w", domain.ErrForbidden)
	}
	return nil
}

func requireAdmin(caller *auth.Principal) error {
	if caller == nil {
		return domain.ErrUnauthorized
	}
	if !caller.IsAdmin() {
		return fmt.Errorf("admin role required: %w", domain.ErrForbidden)
	}
	return nil
}
