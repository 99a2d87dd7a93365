package report

import (
	"context"
	"time"

	domreport "github.com/kailas-cloud/incidex/internal/domain/report"
	domvote "github.com/kailas-cloud/incidex/internal/domain/vote"
)

// Repository defines the storage contract for reports.
type Repository interface {
	Create(ctx context.Context, rep *domreport.Report) (domreport.Report, error)
	Get(ctx context.Context, id string) (domreport.Report, error)
	UpdateContent(ctx context.Context, rep *domreport.Report) error
	SetStatus(ctx context.Context, id string, status domreport.Status, verified bool, now time.Time) error
	Delete(ctx context.Context, id string) error
	ListByAuthor(ctx context.Context, userID string) ([]domreport.Report, error)
}

// CounterReconciler recomputes report counters from the vote ledger.
type CounterReconciler interface {
	Reconcile(ctx context.Context, reportID string) (domvote.Counters, error)
}
