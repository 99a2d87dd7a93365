package vote

import (
	"context"
	"time"

	domreport "github.com/kailas-cloud/incidex/internal/domain/report"
	domvote "github.com/kailas-cloud/incidex/internal/domain/vote"
)

// Ledger defines the storage contract for votes.
type Ledger interface {
	Apply(ctx context.Context, reportID, userID string, dir domvote.Direction, now time.Time) (domvote.Outcome, error)
	Current(ctx context.Context, reportID, userID string) (*domvote.Vote, error)
}

// ReportReader checks report existence.
type ReportReader interface {
	Get(ctx context.Context, id string) (domreport.Report, error)
}
