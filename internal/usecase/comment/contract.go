package comment

import (
	"context"

	domcomment "github.com/kailas-cloud/incidex/internal/domain/comment"
	domreport "github.com/kailas-cloud/incidex/internal/domain/report"
)

// Ledger defines the storage contract for comments.
type Ledger interface {
	Create(ctx context.Context, c *domcomment.Comment) error
	Get(ctx context.Context, reportID, id string) (*domcomment.Comment, error)
	List(ctx context.Context, reportID string) ([]domcomment.Comment, error)
}

// ReportReader checks that the commented report exists.
type ReportReader interface {
	Get(ctx context.Context, id string) (domreport.Report, error)
}

// Directory resolves author display data in batches.
type Directory interface {
	LookupNames(ctx context.Context, userIDs []string) (map[string]string, error)
	LookupAvatars(ctx context.Context, userIDs []string) (map[string]string, error)
}
