package feed

import (
	"context"

	"github.com/kailas-cloud/incidex/internal/domain/feed/query"
	domreport "github.com/kailas-cloud/incidex/internal/domain/report"
)

// ReportSearcher runs feed queries against report storage.
type ReportSearcher interface {
	Search(ctx context.Context, q *query.Query) ([]domreport.Report, int, error)
}

// Directory resolves author display data in batches.
type Directory interface {
	LookupNames(ctx context.Context, userIDs []string) (map[string]string, error)
	LookupAvatars(ctx context.Context, userIDs []string) (map[string]string, error)
}
