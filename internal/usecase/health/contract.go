package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker checks that the report search index is usable.
type IndexChecker interface {
	CheckIndex(ctx context.Context) error
}
