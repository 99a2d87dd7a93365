package report

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/kailas-cloud/incidex/internal/db"
	"github.com/kailas-cloud/incidex/internal/domain"
	"github.com/kailas-cloud/incidex/internal/domain/feed/order"
	"github.com/kailas-cloud/incidex/internal/domain/feed/query"
	domreport "github.com/kailas-cloud/incidex/internal/domain/report"
	"github.com/kailas-cloud/incidex/internal/repository/keys"
)

// redisEarthRadiusKm is the sphere Redis GEO measures distances on.
const redisEarthRadiusKm = 6372.797560856

// authorBatch is the FT.AGGREGATE page size used to list one author's reports.
const authorBatch = 100

// tagSeparator keeps free text in a single tag value.
const tagSeparator = "\x1f"

// store is the consumer interface for reports (ISP).
//
//nolint:interfacebloat // report repo needs hash, sequence, index and search operations
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	CompareAndSetFields(ctx context.Context, key string, expected, next map[string]string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SupportsSearch(ctx context.Context) bool
	Aggregate(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	Count(ctx context.Context, q *db.SearchQuery) (int, error)
}

// Repo implements the report repository used by the report, vote and feed use cases.
type Repo struct {
	store store
	keys  keys.Space
}

// New creates a report repository.
func New(s store, ks keys.Space) *Repo {
	return &Repo{store: s, keys: ks}
}

// EnsureIndex creates the report FT index when the backend has a query engine.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	if !r.store.SupportsSearch(ctx) {
		return nil
	}
	name := r.keys.ReportIndex()
	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check index %s: %w", name, err)
	}
	if exists {
		return nil
	}
	if err := r.store.CreateIndex(ctx, buildIndex(r.keys)); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

// CheckIndex fails when the backend has a query engine but the report index is missing.
func (r *Repo) CheckIndex(ctx context.Context) error {
	if !r.store.SupportsSearch(ctx) {
		return nil
	}
	name := r.keys.ReportIndex()
	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check index %s: %w", name, err)
	}
	if !exists {
		return fmt.Errorf("index %s: %w", name, db.ErrIndexNotFound)
	}
	return nil
}

func buildIndex(ks keys.Space) *db.IndexDefinition {
	return db.NewIndex(ks.ReportIndex()).
		Prefix(ks.ReportPrefix()).
		TagWithOpts(fieldTitleLC, tagSeparator, false).
		TagWithOpts(fieldDescriptionLC, tagSeparator, false).
		TagWithOpts(fieldLocationLC, tagSeparator, false).
		TagWithOpts(fieldCategory, tagSeparator, true).
		TagWithOpts(fieldStatus, tagSeparator, false).
		Tag(fieldReportedBy).
		Geo(fieldPoint).
		SortableNumeric(fieldCreatedAt).
		SortableNumeric(keys.FieldNetScore).
		SortableNumeric(fieldVerified).
		SortableNumeric(fieldSeq).
		MustBuild()
}

// Create assigns the next insertion sequence and stores the report.
func (r *Repo) Create(ctx context.Context, rep *domreport.Report) (domreport.Report, error) {
	seq, err := r.store.IncrBy(ctx, r.keys.ReportSeq(), 1)
	if err != nil {
		return domreport.Report{}, fmt.Errorf("next seq: %w", err)
	}
	stored := *rep
	stored.Seq = seq

	fields, err := buildHashFields(&stored)
	if err != nil {
		return domreport.Report{}, err
	}
	key := r.keys.Report(stored.ID)
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return domreport.Report{}, fmt.Errorf("hset %s: %w", key, err)
	}
	return parseHashFields(fields)
}

// Get returns a report by ID.
func (r *Repo) Get(ctx context.Context, id string) (domreport.Report, error) {
	key := r.keys.Report(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return domreport.Report{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domreport.Report{}, domain.ErrReportNotFound
	}
	return parseHashFields(m)
}

// UpdateContent overwrites the author-editable fields of an existing report.
// Counters, status and identity are untouched.
func (r *Repo) UpdateContent(ctx context.Context, rep *domreport.Report) error {
	fields, err := contentFields(&rep.Content)
	if err != nil {
		return err
	}
	fields[fieldUpdatedAt] = strconv.FormatInt(rep.UpdatedAt.UnixMicro(), 10)
	return r.setIfExists(ctx, rep.ID, fields)
}

// SetStatus updates the investigation status and verified flag.
func (r *Repo) SetStatus(
	ctx context.Context, id string, status domreport.Status, verified bool, now time.Time,
) error {
	return r.setIfExists(ctx, id, map[string]string{
		fieldStatus:    string(status),
		fieldVerified:  formatBool(verified),
		fieldUpdatedAt: strconv.FormatInt(now.UnixMicro(), 10),
	})
}

// setIfExists writes fields only while the report hash still exists,
// so a concurrent delete cannot leave a partial hash behind.
func (r *Repo) setIfExists(ctx context.Context, id string, fields map[string]string) error {
	key := r.keys.Report(id)
	ok, err := r.store.CompareAndSetFields(ctx, key, map[string]string{fieldID: id}, fields)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ErrReportNotFound
		}
		return fmt.Errorf("update %s: %w", key, err)
	}
	if !ok {
		return domain.ErrReportNotFound
	}
	return nil
}

// Delete removes a report together with its vote and comment ledgers.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.keys.Report(id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrReportNotFound
	}
	if err := r.store.Del(ctx, key, r.keys.Votes(id), r.keys.Comments(id)); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Search returns one page of reports matching q and the total match count.
func (r *Repo) Search(ctx context.Context, q *query.Query) ([]domreport.Report, int, error) {
	if r.store.SupportsSearch(ctx) {
		return r.searchIndexed(ctx, searchFilters(q), q.Sort(), q.Skip(), q.Limit())
	}
	return r.searchScan(ctx, q.Matches, q.Sort(), q.Skip(), q.Limit())
}

// ListByAuthor returns every report created by userID, newest first.
// The indexed path pages until a short batch instead of trusting a prior count,
// so reports created meanwhile are not cut off.
func (r *Repo) ListByAuthor(ctx context.Context, userID string) ([]domreport.Report, error) {
	if !r.store.SupportsSearch(ctx) {
		byAuthor := func(rep *domreport.Report) bool { return rep.ReportedBy == userID }
		reports, _, err := r.searchScan(ctx, byAuthor, order.Recency, 0, -1)
		return reports, err
	}

	sq := &db.SearchQuery{
		IndexName: r.keys.ReportIndex(),
		Filters:   []db.Filter{{Fields: []string{fieldReportedBy}, Kind: db.FilterTagEquals, Value: userID}},
		SortBy:    sortKeys(order.Recency),
		Limit:     authorBatch,
	}
	var out []domreport.Report
	for {
		res, err := r.store.Aggregate(ctx, sq)
		if err != nil {
			return nil, fmt.Errorf("aggregate by author: %w", err)
		}
		reports, err := r.load(ctx, entryKeys(res.Entries))
		if err != nil {
			return nil, err
		}
		out = append(out, reports...)
		if len(res.Entries) < authorBatch {
			return out, nil
		}
		sq.Offset += authorBatch
	}
}

func searchFilters(q *query.Query) []db.Filter {
	var filters []db.Filter
	if s := q.Search(); s != "" {
		filters = append(filters, db.Filter{
			Fields: []string{fieldTitleLC, fieldDescriptionLC}, Kind: db.FilterTagContains, Value: s,
		})
	}
	if l := q.Location(); l != "" {
		filters = append(filters, db.Filter{
			Fields: []string{fieldLocationLC}, Kind: db.FilterTagContains, Value: l,
		})
	}
	if c := q.Category(); c != "" {
		filters = append(filters, db.Filter{
			Fields: []string{fieldCategory}, Kind: db.FilterTagEquals, Value: string(c),
		})
	}
	if s := q.Status(); s != "" {
		filters = append(filters, db.Filter{
			Fields: []string{fieldStatus}, Kind: db.FilterTagEquals, Value: string(s),
		})
	}
	if a := q.Area(); a != nil {
		filters = append(filters, db.Filter{
			Fields:   []string{fieldPoint},
			Kind:     db.FilterGeoRadius,
			Lng:      a.Center.Lng,
			Lat:      a.Center.Lat,
			RadiusKm: a.RadiusOn(redisEarthRadiusKm),
		})
	}
	return filters
}

func sortKeys(m order.Mode) []db.SortKey {
	ks := m.Keys()
	out := make([]db.SortKey, len(ks))
	for i, k := range ks {
		out[i] = db.SortKey{Field: k.Field, Desc: k.Desc}
	}
	return out
}

func (r *Repo) searchIndexed(
	ctx context.Context, filters []db.Filter, m order.Mode, offset, limit int,
) ([]domreport.Report, int, error) {
	sq := &db.SearchQuery{
		IndexName: r.keys.ReportIndex(),
		Filters:   filters,
		SortBy:    sortKeys(m),
		Offset:    offset,
		Limit:     limit,
	}
	// Count and page are separate reads: a write landing between them can make
	// total disagree with the page by the reports written meanwhile.
	total, err := r.store.Count(ctx, sq)
	if err != nil {
		return nil, 0, fmt.Errorf("count reports: %w", err)
	}
	if total == 0 || offset < 0 || offset >= total {
		return nil, total, nil
	}

	res, err := r.store.Aggregate(ctx, sq)
	if err != nil {
		return nil, 0, fmt.Errorf("aggregate reports: %w", err)
	}
	reports, err := r.load(ctx, entryKeys(res.Entries))
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// searchScan evaluates match and ordering in process. limit < 0 returns all.
func (r *Repo) searchScan(
	ctx context.Context, match func(*domreport.Report) bool, m order.Mode, offset, limit int,
) ([]domreport.Report, int, error) {
	hashKeys, err := r.store.Scan(ctx, r.keys.ReportPattern())
	if err != nil {
		return nil, 0, fmt.Errorf("scan reports: %w", err)
	}
	all, err := r.load(ctx, hashKeys)
	if err != nil {
		return nil, 0, err
	}

	matched := all[:0]
	for i := range all {
		if match(&all[i]) {
			matched = append(matched, all[i])
		}
	}
	slices.SortFunc(matched, func(a, b domreport.Report) int {
		if m.Less(&a, &b) {
			return -1
		}
		if m.Less(&b, &a) {
			return 1
		}
		return 0
	})

	total := len(matched)
	if offset < 0 || offset >= total {
		return nil, total, nil
	}
	end := total
	if limit >= 0 && offset+limit < total {
		end = offset + limit
	}
	return matched[offset:end], total, nil
}

func entryKeys(entries []db.SearchEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}
	return out
}

// load fetches report hashes in order, skipping keys deleted meanwhile.
func (r *Repo) load(ctx context.Context, hashKeys []string) ([]domreport.Report, error) {
	if len(hashKeys) == 0 {
		return nil, nil
	}
	hashes, err := r.store.HGetAllMulti(ctx, hashKeys)
	if err != nil {
		return nil, fmt.Errorf("load reports: %w", err)
	}
	out := make([]domreport.Report, 0, len(hashes))
	for i, m := range hashes {
		if len(m) == 0 {
			continue
		}
		rep, err := parseHashFields(m)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", hashKeys[i], err)
		}
		out = append(out, rep)
	}
	return out, nil
}
