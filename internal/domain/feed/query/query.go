package query

import (
	"fmt"
	"math"
	"strings"

	"github.com/kailas-cloud/incidex/internal/domain/feed/order"
	"github.com/kailas-cloud/incidex/internal/domain/geo"
	"github.com/kailas-cloud/incidex/internal/domain/report"
)

// Pagination and term limits.
const (
	DefaultLimit  = 10
	MaxLimit      = 20
	MaxTermLength = 256
)

// Limits bounds the page size.
type Limits struct {
	Default int
	Max     int
}

// DefaultLimits are the feed paging bounds.
var DefaultLimits = Limits{Default: DefaultLimit, Max: MaxLimit}

// allValues is the wire value meaning "no filter".
const allValues = "all"

// Params is the raw feed query as received on the wire.
type Params struct {
	Page     int
	Limit    int
	Search   string
	Location string
	Category string
	Status   string
	Sort     string
	Lat      *float64
	Lng      *float64
	Radius   *float64
}

// Query is a validated, normalized feed query.
type Query struct {
	page     int
	limit    int
	search   string
	location string
	category report.Category
	status   report.Status
	sort     order.Mode
	area     *geo.Cap
}

// New validates and normalizes params with DefaultLimits.
func New(p Params) (Query, error) {
	return NewWithLimits(p, DefaultLimits)
}

// NewWithLimits validates and normalizes params.
// Page is clamped to [1, math.MaxInt/limit] so Skip cannot overflow,
// limit to [1,l.Max] with l.Default for zero or negative.
func NewWithLimits(p Params, l Limits) (Query, error) {
	q := Query{
		page:  p.Page,
		limit: p.Limit,
		sort:  order.Parse(p.Sort),
	}
	if q.page < 1 {
		q.page = 1
	}
	if q.limit <= 0 {
		q.limit = l.Default
	}
	if q.limit > l.Max {
		q.limit = l.Max
	}
	if maxPage := math.MaxInt / q.limit; q.page > maxPage {
		q.page = maxPage
	}

	search := strings.TrimSpace(p.Search)
	if len(search) > MaxTermLength {
		return Query{}, fmt.Errorf("search too long (max %d chars)", MaxTermLength)
	}
	q.search = strings.ToLower(search)

	location := strings.TrimSpace(p.Location)
	if len(location) > MaxTermLength {
		return Query{}, fmt.Errorf("location too long (max %d chars)", MaxTermLength)
	}
	if !isAll(location) {
		q.location = strings.ToLower(location)
	}

	if c := strings.TrimSpace(p.Category); c != "" && !isAll(c) {
		q.category = report.Category(c)
		if !q.category.IsValid() {
			return Query{}, fmt.Errorf("unknown category %q", c)
		}
	}
	if s := strings.TrimSpace(p.Status); s != "" && !isAll(s) {
		q.status = report.Status(strings.ToLower(s))
		if !q.status.IsValid() {
			return Query{}, fmt.Errorf("unknown status %q", s)
		}
	}

	coords := []struct {
		name string
		v    *float64
	}{{"lat", p.Lat}, {"lng", p.Lng}, {"radius", p.Radius}}
	for _, c := range coords {
		if c.v != nil && (math.IsNaN(*c.v) || math.IsInf(*c.v, 0)) {
			return Query{}, fmt.Errorf("%s must be a finite number", c.name)
		}
	}
	if p.Radius != nil && *p.Radius > 0 {
		if p.Lat == nil || p.Lng == nil {
			return Query{}, fmt.Errorf("lat and lng are required with radius")
		}
		center := geo.Point{Lng: *p.Lng, Lat: *p.Lat}
		if !center.Valid() {
			return Query{}, fmt.Errorf("invalid coordinates: lat=%f lng=%f", center.Lat, center.Lng)
		}
		c := geo.NewCap(center, *p.Radius)
		q.area = &c
	}
	return q, nil
}

func isAll(s string) bool { return strings.EqualFold(s, allValues) }

// Page returns the 1-based page number.
func (q *Query) Page() int { return q.page }

// Limit returns the page size.
func (q *Query) Limit() int { return q.limit }

// Skip returns the number of matching reports before this page.
func (q *Query) Skip() int { return (q.page - 1) * q.limit }

// Search returns the lowercased title/description term ("" = none).
func (q *Query) Search() string { return q.search }

// Location returns the lowercased location term ("" = none).
func (q *Query) Location() string { return q.location }

// Category returns the category filter ("" = none).
func (q *Query) Category() report.Category { return q.category }

// Status returns the status filter ("" = none).
func (q *Query) Status() report.Status { return q.status }

// Sort returns the sort order.
func (q *Query) Sort() order.Mode { return q.sort }

// Area returns the geo filter (nil = none).
func (q *Query) Area() *geo.Cap { return q.area }

// Matches evaluates every filter against r.
func (q *Query) Matches(r *report.Report) bool {
	if q.search != "" &&
		!strings.Contains(strings.ToLower(r.Title), q.search) &&
		!strings.Contains(strings.ToLower(r.Description), q.search) {
		return false
	}
	if q.location != "" && !strings.Contains(strings.ToLower(r.LocationName), q.location) {
		return false
	}
	if q.category != "" && r.Category != q.category {
		return false
	}
	if q.status != "" && r.Status != q.status {
		return false
	}
	if q.area != nil && !q.area.Contains(r.Point) {
		return false
	}
	return true
}

// TotalPages returns ceil(total/limit).
func (q *Query) TotalPages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + q.limit - 1) / q.limit
}
