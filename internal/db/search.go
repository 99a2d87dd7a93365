package db

// FilterKind selects how a Filter constrains a field.
type FilterKind int

const (
	// FilterTagEquals matches a TAG field exactly.
	FilterTagEquals FilterKind = iota
	// FilterTagContains matches a TAG field containing Value as a substring.
	FilterTagContains
	// FilterGeoRadius matches a GEO field within RadiusKm of (Lng, Lat).
	FilterGeoRadius
)

// Filter is a single ANDed constraint in a SearchQuery.
// With several Fields the filter matches when any of them matches.
type Filter struct {
	Fields []string
	Kind   FilterKind
	Value  string

	Lng      float64
	Lat      float64
	RadiusKm float64
}

// SortKey orders aggregate results by a SORTABLE field.
type SortKey struct {
	Field string
	Desc  bool
}

// SearchQuery is the input for a filtered, sorted page over an FT index.
type SearchQuery struct {
	IndexName string
	Filters   []Filter
	SortBy    []SortKey
	Offset    int
	Limit     int
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}
