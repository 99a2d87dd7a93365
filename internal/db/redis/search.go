package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/incidex/internal/db"
)

const keyField = "__key"

// Aggregate returns one sorted page of matching document keys via FT.AGGREGATE.
// Entries carry the key plus any sort fields the engine loaded.
func (s *Store) Aggregate(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}
	if q.Offset < 0 {
		return nil, fmt.Errorf("offset must not be negative")
	}

	args := []string{q.IndexName, buildQuery(q.Filters), "LOAD", "1", "@" + keyField}

	if len(q.SortBy) > 0 {
		args = append(args, "SORTBY", strconv.Itoa(len(q.SortBy)*2))
		for _, k := range q.SortBy {
			dir := "ASC"
			if k.Desc {
				dir = "DESC"
			}
			args = append(args, "@"+k.Field, dir)
		}
	}

	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.AGGREGATE").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: err}
	}

	return parseAggregateResult(raw)
}

// Count returns the number of matching documents via FT.SEARCH with LIMIT 0 0.
func (s *Store) Count(ctx context.Context, q *db.SearchQuery) (int, error) {
	if q.IndexName == "" {
		return 0, fmt.Errorf("index name is required")
	}
	cmd := s.b().Arbitrary("FT.SEARCH").
		Args(q.IndexName, buildQuery(q.Filters), "LIMIT", "0", "0", "DIALECT", "2").
		Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, &db.Error{Op: db.OpSearch, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("parse count: %w", err)}
	}
	return int(total), nil
}

// --- Result parsing ---

func parseAggregateResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, &db.Error{Op: db.OpAggregate, Err: fmt.Errorf("parse total: %w", err)}
	}

	// [total, [f1, v1, ...], [f1, v1, ...], ...]
	entries := make([]db.SearchEntry, 0, len(raw)-1)
	for i := 1; i < len(raw); i++ {
		row, err := raw[i].ToArray()
		if err != nil {
			continue
		}
		fields := parseFieldPairs(row)
		key, ok := fields[keyField]
		if !ok {
			continue
		}
		delete(fields, keyField)
		entries = append(entries, db.SearchEntry{Key: key, Fields: fields})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Query building ---

// buildQuery translates ANDed filters into a DIALECT 2 query string.
func buildQuery(filters []db.Filter) string {
	parts := make([]string, 0, len(filters))
	for i := range filters {
		if p := buildFilter(&filters[i]); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

func buildFilter(f *db.Filter) string {
	alts := make([]string, 0, len(f.Fields))
	for _, field := range f.Fields {
		if c := buildCondition(field, f); c != "" {
			alts = append(alts, c)
		}
	}
	switch len(alts) {
	case 0:
		return ""
	case 1:
		return alts[0]
	}
	return "(" + strings.Join(alts, " | ") + ")"
}

func buildCondition(field string, f *db.Filter) string {
	switch f.Kind {
	case db.FilterTagEquals:
		if f.Value == "" {
			return ""
		}
		return fmt.Sprintf("@%s:{%s}", field, tagEscaper.Replace(f.Value))
	case db.FilterTagContains:
		if f.Value == "" {
			return ""
		}
		return fmt.Sprintf("@%s:{*%s*}", field, tagEscaper.Replace(f.Value))
	case db.FilterGeoRadius:
		if f.RadiusKm <= 0 {
			return ""
		}
		return fmt.Sprintf("@%s:[%s %s %s km]", field,
			formatFloat(f.Lng), formatFloat(f.Lat), formatFloat(f.RadiusKm))
	}
	return ""
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var tagEscaper = strings.NewReplacer(
	`\`, `\\`,
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"[", "\\[",
	"]", "\\]",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	"/", "\\/",
	"?", "\\?",
	" ", "\\ ",
)
