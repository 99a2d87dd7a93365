package feed

import "github.com/kailas-cloud/incidex/internal/domain/report"

// UnknownAuthor is the name shown when the directory has no entry.
const UnknownAuthor = "Unknown"

// Author is the denormalized author view attached to feed items.
type Author struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// DefaultAuthor returns the placeholder author.
func DefaultAuthor() Author { return Author{Name: UnknownAuthor} }

// Item is a report enriched with its author.
type Item struct {
	Report report.Report
	Author Author
}

// Page is one page of feed results.
type Page struct {
	Items       []Item
	TotalItems  int
	TotalPages  int
	CurrentPage int
}

// AuthorIDs returns the distinct reporters of reports in first-seen order.
func AuthorIDs(reports []report.Report) []string {
	seen := make(map[string]struct{}, len(reports))
	ids := make([]string, 0, len(reports))
	for i := range reports {
		id := reports[i].ReportedBy
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// Join merges names and avatars onto reports, defaulting missing authors.
func Join(reports []report.Report, names, avatars map[string]string) []Item {
	items := make([]Item, len(reports))
	for i := range reports {
		a := DefaultAuthor()
		if n, ok := names[reports[i].ReportedBy]; ok && n != "" {
			a.Name = n
		}
		if av, ok := avatars[reports[i].ReportedBy]; ok {
			a.Avatar = av
		}
		items[i] = Item{Report: reports[i], Author: a}
	}
	return items
}
