package order

import (
	"strings"

	"github.com/kailas-cloud/incidex/internal/domain/report"
)

// Mode is the feed sort order.
type Mode string

// Sort mode constants.
const (
	// Recency sorts by creation time, newest first.
	Recency Mode = "recent"
	// NetScore sorts by upvotes minus downvotes, highest first.
	NetScore Mode = "upvoted"
	// VerificationScore puts admin-verified reports first.
	VerificationScore Mode = "verification"
)

var aliases = map[string]Mode{
	"recent":                     Recency,
	"most recent":                Recency,
	"upvoted":                    NetScore,
	"most upvoted":               NetScore,
	"net_score":                  NetScore,
	"verification":               VerificationScore,
	"highest verification score": VerificationScore,
}

// Parse maps a wire value to a Mode. Unknown values fall back to Recency.
func Parse(s string) Mode {
	if m, ok := aliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return m
	}
	return Recency
}

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Recency || m == NetScore || m == VerificationScore
}

// Less reports whether a sorts before b under m.
// Ties fall back to insertion sequence so equal keys keep a stable order.
func (m Mode) Less(a, b *report.Report) bool {
	switch m {
	case NetScore:
		if an, bn := a.NetScore(), b.NetScore(); an != bn {
			return an > bn
		}
	case VerificationScore:
		if a.Verified != b.Verified {
			return a.Verified
		}
	default:
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
	}
	if a.Seq != b.Seq {
		return a.Seq < b.Seq
	}
	return a.ID < b.ID
}

// Key is a storage sort key.
type Key struct {
	Field string
	Desc  bool
}

// Keys returns the stored fields m sorts by, primary first.
func (m Mode) Keys() []Key {
	var primary Key
	switch m {
	case NetScore:
		primary = Key{Field: "net_score", Desc: true}
	case VerificationScore:
		primary = Key{Field: "verified", Desc: true}
	default:
		primary = Key{Field: "created_at", Desc: true}
	}
	return []Key{primary, {Field: "seq"}}
}
