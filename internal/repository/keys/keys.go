// Package keys builds the Redis key names shared by the repositories.
package keys

// DefaultPrefix is the namespace used when none is configured.
const DefaultPrefix = "incidex:"

// Space builds key names under a prefix.
// Report, vote and comment keys share a {reportID} hash tag so the vote
// script and the delete cascade touch a single cluster slot.
type Space struct {
	prefix string
}

// New creates a key space. Empty prefix falls back to DefaultPrefix.
func New(prefix string) Space {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Space{prefix: prefix}
}

// Prefix returns the namespace prefix.
func (s Space) Prefix() string { return s.prefix }

// Report is the report hash key.
func (s Space) Report(id string) string { return s.ReportPrefix() + "{" + id + "}" }

// ReportPrefix is the common prefix of report hashes.
func (s Space) ReportPrefix() string { return s.prefix + "report:" }

// ReportPattern matches every report hash.
func (s Space) ReportPattern() string { return s.ReportPrefix() + "*" }

// ReportID extracts the id from a report key. ok is false for foreign keys.
func (s Space) ReportID(key string) (string, bool) {
	p := s.ReportPrefix()
	if len(key) < len(p)+3 || key[:len(p)] != p {
		return "", false
	}
	rest := key[len(p):]
	if rest[0] != '{' || rest[len(rest)-1] != '}' {
		return "", false
	}
	return rest[1 : len(rest)-1], true
}

// Votes is the per-report vote ledger hash key.
func (s Space) Votes(reportID string) string { return s.prefix + "votes:{" + reportID + "}" }

// Comments is the per-report comment ledger hash key.
func (s Space) Comments(reportID string) string { return s.prefix + "comments:{" + reportID + "}" }

// ReportSeq is the insertion sequence counter.
func (s Space) ReportSeq() string { return s.prefix + "reports:seq" }

// ReportIndex is the FT index over report hashes.
func (s Space) ReportIndex() string { return s.prefix + "reports:idx" }

// UserName is the directory hash holding a user's display name.
func (s Space) UserName(userID string) string { return s.prefix + "user:" + userID }

// UserInfo is the directory hash holding a user's avatar.
func (s Space) UserInfo(userID string) string { return s.prefix + "userinfo:" + userID }

// Session is the key holding a session principal.
func (s Space) Session(token string) string { return s.prefix + "session:" + token }

// Report hash fields maintained only by the vote ledger.
const (
	FieldUpvotes   = "upvotes"
	FieldDownvotes = "downvotes"
	FieldNetScore  = "net_score"
	// FieldVoteRev is bumped by every ledger transition.
	FieldVoteRev = "vote_rev"
)
