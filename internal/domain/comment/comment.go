// Package comment models discussion under a report.
package comment

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kailas-cloud/incidex/internal/domain/feed"
)

// MaxContentLength bounds a comment body in characters.
const MaxContentLength = 2000

// Comment is a single message on a report. ReplyOf is the parent comment
// on the same report, empty for top-level comments.
type Comment struct {
	ID        string    `json:"id"`
	ReportID  string    `json:"report_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	ReplyOf   string    `json:"reply_of,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New validates and creates a comment. Content is trimmed.
func New(id, reportID, author, content, replyOf string, now time.Time) (Comment, error) {
	if id == "" {
		return Comment{}, fmt.Errorf("comment ID is required")
	}
	if reportID == "" {
		return Comment{}, fmt.Errorf("report ID is required")
	}
	if author == "" {
		return Comment{}, fmt.Errorf("author is required")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return Comment{}, fmt.Errorf("content is required")
	}
	if n := utf8.RuneCountInString(content); n > MaxContentLength {
		return Comment{}, fmt.Errorf("content too long (%d chars, max %d)", n, MaxContentLength)
	}
	replyOf = strings.TrimSpace(replyOf)
	if replyOf == id {
		return Comment{}, fmt.Errorf("a comment cannot reply to itself")
	}
	return Comment{
		ID:        id,
		ReportID:  reportID,
		Author:    author,
		Content:   content,
		ReplyOf:   replyOf,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsReply reports whether c answers another comment.
func (c *Comment) IsReply() bool { return c.ReplyOf != "" }

// Less orders comments oldest first, ties broken by ID.
func Less(a, b *Comment) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// AuthorIDs returns the distinct authors of comments in first-seen order.
func AuthorIDs(comments []Comment) []string {
	seen := make(map[string]struct{}, len(comments))
	ids := make([]string, 0, len(comments))
	for i := range comments {
		id := comments[i].Author
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// Item is a comment with its author view.
type Item struct {
	Comment Comment
	Author  feed.Author
}

// Join attaches names and avatars to comments, defaulting missing authors.
func Join(comments []Comment, names, avatars map[string]string) []Item {
	items := make([]Item, len(comments))
	for i := range comments {
		a := feed.DefaultAuthor()
		if n, ok := names[comments[i].Author]; ok && n != "" {
			a.Name = n
		}
		if av, ok := avatars[comments[i].Author]; ok {
			a.Avatar = av
		}
		items[i] = Item{Comment: comments[i], Author: a}
	}
	return items
}
