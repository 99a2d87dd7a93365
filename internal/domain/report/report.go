package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/incidex/internal/domain/geo"
	"github.com/kailas-cloud/incidex/internal/domain/vote"
)

// Field limits.
const (
	MaxTitleLength       = 200
	MaxDescriptionLength = 10000
	MaxLocationLength    = 300
)

// Status is the investigation status of a report.
type Status string

// Report statuses.
const (
	StatusNotVerified   Status = "not verified"
	StatusVerified      Status = "verified"
	StatusInvestigating Status = "investigating"
	StatusResolved      Status = "resolved"
)

// IsValid checks if the status is one of the supported values.
func (s Status) IsValid() bool {
	switch s {
	case StatusNotVerified, StatusVerified, StatusInvestigating, StatusResolved:
		return true
	}
	return false
}

// Content holds the author-editable part of a report.
type Content struct {
	Title        string
	Description  string
	LocationName string
	Point        geo.Point
	Category     Category
	CrimeTime    time.Time
	Anonymous    bool
	Images       []string
	Videos       []string
}

// Validate checks required fields and limits.
func (c *Content) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if len(c.Title) > MaxTitleLength {
		return fmt.Errorf("title too long (max %d)", MaxTitleLength)
	}
	if strings.TrimSpace(c.Description) == "" {
		return fmt.Errorf("description is required")
	}
	if len(c.Description) > MaxDescriptionLength {
		return fmt.Errorf("description too long (max %d)", MaxDescriptionLength)
	}
	if strings.TrimSpace(c.LocationName) == "" {
		return fmt.Errorf("location_name is required")
	}
	if len(c.LocationName) > MaxLocationLength {
		return fmt.Errorf("location_name too long (max %d)", MaxLocationLength)
	}
	if !c.Point.Valid() {
		return fmt.Errorf("invalid coordinates: lat=%f lng=%f", c.Point.Lat, c.Point.Lng)
	}
	if c.Category != "" && !c.Category.IsValid() {
		return fmt.Errorf("unknown category %q", c.Category)
	}
	return nil
}

// Report is an incident report with its denormalized vote counters.
type Report struct {
	ID         string
	Content
	Status     Status
	Verified   bool
	Counters   vote.Counters
	ReportedBy string
	Seq        int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// New validates content and creates a report with zeroed counters.
func New(id, reportedBy string, c Content, now time.Time) (Report, error) {
	if id == "" {
		return Report{}, fmt.Errorf("report ID is required")
	}
	if reportedBy == "" {
		return Report{}, fmt.Errorf("reporter is required")
	}
	if err := c.Validate(); err != nil {
		return Report{}, err
	}
	if c.CrimeTime.IsZero() {
		c.CrimeTime = now
	}
	return Report{
		ID:         id,
		Content:    c,
		Status:     StatusNotVerified,
		ReportedBy: reportedBy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// NetScore returns upvotes minus downvotes.
func (r *Report) NetScore() int64 { return r.Counters.Net() }

// IsAuthor reports whether userID created the report.
func (r *Report) IsAuthor(userID string) bool {
	return userID != "" && r.ReportedBy == userID
}

// Patch is a partial content update. Nil fields are left unchanged.
type Patch struct {
	Title        *string
	Description  *string
	LocationName *string
	Point        *geo.Point
	Category     *Category
	CrimeTime    *time.Time
	Images       *[]string
	Videos       *[]string
}

// IsEmpty reports whether the patch changes nothing.
func (p *Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.LocationName == nil &&
		p.Point == nil && p.Category == nil && p.CrimeTime == nil &&
		p.Images == nil && p.Videos == nil
}

// Apply returns a copy of r with the patch applied and validated.
func (r *Report) Apply(p *Patch, now time.Time) (Report, error) {
	next := *r
	c := &next.Content
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.LocationName != nil {
		c.LocationName = *p.LocationName
	}
	if p.Point != nil {
		c.Point = *p.Point
	}
	if p.Category != nil {
		c.Category = *p.Category
	}
	if p.CrimeTime != nil {
		c.CrimeTime = *p.CrimeTime
	}
	if p.Images != nil {
		c.Images = append([]string(nil), (*p.Images)...)
	}
	if p.Videos != nil {
		c.Videos = append([]string(nil), (*p.Videos)...)
	}
	if err := c.Validate(); err != nil {
		return Report{}, err
	}
	next.UpdatedAt = now
	return next, nil
}
