package report

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/incidex/internal/domain/geo"
	domreport "github.com/kailas-cloud/incidex/internal/domain/report"
	"github.com/kailas-cloud/incidex/internal/domain/vote"
	"github.com/kailas-cloud/incidex/internal/repository/keys"
)

// Hash field names.
const (
	fieldID            = "id"
	fieldTitle         = "title"
	fieldTitleLC       = "title_lc"
	fieldDescription   = "description"
	fieldDescriptionLC = "description_lc"
	fieldLocation      = "location_name"
	fieldLocationLC    = "location_lc"
	fieldPoint         = "point"
	fieldCategory      = "category"
	fieldStatus        = "status"
	fieldVerified      = "verified"
	fieldReportedBy    = "reported_by"
	fieldAnonymous     = "anonymous"
	fieldImages        = "images"
	fieldVideos        = "videos"
	fieldCrimeTime     = "crime_time"
	fieldCreatedAt     = "created_at"
	fieldUpdatedAt     = "updated_at"
	fieldSeq           = "seq"
)

// contentFields converts the author-editable part of a report into hash fields.
func contentFields(c *domreport.Content) (map[string]string, error) {
	images, err := json.Marshal(nonNil(c.Images))
	if err != nil {
		return nil, fmt.Errorf("marshal images: %w", err)
	}
	videos, err := json.Marshal(nonNil(c.Videos))
	if err != nil {
		return nil, fmt.Errorf("marshal videos: %w", err)
	}
	return map[string]string{
		fieldTitle:         c.Title,
		fieldTitleLC:       strings.ToLower(c.Title),
		fieldDescription:   c.Description,
		fieldDescriptionLC: strings.ToLower(c.Description),
		fieldLocation:      c.LocationName,
		fieldLocationLC:    strings.ToLower(c.LocationName),
		fieldPoint:         formatPoint(c.Point),
		fieldCategory:      string(c.Category),
		fieldAnonymous:     formatBool(c.Anonymous),
		fieldImages:        string(images),
		fieldVideos:        string(videos),
		fieldCrimeTime:     c.CrimeTime.UTC().Format(time.RFC3339Nano),
	}, nil
}

// buildHashFields converts a full report into hash fields.
func buildHashFields(r *domreport.Report) (map[string]string, error) {
	m, err := contentFields(&r.Content)
	if err != nil {
		return nil, err
	}
	m[fieldID] = r.ID
	m[fieldStatus] = string(r.Status)
	m[fieldVerified] = formatBool(r.Verified)
	m[fieldReportedBy] = r.ReportedBy
	m[fieldCreatedAt] = strconv.FormatInt(r.CreatedAt.UnixMicro(), 10)
	m[fieldUpdatedAt] = strconv.FormatInt(r.UpdatedAt.UnixMicro(), 10)
	m[fieldSeq] = strconv.FormatInt(r.Seq, 10)
	m[keys.FieldUpvotes] = strconv.FormatInt(r.Counters.Upvotes, 10)
	m[keys.FieldDownvotes] = strconv.FormatInt(r.Counters.Downvotes, 10)
	m[keys.FieldNetScore] = strconv.FormatInt(r.Counters.Net(), 10)
	return m, nil
}

// parseHashFields converts a report hash back into a domain Report.
func parseHashFields(m map[string]string) (domreport.Report, error) {
	id := m[fieldID]
	if id == "" {
		return domreport.Report{}, fmt.Errorf("report hash without id")
	}
	point, err := parsePoint(m[fieldPoint])
	if err != nil {
		return domreport.Report{}, fmt.Errorf("report %s: %w", id, err)
	}
	crimeTime, _ := time.Parse(time.RFC3339Nano, m[fieldCrimeTime])

	return domreport.Report{
		ID: id,
		Content: domreport.Content{
			Title:        m[fieldTitle],
			Description:  m[fieldDescription],
			LocationName: m[fieldLocation],
			Point:        point,
			Category:     domreport.Category(m[fieldCategory]),
			CrimeTime:    crimeTime,
			Anonymous:    m[fieldAnonymous] == "1",
			Images:       parseList(m[fieldImages]),
			Videos:       parseList(m[fieldVideos]),
		},
		Status:     domreport.Status(m[fieldStatus]),
		Verified:   m[fieldVerified] == "1",
		ReportedBy: m[fieldReportedBy],
		Counters: vote.Counters{
			Upvotes:   parseInt(m[keys.FieldUpvotes]),
			Downvotes: parseInt(m[keys.FieldDownvotes]),
		},
		Seq:       parseInt(m[fieldSeq]),
		CreatedAt: parseMicros(m[fieldCreatedAt]),
		UpdatedAt: parseMicros(m[fieldUpdatedAt]),
	}, nil
}

// formatPoint encodes a point the way GEO fields expect: "lng,lat".
func formatPoint(p geo.Point) string {
	return strconv.FormatFloat(p.Lng, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat, 'f', -1, 64)
}

func parsePoint(s string) (geo.Point, error) {
	lng, lat, ok := strings.Cut(s, ",")
	if !ok {
		return geo.Point{}, fmt.Errorf("invalid point %q", s)
	}
	x, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("invalid longitude %q: %w", lng, err)
	}
	y, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("invalid latitude %q: %w", lat, err)
	}
	return geo.Point{Lng: x, Lat: y}, nil
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func parseMicros(s string) time.Time {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMicro(n).UTC()
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil || len(out) == 0 {
		return nil
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
