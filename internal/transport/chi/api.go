package chi

import (
	"net/http"
	"time"
)

// ErrorResponseCode is the machine-readable error code in ErrorResponse.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest       ErrorResponseCode = "bad_request"
	ErrorResponseCodeValidationFailed ErrorResponseCode = "validation_failed"
	ErrorResponseCodeUnauthorized     ErrorResponseCode = "unauthorized"
	ErrorResponseCodeForbidden        ErrorResponseCode = "forbidden"
	ErrorResponseCodeReportNotFound   ErrorResponseCode = "report_not_found"
	ErrorResponseCodeVoteConflict     ErrorResponseCode = "vote_conflict"
	ErrorResponseCodeInternalError    ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// GeoPointType is the only supported location type.
const GeoPointType = "Point"

// Location is a GeoJSON point. Coordinates are [lng, lat].
type Location struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// Author is the display data of a report's author.
type Author struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Report is the wire form of a report.
type Report struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	LocationName string    `json:"location_name"`
	Location     Location  `json:"location"`
	Category     string    `json:"category,omitempty"`
	Images       []string  `json:"images"`
	Videos       []string  `json:"videos"`
	ReportedBy   string    `json:"reportedBy"`
	IsAnonymous  bool      `json:"isAnonymous"`
	Status       string    `json:"status"`
	Verified     bool      `json:"verified"`
	Upvotes      int64     `json:"upvotes"`
	Downvotes    int64     `json:"downvotes"`
	NetScore     int64     `json:"netScore"`
	CrimeTime    time.Time `json:"crimeTime"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Author       *Author   `json:"author,omitempty"`
}

// FeedResponse is one page of the report feed.
type FeedResponse struct {
	Contents    []Report `json:"contents"`
	TotalItems  int      `json:"totalItems"`
	TotalPages  int      `json:"totalPages"`
	CurrentPage int      `json:"currentPage"`
}

// ReportDetailResponse is the body of GET /reports/{reportId}.
type ReportDetailResponse struct {
	Report   Report `json:"report"`
	IsAuthor bool   `json:"isAuthor"`
}

// ReportListResponse is the body of GET /me/reports.
type ReportListResponse struct {
	Reports []Report `json:"reports"`
}

// CreateReportRequest is the body of POST /reports.
type CreateReportRequest struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	LocationName string     `json:"location_name"`
	Location     *Location  `json:"location"`
	Category     string     `json:"category"`
	CrimeTime    *time.Time `json:"crimeTime"`
	IsAnonymous  bool       `json:"isAnonymous"`
	Images       []string   `json:"images"`
	Videos       []string   `json:"videos"`
}

// UpdateReportRequest is the body of PUT /reports/{reportId}. Absent fields are kept.
type UpdateReportRequest struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	LocationName *string    `json:"location_name"`
	Location     *Location  `json:"location"`
	Category     *string    `json:"category"`
	CrimeTime    *time.Time `json:"crimeTime"`
	Images       *[]string  `json:"images"`
	Videos       *[]string  `json:"videos"`
}

// VoteRequest is the body of POST /reports/{reportId}/vote.
type VoteRequest struct {
	Vote string `json:"vote"`
}

// Vote is the wire form of a ledger row.
type Vote struct {
	ReportID  string    `json:"reportId"`
	UserID    string    `json:"userId"`
	Vote      string    `json:"vote"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// VoteResponse reports a committed transition. Message is ADDED, UPDATED or REMOVED;
// for REMOVED, Vote is the row that was removed.
type VoteResponse struct {
	Message   string `json:"message"`
	Vote      *Vote  `json:"vote"`
	Upvotes   int64  `json:"upvotes"`
	Downvotes int64  `json:"downvotes"`
}

// CurrentVoteResponse is the body of GET /reports/{reportId}/vote. Vote is null when absent.
type CurrentVoteResponse struct {
	Vote *Vote `json:"vote"`
}

// CreateCommentRequest is the body of POST /reports/{reportId}/comments.
type CreateCommentRequest struct {
	Content string  `json:"content"`
	ReplyOf *string `json:"replyOf"`
}

// Comment is the wire form of a report comment. ReplyOf is null for top-level comments.
type Comment struct {
	ID        string    `json:"id"`
	ReportID  string    `json:"reportId"`
	Content   string    `json:"content"`
	ReplyOf   *string   `json:"replyOf"`
	AuthorID  string    `json:"authorId"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CommentResponse is the body of POST /reports/{reportId}/comments.
type CommentResponse struct {
	Comment Comment `json:"comment"`
}

// CommentListResponse is the body of GET /reports/{reportId}/comments.
type CommentListResponse struct {
	Comments []Comment `json:"comments"`
}

// UpdateStatusRequest is the body of PATCH /admin/reports/{reportId}/status.
type UpdateStatusRequest struct {
	Status   *string `json:"status"`
	Verified *bool   `json:"verified"`
}

// ReconcileResponse carries counters recomputed from the ledger.
type ReconcileResponse struct {
	Upvotes   int64 `json:"upvotes"`
	Downvotes int64 `json:"downvotes"`
	NetScore  int64 `json:"netScore"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ListReportsParams are the query parameters of GET /reports.
type ListReportsParams struct {
	Page     *int     `form:"page,omitempty" json:"page,omitempty"`
	Limit    *int     `form:"limit,omitempty" json:"limit,omitempty"`
	Search   *string  `form:"search,omitempty" json:"search,omitempty"`
	Location *string  `form:"location,omitempty" json:"location,omitempty"`
	Division *string  `form:"division,omitempty" json:"division,omitempty"`
	Category *string  `form:"category,omitempty" json:"category,omitempty"`
	Status   *string  `form:"status,omitempty" json:"status,omitempty"`
	Sort     *string  `form:"sort,omitempty" json:"sort,omitempty"`
	Lat      *float64 `form:"lat,omitempty" json:"lat,omitempty"`
	Lng      *float64 `form:"lng,omitempty" json:"lng,omitempty"`
	Radius   *float64 `form:"radius,omitempty" json:"radius,omitempty"`
}

// ServerInterface lists every operation of the HTTP API.
type ServerInterface interface {
	// (GET /reports)
	ListReports(w http.ResponseWriter, r *http.Request, params ListReportsParams)
	// (POST /reports)
	CreateReport(w http.ResponseWriter, r *http.Request)
	// (GET /reports/{reportId})
	GetReport(w http.ResponseWriter, r *http.Request, reportID string)
	// (PUT /reports/{reportId})
	UpdateReport(w http.ResponseWriter, r *http.Request, reportID string)
	// (DELETE /reports/{reportId})
	DeleteReport(w http.ResponseWriter, r *http.Request, reportID string)
	// (POST /reports/{reportId}/vote)
	CastVote(w http.ResponseWriter, r *http.Request, reportID string)
	// (GET /reports/{reportId}/vote)
	GetVote(w http.ResponseWriter, r *http.Request, reportID string)
	// (POST /reports/{reportId}/comments)
	CreateComment(w http.ResponseWriter, r *http.Request, reportID string)
	// (GET /reports/{reportId}/comments)
	ListComments(w http.ResponseWriter, r *http.Request, reportID string)
	// (GET /me/reports)
	ListMyReports(w http.ResponseWriter, r *http.Request)
	// (PATCH /admin/reports/{reportId}/status)
	UpdateReportStatus(w http.ResponseWriter, r *http.Request, reportID string)
	// (POST /admin/reports/{reportId}/reconcile)
	ReconcileReport(w http.ResponseWriter, r *http.Request, reportID string)
	// (GET /health)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	Metrics(w http.ResponseWriter, r *http.Request)
}
