package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/incidex/internal/domain"
	"github.com/kailas-cloud/incidex/internal/domain/auth"
	domcomment "github.com/kailas-cloud/incidex/internal/domain/comment"
	domfeed "github.com/kailas-cloud/incidex/internal/domain/feed"
	"github.com/kailas-cloud/incidex/internal/domain/feed/query"
	"github.com/kailas-cloud/incidex/internal/domain/geo"
	domreport "github.com/kailas-cloud/incidex/internal/domain/report"
	domvote "github.com/kailas-cloud/incidex/internal/domain/vote"
	commentuc "github.com/kailas-cloud/incidex/internal/usecase/comment"
	feeduc "github.com/kailas-cloud/incidex/internal/usecase/feed"
	healthuc "github.com/kailas-cloud/incidex/internal/usecase/health"
	reportuc "github.com/kailas-cloud/incidex/internal/usecase/report"
	voteuc "github.com/kailas-cloud/incidex/internal/usecase/vote"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements ServerInterface.
type Server struct {
	reports       *reportuc.Service
	feed          *feeduc.Service
	votes         *voteuc.Service
	comments      *commentuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	reports *reportuc.Service,
	feed *feeduc.Service,
	votes *voteuc.Service,
	comments *commentuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		reports:  reports,
		feed:     feed,
		votes:    votes,
		comments: comments,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrUnauthorized, http.StatusUnauthorized, ErrorResponseCodeUnauthorized),
		sentinelHandler(domain.ErrForbidden, http.StatusForbidden, ErrorResponseCodeForbidden),
		sentinelHandler(domain.ErrReportNotFound, http.StatusNotFound, ErrorResponseCodeReportNotFound),
		sentinelHandler(domain.ErrVoteConflict, http.StatusConflict, ErrorResponseCodeVoteConflict),
	}
	return s
}

// ListReports handles GET /reports.
func (s *Server) ListReports(w http.ResponseWriter, r *http.Request, params ListReportsParams) {
	location := derefString(params.Location)
	if location == "" {
		location = derefString(params.Division)
	}

	page, err := s.feed.Search(r.Context(), query.Params{
		Page:     derefInt(params.Page),
		Limit:    derefInt(params.Limit),
		Search:   derefString(params.Search),
		Location: location,
		Category: derefString(params.Category),
		Status:   derefString(params.Status),
		Sort:     derefString(params.Sort),
		Lat:      params.Lat,
		Lng:      params.Lng,
		Radius:   params.Radius,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	contents := make([]Report, len(page.Items))
	for i := range page.Items {
		contents[i] = itemToAPI(&page.Items[i])
	}
	writeJSON(w, http.StatusOK, FeedResponse{
		Contents:    contents,
		TotalItems:  page.TotalItems,
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
	})
}

// CreateReport handles POST /reports.
func (s *Server) CreateReport(w http.ResponseWriter, r *http.Request) {
	var req CreateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Location == nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, "location is required")
		return
	}
	point, err := pointFromAPI(req.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	c := domreport.Content{
		Title:        req.Title,
		Description:  req.Description,
		LocationName: req.LocationName,
		Point:        point,
		Category:     domreport.Category(req.Category),
		Anonymous:    req.IsAnonymous,
		Images:       req.Images,
		Videos:       req.Videos,
	}
	if req.CrimeTime != nil {
		c.CrimeTime = *req.CrimeTime
	}

	rep, err := s.reports.Create(r.Context(), auth.FromContext(r.Context()), &c)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reportToAPI(&rep))
}

// GetReport handles GET /reports/{reportId}.
func (s *Server) GetReport(w http.ResponseWriter, r *http.Request, reportID string) {
	rep, isAuthor, err := s.reports.Get(r.Context(), auth.FromContext(r.Context()), reportID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	items, err := s.feed.Enrich(r.Context(), []domreport.Report{rep})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ReportDetailResponse{
		Report:   itemToAPI(&items[0]),
		IsAuthor: isAuthor,
	})
}

// UpdateReport handles PUT /reports/{reportId}.
func (s *Server) UpdateReport(w http.ResponseWriter, r *http.Request, reportID string) {
	var req UpdateReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	p, err := patchFromAPI(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, err.Error())
		return
	}

	rep, err := s.reports.Update(r.Context(), auth.FromContext(r.Context()), reportID, &p)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reportToAPI(&rep))
}

// DeleteReport handles DELETE /reports/{reportId}.
func (s *Server) DeleteReport(w http.ResponseWriter, r *http.Request, reportID string) {
	if err := s.reports.Delete(r.Context(), auth.FromContext(r.Context()), reportID); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMyReports handles GET /me/reports.
func (s *Server) ListMyReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.reports.ListMine(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	out := make([]Report, len(reports))
	for i := range reports {
		out[i] = reportToAPI(&reports[i])
	}
	writeJSON(w, http.StatusOK, ReportListResponse{Reports: out})
}

// CastVote handles POST /reports/{reportId}/vote.
func (s *Server) CastVote(w http.ResponseWriter, r *http.Request, reportID string) {
	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	out, err := s.votes.Cast(r.Context(), auth.FromContext(r.Context()), reportID, req.Vote)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	v := out.Vote
	if out.Transition.Kind == domvote.Removed {
		v = out.Previous
	}
	writeJSON(w, http.StatusOK, VoteResponse{
		Message:   string(out.Transition.Kind),
		Vote:      voteToAPI(v),
		Upvotes:   out.Counters.Upvotes,
		Downvotes: out.Counters.Downvotes,
	})
}

// GetVote handles GET /reports/{reportId}/vote.
func (s *Server) GetVote(w http.ResponseWriter, r *http.Request, reportID string) {
	v, err := s.votes.Current(r.Context(), auth.FromContext(r.Context()), reportID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CurrentVoteResponse{Vote: voteToAPI(v)})
}

// CreateComment handles POST /reports/{reportId}/comments.
func (s *Server) CreateComment(w http.ResponseWriter, r *http.Request, reportID string) {
	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	item, err := s.comments.Create(r.Context(), auth.FromContext(r.Context()),
		reportID, req.Content, derefString(req.ReplyOf))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CommentResponse{Comment: commentToAPI(&item)})
}

// ListComments handles GET /reports/{reportId}/comments.
func (s *Server) ListComments(w http.ResponseWriter, r *http.Request, reportID string) {
	items, err := s.comments.List(r.Context(), reportID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	out := make([]Comment, len(items))
	for i := range items {
		out[i] = commentToAPI(&items[i])
	}
	writeJSON(w, http.StatusOK, CommentListResponse{Comments: out})
}

// UpdateReportStatus handles PATCH /admin/reports/{reportId}/status.
func (s *Server) UpdateReportStatus(w http.ResponseWriter, r *http.Request, reportID string) {
	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	rep, err := s.reports.SetStatus(r.Context(), auth.FromContext(r.Context()), reportID, reportuc.StatusChange{
		Status:   req.Status,
		Verified: req.Verified,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reportToAPI(&rep))
}

// ReconcileReport handles POST /admin/reports/{reportId}/reconcile.
func (s *Server) ReconcileReport(w http.ResponseWriter, r *http.Request, reportID string) {
	c, err := s.reports.Reconcile(r.Context(), auth.FromContext(r.Context()), reportID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ReconcileResponse{
		Upvotes:   c.Upvotes,
		Downvotes: c.Downvotes,
		NetScore:  c.Net(),
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrUnauthorized,
		domain.ErrForbidden,
		domain.ErrReportNotFound,
		domain.ErrVoteConflict,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler handles ErrInvalidInput, exposing the offending field.
func validationHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrInvalidInput) {
		return false
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		msg = ve.Error()
	}
	writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}

func reportToAPI(rep *domreport.Report) Report {
	return Report{
		ID:           rep.ID,
		Title:        rep.Title,
		Description:  rep.Description,
		LocationName: rep.LocationName,
		Location:     Location{Type: GeoPointType, Coordinates: [2]float64{rep.Point.Lng, rep.Point.Lat}},
		Category:     string(rep.Category),
		Images:       nonNil(rep.Images),
		Videos:       nonNil(rep.Videos),
		ReportedBy:   rep.ReportedBy,
		IsAnonymous:  rep.Anonymous,
		Status:       string(rep.Status),
		Verified:     rep.Verified,
		Upvotes:      rep.Counters.Upvotes,
		Downvotes:    rep.Counters.Downvotes,
		NetScore:     rep.NetScore(),
		CrimeTime:    rep.CrimeTime.UTC(),
		CreatedAt:    rep.CreatedAt.UTC(),
		UpdatedAt:    rep.UpdatedAt.UTC(),
	}
}

func itemToAPI(it *domfeed.Item) Report {
	out := reportToAPI(&it.Report)
	out.Author = &Author{Name: it.Author.Name, Avatar: it.Author.Avatar}
	return out
}

func voteToAPI(v *domvote.Vote) *Vote {
	if v == nil {
		return nil
	}
	return &Vote{
		ReportID:  v.ReportID,
		UserID:    v.UserID,
		Vote:      string(v.Direction),
		CreatedAt: v.CreatedAt.UTC(),
		UpdatedAt: v.UpdatedAt.UTC(),
	}
}

func commentToAPI(it *domcomment.Item) Comment {
	c := &it.Comment
	out := Comment{
		ID:        c.ID,
		ReportID:  c.ReportID,
		Content:   c.Content,
		AuthorID:  c.Author,
		Author:    Author{Name: it.Author.Name, Avatar: it.Author.Avatar},
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.IsReply() {
		replyOf := c.ReplyOf
		out.ReplyOf = &replyOf
	}
	return out
}

func pointFromAPI(l *Location) (geo.Point, error) {
	if l.Type != "" && l.Type != GeoPointType {
		return geo.Point{}, errors.New(`location.type must be "Point"`)
	}
	p := geo.Point{Lng: l.Coordinates[0], Lat: l.Coordinates[1]}
	if !p.Valid() {
		return geo.Point{}, errors.New("location.coordinates must be [lng, lat] within range")
	}
	return p, nil
}

func patchFromAPI(req *UpdateReportRequest) (domreport.Patch, error) {
	p := domreport.Patch{
		Title:        req.Title,
		Description:  req.Description,
		LocationName: req.LocationName,
		CrimeTime:    req.CrimeTime,
		Images:       req.Images,
		Videos:       req.Videos,
	}
	if req.Location != nil {
		pt, err := pointFromAPI(req.Location)
		if err != nil {
			return domreport.Patch{}, err
		}
		p.Point = &pt
	}
	if req.Category != nil {
		c := domreport.Category(*req.Category)
		p.Category = &c
	}
	return p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
