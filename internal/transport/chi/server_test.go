package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/incidex/internal/db/memory"
	"github.com/kailas-cloud/incidex/internal/domain/auth"
	"github.com/kailas-cloud/incidex/internal/repository/identity"
	"github.com/kailas-cloud/incidex/internal/repository/keys"
	commentrepo "github.com/kailas-cloud/incidex/internal/repository/comment"
	reportrepo "github.com/kailas-cloud/incidex/internal/repository/report"
	"github.com/kailas-cloud/incidex/internal/repository/session"
	voterepo "github.com/kailas-cloud/incidex/internal/repository/vote"
	commentuc "github.com/kailas-cloud/incidex/internal/usecase/comment"
	feeduc "github.com/kailas-cloud/incidex/internal/usecase/feed"
	healthuc "github.com/kailas-cloud/incidex/internal/usecase/health"
	reportuc "github.com/kailas-cloud/incidex/internal/usecase/report"
	voteuc "github.com/kailas-cloud/incidex/internal/usecase/vote"
)

type testAPI struct {
	handler http.Handler
	server  *Server
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	s := memory.NewStore()
	ks := keys.New("test:")

	sessions := session.New(s, ks)
	principals := map[string]auth.Principal{
		"alice": {UserID: "alice", Role: auth.RoleUser, Verified: true},
		"bob":   {UserID: "bob", Role: auth.RoleUser, Verified: true},
		"carol": {UserID: "carol", Role: auth.RoleUser},
		"root":  {UserID: "root", Role: auth.RoleAdmin, Verified: true},
	}
	for token, p := range principals {
		if err := sessions.Save(ctx, token, &p, 0); err != nil {
			t.Fatalf("save session: %v", err)
		}
	}
	_ = s.HSet(ctx, ks.UserName("alice"), map[string]string{"name": "Alice"})
	_ = s.HSet(ctx, ks.UserInfo("alice"), map[string]string{"avatar": "https://cdn.example/alice.png"})

	reports := reportrepo.New(s, ks)
	votes := voterepo.New(s, ks)
	directory := identity.New(s, ks)
	srv := NewServer(
		reportuc.New(reports, votes),
		feeduc.New(reports, directory),
		voteuc.New(votes, reports),
		commentuc.New(commentrepo.New(s, ks), reports, directory),
		healthuc.New(s, reports),
		zap.NewNop(),
	)

	r := chi.NewRouter()
	r.Use(SessionAuthMiddleware(sessions))
	HandlerWithOptions(srv, ChiServerOptions{BaseRouter: r})
	return &testAPI{handler: r, server: srv}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader = http.NoBody
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rdr = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, rdr)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode %T: %v (body %q)", v, err, rr.Body.String())
	}
	return v
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, want, rr.Body.String())
	}
}

func createBody(title string, lng, lat float64) CreateReportRequest {
	return CreateReportRequest{
		Title:        title,
		Description:  "Two men on a motorbike took a phone",
		LocationName: "Gulshan 1, Dhaka",
		Location:     &Location{Type: GeoPointType, Coordinates: [2]float64{lng, lat}},
		Category:     "Robbery",
	}
}

func (a *testAPI) createReport(t *testing.T, token, title string, lng, lat float64) Report {
	t.Helper()
	rr := a.do(t, http.MethodPost, "/reports", token, createBody(title, lng, lat))
	expectStatus(t, rr, http.StatusCreated)
	return decode[Report](t, rr)
}

// --- Reports ---

func TestCreateAndGetReport(t *testing.T) {
	api := newTestAPI(t)
	created := api.createReport(t, "alice", "Phone snatching", 90.413, 23.7925)

	if created.ID == "" || created.ReportedBy != "alice" || created.Status != "not verified" {
		t.Errorf("created = %+v", created)
	}
	if created.Location.Type != GeoPointType || created.Location.Coordinates != [2]float64{90.413, 23.7925} {
		t.Errorf("location = %+v", created.Location)
	}
	if created.Images == nil || created.Videos == nil {
		t.Error("media lists should be empty arrays, not null")
	}

	rr := api.do(t, http.MethodGet, "/reports/"+created.ID, "", nil)
	expectStatus(t, rr, http.StatusOK)
	anon := decode[ReportDetailResponse](t, rr)
	if anon.IsAuthor {
		t.Error("anonymous caller must not be the author")
	}
	if anon.Report.Author == nil || anon.Report.Author.Name != "Alice" {
		t.Errorf("author = %+v", anon.Report.Author)
	}

	rr = api.do(t, http.MethodGet, "/reports/"+created.ID, "alice", nil)
	expectStatus(t, rr, http.StatusOK)
	if !decode[ReportDetailResponse](t, rr).IsAuthor {
		t.Error("author should see isAuthor=true")
	}
}

func TestCreateReport_Errors(t *testing.T) {
	noLocation := createBody("x", 0, 0)
	noLocation.Location = nil
	badType := createBody("x", 0, 0)
	badType.Location.Type = "Polygon"
	noTitle := createBody("", 90, 23)

	tests := []struct {
		name     string
		token    string
		body     any
		wantCode int
		wantErr  ErrorResponseCode
	}{
		{"anonymous", "", createBody("x", 90, 23), http.StatusUnauthorized, ErrorResponseCodeUnauthorized},
		{"unverified", "carol", createBody("x", 90, 23), http.StatusForbidden, ErrorResponseCodeForbidden},
		{"malformed json", "alice", "{", http.StatusBadRequest, ErrorResponseCodeBadRequest},
		{"missing location", "alice", noLocation, http.StatusBadRequest, ErrorResponseCodeValidationFailed},
		{"bad location type", "alice", badType, http.StatusBadRequest, ErrorResponseCodeValidationFailed},
		{"out of range", "alice", createBody("x", 200, 23), http.StatusBadRequest, ErrorResponseCodeValidationFailed},
		{"missing title", "alice", noTitle, http.StatusBadRequest, ErrorResponseCodeValidationFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			api := newTestAPI(t)
			rr := api.do(t, http.MethodPost, "/reports", tc.token, tc.body)
			expectStatus(t, rr, tc.wantCode)
			if got := decode[ErrorResponse](t, rr).Code; got != tc.wantErr {
				t.Errorf("code = %s, want %s", got, tc.wantErr)
			}
		})
	}
}

func TestGetReport_NotFound(t *testing.T) {
	api := newTestAPI(t)
	rr := api.do(t, http.MethodGet, "/reports/missing", "", nil)
	expectStatus(t, rr, http.StatusNotFound)
	if got := decode[ErrorResponse](t, rr).Code; got != ErrorResponseCodeReportNotFound {
		t.Errorf("code = %s", got)
	}
}

func TestUpdateReport(t *testing.T) {
	api := newTestAPI(t)
	rep := api.createReport(t, "alice", "Phone snatching", 90.413, 23.7925)

	title := "Phone snatching near the park"
	rr := api.do(t, http.MethodPut, "/reports/"+rep.ID, "bob", UpdateReportRequest{Title: &title})
	expectStatus(t, rr, http.StatusForbidden)

	rr = api.do(t, http.MethodPut, "/reports/"+rep.ID, "alice", UpdateReportRequest{})
	expectStatus(t, rr, http.StatusBadRequest)

	rr = api.do(t, http.MethodPut, "/reports/"+rep.ID, "alice", UpdateReportRequest{Title: &title})
	expectStatus(t, rr, http.StatusOK)
	updated := decode[Report](t, rr)
	if updated.Title != title || updated.Description != rep.Description {
		t.Errorf("updated = %+v", updated)
	}
}

func TestDeleteReport(t *testing.T) {
	api := newTestAPI(t)
	rep := api.createReport(t, "alice", "Phone snatching", 90.413, 23.7925)
	expectStatus(t, api.do(t, http.MethodPost, "/reports/"+rep.ID+"/vote", "bob", VoteRequest{Vote: "upvote"}),
		http.StatusOK)

	expectStatus(t, api.do(t, http.MethodDelete, "/reports/"+rep.ID, "", nil), http.StatusUnauthorized)
	expectStatus(t, api.do(t, http.MethodDelete, "/reports/"+rep.ID, "bob", nil), http.StatusForbidden)
	expectStatus(t, api.do(t, http.MethodDelete, "/reports/"+rep.ID, "root", nil), http.StatusNoContent)

	expectStatus(t, api.do(t, http.MethodGet, "/reports/"+rep.ID, "", nil), http.StatusNotFound)
	expectStatus(t, api.do(t, http.MethodGet, "/reports/"+rep.ID+"/vote", "bob", nil), http.StatusNotFound)
	expectStatus(t, api.do(t, http.MethodGet, "/reports/"+rep.ID+"/comments", "", nil), http.StatusNotFound)
}

func TestListMyReports(t *testing.T) {
	api := newTestAPI(t)
	api.createReport(t, "alice", "First", 90.41, 23.79)
	api.createReport(t, "alice", "Second", 90.41, 23.79)
	api.createReport(t, "bob", "Other", 90.41, 23.79)

	expectStatus(t, api.do(t, http.MethodGet, "/me/reports", "", nil), http.StatusUnauthorized)

	rr := api.do(t, http.MethodGet, "/me/reports", "alice", nil)
	expectStatus(t, rr, http.StatusOK)
	mine := decode[ReportListResponse](t, rr).Reports
	if len(mine) != 2 {
		t.Fatalf("reports = %d, want 2", len(mine))
	}
	for _, r := range mine {
		if r.ReportedBy != "alice" {
			t.Errorf("foreign report %s by %s", r.ID, r.ReportedBy)
		}
	}
}

// --- Votes ---

func TestVoteFlow(t *testing.T) {
	api := newTestAPI(t)
	rep := api.createReport(t, "alice", "Phone snatching", 90.413, 23.7925)
	path := "/reports/" + rep.ID + "/vote"

	steps := []struct {
		vote      string
		message   string
		direction string
		up, down  int64
	}{
		{"upvote", "ADDED", "upvote", 1, 0},
		{"upvote", "REMOVED", "upvote", 0, 0},
		{"downvote", "ADDED", "downvote", 0, 1},
		{"upvote", "UPDATED", "upvote", 1, 0},
	}
	for i, st := range steps {
		rr := api.do(t, http.MethodPost, path, "bob", VoteRequest{Vote: st.vote})
		expectStatus(t, rr, http.StatusOK)
		resp := decode[VoteResponse](t, rr)
		if resp.Message != st.message || resp.Upvotes != st.up || resp.Downvotes != st.down {
			t.Errorf("step %d: resp = %+v", i, resp)
		}
		if resp.Vote == nil || resp.Vote.Vote != st.direction || resp.Vote.UserID != "bob" {
			t.Errorf("step %d: vote = %+v", i, resp.Vote)
		}
	}

	rr := api.do(t, http.MethodGet, path, "bob", nil)
	expectStatus(t, rr, http.StatusOK)
	if v := decode[CurrentVoteResponse](t, rr).Vote; v == nil || v.Vote != "upvote" {
		t.Errorf("current = %+v", v)
	}

	rr = api.do(t, http.MethodGet, path, "alice", nil)
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), `"vote":null`) {
		t.Errorf("body = %s, want null vote", rr.Body.String())
	}
}

func TestVote_Errors(t *testing.T) {
	api := newTestAPI(t)
	rep := api.createReport(t, "alice", "Phone snatching", 90.413, 23.7925)

	tests := []struct {
		name     string
		path     string
		token    string
		body     any
		wantCode int
	}{
		{"anonymous", "/reports/" + rep.ID + "/vote", "", VoteRequest{Vote: "upvote"}, http.StatusUnauthorized},
		{"bad direction", "/reports/" + rep.ID + "/vote", "bob", VoteRequest{Vote: "sideways"}, http.StatusBadRequest},
		{"malformed", "/reports/" + rep.ID + "/vote", "bob", "not json", http.StatusBadRequest},
		{"missing report", "/reports/nope/vote", "bob", VoteRequest{Vote: "upvote"}, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			expectStatus(t, api.do(t, http.MethodPost, tc.path, tc.token, tc.body), tc.wantCode)
		})
	}
}

// --- Comments ---

func TestCommentThread(t *testing.T) {
	api := newTestAPI(t)
	rep := api.createReport(t, "alice", "Phone snatching", 90.413, 23.7925)
	path := "/reports/" + rep.ID + "/comments"

	rr := api.do(t, http.MethodPost, path, "alice", CreateCommentRequest{Content: "It happened at 9pm"})
	expectStatus(t, rr, http.StatusCreated)
	root := decode[CommentResponse](t, rr).Comment
	if root.ReplyOf != nil || root.AuthorID != "alice" || root.Author.Name != "Alice" || root.ReportID != rep.ID {
		t.Errorf("root = %+v", root)
	}

	// Unverified users may comment.
	rr = api.do(t, http.MethodPost, path, "carol", CreateCommentRequest{Content: "Same here", ReplyOf: &root.ID})
	expectStatus(t, rr, http.StatusCreated)
	reply := decode[CommentResponse](t, rr).Comment
	if reply.ReplyOf == nil || *reply.ReplyOf != root.ID || reply.Author.Name != "Unknown" {
		t.Errorf("reply = %+v", reply)
	}

	rr = api.do(t, http.MethodGet, path, "", nil)
	expectStatus(t, rr, http.StatusOK)
	list := decode[CommentListResponse](t, rr).Comments
	if len(list) != 2 {
		t.Fatalf("comments = %d, want 2", len(list))
	}
	if list[0].ID != root.ID || list[1].ID != reply.ID {
		t.Errorf("order = %s, %s", list[0].ID, list[1].ID)
	}
}

func TestListComments_Empty(t *testing.T) {
	api := newTestAPI(t)
	rep := api.createReport(t, "alice", "Phone snatching", 90.413, 23.7925)

	rr := api.do(t, http.MethodGet, "/reports/"+rep.ID+"/comments", "", nil)
	expectStatus(t, rr, http.StatusOK)
	if !strings.Contains(rr.Body.String(), `"comments":[]`) {
		t.Errorf("body = %s, want empty array", rr.Body.String())
	}
}

func TestComment_Errors(t *testing.T) {
	api := newTestAPI(t)
	rep := api.createReport(t, "alice", "Phone snatching", 90.413, 23.7925)
	path := "/reports/" + rep.ID + "/comments"
	unknown := "no-such-comment"

	tests := []struct {
		name     string
		path     string
		token    string
		body     any
		wantCode int
		wantErr  ErrorResponseCode
	}{
		{"anonymous", path, "", CreateCommentRequest{Content: "hi"}, http.StatusUnauthorized, ErrorResponseCodeUnauthorized},
		{"blank", path, "bob", CreateCommentRequest{Content: "  "}, http.StatusBadRequest, ErrorResponseCodeValidationFailed},
		{"malformed", path, "bob", "{", http.StatusBadRequest, ErrorResponseCodeBadRequest},
		{"unknown parent", path, "bob", CreateCommentRequest{Content: "hi", ReplyOf: &unknown}, http.StatusBadRequest, ErrorResponseCodeValidationFailed},
		{"missing report", "/reports/nope/comments", "bob", CreateCommentRequest{Content: "hi"}, http.StatusNotFound, ErrorResponseCodeReportNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := api.do(t, http.MethodPost, tc.path, tc.token, tc.body)
			expectStatus(t, rr, tc.wantCode)
			if got := decode[ErrorResponse](t, rr).Code; got != tc.wantErr {
				t.Errorf("code = %s, want %s", got, tc.wantErr)
			}
		})
	}
}

// --- Feed ---

func TestListReports_SortAndPaginate(t *testing.T) {
	api := newTestAPI(t)
	a := api.createReport(t, "alice", "A", 90.41, 23.79)
	b := api.createReport(t, "alice", "B", 90.41, 23.79)
	c := api.createReport(t, "bob", "C", 90.41, 23.79)

	for _, voter := range []string{"bob", "root"} {
		api.do(t, http.MethodPost, "/reports/"+c.ID+"/vote", voter, VoteRequest{Vote: "upvote"})
	}
	api.do(t, http.MethodPost, "/reports/"+a.ID+"/vote", "bob", VoteRequest{Vote: "downvote"})

	rr := api.do(t, http.MethodGet, "/reports?sort=upvoted&limit=2", "", nil)
	expectStatus(t, rr, http.StatusOK)
	page := decode[FeedResponse](t, rr)
	if page.TotalItems != 3 || page.TotalPages != 2 || page.CurrentPage != 1 {
		t.Fatalf("page = %+v", page)
	}
	if len(page.Contents) != 2 || page.Contents[0].ID != c.ID || page.Contents[1].ID != b.ID {
		t.Errorf("order = %v", ids(page.Contents))
	}
	if page.Contents[0].NetScore != 2 {
		t.Errorf("net score = %d", page.Contents[0].NetScore)
	}
	if page.Contents[1].Author == nil || page.Contents[1].Author.Name != "Alice" {
		t.Errorf("author = %+v", page.Contents[1].Author)
	}
	if page.Contents[0].Author == nil || page.Contents[0].Author.Name != "Unknown" {
		t.Errorf("missing directory entry should default, got %+v", page.Contents[0].Author)
	}

	rr = api.do(t, http.MethodGet, "/reports?sort=upvoted&limit=2&page=2", "", nil)
	expectStatus(t, rr, http.StatusOK)
	page = decode[FeedResponse](t, rr)
	if len(page.Contents) != 1 || page.Contents[0].ID != a.ID || page.CurrentPage != 2 {
		t.Errorf("page 2 = %+v", page)
	}
}

func TestListReports_Filters(t *testing.T) {
	api := newTestAPI(t)
	near := api.createReport(t, "alice", "Phone snatching", 90.413, 23.7925)
	far := createBody("Bike theft", -0.1276, 51.5072)
	far.LocationName = "Camden, London"
	far.Category = "Theft"
	rr := api.do(t, http.MethodPost, "/reports", "bob", far)
	expectStatus(t, rr, http.StatusCreated)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"division alias", "?division=gulshan", []string{near.ID}},
		{"location", "?location=LONDON", []string{decodeID(t, rr)}},
		{"category", "?category=Robbery", []string{near.ID}},
		{"all category", "?category=All", nil},
		{"radius", "?lat=23.79&lng=90.41&radius=5", []string{near.ID}},
		{"search", "?search=SNATCH", []string{near.ID}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := api.do(t, http.MethodGet, "/reports"+tc.query, "", nil)
			expectStatus(t, res, http.StatusOK)
			got := ids(decode[FeedResponse](t, res).Contents)
			if tc.want == nil {
				if len(got) != 2 {
					t.Errorf("got %v, want both reports", got)
				}
				return
			}
			if fmt.Sprint(got) != fmt.Sprint(tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestListReports_HugePage(t *testing.T) {
	api := newTestAPI(t)
	api.createReport(t, "alice", "Phone snatching", 90.413, 23.7925)

	rr := api.do(t, http.MethodGet, "/reports?page=461168601842738790&limit=20", "", nil)
	expectStatus(t, rr, http.StatusOK)
	resp := decode[FeedResponse](t, rr)
	if len(resp.Contents) != 0 || resp.TotalItems != 1 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestListReports_BadRequests(t *testing.T) {
	api := newTestAPI(t)
	tests := []struct {
		name  string
		query string
		code  ErrorResponseCode
	}{
		{"unparsable page", "?page=abc", ErrorResponseCodeBadRequest},
		{"unparsable lat", "?lat=north&lng=1&radius=1", ErrorResponseCodeBadRequest},
		{"unknown category", "?category=Jaywalking", ErrorResponseCodeValidationFailed},
		{"radius without center", "?radius=5", ErrorResponseCodeValidationFailed},
		{"infinite radius", "?lat=23.79&lng=90.41&radius=Inf", ErrorResponseCodeValidationFailed},
		{"NaN lat", "?lat=NaN&lng=90.41&radius=5", ErrorResponseCodeValidationFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := api.do(t, http.MethodGet, "/reports"+tc.query, "", nil)
			expectStatus(t, rr, http.StatusBadRequest)
			if got := decode[ErrorResponse](t, rr).Code; got != tc.code {
				t.Errorf("code = %s, want %s", got, tc.code)
			}
		})
	}
}

// --- Admin ---

func TestUpdateReportStatus(t *testing.T) {
	api := newTestAPI(t)
	rep := api.createReport(t, "alice", "Phone snatching", 90.413, 23.7925)
	path := "/admin/reports/" + rep.ID + "/status"
	verified := true
	status := "investigating"

	expectStatus(t, api.do(t, http.MethodPatch, path, "alice", UpdateStatusRequest{Verified: &verified}),
		http.StatusForbidden)

	bad := "closed"
	expectStatus(t, api.do(t, http.MethodPatch, path, "root", UpdateStatusRequest{Status: &bad}),
		http.StatusBadRequest)

	rr := api.do(t, http.MethodPatch, path, "root", UpdateStatusRequest{Status: &status, Verified: &verified})
	expectStatus(t, rr, http.StatusOK)
	got := decode[Report](t, rr)
	if got.Status != status || !got.Verified {
		t.Errorf("report = %+v", got)
	}
}

func TestReconcileReport(t *testing.T) {
	api := newTestAPI(t)
	rep := api.createReport(t, "alice", "Phone snatching", 90.413, 23.7925)
	api.do(t, http.MethodPost, "/reports/"+rep.ID+"/vote", "bob", VoteRequest{Vote: "upvote"})
	api.do(t, http.MethodPost, "/reports/"+rep.ID+"/vote", "alice", VoteRequest{Vote: "downvote"})
	api.do(t, http.MethodPost, "/reports/"+rep.ID+"/vote", "root", VoteRequest{Vote: "upvote"})

	path := "/admin/reports/" + rep.ID + "/reconcile"
	expectStatus(t, api.do(t, http.MethodPost, path, "bob", nil), http.StatusForbidden)

	rr := api.do(t, http.MethodPost, path, "root", nil)
	expectStatus(t, rr, http.StatusOK)
	got := decode[ReconcileResponse](t, rr)
	if got != (ReconcileResponse{Upvotes: 2, Downvotes: 1, NetScore: 1}) {
		t.Errorf("counters = %+v", got)
	}
}

// --- Health & errors ---

func TestHealthCheck(t *testing.T) {
	api := newTestAPI(t)
	rr := api.do(t, http.MethodGet, "/health", "", nil)
	expectStatus(t, rr, http.StatusOK)
	h := decode[HealthResponse](t, rr)
	if h.Status != "ok" || h.Checks["database"] != "ok" {
		t.Errorf("health = %+v", h)
	}
}

func TestHandleDomainError_HidesInternals(t *testing.T) {
	api := newTestAPI(t)
	rr := httptest.NewRecorder()
	api.server.handleDomainError(rr, fmt.Errorf("HGETALL incidex:report:{x}: connection reset"))

	expectStatus(t, rr, http.StatusInternalServerError)
	resp := decode[ErrorResponse](t, rr)
	if resp.Code != ErrorResponseCodeInternalError || resp.Message != "internal error" {
		t.Errorf("resp = %+v", resp)
	}
}

func ids(reports []Report) []string {
	out := make([]string, len(reports))
	for i, r := range reports {
		out[i] = r.ID
	}
	return out
}

func decodeID(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var r Report
	if err := json.Unmarshal(rr.Body.Bytes(), &r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return r.ID
}
