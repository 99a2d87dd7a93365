package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// InvalidParamFormatError is passed to ErrorHandlerFunc when a parameter fails to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// serverInterfaceWrapper binds path and query parameters before calling the handler.
type serverInterfaceWrapper struct {
	handler          ServerInterface
	errorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *serverInterfaceWrapper) ListReports(w http.ResponseWriter, r *http.Request) {
	var params ListReportsParams
	q := r.URL.Query()

	bind := []struct {
		name string
		dest any
	}{
		{"page", &params.Page},
		{"limit", &params.Limit},
		{"search", &params.Search},
		{"location", &params.Location},
		{"division", &params.Division},
		{"category", &params.Category},
		{"status", &params.Status},
		{"sort", &params.Sort},
		{"lat", &params.Lat},
		{"lng", &params.Lng},
		{"radius", &params.Radius},
	}
	for _, b := range bind {
		if err := runtime.BindQueryParameter("form", true, false, b.name, q, b.dest); err != nil {
			siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: b.name, Err: err})
			return
		}
	}

	siw.handler.ListReports(w, r, params)
}

func (siw *serverInterfaceWrapper) CreateReport(w http.ResponseWriter, r *http.Request) {
	siw.handler.CreateReport(w, r)
}

func (siw *serverInterfaceWrapper) ListMyReports(w http.ResponseWriter, r *http.Request) {
	siw.handler.ListMyReports(w, r)
}

func (siw *serverInterfaceWrapper) HealthCheck(w http.ResponseWriter, r *http.Request) {
	siw.handler.HealthCheck(w, r)
}

func (siw *serverInterfaceWrapper) Metrics(w http.ResponseWriter, r *http.Request) {
	siw.handler.Metrics(w, r)
}

// withReportID binds the reportId path parameter and calls next with it.
func (siw *serverInterfaceWrapper) withReportID(
	next func(w http.ResponseWriter, r *http.Request, reportID string),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var reportID string
		err := runtime.BindStyledParameterWithOptions("simple", "reportId", chi.URLParam(r, "reportId"), &reportID,
			runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
		if err != nil {
			siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "reportId", Err: err})
			return
		}
		next(w, r, reportID)
	}
}

// HandlerWithOptions registers every route of si on the base router.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		}
	}
	siw := &serverInterfaceWrapper{handler: si, errorHandlerFunc: options.ErrorHandlerFunc}
	base := options.BaseURL

	r.Group(func(r chi.Router) {
		r.Get(base+"/reports", siw.ListReports)
		r.Post(base+"/reports", siw.CreateReport)
		r.Get(base+"/reports/{reportId}", siw.withReportID(si.GetReport))
		r.Put(base+"/reports/{reportId}", siw.withReportID(si.UpdateReport))
		r.Delete(base+"/reports/{reportId}", siw.withReportID(si.DeleteReport))
		r.Post(base+"/reports/{reportId}/vote", siw.withReportID(si.CastVote))
		r.Get(base+"/reports/{reportId}/vote", siw.withReportID(si.GetVote))
		r.Post(base+"/reports/{reportId}/comments", siw.withReportID(si.CreateComment))
		r.Get(base+"/reports/{reportId}/comments", siw.withReportID(si.ListComments))
		r.Get(base+"/me/reports", siw.ListMyReports)
		r.Patch(base+"/admin/reports/{reportId}/status", siw.withReportID(si.UpdateReportStatus))
		r.Post(base+"/admin/reports/{reportId}/reconcile", siw.withReportID(si.ReconcileReport))
		r.Get(base+"/health", siw.HealthCheck)
		r.Get(base+"/metrics", siw.Metrics)
	})

	return r
}
