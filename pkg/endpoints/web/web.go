// Package web provides the html pages and the json api of racepace.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mpapenbr/racepace/log"
	"github.com/mpapenbr/racepace/pkg/export"
	"github.com/mpapenbr/racepace/pkg/model"
	"github.com/mpapenbr/racepace/pkg/processing"
	"github.com/mpapenbr/racepace/pkg/processing/pace"
	"github.com/mpapenbr/racepace/pkg/source"
	"github.com/mpapenbr/racepace/pkg/source/pdftext"
)

const RequestIDHeader = "X-Request-Id"

//go:embed templates/*.html
var templateFS embed.FS

// Reporter creates the report of an event. Selected holds lap numbers
// (1-based), nil selects all laps.
type Reporter interface {
	Report(ctx context.Context, key model.EventKey, selected []int) (*model.Report, error)
}

type (
	Server struct {
		reporter Reporter
		log      *log.Logger
		validate *validator.Validate
		tmpl     *template.Template
	}
	Option func(s *Server)

	resultsPage struct {
		*model.Report
		Laps string
	}
	errorResponse struct {
		Error string `json:"error"`
	}
)

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

func NewServer(r Reporter, opts ...Option) *Server {
	ret := &Server{
		reporter: r,
		log:      log.Default().Named("web"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
		tmpl: template.Must(template.New("").
			Funcs(template.FuncMap{"formatTime": processing.FormatTime}).
			ParseFS(templateFS, "templates/*.html")),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Handler returns the router serving all endpoints.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestID)
	r.HandleFunc("/", s.handleHome).Methods(http.MethodGet)
	r.HandleFunc("/results", s.handleResults).Methods(http.MethodPost)
	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/results/{season}/{event}", s.handleAPIResults).Methods(http.MethodGet)
	api.HandleFunc("/results/{season}/{event}/xlsx", s.handleXLSX).Methods(http.MethodGet)
	return r
}

// requestID tags each request with an id (taken from the request if present)
// and puts a logger carrying that id into the request context.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		l := s.log.With(log.String("requestId", id))
		l.Debug("request", log.String("method", r.Method), log.String("path", r.URL.Path))
		next.ServeHTTP(w, r.WithContext(log.AddToContext(r.Context(), l)))
	})
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "home.html", nil)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	key, laps, err := s.parseRequest(r.PostForm.Get("year"), r.PostForm.Get("granPrix"),
		r.PostForm.Get("laps"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	report, err := s.reporter.Report(r.Context(), key, laps)
	if err != nil {
		http.Error(w, err.Error(), s.statusOf(r.Context(), err))
		return
	}
	s.render(w, r, "results.html", resultsPage{Report: report, Laps: r.PostForm.Get("laps")})
}

func (s *Server) handleAPIResults(w http.ResponseWriter, r *http.Request) {
	report, err := s.apiReport(r)
	if err != nil {
		writeJSON(w, s.statusOf(r.Context(), err), errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleXLSX(w http.ResponseWriter, r *http.Request) {
	report, err := s.apiReport(r)
	if err != nil {
		http.Error(w, err.Error(), s.statusOf(r.Context(), err))
		return
	}
	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		"attachment; filename="+export.FileName(report.Event))
	if err := export.WriteXLSX(w, report); err != nil {
		log.GetFromContext(r.Context()).Error("could not write xlsx", log.ErrorField(err))
	}
}

func (s *Server) apiReport(r *http.Request) (*model.Report, error) {
	vars := mux.Vars(r)
	key, laps, err := s.parseRequest(vars["season"], vars["event"], r.URL.Query().Get("laps"))
	if err != nil {
		return nil, err
	}
	return s.reporter.Report(r.Context(), key, laps)
}

// badRequestError marks request validation failures.
type badRequestError struct {
	err error
}

func (e badRequestError) Error() string { return e.err.Error() }
func (e badRequestError) Unwrap() error { return e.err }

// parseRequest validates season and event code. The event code is
// upper-cased.
func (s *Server) parseRequest(season, event, laps string) (model.EventKey, []int, error) {
	key := model.EventKey{
		Season:    strings.TrimSpace(season),
		EventCode: strings.ToUpper(strings.TrimSpace(event)),
	}
	if err := s.validate.Struct(key); err != nil {
		return key, nil, badRequestError{err}
	}
	selected, err := pace.ParseLapNumbers(laps)
	if err != nil {
		return key, nil, badRequestError{err}
	}
	return key, selected, nil
}

func (s *Server) statusOf(ctx context.Context, err error) int {
	var bre badRequestError
	var status int
	switch {
	case errors.As(err, &bre), errors.Is(err, pace.ErrInvalidSelection):
		status = http.StatusBadRequest
	case errors.Is(err, source.ErrTooLarge):
		status = http.StatusBadGateway
	case errors.Is(err, source.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, pdftext.ErrMalformed):
		status = http.StatusUnprocessableEntity
	default:
		status = http.StatusInternalServerError
	}
	l := log.GetFromContext(ctx)
	if status == http.StatusInternalServerError {
		l.Error("request failed", log.ErrorField(err))
	} else {
		l.Info("request rejected", log.Int("status", status), log.ErrorField(err))
	}
	return status
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.GetFromContext(r.Context()).Error("could not render template",
			log.String("template", name), log.ErrorField(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
