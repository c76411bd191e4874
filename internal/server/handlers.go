package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/theirongolddev/afkmon/internal/apperr"
	"github.com/theirongolddev/afkmon/internal/extsync"
	"github.com/theirongolddev/afkmon/internal/ingest"
	"github.com/theirongolddev/afkmon/internal/logging"
	"github.com/theirongolddev/afkmon/internal/timewindow"
)

// Request headers read by the API.
const (
	HeaderOwner     = "X-Owner-ID"
	HeaderRequestID = "X-Request-ID"
)

const maxBodyBytes = 1 << 20

// Handler returns the API router with request-id, logging and metrics middleware.
func (s *Service) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestContext, s.metrics.middleware)

	r.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)

	r.HandleFunc("/api/sessions", s.handleIngest).Methods(http.MethodPost)
	r.HandleFunc("/api/sessions", s.handleList).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/projects", s.handleProjectNames).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/languages", s.handleLanguageNames).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/sync", s.handleSync).Methods(http.MethodPost)

	r.HandleFunc("/api/sessions/stats", s.handleSummary).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/stats/daily", s.handleDaily).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/stats/hourly", s.handleHourly).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/stats/languages", s.handleLanguageStats).Methods(http.MethodGet)
	r.HandleFunc("/api/sessions/stats/projects", s.handleProjectStats).Methods(http.MethodGet)

	r.HandleFunc("/api/extensions", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/extensions", s.handleExtension).Methods(http.MethodGet)

	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, apperr.NotFound("no route for "+r.URL.Path))
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorEnvelope{Error: "method not allowed"})
	})
	return r
}

// requestContext tags every request with an id and a logger carrying it.
func (s *Service) requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)

		log := s.log.WithValues("request_id", id, "owner", s.owner(r))
		log.V(1).Info("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(logging.IntoContext(r.Context(), log)))
	})
}

func (s *Service) owner(r *http.Request) string {
	if o := strings.TrimSpace(r.Header.Get(HeaderOwner)); o != "" {
		return o
	}
	return s.cfg.DefaultOwner
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is empty", err)
		}
		return apperr.Validation("malformed JSON body", err)
	}
	return nil
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeData(w, healthView{Status: "healthy", Timestamp: s.now(), Version: s.cfg.Version})
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeData(w, s.snapshotStatus())
}

func (s *Service) handleIngest(w http.ResponseWriter, r *http.Request) {
	var p ingest.Payload
	if err := decodeBody(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.ingestor.Ingest(r.Context(), s.owner(r), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, res)
}

func (s *Service) handleList(w http.ResponseWriter, r *http.Request) {
	q, err := ParseListQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := s.stats.List(r.Context(), s.owner(r), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, toPageView(page))
}

func (s *Service) handleProjectNames(w http.ResponseWriter, r *http.Request) {
	names, err := s.stats.ProjectNames(r.Context(), s.owner(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, names)
}

func (s *Service) handleLanguageNames(w http.ResponseWriter, r *http.Request) {
	names, err := s.stats.LanguageNames(r.Context(), s.owner(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, names)
}

func (s *Service) handleSummary(w http.ResponseWriter, r *http.Request) {
	q, err := ParseStatsQuery(r.URL.Query(), timewindow.None)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sum, err := s.stats.Summary(r.Context(), s.owner(r), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, toSummaryView(sum))
}

func (s *Service) handleDaily(w http.ResponseWriter, r *http.Request) {
	q, err := ParseStatsQuery(r.URL.Query(), timewindow.Last7Days)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	days, err := s.stats.Daily(r.Context(), s.owner(r), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, toDailyViews(days))
}

func (s *Service) handleHourly(w http.ResponseWriter, r *http.Request) {
	q, err := ParseStatsQuery(r.URL.Query(), timewindow.Last7Days)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	hours, err := s.stats.Hourly(r.Context(), s.owner(r), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, toHourlyViews(hours))
}

func (s *Service) handleLanguageStats(w http.ResponseWriter, r *http.Request) {
	q, err := ParseStatsQuery(r.URL.Query(), timewindow.None)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	langs, err := s.stats.Languages(r.Context(), s.owner(r), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, toLanguageViews(langs))
}

func (s *Service) handleProjectStats(w http.ResponseWriter, r *http.Request) {
	q, err := ParseStatsQuery(r.URL.Query(), timewindow.None)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	projects, err := s.stats.Projects(r.Context(), s.owner(r), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, toProjectViews(projects))
}

func (s *Service) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		s.writeError(w, r, apperr.NotFound("extension sync is not configured"))
		return
	}
	report, err := s.syncer.Sync(r.Context(), s.owner(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	view := syncView{Report: report}
	if report.Err != nil {
		view.Errors = splitErrors(report.Err)
	}
	writeData(w, view)
}

func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		s.writeError(w, r, apperr.NotFound("extension sync is not configured"))
		return
	}
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ep, err := s.syncer.Registry().Register(extsync.Endpoint{
		OwnerID:  s.owner(r),
		URL:      req.URL,
		Editor:   req.Editor,
		Platform: req.Platform,
		Token:    req.Token,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	logging.FromContext(r.Context(), s.log).Info("extension registered", "url", ep.URL, "editor", ep.Editor)
	writeData(w, ep)
}

func (s *Service) handleExtension(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		s.writeError(w, r, apperr.NotFound("extension sync is not configured"))
		return
	}
	owner := s.owner(r)
	ep, ok := s.syncer.Registry().Get(owner)
	if !ok {
		s.writeError(w, r, apperr.NotFound(fmt.Sprintf("no extension registered for owner %q", owner)))
		return
	}
	writeData(w, ep)
}

// splitErrors flattens a multierror into one message per record.
func splitErrors(err error) []string {
	type wrapped interface{ WrappedErrors() []error }
	var w wrapped
	if errors.As(err, &w) {
		errs := w.WrappedErrors()
		out := make([]string, len(errs))
		for i, e := range errs {
			out[i] = e.Error()
		}
		return out
	}
	return []string{err.Error()}
}
