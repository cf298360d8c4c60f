package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/hra-dashboard/internal/dashboard"
	"github.com/couchcryptid/hra-dashboard/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultTableLimit = 50

// Dashboard is the query surface the API serves.
type Dashboard interface {
	Summary() (dashboard.SummaryView, error)
	Periods(year int) (dashboard.PeriodsView, error)
	RiskDistribution(q dashboard.PeriodQuery) (dashboard.DistributionView, error)
	PeriodReport(q dashboard.PeriodQuery) (domain.PeriodReport, error)
	RiskMap(q dashboard.PeriodQuery, regions []string) (dashboard.MapView, error)
	StressorMeans(regions []string) (dashboard.StressorMeansView, error)
	Measures() (dashboard.MeasuresView, error)
	MonthlyMeans(measure string, regions []string) (dashboard.SeriesView, error)
	Table(role domain.Role, limit int) (dashboard.TableView, error)
	BaseMap(ctx context.Context) (domain.BaseMap, error)
}

// Server exposes health, readiness, metrics and the dashboard JSON API.
type Server struct {
	httpServer *http.Server
	dash       Dashboard
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and the
// /api routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, dash Dashboard, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		dash:   dash,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/periods", s.handlePeriods)
	mux.HandleFunc("GET /api/risk-distribution", s.handleRiskDistribution)
	mux.HandleFunc("GET /api/top-stressors", s.handleTopStressors)
	mux.HandleFunc("GET /api/risk-map", s.handleRiskMap)
	mux.HandleFunc("GET /api/stressor-means", s.handleStressorMeans)
	mux.HandleFunc("GET /api/measures", s.handleMeasures)
	mux.HandleFunc("GET /api/measures/{name}/monthly", s.handleMonthlyMeans)
	mux.HandleFunc("GET /api/tables/{role}", s.handleTable)
	mux.HandleFunc("GET /api/basemap", s.handleBaseMap)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	view, err := s.dash.Summary()
	s.respond(w, view, err)
}

func (s *Server) handlePeriods(w http.ResponseWriter, r *http.Request) {
	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1 {
			badRequest(w, fmt.Errorf("invalid year %q", raw))
			return
		}
		year = y
	}
	view, err := s.dash.Periods(year)
	s.respond(w, view, err)
}

func (s *Server) handleRiskDistribution(w http.ResponseWriter, r *http.Request) {
	q, err := periodQuery(r, true)
	if err != nil {
		badRequest(w, err)
		return
	}
	view, err := s.dash.RiskDistribution(q)
	s.respond(w, view, err)
}

func (s *Server) handleTopStressors(w http.ResponseWriter, r *http.Request) {
	q, err := periodQuery(r, false)
	if err != nil {
		badRequest(w, err)
		return
	}
	report, err := s.dash.PeriodReport(q)
	s.respond(w, report, err)
}

func (s *Server) handleRiskMap(w http.ResponseWriter, r *http.Request) {
	q, err := periodQuery(r, false)
	if err != nil {
		badRequest(w, err)
		return
	}
	view, err := s.dash.RiskMap(q, r.URL.Query()["region"])
	s.respond(w, view, err)
}

func (s *Server) handleStressorMeans(w http.ResponseWriter, r *http.Request) {
	view, err := s.dash.StressorMeans(r.URL.Query()["region"])
	s.respond(w, view, err)
}

func (s *Server) handleMeasures(w http.ResponseWriter, _ *http.Request) {
	view, err := s.dash.Measures()
	s.respond(w, view, err)
}

func (s *Server) handleMonthlyMeans(w http.ResponseWriter, r *http.Request) {
	view, err := s.dash.MonthlyMeans(r.PathValue("name"), r.URL.Query()["region"])
	s.respond(w, view, err)
}

func (s *Server) handleTable(w http.ResponseWriter, r *http.Request) {
	role, err := domain.ParseRole(r.PathValue("role"))
	if err != nil {
		badRequest(w, err)
		return
	}
	limit := defaultTableLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(w, fmt.Errorf("invalid limit %q", raw))
			return
		}
		limit = n
	}
	view, err := s.dash.Table(role, limit)
	s.respond(w, view, err)
}

func (s *Server) handleBaseMap(w http.ResponseWriter, r *http.Request) {
	bm, err := s.dash.BaseMap(r.Context())
	if err != nil {
		s.respond(w, nil, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("X-Basemap-Source", string(bm.Source))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(bm.GeoJSON); err != nil {
		s.logger.Debug("write basemap response", "error", err)
	}
}

// periodQuery reads the period parameter. An omitted period selects the
// latest month; "all" is accepted only where allowAll is set.
func periodQuery(r *http.Request, allowAll bool) (dashboard.PeriodQuery, error) {
	raw := r.URL.Query().Get("period")
	switch {
	case raw == "":
		return dashboard.PeriodQuery{}, nil
	case raw == "all" && allowAll:
		return dashboard.PeriodQuery{All: true}, nil
	}
	p, ok := domain.ParsePeriod(raw)
	if !ok {
		return dashboard.PeriodQuery{}, fmt.Errorf("invalid period %q", raw)
	}
	return dashboard.PeriodQuery{Period: p}, nil
}

func (s *Server) respond(w http.ResponseWriter, v any, err error) {
	switch {
	case err == nil:
		sharedobs.WriteJSON(w, http.StatusOK, v)
	case errors.Is(err, dashboard.ErrNotLoaded):
		sharedobs.WriteJSON(w, http.StatusServiceUnavailable, errorBody(err))
	case errors.Is(err, dashboard.ErrUnknownMeasure):
		sharedobs.WriteJSON(w, http.StatusNotFound, errorBody(err))
	default:
		s.logger.Error("dashboard query failed", "error", err)
		sharedobs.WriteJSON(w, http.StatusInternalServerError, errorBody(err))
	}
}

func badRequest(w http.ResponseWriter, err error) {
	sharedobs.WriteJSON(w, http.StatusBadRequest, errorBody(err))
}

func errorBody(err error) map[string]string {
	return map[string]string{"error": err.Error()}
}
