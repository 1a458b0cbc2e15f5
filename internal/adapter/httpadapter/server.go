package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/wind-period-service/internal/analysis"
	"github.com/couchcryptid/wind-period-service/internal/domain"
)

// maxWindowsBody caps the size of a POST /api/v1/windows payload.
const maxWindowsBody = 1 << 20

// Analyzer is the subset of analysis.Service the API depends on.
type Analyzer interface {
	sharedobs.ReadinessChecker
	AnalyzeLocation(ctx context.Context, req analysis.LocationRequest) (*analysis.LocationResult, error)
	AnalyzeNationwide(ctx context.Context, req analysis.NationwideRequest) (*domain.NationwideResult, error)
	ReanalyzeWindows(ctx context.Context, windows []domain.Window) (*domain.WindowMatrix, error)
	Sites() []domain.Site
	Lookup(name string) (domain.Site, bool)
	Thresholds() domain.Thresholds
	Location() *time.Location
}

// Server exposes the analysis API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	svc        Analyzer
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the /api/v1 routes plus /healthz,
// /readyz, and /metrics.
func NewServer(addr string, svc Analyzer, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// Nationwide runs fan out to every site upstream.
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		svc:    svc,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(svc))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/sites", s.handleSites)
	mux.HandleFunc("GET /api/v1/location", s.handleLocation)
	mux.HandleFunc("GET /api/v1/nationwide", s.handleNationwide)
	mux.HandleFunc("POST /api/v1/windows", s.handleWindows)

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

func (s *Server) handleSites(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sites": s.svc.Sites()})
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	loc := s.svc.Location()

	req := analysis.LocationRequest{}
	if name := q.Get("site"); name != "" {
		site, ok := s.svc.Lookup(name)
		if !ok {
			writeError(w, http.StatusNotFound, "unknown site: "+name)
			return
		}
		req.Site, req.Lat, req.Lon = site.Name, site.Lat, site.Lon
	} else {
		lat, err := requiredFloat(q, "lat")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		lon, err := requiredFloat(q, "lon")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Lat, req.Lon = lat, lon
	}

	var err error
	if req.Start, req.End, err = parseRange(q, loc); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Thresholds, err = parseThresholds(q, s.svc.Thresholds()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.svc.AnalyzeLocation(r.Context(), req)
	if err != nil {
		s.writeAnalysisError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleNationwide(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		req analysis.NationwideRequest
		err error
	)
	if req.Start, req.End, err = parseRange(q, s.svc.Location()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Thresholds, err = parseThresholds(q, s.svc.Thresholds()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.svc.AnalyzeNationwide(r.Context(), req)
	if err != nil {
		s.writeAnalysisError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleWindows(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWindowsBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	windows := domain.ParseWindows(string(body), s.svc.Location())
	res, err := s.svc.ReanalyzeWindows(r.Context(), windows)
	if err != nil {
		s.writeAnalysisError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// writeAnalysisError maps request validation failures to 400 and anything
// else, which can only come from the reading source, to 502.
func (s *Server) writeAnalysisError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, analysis.ErrInvalidRequest), errors.Is(err, domain.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
		s.logger.Debug("request canceled", "path", r.URL.Path)
	default:
		s.logger.Error("analysis failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have disconnected
}
