// Package api serves the strategy engine as a JSON API on chi.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"campaignintel/app"
	"campaignintel/domain/core"
	"campaignintel/domain/strategy"
	"campaignintel/internal"
	apperrors "campaignintel/internal/errors"
	"campaignintel/internal/profiling"
	"campaignintel/internal/usage"
	"campaignintel/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// StrategySource is the part of app.StrategyService the API needs
type StrategySource interface {
	Synthesize(ctx context.Context, id core.ConstituencyID) (*strategy.WinningStrategy, error)
	Portfolio(ctx context.Context, ids []core.ConstituencyID) (*app.Portfolio, error)
	KnownIDs(ctx context.Context) ([]core.ConstituencyID, error)
	History(ctx context.Context, id core.ConstituencyID, limit int) ([]*ports.StrategySnapshot, error)
	Coverage(ctx context.Context) (*profiling.Report, error)
}

// Narrator is the part of app.NarrativeService the API needs
type Narrator interface {
	Narrate(ctx context.Context, ws *strategy.WinningStrategy) (*app.NarrativeResult, error)
}

// UsageReporter exposes narrative token totals
type UsageReporter interface {
	Summary() usage.Summary
}

// Server is the JSON API
type Server struct {
	router     *chi.Mux
	strategies StrategySource
	narratives Narrator
	usage      UsageReporter
	logger     *internal.Logger
}

// NewServer creates the API and registers its routes
func NewServer(strategies StrategySource, narratives Narrator, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:     chi.NewRouter(),
		strategies: strategies,
		narratives: narratives,
		logger:     logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// WithUsage serves u's totals on /api/usage
func (s *Server) WithUsage(u UsageReporter) *Server {
	s.usage = u
	return s
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(s.requestLogger)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/constituencies", s.handleListConstituencies)
		r.Get("/strategies/{id}", s.handleGetStrategy)
		r.Get("/strategies/{id}/history", s.handleStrategyHistory)
		r.Get("/strategies/{id}/narrative", s.handleNarrative)
		r.Get("/portfolio", s.handlePortfolio)
		r.Post("/portfolio", s.handlePortfolio)
		r.Get("/usage", s.handleUsage)
		r.Get("/coverage", s.handleCoverage)
	})
}

// ServeHTTP makes the server usable as an http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start listens on addr until ctx is cancelled
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("[API] listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.With("request_id", middleware.GetReqID(r.Context())).
			Debug("[API] %s %s %d (%s)", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCoverage(w http.ResponseWriter, r *http.Request) {
	report, err := s.strategies.Coverage(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if s.usage == nil {
		writeJSON(w, http.StatusOK, usage.Summary{})
		return
	}
	writeJSON(w, http.StatusOK, s.usage.Summary())
}

func (s *Server) handleListConstituencies(w http.ResponseWriter, r *http.Request) {
	ids, err := s.strategies.KnownIDs(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"constituencies": ids})
}

func (s *Server) handleGetStrategy(w http.ResponseWriter, r *http.Request) {
	id, ok := s.constituencyID(w, r)
	if !ok {
		return
	}
	ws, err := s.strategies.Synthesize(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

func (s *Server) handleStrategyHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := s.constituencyID(w, r)
	if !ok {
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			s.writeError(w, apperrors.InvalidInput("limit must be between 1 and 500"))
			return
		}
		limit = n
	}
	snaps, err := s.strategies.History(r.Context(), id, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"constituency_id": id, "snapshots": snaps})
}

func (s *Server) handleNarrative(w http.ResponseWriter, r *http.Request) {
	id, ok := s.constituencyID(w, r)
	if !ok {
		return
	}
	ws, err := s.strategies.Synthesize(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.narratives.Narrate(r.Context(), ws)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type portfolioRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	var raw []string
	if r.Method == http.MethodPost {
		var req portfolioRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, apperrors.InvalidInput("request body must be {\"ids\": [...]}"))
			return
		}
		raw = req.IDs
	} else if q := r.URL.Query().Get("ids"); q != "" {
		raw = strings.Split(q, ",")
	}

	ids := make([]core.ConstituencyID, 0, len(raw))
	for _, v := range raw {
		id, err := core.ParseConstituencyID(v)
		if err != nil {
			s.writeError(w, apperrors.InvalidInput(err.Error()))
			return
		}
		ids = append(ids, id)
	}

	p, err := s.strategies.Portfolio(r.Context(), ids)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) constituencyID(w http.ResponseWriter, r *http.Request) (core.ConstituencyID, bool) {
	id, err := core.ParseConstituencyID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, apperrors.InvalidInput(err.Error()))
		return "", false
	}
	return id, true
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// writeError renders err as an explicit error payload. Not-found and
// malformed-data errors carry their own status so clients show an
// insufficient-data state.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	appErr := apperrors.FromDomain(err)
	status := apperrors.HTTPStatus(appErr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("[API] %v", err)
	}
	body := errorBody{Error: errorDetail{Code: appErr.Code, Message: appErr.Message}}
	if appErr.Cause != nil && status < http.StatusInternalServerError {
		body.Error.Detail = appErr.Cause.Error()
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
