// Package ui is the dashboard-facing web server. It renders the portfolio and
// per-constituency briefs as HTML and exposes compact JSON widgets.
package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"campaignintel/app"
	"campaignintel/domain/core"
	"campaignintel/domain/strategy"
	"campaignintel/internal"
	apperrors "campaignintel/internal/errors"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFiles embed.FS

// StrategySource is the part of app.StrategyService the dashboard needs
type StrategySource interface {
	Synthesize(ctx context.Context, id core.ConstituencyID) (*strategy.WinningStrategy, error)
	Portfolio(ctx context.Context, ids []core.ConstituencyID) (*app.Portfolio, error)
}

// Narrator is the part of app.NarrativeService the dashboard needs
type Narrator interface {
	Narrate(ctx context.Context, ws *strategy.WinningStrategy) (*app.NarrativeResult, error)
}

// Server represents the dashboard web server
type Server struct {
	router     *gin.Engine
	strategies StrategySource
	narratives Narrator
	logger     *internal.Logger
}

// Widget is the compact per-constituency card the dashboard polls
type Widget struct {
	ID             core.ConstituencyID        `json:"id"`
	Name           string                     `json:"name"`
	Rank           int                        `json:"rank,omitempty"`
	Status         strategy.Status            `json:"status"`
	PriorityTier   int                        `json:"priority_tier"`
	PriorityScore  int                        `json:"priority_score"`
	WinProbability float64                    `json:"win_probability"`
	SwingNeeded    float64                    `json:"swing_needed"`
	VoteBank       strategy.VoteBankBreakdown `json:"vote_bank"`
	Estimated      bool                       `json:"estimated"`
}

// NewServer creates the dashboard server
func NewServer(strategies StrategySource, narratives Narrator, logger *internal.Logger) (*Server, error) {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	funcMap := template.FuncMap{
		"pct": func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) + "%" },
		"lower": func(s strategy.Status) string { return strings.ToLower(string(s)) },
	}
	templates, err := template.New("").Funcs(funcMap).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.SetHTMLTemplate(templates)

	s := &Server{
		router:     router,
		strategies: strategies,
		narratives: narratives,
		logger:     logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("[UI] %s %s %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	})
}

// setupRoutes configures the dashboard routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/constituency/:id", s.handleBrief)

	widgets := s.router.Group("/api/widgets")
	{
		widgets.GET("/portfolio", s.handlePortfolioWidgets)
		widgets.GET("/:id", s.handleWidget)
	}
}

// Handler exposes the router for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
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

	s.logger.Info("[UI] dashboard listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleIndex(c *gin.Context) {
	p, err := s.strategies.Portfolio(c.Request.Context(), nil)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Ranked":   p.Ranked,
		"Failures": p.Failures,
	})
}

func (s *Server) handleBrief(c *gin.Context) {
	id, err := core.ParseConstituencyID(c.Param("id"))
	if err != nil {
		s.renderError(c, apperrors.InvalidInput(err.Error()))
		return
	}
	ws, err := s.strategies.Synthesize(c.Request.Context(), id)
	if err != nil {
		s.renderError(c, err)
		return
	}
	res, err := s.narratives.Narrate(c.Request.Context(), ws)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.HTML(http.StatusOK, "brief.html", gin.H{
		"Strategy":  ws,
		"Narrative": res,
		"Body":      RenderMarkdown(res.Markdown),
	})
}

func (s *Server) handlePortfolioWidgets(c *gin.Context) {
	p, err := s.strategies.Portfolio(c.Request.Context(), nil)
	if err != nil {
		s.jsonError(c, err)
		return
	}
	widgets := make([]Widget, 0, len(p.Ranked))
	for _, r := range p.Ranked {
		w := widgetFor(r.Strategy)
		w.Rank = r.Rank
		widgets = append(widgets, w)
	}
	c.JSON(http.StatusOK, gin.H{"widgets": widgets, "failures": p.Failures})
}

func (s *Server) handleWidget(c *gin.Context) {
	id, err := core.ParseConstituencyID(c.Param("id"))
	if err != nil {
		s.jsonError(c, apperrors.InvalidInput(err.Error()))
		return
	}
	ws, err := s.strategies.Synthesize(c.Request.Context(), id)
	if err != nil {
		s.jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, widgetFor(ws))
}

func widgetFor(ws *strategy.WinningStrategy) Widget {
	return Widget{
		ID:             ws.ConstituencyID,
		Name:           ws.Name,
		Status:         ws.Status,
		PriorityTier:   ws.PriorityTier,
		PriorityScore:  ws.PriorityScore,
		WinProbability: ws.WinProbability,
		SwingNeeded:    ws.SwingNeeded,
		VoteBank:       ws.VoteBank,
		Estimated:      len(ws.EstimatedFields) > 0,
	}
}

// renderError shows an explicit insufficient-data page instead of numbers
func (s *Server) renderError(c *gin.Context, err error) {
	appErr := apperrors.FromDomain(err)
	status := apperrors.HTTPStatus(appErr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("[UI] %v", err)
	}
	c.HTML(status, "error.html", gin.H{
		"Status":  status,
		"Code":    appErr.Code,
		"Message": appErr.Message,
	})
}

func (s *Server) jsonError(c *gin.Context, err error) {
	appErr := apperrors.FromDomain(err)
	status := apperrors.HTTPStatus(appErr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("[UI] %v", err)
	}
	c.JSON(status, gin.H{"error": gin.H{"code": appErr.Code, "message": appErr.Message}})
}
