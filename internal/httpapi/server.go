// Package httpapi provides the HTTP API for planforge.
package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/planforge/internal/generator"
	"github.com/fyrsmithlabs/planforge/internal/plan"
	"github.com/fyrsmithlabs/planforge/internal/store"
)

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// APIKey, when set, is required in the X-API-Key header for all
	// routes except /health and /metrics.
	APIKey string
}

// Server provides HTTP endpoints for planforge.
type Server struct {
	echo      *echo.Echo
	generator *generator.Service
	store     *store.Store
	logger    *zap.Logger
	config    *Config
}

// NewServer creates a new HTTP server.
func NewServer(gen *generator.Service, st *store.Store, logger *zap.Logger, cfg *Config) (*Server, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator service cannot be nil")
	}
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{Host: "127.0.0.1", Port: 8086}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(metricsMiddleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:      e,
		generator: gen,
		store:     st,
		logger:    logger,
		config:    cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1", s.apiKeyMiddleware)
	v1.POST("/briefs", s.handleCreateBrief)
	v1.GET("/briefs", s.handleListBriefs)
	v1.GET("/briefs/:id", s.handleGetBrief)
	v1.POST("/briefs/:id/plan", s.handleGeneratePlan)
	v1.GET("/briefs/:id/plan", s.handleGetPlan)
	v1.POST("/suggest", s.handleSuggest)
}

// apiKeyMiddleware rejects API requests without the configured key.
func (s *Server) apiKeyMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.config.APIKey == "" {
			return next(c)
		}
		key := c.Request().Header.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(s.config.APIKey)) != 1 {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing API key")
		}
		return next(c)
	}
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateBriefResponse is the response body for POST /api/v1/briefs.
type CreateBriefResponse struct {
	BriefID string `json:"brief_id"`
}

// handleCreateBrief stores a product brief and returns its ID.
func (s *Server) handleCreateBrief(c echo.Context) error {
	var brief plan.ProductBrief
	if err := c.Bind(&brief); err != nil {
		s.logger.Warn("invalid brief request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := brief.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if brief.BriefID == "" {
		brief.BriefID = uuid.NewString()
	}

	if err := s.store.SaveBrief(c.Request().Context(), brief); err != nil {
		s.logger.Error("save brief failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store brief")
	}

	return c.JSON(http.StatusCreated, CreateBriefResponse{BriefID: brief.BriefID})
}

// handleListBriefs returns stored briefs, newest first.
func (s *Server) handleListBriefs(c echo.Context) error {
	briefs, err := s.store.ListBriefs(c.Request().Context(), 100)
	if err != nil {
		s.logger.Error("list briefs failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list briefs")
	}
	if briefs == nil {
		briefs = []plan.ProductBrief{}
	}
	return c.JSON(http.StatusOK, briefs)
}

// handleGetBrief returns one brief by ID.
func (s *Server) handleGetBrief(c echo.Context) error {
	brief, err := s.store.GetBrief(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "brief not found")
		}
		s.logger.Error("get brief failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load brief")
	}
	return c.JSON(http.StatusOK, brief)
}

// GeneratePlanRequest is the optional body for POST
// /api/v1/briefs/:id/plan. Omitted fields use server defaults.
type GeneratePlanRequest struct {
	AutoIterate      *bool   `json:"auto_iterate,omitempty"`
	MaxIterations    int     `json:"max_iterations,omitempty"`
	QualityThreshold float64 `json:"quality_threshold,omitempty"`
}

// handleGeneratePlan runs the full generation loop for a stored brief.
// A request for a brief whose run is still in flight gets 409.
func (s *Server) handleGeneratePlan(c echo.Context) error {
	ctx := c.Request().Context()
	briefID := c.Param("id")

	brief, err := s.store.GetBrief(ctx, briefID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "brief not found")
		}
		s.logger.Error("get brief failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load brief")
	}

	opts := s.generateOptions(c)

	result, err := s.generator.Generate(ctx, *brief, opts)
	if err != nil {
		var conflict *generator.ConflictError
		if errors.As(err, &conflict) {
			return echo.NewHTTPError(http.StatusConflict, conflict.Error())
		}
		s.logger.Error("plan generation failed",
			zap.String("brief_id", briefID),
			zap.Error(err),
		)
		return echo.NewHTTPError(http.StatusBadGateway, fmt.Sprintf("plan generation failed: %v", err))
	}

	if err := s.store.SavePlan(ctx, result.Plan, result.Iterations); err != nil {
		s.logger.Error("save plan failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store plan")
	}

	return s.renderPlan(c, http.StatusCreated, result.Plan, brief.ProductName)
}

// generateOptions merges the optional request body into nil-or-opts
// for the generator. A missing or empty body means server defaults.
func (s *Server) generateOptions(c echo.Context) *generator.Options {
	var req GeneratePlanRequest
	if err := c.Bind(&req); err != nil {
		return nil
	}
	if req.AutoIterate == nil && req.MaxIterations == 0 && req.QualityThreshold == 0 {
		return nil
	}
	opts := s.generator.Defaults()
	if req.AutoIterate != nil {
		opts.AutoIterate = *req.AutoIterate
	}
	if req.MaxIterations > 0 {
		opts.MaxIterations = req.MaxIterations
	}
	if req.QualityThreshold > 0 {
		opts.QualityThreshold = req.QualityThreshold
	}
	return &opts
}

// handleGetPlan returns the latest stored plan for a brief.
func (s *Server) handleGetPlan(c echo.Context) error {
	ctx := c.Request().Context()
	briefID := c.Param("id")

	p, err := s.store.LatestPlan(ctx, briefID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no plan for brief")
		}
		s.logger.Error("get plan failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load plan")
	}

	productName := ""
	if brief, err := s.store.GetBrief(ctx, briefID); err == nil {
		productName = brief.ProductName
	}

	return s.renderPlan(c, http.StatusOK, p, productName)
}

// renderPlan writes a plan as JSON or, with ?format=markdown, as a
// rendered document.
func (s *Server) renderPlan(c echo.Context, status int, p *plan.MarketingPlan, productName string) error {
	if strings.EqualFold(c.QueryParam("format"), "markdown") {
		return c.Blob(status, "text/markdown; charset=utf-8", []byte(plan.RenderMarkdown(p, productName)))
	}
	return c.JSON(status, p)
}

// SuggestRequest is the request body for POST /api/v1/suggest.
type SuggestRequest struct {
	Field   string            `json:"field"`
	Context map[string]string `json:"context,omitempty"`
}

// SuggestResponse is the response body for POST /api/v1/suggest.
type SuggestResponse struct {
	Field      string `json:"field"`
	Suggestion string `json:"suggestion"`
}

// handleSuggest returns a model-suggested value for one brief field.
func (s *Server) handleSuggest(c echo.Context) error {
	var req SuggestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Field) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "field is required")
	}

	suggestion, err := s.generator.SuggestField(c.Request().Context(), req.Field, req.Context)
	if err != nil {
		s.logger.Error("field suggestion failed",
			zap.String("field", req.Field),
			zap.Error(err),
		)
		return echo.NewHTTPError(http.StatusBadGateway, fmt.Sprintf("suggestion failed: %v", err))
	}

	return c.JSON(http.StatusOK, SuggestResponse{Field: req.Field, Suggestion: suggestion})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
