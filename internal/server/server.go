// Package server provides the HTTP surface for decisiond.
//
// This package implements a graceful HTTP server with Echo router,
// the decision API under /v1, a health check endpoint, and
// context-aware shutdown.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/decisiond/internal/config"
	"github.com/fyrsmithlabs/decisiond/internal/decision"
	"github.com/fyrsmithlabs/decisiond/internal/feature"
	"github.com/fyrsmithlabs/decisiond/pkg/decisiond"
)

// Server represents the HTTP server.
type Server struct {
	config   *config.Config
	core     *decisiond.Core
	features *feature.StaticProvider
	logger   *zap.Logger
	echo     *echo.Echo
}

// HealthResponse is the JSON response for the /healthz endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// NewServer creates a new HTTP server over the given core.
//
// The server includes:
//   - Echo router with recover and request ID middleware
//   - Decision API at POST /v1/decide and POST /v1/outcome
//   - Feature ingestion at PUT /v1/features/:user_id
//   - Health check at GET /healthz
//   - Prometheus exposition at GET /metrics
//
// The features provider is optional; when nil the ingestion endpoint
// responds 404.
func NewServer(cfg *config.Config, core *decisiond.Core, features *feature.StaticProvider, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	s := &Server{
		config:   cfg,
		core:     core,
		features: features,
		logger:   logger,
		echo:     e,
	}

	s.registerRoutes()

	return s
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.POST("/v1/decide", s.handleDecide)
	s.echo.POST("/v1/outcome", s.handleOutcome)
	if s.features != nil {
		s.echo.PUT("/v1/features/:user_id", s.handleSetFeatures)
	}
}

// handleHealth handles GET /healthz requests.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: "decisiond",
	})
}

// decideRequest is the wire shape of POST /v1/decide.
type decideRequest struct {
	UserID      string              `json:"user_id"`
	Type        string              `json:"type"`
	Context     map[string]float64  `json:"context,omitempty"`
	Options     []optionPayload     `json:"options"`
	Constraints constraintsPayload  `json:"constraints,omitempty"`
	SessionID   string              `json:"session_id,omitempty"`
}

type optionPayload struct {
	ID       string             `json:"id"`
	Features map[string]float64 `json:"features,omitempty"`
	Metadata map[string]string  `json:"metadata,omitempty"`
}

type constraintsPayload struct {
	MaxResults       int      `json:"max_results,omitempty"`
	ExcludeIDs       []string `json:"exclude_ids,omitempty"`
	MinScore         float64  `json:"min_score,omitempty"`
	RequiredFeatures []string `json:"required_features,omitempty"`
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

// handleDecide handles POST /v1/decide requests.
func (s *Server) handleDecide(c echo.Context) error {
	var req decideRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.UserID == "" || req.Type == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "user_id and type are required"})
	}

	options := make([]decision.Option, 0, len(req.Options))
	for _, o := range req.Options {
		options = append(options, decision.Option{
			ID:       o.ID,
			Features: o.Features,
			Metadata: o.Metadata,
		})
	}

	result, err := s.core.Decide(c.Request().Context(), decision.Request{
		UserID:  req.UserID,
		Type:    req.Type,
		Context: req.Context,
		Options: options,
		Constraints: decision.Constraints{
			MaxResults:       req.Constraints.MaxResults,
			ExcludeIDs:       req.Constraints.ExcludeIDs,
			MinScore:         req.Constraints.MinScore,
			RequiredFeatures: req.Constraints.RequiredFeatures,
		},
		SessionID: req.SessionID,
	})
	if err != nil {
		s.logger.Error("decision failed",
			zap.String("user_id", req.UserID),
			zap.String("type", req.Type),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "decision failed"})
	}

	return c.JSON(http.StatusOK, result)
}

// outcomeRequest is the wire shape of POST /v1/outcome.
type outcomeRequest struct {
	RequestID string  `json:"request_id"`
	UserID    string  `json:"user_id"`
	OptionID  string  `json:"option_id"`
	Reward    float64 `json:"reward"`
}

// handleOutcome handles POST /v1/outcome requests.
//
// Outcome reporting is fire-and-forget: an unknown request id is
// logged and ignored, so the handler only rejects malformed bodies.
func (s *Server) handleOutcome(c echo.Context) error {
	var req outcomeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if req.RequestID == "" || req.UserID == "" || req.OptionID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "request_id, user_id and option_id are required"})
	}

	s.core.ReportOutcome(c.Request().Context(), req.RequestID, req.UserID, req.OptionID, req.Reward)

	return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted"})
}

// handleSetFeatures handles PUT /v1/features/:user_id requests.
//
// The body is a flat name-to-value map in the snapshot's natural
// units (sessions per week, hours, counts); unknown names are
// ignored.
func (s *Server) handleSetFeatures(c echo.Context) error {
	userID := c.Param("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "user_id is required"})
	}

	var values map[string]float64
	if err := c.Bind(&values); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	s.features.Set(userID, feature.FromValues(values))
	s.core.Embeddings.Invalidate(userID)

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Start starts the HTTP server and blocks until context is cancelled.
//
// When the context is cancelled, the server performs graceful shutdown
// with the configured timeout. Returns http.ErrServerClosed on
// graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Server.Port)

	errCh := make(chan error, 1)

	go func() {
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			s.config.Server.ShutdownTimeout.Duration(),
		)
		defer cancel()

		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}

		return http.ErrServerClosed
	}
}

// Echo returns the underlying Echo instance for registering additional
// routes.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
