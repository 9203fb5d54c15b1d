package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/heartrisk/heartrisk/internal/artifact"
	"github.com/heartrisk/heartrisk/internal/config"
	"github.com/heartrisk/heartrisk/internal/handler"
	"github.com/heartrisk/heartrisk/internal/observability"
	"github.com/heartrisk/heartrisk/internal/predictor"
	"github.com/heartrisk/heartrisk/internal/web"
)

const (
	maxBodySize    = "1M"
	maxPredictBody = 1 << 20
)

// Server holds the Echo app and dependencies.
type Server struct {
	Echo   *echo.Echo
	Config *config.Config
	logger zerolog.Logger
	apm    *newrelic.Application
}

// New builds the Echo server and registers routes. bundle must be fully
// loaded; apm may be nil.
func New(cfg *config.Config, bundle *artifact.Bundle, log zerolog.Logger, apm *newrelic.Application) (*Server, error) {
	pred, err := predictor.New(bundle.Schema, bundle.Pipeline, bundle.Model)
	if err != nil {
		return nil, err
	}
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.HTTPErrorHandler = errorHandler(log)
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	e.Use(
		middleware.Recover(),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}),
		requestLogger(log),
		middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.Server.CORSAllowedOrigins}),
		observability.Middleware(apm),
		// /predict enforces its own cap so an oversized body stays a 500.
		middleware.BodyLimitWithConfig(middleware.BodyLimitConfig{
			Skipper: func(c echo.Context) bool { return c.Request().URL.Path == "/predict" },
			Limit:   maxBodySize,
		}),
	)

	predictions := &handler.PredictionHandler{Predictor: pred, Logger: log, MaxBodyBytes: maxPredictBody}
	health := &handler.HealthHandler{
		Service: cfg.Observability.ServiceName,
		Artifacts: handler.ArtifactSummary{
			Columns:     bundle.Schema.Len(),
			VectorWidth: bundle.Pipeline.Width(),
			ModelLayers: bundle.Model.LayerCount(),
		},
		StartTime: time.Now(),
	}

	e.GET("/", predictions.Index)
	e.POST("/predict", predictions.Predict)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.StaticFS("/static", web.Static())

	log.Info().Strs("columns", pred.Schema()).Msg("routes registered")

	return &Server{Echo: e, Config: cfg, logger: log, apm: apm}, nil
}

// Start starts the HTTP server. Blocks until the context is cancelled or the server fails.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("shutdown")
		}
	}()

	addr := s.Config.Server.Address()
	s.logger.Info().Str("addr", addr).Msg("listening")
	if err := s.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and flushes APM data.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Echo.Shutdown(ctx)
	observability.Shutdown(s.apm, s.Config.Server.ShutdownTimeout)
	return err
}
