// Package server exposes the gateway's HTTP surface: health and voice
// discovery plus the /generate endpoint that returns assembled audio.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/CarbonComputed/TTSAPIGateway/internal/config"
	"github.com/CarbonComputed/TTSAPIGateway/internal/engine"
	"github.com/CarbonComputed/TTSAPIGateway/internal/pipeline"
)

// Server is the HTTP front end over the generation pipeline.
type Server struct {
	cfg      config.Config
	engine   engine.Engine
	pipeline *pipeline.Pipeline
	router   *gin.Engine
	logger   *log.Logger
}

// New builds the server and its routes.
func New(cfg config.Config, pipe *pipeline.Pipeline, eng engine.Engine, logger *log.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:      cfg,
		engine:   eng,
		pipeline: pipe,
		logger:   logger.WithPrefix("http"),
	}

	r := gin.New()
	r.Use(s.recovery())
	r.Use(s.requestID())
	r.Use(s.requestLogger())
	r.Use(s.bodyLimit())
	if cfg.RateLimit.Enabled {
		limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)
		r.Use(s.rateLimit(limiter))
	}

	r.GET("/health", s.handleHealth)
	r.GET("/voices", s.handleVoices)
	r.POST("/generate", s.handleGenerate)
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})

	s.router = r
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is canceled, then shuts down gracefully so
// in-flight generations can finish or observe cancellation.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	err := <-errCh
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
