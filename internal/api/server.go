package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/k-shtanenko/weather-stream/internal/config"
	"github.com/k-shtanenko/weather-stream/internal/logger"
)

// APIServer exposes the manual trigger surface of the publisher.
type APIServer struct {
	server     *http.Server
	router     *gin.Engine
	handler    *APIHandler
	middleware *Middleware
	config     *config.Config
	logger     logger.Logger
}

func NewAPIServer(publisher WeatherPublisher, middleware *Middleware, cfg *config.Config) *APIServer {
	gin.SetMode(gin.ReleaseMode)
	if cfg.App.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	handler := NewAPIHandler(publisher)

	return &APIServer{
		router:     router,
		handler:    handler,
		middleware: middleware,
		config:     cfg,
		logger:     logger.New(cfg.App.LogLevel, cfg.App.Env).WithField("component", "api_server"),
	}
}

func (s *APIServer) setupRoutes() {
	api := s.router.Group(s.config.API.BasePath)

	api.Use(s.middleware.Recovery())
	api.Use(s.middleware.RequestID())
	api.Use(s.middleware.Logging())
	api.Use(s.middleware.CORS())
	api.Use(s.middleware.RateLimit())

	api.GET("/health", s.handler.HealthCheck)

	weather := api.Group("/weather")
	{
		weather.POST("/fetch", s.handler.TriggerFetch)
		weather.POST("", s.handler.PublishReport)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": fmt.Sprintf("Route %s not found", c.Request.URL.Path),
		})
	})
}

func (s *APIServer) Start() error {
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.API.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.Infof("Starting API server on port %d", s.config.API.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	return nil
}

func (s *APIServer) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.API.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	s.logger.Info("API server stopped")
	return nil
}
