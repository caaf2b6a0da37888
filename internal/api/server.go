// Package api exposes the analyzer over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/thyroid-lit-analyzer/internal/domain"
	"github.com/thyroid-lit-analyzer/internal/history"
	"github.com/thyroid-lit-analyzer/internal/middleware"
	"github.com/thyroid-lit-analyzer/internal/service"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// KnowledgeReloader re-reads the knowledge base from its configured location
// and installs it for subsequent analyses.
type KnowledgeReloader func() (*domain.KnowledgeBase, error)

// Dependencies are the collaborators the handlers call. History and Reload
// may be nil; their endpoints then answer 503.
type Dependencies struct {
	Analyzer *service.Analyzer
	History  history.Store
	Reload   KnowledgeReloader
	Logger   *logrus.Logger
}

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	deps          Dependencies
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, deps Dependencies) *Server {
	cfg := configManager.GetConfig()

	if gin.Mode() != gin.TestMode {
		if cfg.Logging.Level == "debug" {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(corsMiddleware())

	server := &Server{
		configManager: configManager,
		deps:          deps,
		router:        router,
	}
	server.setupRoutes()

	return server
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.deps.Logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/analyze", s.handleAnalyze)
		v1.GET("/reference-ranges", s.handleReferenceRanges)
		v1.GET("/knowledge/patterns", s.handlePatterns)
		v1.POST("/knowledge/reload", s.handleReload)
		v1.GET("/history", s.handleListHistory)
		v1.GET("/history/:id", s.handleGetHistory)
	}
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, "+middleware.CorrelationIDHeader)
		c.Header("Access-Control-Expose-Headers", middleware.CorrelationIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
