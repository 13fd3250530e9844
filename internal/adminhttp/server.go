// Package adminhttp exposes read-only health, metrics, and library listing
// endpoints. It never touches the tool surface itself.
package adminhttp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/JaimeStill/persistent-context/internal/config"
	"github.com/gin-gonic/gin"
)

// LibraryLister is the subset of coordinator.Pool the admin surface needs.
type LibraryLister interface {
	ListLibraries() ([]string, error)
}

// Server is the read-only observability HTTP server.
type Server struct {
	server *http.Server
	config *config.AdminHTTPConfig
	engine *gin.Engine
	pool   LibraryLister
	logger *slog.Logger

	startedAt time.Time
}

// New builds a Server bound to pool for listing libraries.
func New(cfg *config.AdminHTTPConfig, pool LibraryLister, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())

	s := &Server{
		config:    cfg,
		engine:    engine,
		pool:      pool,
		logger:    logger,
		startedAt: time.Now(),
		server: &http.Server{
			Addr:         cfg.Addr,
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealthz)
	s.engine.GET("/metrics", s.handleMetrics)
	s.engine.GET("/libraries", s.handleLibraries)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "memoryd",
		"uptime":    time.Since(s.startedAt).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleMetrics(c *gin.Context) {
	libs, err := s.pool.ListLibraries()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"kind": "Internal", "message": err.Error()}})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"metrics": gin.H{
			"uptime_seconds": time.Since(s.startedAt).Seconds(),
			"library_count":  len(libs),
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleLibraries(c *gin.Context) {
	libs, err := s.pool.ListLibraries()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"kind": "Internal", "message": err.Error()}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"libraries": libs, "count": len(libs)})
}

// Start begins serving in the background. It waits 50ms and returns any
// error the listener reported in that window (such as an address already
// in use), otherwise nil; call Shutdown to stop it.
func (s *Server) Start() error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("admin http server failed: %w", err)
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

// Shutdown gracefully stops the server, bounded by the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
