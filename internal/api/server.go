// Package api serves the metrics engine and the Echo consultant over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Hussain0327/echo-analytics-platform/internal/llm"
)

// Server is the HTTP front of the analytics engine.
type Server struct {
	addr          string
	router        *gin.Engine
	conversations *llm.Conversations
}

// Config describes the server's dependencies.
type Config struct {
	Addr          string
	Conversations *llm.Conversations
}

// NewServer builds the router and wires all routes.
func NewServer(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8000"
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		addr:          cfg.Addr,
		router:        router,
		conversations: cfg.Conversations,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api/v1")

	m := api.Group("/metrics")
	m.GET("/available", s.handleAvailableMetrics)
	m.POST("/calculate", s.handleCalculate)
	m.POST("/trend", s.handleTrend)
	m.POST("/growth", s.handleGrowth)

	chat := api.Group("/chat")
	chat.POST("", s.handleChat)
	chat.POST("/load-data", s.handleLoadData)
	chat.GET("/history/:session_id", s.handleHistory)
	chat.DELETE("/session/:session_id", s.handleClearSession)
	chat.GET("/sessions", s.handleListSessions)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP and blocks until the context is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
