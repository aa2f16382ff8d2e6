// Package server exposes scan management over HTTP: a small REST API
// plus a WebSocket stream of live scan progress.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Fussionbart/BigBrother/internal/config"
	"github.com/Fussionbart/BigBrother/web"
)

// Server is the web dashboard server.
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	config     *Config
	scanMgr    *ScanManager
	wsHub      *WebSocketHub
}

// Config holds server configuration.
type Config struct {
	Port           int
	Host           string
	AllowedOrigins []string
	Debug          bool
	ScanConfig     *config.Config
}

// DefaultConfig returns sensible defaults: localhost only.
func DefaultConfig() *Config {
	return &Config{
		Port:           8877,
		Host:           "127.0.0.1",
		AllowedOrigins: []string{"http://localhost:8877", "http://127.0.0.1:8877"},
		ScanConfig:     config.DefaultConfig(),
	}
}

// New creates a server instance.
func New(cfg *Config) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	wsHub := NewWebSocketHub()
	s := &Server{
		router:  gin.New(),
		config:  cfg,
		wsHub:   wsHub,
		scanMgr: NewScanManager(cfg.ScanConfig, wsHub),
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(gin.Logger())
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:  s.config.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		api.GET("/version", s.handleVersion)
		api.GET("/scans", s.handleListScans)
		api.POST("/scans", s.handleStartScan)
		api.GET("/scans/:id", s.handleGetScan)
		api.GET("/scans/:id/results", s.handleScanResults)
		api.DELETE("/scans/:id", s.handleCancelScan)
	}
	s.router.GET("/ws", s.wsHub.HandleWebSocket)

	if assets, err := web.FS(); err == nil {
		s.router.NoRoute(gin.WrapH(http.FileServer(assets)))
	}
}

// Start runs the server until SIGINT/SIGTERM, then shuts down
// gracefully.
func (s *Server) Start() error {
	go s.wsHub.Run()

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // WebSocket connections are long-lived
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		s.scanMgr.Close()
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(ctx)
	s.scanMgr.Close()
	return err
}
