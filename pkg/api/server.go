// Package api provides the HTTP/WebSocket surface for codeagent: submitting
// a user request, polling or streaming its progress, answering the
// mandatory pre-commit confirmation, and cancelling an in-flight session.
// Grounded on the teacher's pkg/api (Server struct holding every service it
// fronts, setupRoutes registering a versioned group, a single health
// endpoint aggregating subsystem status), translated from echo/v5 to gin
// since that is the HTTP framework actually vendored here.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeagent-run/codeagent/internal/session"
	"github.com/codeagent-run/codeagent/internal/store"
	"github.com/codeagent-run/codeagent/pkg/config"
)

// Deps bundles everything the API surface fronts. Built once in
// cmd/codeagent/main.go and handed to NewServer.
type Deps struct {
	Manager          *session.Manager
	Store            *store.Store
	Config           *config.Config
	Logger           *slog.Logger
	GinMode          string
	AllowedWSOrigins []string
}

// Server is the HTTP API server.
type Server struct {
	router  *gin.Engine
	manager *session.Manager
	store   *store.Store
	cfg     *config.Config
	logger  *slog.Logger
	confirm *ConfirmBroker
	hub     *wsHub
}

// NewServer builds a Server and registers every route.
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if deps.GinMode != "" {
		gin.SetMode(deps.GinMode)
	}

	s := &Server{
		router:  gin.New(),
		manager: deps.Manager,
		store:   deps.Store,
		cfg:     deps.Config,
		logger:  logger,
		confirm: NewConfirmBroker(),
		hub:     newWSHub(logger, deps.AllowedWSOrigins),
	}

	s.router.Use(gin.Recovery(), requestLogger(logger), securityHeaders())
	s.router.MaxMultipartMemory = 2 << 20 // 2 MiB, matching the teacher's BodyLimit

	s.setupRoutes()
	return s
}

// Router returns the http.Handler to hand to an *http.Server.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthHandler)

	v1 := s.router.Group("/api/v1")
	v1.POST("/sessions", s.submitSessionHandler)
	v1.GET("/sessions/:id", s.getSessionHandler)
	v1.POST("/sessions/:id/cancel", s.cancelSessionHandler)
	v1.GET("/sessions/:id/confirm", s.getConfirmPreviewHandler)
	v1.POST("/sessions/:id/confirm", s.postConfirmDecisionHandler)
	v1.GET("/sessions/:id/stream", s.streamHandler)
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	dbHealth, err := dbHealthCheck(reqCtx, s.store)
	status := http.StatusOK
	overall := "healthy"
	if err != nil {
		status = http.StatusServiceUnavailable
		overall = "unhealthy"
	}

	stats := s.cfg.Stats()
	c.JSON(status, HealthResponse{
		Status:   overall,
		Version:  versionFull(),
		Database: dbHealth,
		Configuration: ConfigurationStats{
			Models:      stats.Models,
			ToolServers: stats.ToolServers,
		},
		Manager: ManagerHealth{
			ActiveSessions: s.manager.Health().ActiveSessions,
			MaxConcurrent:  s.manager.Health().MaxConcurrent,
		},
	})
}
