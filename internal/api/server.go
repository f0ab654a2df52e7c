package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"sentinel-safety-go/internal/api/handlers"
	"sentinel-safety-go/internal/config"
	"sentinel-safety-go/internal/services"
)

type Server struct {
	config *config.Config
	router *gin.Engine
	server *http.Server

	healthHandler *handlers.HealthHandler
	alertsHandler *handlers.AlertsHandler
	wsHandler     *handlers.WSHandler
	systemHandler *handlers.SystemHandler
}

func NewServer(cfg *config.Config, sc *services.ServiceContainer) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:        cfg,
		router:        gin.New(),
		healthHandler: handlers.NewHealthHandler(cfg.WorkerID, cfg.Version),
		alertsHandler: handlers.NewAlertsHandler(cfg, sc.AlertStore, sc.Relay),
		wsHandler:     handlers.NewWSHandler(sc.Registry),
		systemHandler: handlers.NewSystemHandler(cfg.WorkerID, sc.Pipeline, sc.Relay, sc.Registry),
	}

	s.setupMiddleware()
	s.setupRoutes()
	s.setupSwagger()

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.router,
	}

	return s
}

func (s *Server) Start() error {
	log.Info().Int("port", s.config.Port).Msg("🚀 Starting safety worker API")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("🛑 Stopping safety worker API")
	return s.server.Shutdown(ctx)
}
