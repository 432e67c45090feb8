package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arshadjafri/defi-risk-platform/internal/ws"
	"github.com/arshadjafri/defi-risk-platform/pkg/metrics"
	"github.com/arshadjafri/defi-risk-platform/pkg/utils/logger"
)

// Config holds the configuration for the API server
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RateLimit    int
	RateBurst    int
	Environment  string
}

// Server represents the API server
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	handlers   *Handlers
	hub        *ws.Hub
	recorder   *metrics.Recorder
	log        *logger.Logger
}

// NewServer creates a new API server
func NewServer(config Config, handlers *Handlers, hub *ws.Hub, recorder *metrics.Recorder) *Server {
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = 10 * time.Second
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 10 * time.Second
	}

	if config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: handlers,
		hub:      hub,
		recorder: recorder,
		log:      logger.GetLogger("api.server"),
	}

	server.setupRoutes()
	return server
}

// Router exposes the configured engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start starts the API server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.log.Infof("Starting API server on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the API server gracefully
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		s.log.Info("Stopping API server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.Use(LoggingMiddleware())
	s.router.Use(RecoveryMiddleware())
	s.router.Use(MetricsMiddleware(s.recorder))
	s.router.Use(CORSMiddleware())
	if s.config.RateLimit > 0 {
		s.router.Use(RateLimitMiddleware(float64(s.config.RateLimit), s.config.RateBurst))
	}

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/ws", gin.WrapF(s.hub.HandleWebSocket))

	api := s.router.Group("/api")
	{
		api.GET("/health", s.handlers.HealthCheck)

		api.POST("/portfolio/create", s.handlers.CreatePortfolio)
		api.GET("/portfolio/:id", s.handlers.GetPortfolio)
		api.POST("/portfolio/:id/risk-analysis", s.handlers.AnalyzePortfolioRisk)

		api.POST("/sentiment/analyze", s.handlers.AnalyzeSentiment)
		api.GET("/market-data/:symbol", s.handlers.GetMarketData)
		api.GET("/yield-opportunities", s.handlers.GetYieldOpportunities)

		api.GET("/dashboard/:user_id", s.handlers.GetDashboard)
		api.GET("/alerts/:user_id", s.handlers.GetAlerts)
	}
}
