// Package api is the HTTP surface of the analysis service: report
// upload and analysis, history, trends, explanations, and timelines.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lab-clarity-engine/internal/config"
	"github.com/lab-clarity-engine/internal/domain"
	"github.com/lab-clarity-engine/internal/middleware"
	"github.com/lab-clarity-engine/internal/repository"
	"github.com/lab-clarity-engine/internal/service"
	"github.com/lab-clarity-engine/internal/session"

	"github.com/sirupsen/logrus"
)

const sessionCookie = "lab_session"

// Pipeline is the analysis entry point the server depends on. Both the
// strict pipeline and its demo-fallback decorator satisfy it.
type Pipeline interface {
	Analyze(ocrText string, previousParams []domain.Parameter) service.AnalysisReport
}

// Explainer annotates parameters with educational explanations.
type Explainer interface {
	Explain(ctx context.Context, req domain.ExplainRequest) *domain.ExplainResponse
	ExplainAll(ctx context.Context, params []domain.Parameter) []domain.Parameter
}

// Server is the HTTP server with all collaborators injected.
type Server struct {
	cfg       *config.Config
	router    *gin.Engine
	server    *http.Server
	store     repository.ReportStore
	pipeline  Pipeline
	trends    *service.TrendEngine
	explainer Explainer
	ocr       OCRService
	logger    *logrus.Logger
}

// Deps bundles the server's collaborators.
type Deps struct {
	Store     repository.ReportStore
	Pipeline  Pipeline
	Trends    *service.TrendEngine
	Explainer Explainer
	OCR       OCRService
}

// NewServer creates the HTTP server and wires its routes.
func NewServer(cfg *config.Config, deps Deps, logger *logrus.Logger) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(corsMiddleware(cfg.Server.AllowedOrigins))

	s := &Server{
		cfg:       cfg,
		router:    router,
		store:     deps.Store,
		pipeline:  deps.Pipeline,
		trends:    deps.Trends,
		explainer: deps.Explainer,
		ocr:       deps.OCR,
		logger:    logger,
	}

	s.setupRoutes()
	return s
}

// Router exposes the gin engine, for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the server until the context is cancelled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	s.logger.WithField("addr", addr).Info("HTTP server listening")

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	v1.Use(s.sessionMiddleware())
	{
		v1.POST("/reports", s.handleUploadReport)
		v1.POST("/analyze", s.handleAnalyzeText)
		v1.GET("/reports", s.handleListReports)
		v1.GET("/reports/:id", s.handleGetReport)
		v1.DELETE("/reports/:id", s.handleDeleteReport)
		v1.GET("/reports/:id/timeline", s.handleReportTimeline)

		v1.GET("/trends/parameters", s.handleAvailableParameters)
		v1.GET("/trends/parameters/:name", s.handleParameterTrend)
		v1.GET("/trends/score", s.handleScoreTrend)

		v1.GET("/explain/:parameter", s.handleExplain)
	}
}

// sessionMiddleware resolves the anonymous session cookie into the
// pseudonymous patient ID every handler keys storage on. A missing
// cookie starts a fresh session.
func (s *Server) sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookie, _ := c.Cookie(sessionCookie)

		sessionID, created := session.EnsureSession(cookie)
		if created {
			secure := s.cfg != nil && s.cfg.Environment == "production"
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookie, sessionID, int((365 * 24 * time.Hour).Seconds()), "/", "", secure, true)
		}

		c.Set("session_id", sessionID)
		c.Set("patient_id", session.PatientIDFromSession(sessionID))

		c.Next()
	}
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if allowAll {
				c.Header("Access-Control-Allow-Origin", "*")
			} else if _, ok := allowed[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-Correlation-ID")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK

	if err := s.store.Health(c.Request.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
		s.logger.WithError(err).Warn("Store health check failed")
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	})
}

// respondError writes the standardized error body.
func (s *Server) respondError(c *gin.Context, status int, code, message, details string) {
	c.AbortWithStatusJSON(status, domain.NewAPIError(code, message, details, c.GetString("correlation_id")))
}
