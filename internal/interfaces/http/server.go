// Package http provides the HTTP adapter for the application layer. It is a
// thin translation layer between transport requests and application services.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// IntakeSecret guards the machine-to-machine intake endpoints
	IntakeSecret string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	intakeService service.IntakeService,
	invoiceService service.InvoiceService,
	approvalService service.ApprovalService,
	quarantineService service.QuarantineService,
	claimService service.ClaimService,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config: config,
		router: gin.New(),
		handlers: NewHandlers(
			intakeService,
			invoiceService,
			approvalService,
			quarantineService,
			claimService,
			logger,
		),
		logger: logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := s.handlers

	// Health check
	s.router.GET("/health", h.HealthCheck)

	// Machine-to-machine intake, guarded by a shared secret
	intake := s.router.Group("/intake")
	intake.Use(intakeAuthMiddleware(s.config.IntakeSecret))
	{
		intake.POST("/email", h.IngestEmail)
		intake.POST("/ocr-complete", h.OCRComplete)
	}

	// Participant-facing approval endpoints; the token itself is the credential
	approval := s.router.Group("/approval")
	{
		approval.GET("/status", h.ApprovalStatus)
		approval.POST("/respond", h.ApprovalRespond)
	}

	// Staff API
	api := s.router.Group("/api")
	api.Use(staffAuthMiddleware())
	{
		api.GET("/invoices", h.ListInvoices)
		api.GET("/invoices/:id", h.GetInvoice)
		api.POST("/invoices/:id/approve", h.ApproveInvoice)
		api.POST("/invoices/:id/reject", h.RejectInvoice)
		api.POST("/invoices/:id/request-approval", h.RequestParticipantApproval)
		api.POST("/invoices/bulk", h.BulkInvoiceAction)
		api.POST("/invoices/sweep-expired-approvals", h.SweepExpiredApprovals)

		api.GET("/claims/:id", h.GetClaim)
		api.POST("/claims/generate-batch", h.GenerateClaimBatch)
		api.POST("/claim-batches", h.CreateClaimBatch)
		api.POST("/claim-batches/:id/submit", h.SubmitClaimBatch)

		api.POST("/quarantines", h.CreateQuarantine)
		api.GET("/quarantines/:id", h.GetQuarantine)
		api.PATCH("/quarantines/:id", h.UpdateQuarantine)
		api.POST("/quarantines/:id/release", h.ReleaseQuarantine)
		api.POST("/quarantines/:id/draw-down", h.DrawDownQuarantine)
		api.GET("/budget-lines/:id/quarantines", h.ListBudgetLineQuarantines)
		api.POST("/service-agreements/:id/quarantines", h.AutoCreateQuarantines)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
