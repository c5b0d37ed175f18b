package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/service"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/token"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	intakeService     service.IntakeService
	invoiceService    service.InvoiceService
	approvalService   service.ApprovalService
	quarantineService service.QuarantineService
	claimService      service.ClaimService
	logger            Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	intakeService service.IntakeService,
	invoiceService service.InvoiceService,
	approvalService service.ApprovalService,
	quarantineService service.QuarantineService,
	claimService service.ClaimService,
	logger Logger,
) *Handlers {
	return &Handlers{
		intakeService:     intakeService,
		invoiceService:    invoiceService,
		approvalService:   approvalService,
		quarantineService: quarantineService,
		claimService:      claimService,
		logger:            logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// respondError maps a service error to its HTTP status and writes the
// envelope
func (h *Handlers) respondError(c *gin.Context, err error) {
	code := service.ErrorCode(err)
	c.JSON(statusForCode(code, err), Response{
		Success: false,
		Error:   err.Error(),
		Code:    code,
	})
}

func statusForCode(code string, err error) int {
	switch code {
	case "NotFound":
		return http.StatusNotFound
	case "ValidationError":
		return http.StatusBadRequest
	case "InvalidStatus", "TokenAlreadyUsed", "InvoiceNotPendingApproval",
		"QuarantineNotActive", "InvoiceNotApproved", "ClaimAlreadyExists", "Conflict":
		return http.StatusConflict
	case "ApprovalNotEnabled", "InsufficientBudgetCapacity", "DrawDownExceedsQuarantine":
		return http.StatusUnprocessableEntity
	default:
		if isTokenError(err) {
			return http.StatusUnauthorized
		}
		return http.StatusInternalServerError
	}
}

func isTokenError(err error) bool {
	return errors.Is(err, token.ErrMalformed) ||
		errors.Is(err, token.ErrExpired) ||
		errors.Is(err, token.ErrInvalidSignature)
}

// pathID parses the int64 path parameter named name; a false return means the
// error response was already written
func (h *Handlers) pathID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid " + name,
			Code:    "ValidationError",
		})
		return 0, false
	}
	return id, true
}
