package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/service"
)

// CreateQuarantineRequest reserves budget capacity
type CreateQuarantineRequest struct {
	BudgetLineID       int64      `json:"budget_line_id" binding:"required"`
	AmountCents        int64      `json:"amount_cents" binding:"required"`
	ProviderID         *int64     `json:"provider_id"`
	ServiceAgreementID *int64     `json:"service_agreement_id"`
	SupportItemCode    string     `json:"support_item_code"`
	Notes              string     `json:"notes"`
	ExpiresAt          *time.Time `json:"expires_at"`
}

// UpdateQuarantineRequest changes the reserved amount or notes
type UpdateQuarantineRequest struct {
	AmountCents *int64  `json:"amount_cents"`
	Notes       *string `json:"notes"`
}

// DrawDownRequest consumes part of a reservation
type DrawDownRequest struct {
	AmountCents int64 `json:"amount_cents" binding:"required"`
}

// CreateQuarantine handles POST /api/quarantines
func (h *Handlers) CreateQuarantine(c *gin.Context) {
	var req CreateQuarantineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "budget_line_id and amount_cents are required",
			Code:    "ValidationError",
		})
		return
	}

	input := service.CreateQuarantineInput{
		BudgetLineID:       req.BudgetLineID,
		AmountCents:        req.AmountCents,
		ProviderID:         req.ProviderID,
		ServiceAgreementID: req.ServiceAgreementID,
		SupportItemCode:    req.SupportItemCode,
		Notes:              req.Notes,
		ExpiresAt:          req.ExpiresAt,
	}
	q, err := h.quarantineService.CreateQuarantine(c.Request.Context(), input, staffUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    q,
	})
}

// GetQuarantine handles GET /api/quarantines/:id
func (h *Handlers) GetQuarantine(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	q, err := h.quarantineService.GetQuarantine(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    q,
	})
}

// ListBudgetLineQuarantines handles GET /api/budget-lines/:id/quarantines
func (h *Handlers) ListBudgetLineQuarantines(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	quarantines, err := h.quarantineService.ListByBudgetLine(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    quarantines,
	})
}

// UpdateQuarantine handles PATCH /api/quarantines/:id
func (h *Handlers) UpdateQuarantine(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req UpdateQuarantineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
			Code:    "ValidationError",
		})
		return
	}

	q, err := h.quarantineService.UpdateQuarantine(c.Request.Context(), id, service.UpdateQuarantineInput{
		AmountCents: req.AmountCents,
		Notes:       req.Notes,
	}, staffUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    q,
	})
}

// ReleaseQuarantine handles POST /api/quarantines/:id/release
func (h *Handlers) ReleaseQuarantine(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.quarantineService.ReleaseQuarantine(c.Request.Context(), id, staffUser(c)); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// DrawDownQuarantine handles POST /api/quarantines/:id/draw-down
func (h *Handlers) DrawDownQuarantine(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req DrawDownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "amount_cents is required",
			Code:    "ValidationError",
		})
		return
	}

	q, err := h.quarantineService.DrawDown(c.Request.Context(), id, req.AmountCents, staffUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    q,
	})
}

// AutoCreateQuarantines handles POST /api/service-agreements/:id/quarantines
func (h *Handlers) AutoCreateQuarantines(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	quarantines, err := h.quarantineService.AutoCreateFromServiceAgreement(c.Request.Context(), id, staffUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    quarantines,
	})
}
