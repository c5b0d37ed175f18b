package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/workflow"
)

// ListInvoicesRequest represents query parameters for listing invoices
type ListInvoicesRequest struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// RejectInvoiceRequest carries the mandatory rejection reason
type RejectInvoiceRequest struct {
	Reason string `json:"reason"`
}

// BulkInvoiceRequest applies one action to many invoices
type BulkInvoiceRequest struct {
	Action     string  `json:"action" binding:"required"`
	InvoiceIDs []int64 `json:"invoice_ids"`
	Reason     string  `json:"reason"`
}

// ListInvoices handles GET /api/invoices
func (h *Handlers) ListInvoices(c *gin.Context) {
	var req ListInvoicesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
			Code:    "ValidationError",
		})
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	status := workflow.State(req.Status)
	if req.Status != "" && !status.IsValid() {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "unknown status: " + req.Status,
			Code:    "ValidationError",
		})
		return
	}

	invoices, err := h.invoiceService.List(c.Request.Context(), status, req.Limit, req.Offset)
	if err != nil {
		h.logger.Error("Failed to list invoices", "error", err)
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    invoices,
	})
}

// GetInvoice handles GET /api/invoices/:id
func (h *Handlers) GetInvoice(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    invoice,
	})
}

// ApproveInvoice handles POST /api/invoices/:id/approve
func (h *Handlers) ApproveInvoice(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.invoiceService.Approve(c.Request.Context(), id, staffUser(c)); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// RejectInvoice handles POST /api/invoices/:id/reject
func (h *Handlers) RejectInvoice(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var req RejectInvoiceRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.invoiceService.Reject(c.Request.Context(), id, staffUser(c), req.Reason); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// RequestParticipantApproval handles POST /api/invoices/:id/request-approval
func (h *Handlers) RequestParticipantApproval(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	if err := h.approvalService.RequestApproval(c.Request.Context(), id, staffUser(c)); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// BulkInvoiceAction handles POST /api/invoices/bulk. Per-item failures are
// reported in the body; the response itself is 200 whenever the request was
// well-formed.
func (h *Handlers) BulkInvoiceAction(c *gin.Context) {
	var req BulkInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "action is required",
			Code:    "ValidationError",
		})
		return
	}

	result, err := h.invoiceService.BulkAction(c.Request.Context(), req.Action, req.InvoiceIDs, staffUser(c), req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// SweepExpiredApprovals handles POST /api/invoices/sweep-expired-approvals
func (h *Handlers) SweepExpiredApprovals(c *gin.Context) {
	count, err := h.invoiceService.SkipExpiredApprovals(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    gin.H{"skipped": count},
	})
}
