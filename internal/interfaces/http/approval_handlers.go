package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ApprovalResponseRequest is the participant's decision on an invoice
type ApprovalResponseRequest struct {
	Token    string `json:"token" binding:"required"`
	Decision string `json:"decision" binding:"required"`
}

// ApprovalStatus handles GET /approval/status. The token arrives as a query
// parameter because the link is opened from an email or SMS.
func (h *Handlers) ApprovalStatus(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "token is required",
			Code:    "ValidationError",
		})
		return
	}

	status, err := h.approvalService.GetApprovalStatus(c.Request.Context(), rawToken)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    status,
	})
}

// ApprovalRespond handles POST /approval/respond
func (h *Handlers) ApprovalRespond(c *gin.Context) {
	var req ApprovalResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "token and decision are required",
			Code:    "ValidationError",
		})
		return
	}

	status, err := h.approvalService.ProcessResponse(c.Request.Context(), req.Token, req.Decision)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    status,
	})
}
