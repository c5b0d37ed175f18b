package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GenerateClaimBatchRequest claims the named invoices and batches the results
type GenerateClaimBatchRequest struct {
	InvoiceIDs []int64 `json:"invoice_ids"`
}

// CreateClaimBatchRequest groups existing pending claims
type CreateClaimBatchRequest struct {
	ClaimIDs []int64 `json:"claim_ids"`
}

// GetClaim handles GET /api/claims/:id
func (h *Handlers) GetClaim(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	claim, err := h.claimService.GetClaim(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    claim,
	})
}

// GenerateClaimBatch handles POST /api/claims/generate-batch. Invoices are
// claimed independently; the body reports which succeeded and which failed.
func (h *Handlers) GenerateClaimBatch(c *gin.Context) {
	var req GenerateClaimBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
			Code:    "ValidationError",
		})
		return
	}

	result, err := h.claimService.GenerateClaimBatch(c.Request.Context(), req.InvoiceIDs, staffUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// CreateClaimBatch handles POST /api/claim-batches
func (h *Handlers) CreateClaimBatch(c *gin.Context) {
	var req CreateClaimBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
			Code:    "ValidationError",
		})
		return
	}

	batch, err := h.claimService.CreateBatch(c.Request.Context(), req.ClaimIDs, staffUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    batch,
	})
}

// SubmitClaimBatch handles POST /api/claim-batches/:id/submit
func (h *Handlers) SubmitClaimBatch(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	batch, err := h.claimService.SubmitBatch(c.Request.Context(), id, staffUser(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    batch,
	})
}
