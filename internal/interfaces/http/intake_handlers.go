package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
)

// IngestEmailRequest identifies an inbound mailbox artifact
type IngestEmailRequest struct {
	Location string `json:"location" binding:"required"`
	Key      string `json:"key" binding:"required"`
}

// OCRCompleteRequest is the completion callback for a recognition job
type OCRCompleteRequest struct {
	JobID     string `json:"job_id" binding:"required"`
	InvoiceID int64  `json:"invoice_id" binding:"required"`
}

// IngestEmail handles POST /intake/email
func (h *Handlers) IngestEmail(c *gin.Context) {
	var req IngestEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "location and key are required",
			Code:    "ValidationError",
		})
		return
	}

	result, err := h.intakeService.IngestEmail(c.Request.Context(), req.Location, req.Key)
	if err != nil {
		h.logger.Error("Email ingestion failed",
			"location", req.Location, "key", req.Key, "error", err)
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// OCRComplete handles POST /intake/ocr-complete. While the recognition job is
// still running the response is 202 with code JOB_PENDING so the caller
// retries later.
func (h *Handlers) OCRComplete(c *gin.Context) {
	var req OCRCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "job_id and invoice_id are required",
			Code:    "ValidationError",
		})
		return
	}

	outcome, err := h.intakeService.CompleteExtraction(c.Request.Context(), req.JobID, req.InvoiceID)
	if err != nil {
		if errors.Is(err, port.ErrJobPending) {
			c.JSON(http.StatusAccepted, Response{
				Success: false,
				Error:   "recognition job still running",
				Code:    "JOB_PENDING",
			})
			return
		}
		h.logger.Error("Extraction completion failed",
			"job_id", req.JobID, "invoice_id", req.InvoiceID, "error", err)
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    outcome,
	})
}
