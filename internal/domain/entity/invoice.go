package entity

import (
	"time"

	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/workflow"
)

// Invoice source channels
const (
	SourceManual = "MANUAL"
	SourceEmail  = "EMAIL"
)

// Participant approval outcomes recorded on the invoice
const (
	ParticipantApprovalNone     = "NONE"
	ParticipantApprovalPending  = "PENDING"
	ParticipantApprovalApproved = "APPROVED"
	ParticipantApprovalRejected = "REJECTED"
	ParticipantApprovalSkipped  = "SKIPPED"
)

// Invoice is the central aggregate: a provider billing document moving through
// intake, extraction, review, approval and claiming. Amounts are integer cents.
type Invoice struct {
	ID            int64          `json:"id"`
	ParticipantID int64          `json:"participant_id"`
	ProviderID    int64          `json:"provider_id"`
	BudgetLineID  *int64         `json:"budget_line_id,omitempty"`
	InvoiceNumber string         `json:"invoice_number"`
	InvoiceDate   *time.Time     `json:"invoice_date,omitempty"`
	SubtotalCents int64          `json:"subtotal_cents"`
	GSTCents      int64          `json:"gst_cents"`
	TotalCents    int64          `json:"total_cents"`
	Status        workflow.State `json:"status"`
	Source        string         `json:"source"`

	// Email-ingested invoices only
	SenderAddress string `json:"sender_address,omitempty"`
	SourceKey     string `json:"source_key,omitempty"`
	DocumentPath  string `json:"document_path,omitempty"`
	OCRJobID      string `json:"ocr_job_id,omitempty"`

	// Nullable until extraction runs, 0..1
	Confidence *float64 `json:"confidence,omitempty"`

	// Present only while awaiting participant approval
	ApprovalTokenHash   string     `json:"-"`
	ApprovalTokenExpiry *time.Time `json:"approval_token_expiry,omitempty"`

	ParticipantApprovalStatus string `json:"participant_approval_status"`

	ApprovedBy string     `json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`

	RejectedBy      string     `json:"rejected_by,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`

	LineItems []InvoiceLineItem `json:"line_items,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InvoiceLineItem is one extracted billing line on an invoice.
type InvoiceLineItem struct {
	ID              int64   `json:"id"`
	InvoiceID       int64   `json:"invoice_id"`
	SupportItemCode string  `json:"support_item_code,omitempty"`
	Description     string  `json:"description"`
	Quantity        float64 `json:"quantity"`
	UnitPriceCents  int64   `json:"unit_price_cents"`
	TotalCents      int64   `json:"total_cents"`
}

// HasUsableToken reports whether the invoice still carries an unexpired approval
// token hash.
func (i *Invoice) HasUsableToken(now time.Time) bool {
	return i.ApprovalTokenHash != "" && i.ApprovalTokenExpiry != nil && now.Before(*i.ApprovalTokenExpiry)
}
