package entity

import "time"

// Claim statuses
const (
	ClaimStatusPending   = "PENDING"
	ClaimStatusSubmitted = "SUBMITTED"
	ClaimStatusApproved  = "APPROVED"
	ClaimStatusPartial   = "PARTIAL"
	ClaimStatusRejected  = "REJECTED"
	ClaimStatusPaid      = "PAID"
)

// Batch statuses
const (
	BatchStatusPending   = "PENDING"
	BatchStatusSubmitted = "SUBMITTED"
)

// Claim is a funding claim generated from exactly one approved invoice.
// Participant and claimed amount are copied from the invoice at creation time
// and never follow later invoice changes.
type Claim struct {
	ID            int64  `json:"id"`
	Reference     string `json:"reference"`
	InvoiceID     int64  `json:"invoice_id"`
	ParticipantID int64  `json:"participant_id"`
	BatchID       *int64 `json:"batch_id,omitempty"`
	ClaimedCents  int64  `json:"claimed_cents"`
	Status        string `json:"status"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`

	// Outcome metadata, set when the payer decides
	ApprovedCents *int64     `json:"approved_cents,omitempty"`
	OutcomeNotes  string     `json:"outcome_notes,omitempty"`
	DecidedBy     string     `json:"decided_by,omitempty"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`

	Lines []ClaimLine `json:"lines,omitempty"`

	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// ClaimLine is one billed line on a claim. sum(line.TotalCents) must equal the
// claim's ClaimedCents.
type ClaimLine struct {
	ID              int64   `json:"id"`
	ClaimID         int64   `json:"claim_id"`
	SupportItemCode string  `json:"support_item_code"`
	Quantity        float64 `json:"quantity"`
	UnitPriceCents  int64   `json:"unit_price_cents"`
	TotalCents      int64   `json:"total_cents"`
}

// ClaimBatch groups pending claims selected together for submission.
type ClaimBatch struct {
	ID          int64      `json:"id"`
	Reference   string     `json:"reference"`
	Status      string     `json:"status"`
	ExportPath  string     `json:"export_path,omitempty"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// LineTotalCents returns the sum of the claim's line totals.
func (c *Claim) LineTotalCents() int64 {
	var total int64
	for _, l := range c.Lines {
		total += l.TotalCents
	}
	return total
}
