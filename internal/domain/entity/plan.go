package entity

import "time"

// Participant approval methods
const (
	ApprovalMethodEmail = "EMAIL"
	ApprovalMethodSMS   = "SMS"
	ApprovalMethodInApp = "IN_APP"
)

// Service agreement statuses
const (
	AgreementStatusDraft  = "DRAFT"
	AgreementStatusActive = "ACTIVE"
	AgreementStatusEnded  = "ENDED"
)

// Participant is the funding recipient on whose behalf invoices and claims are
// processed.
type Participant struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	NDISNumber      string    `json:"ndis_number,omitempty"`
	ApprovalEnabled bool      `json:"approval_enabled"`
	ApprovalMethod  string    `json:"approval_method,omitempty"`
	Email           string    `json:"email,omitempty"`
	Phone           string    `json:"phone,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ApprovalContact returns the contact value for the participant's configured
// approval method, or empty when none is usable.
func (p *Participant) ApprovalContact() string {
	switch p.ApprovalMethod {
	case ApprovalMethodEmail:
		return p.Email
	case ApprovalMethodSMS:
		return p.Phone
	case ApprovalMethodInApp:
		// In-app delivery addresses the participant record itself
		return p.NDISNumber
	default:
		return ""
	}
}

// Provider is a service provider submitting invoices.
type Provider struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	ABN       string    `json:"abn,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// BudgetLine is a category of a funding plan with an allocated spending cap.
// It is read-only for this service; available capacity for new quarantines is
// AllocatedCents - SpentCents - sum of ACTIVE quarantines on the line.
type BudgetLine struct {
	ID             int64  `json:"id"`
	PlanID         int64  `json:"plan_id"`
	ParticipantID  int64  `json:"participant_id"`
	Category       string `json:"category"`
	AllocatedCents int64  `json:"allocated_cents"`
	SpentCents     int64  `json:"spent_cents"`
}

// ServiceAgreement is a contract with a provider defining agreed rates per
// support item.
type ServiceAgreement struct {
	ID            int64               `json:"id"`
	ParticipantID int64               `json:"participant_id"`
	ProviderID    int64               `json:"provider_id"`
	Status        string              `json:"status"`
	RateLines     []AgreementRateLine `json:"rate_lines,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// AgreementRateLine is one agreed rate on a service agreement. BudgetLineID is
// nil when the line has no matching budget line.
type AgreementRateLine struct {
	ID              int64  `json:"id"`
	AgreementID     int64  `json:"agreement_id"`
	SupportItemCode string `json:"support_item_code"`
	BudgetLineID    *int64 `json:"budget_line_id,omitempty"`
	AgreedCents     int64  `json:"agreed_cents"`
}
