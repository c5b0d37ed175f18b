package entity

import "time"

// Quarantine statuses
const (
	QuarantineStatusActive   = "ACTIVE"
	QuarantineStatusReleased = "RELEASED"
	QuarantineStatusExpired  = "EXPIRED"
)

// FundQuarantine is a soft reservation of budget capacity against one budget
// line, optionally scoped to a provider, service agreement or support item.
// UsedCents only increases via draw-down and never exceeds QuarantinedCents.
type FundQuarantine struct {
	ID                 int64  `json:"id"`
	BudgetLineID       int64  `json:"budget_line_id"`
	ProviderID         *int64 `json:"provider_id,omitempty"`
	ServiceAgreementID *int64 `json:"service_agreement_id,omitempty"`
	SupportItemCode    string `json:"support_item_code,omitempty"`
	QuarantinedCents   int64  `json:"quarantined_cents"`
	UsedCents          int64  `json:"used_cents"`
	Status             string `json:"status"`
	Notes              string `json:"notes,omitempty"`

	CreatedBy  string     `json:"created_by"`
	CreatedAt  time.Time  `json:"created_at"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// RemainingCents returns the unconsumed part of the reservation.
func (q *FundQuarantine) RemainingCents() int64 {
	return q.QuarantinedCents - q.UsedCents
}

// Utilisation returns used/quarantined in 0..1, or 0 for an empty reservation.
func (q *FundQuarantine) Utilisation() float64 {
	if q.QuarantinedCents == 0 {
		return 0
	}
	return float64(q.UsedCents) / float64(q.QuarantinedCents)
}
