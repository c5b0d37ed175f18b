package entity

import "time"

// AuditEntry records a single state change for later review. Entries are
// append-only; the audit sink itself is an external concern.
type AuditEntry struct {
	ID         int64     `json:"id"`
	Entity     string    `json:"entity"`
	EntityID   int64     `json:"entity_id"`
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
