package entity

import "time"

// OutboxEvent is a domain event staged for delivery to the external rule
// engine. Rows are written alongside the core write and relayed asynchronously
// with at-least-once semantics.
type OutboxEvent struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	EntityID    int64      `json:"entity_id"`
	Payload     string     `json:"payload"`
	Attempts    int        `json:"attempts"`
	CreatedAt   time.Time  `json:"created_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}
