package entity

import "time"

// OCR job statuses
const (
	OCRJobRunning   = "RUNNING"
	OCRJobSucceeded = "SUCCEEDED"
	OCRJobFailed    = "FAILED"
)

// OCRJob tracks one text-recognition run over a stored document
type OCRJob struct {
	ID           string     `json:"id"`
	DocumentPath string     `json:"document_path"`
	Status       string     `json:"status"`
	Text         string     `json:"-"`
	Pages        int        `json:"pages"`
	Error        string     `json:"error,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}
