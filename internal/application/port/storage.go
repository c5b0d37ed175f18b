package port

import "context"

// DocumentStorage persists invoice documents durably
type DocumentStorage interface {
	// Save writes content under key and returns the stored path
	Save(ctx context.Context, key string, content []byte) (string, error)

	// Read returns the content stored under path
	Read(ctx context.Context, path string) ([]byte, error)
}

// MailboxStore reads inbound email artifacts identified by {location, key} and
// relocates unprocessable ones to a holding area
type MailboxStore interface {
	Fetch(ctx context.Context, location, key string) ([]byte, error)
	MoveToHolding(ctx context.Context, location, key string) error
}
