package port

import (
	"context"
	"errors"

	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/event"
)

// ErrJobPending signals that an OCR job has not finished yet. It is a retry
// signal for the calling transport, not a failure.
var ErrJobPending = errors.New("ocr job still running")

// ErrJobFailed is returned when an OCR job terminated unsuccessfully
var ErrJobFailed = errors.New("ocr job failed")

// OCRResult is the recognized output of a completed OCR job
type OCRResult struct {
	Text  string
	Pages int
}

// OCRService starts and polls asynchronous document-recognition jobs
type OCRService interface {
	// StartJob begins recognition of the stored document and returns an opaque
	// job identifier
	StartJob(ctx context.Context, documentPath string) (string, error)

	// JobResult fetches the result of a job. Returns ErrJobPending while the
	// job is running and ErrJobFailed when it terminated unsuccessfully.
	JobResult(ctx context.Context, jobID string) (*OCRResult, error)
}

// NotificationSender delivers an approval request to a participant over their
// configured channel. Delivery mechanics are an external collaborator.
type NotificationSender interface {
	SendApprovalRequest(ctx context.Context, participant *entity.Participant, invoice *entity.Invoice, approvalURL string) error
}

// EventEmitter hands a domain event to the external rule engine. Emission is
// fire-and-forget: implementations log failures and never return them.
type EventEmitter interface {
	Emit(ctx context.Context, evt *event.Event)
}
