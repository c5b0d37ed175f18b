package port

import (
	"context"
	"time"

	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/workflow"
)

// Repositories return (nil, nil) for absent rows; services translate that into
// their own not-found errors.

// InvoiceRepository persists invoices and their line items
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id int64) (*entity.Invoice, error)
	GetBySourceKey(ctx context.Context, sourceKey string) (*entity.Invoice, error)
	GetByOCRJobID(ctx context.Context, jobID string) (*entity.Invoice, error)
	List(ctx context.Context, status workflow.State, limit, offset int) ([]*entity.Invoice, error)
	Update(ctx context.Context, invoice *entity.Invoice) error
	ReplaceLineItems(ctx context.Context, invoiceID int64, items []entity.InvoiceLineItem) error
	GetLineItems(ctx context.Context, invoiceID int64) ([]entity.InvoiceLineItem, error)

	// ListExpiredParticipantApprovals returns invoices stuck in
	// PENDING_PARTICIPANT_APPROVAL whose token expiry is before now
	ListExpiredParticipantApprovals(ctx context.Context, now time.Time) ([]*entity.Invoice, error)

	// ClearApprovalToken clears the stored token hash only if it still equals
	// hash (compare-and-swap). Returns false when the hash no longer matches.
	ClearApprovalToken(ctx context.Context, invoiceID int64, hash string) (bool, error)
}

// ClaimRepository persists claims and their lines
type ClaimRepository interface {
	Create(ctx context.Context, claim *entity.Claim) error
	GetByID(ctx context.Context, id int64) (*entity.Claim, error)
	GetByInvoiceID(ctx context.Context, invoiceID int64) (*entity.Claim, error)
	ListByBatchID(ctx context.Context, batchID int64) ([]*entity.Claim, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*entity.Claim, error)
	AssignBatch(ctx context.Context, claimID, batchID int64) error
	UpdateStatus(ctx context.Context, claimID int64, status string, submittedAt *time.Time) error
}

// ClaimBatchRepository persists claim batches
type ClaimBatchRepository interface {
	Create(ctx context.Context, batch *entity.ClaimBatch) error
	GetByID(ctx context.Context, id int64) (*entity.ClaimBatch, error)
	Update(ctx context.Context, batch *entity.ClaimBatch) error
}

// QuarantineRepository persists fund quarantines
type QuarantineRepository interface {
	Create(ctx context.Context, q *entity.FundQuarantine) error
	GetByID(ctx context.Context, id int64) (*entity.FundQuarantine, error)
	ListByBudgetLine(ctx context.Context, budgetLineID int64) ([]*entity.FundQuarantine, error)
	Update(ctx context.Context, q *entity.FundQuarantine) error

	// SumActiveByBudgetLine totals QuarantinedCents of ACTIVE quarantines on
	// the line, excluding excludeID (0 to exclude nothing)
	SumActiveByBudgetLine(ctx context.Context, budgetLineID, excludeID int64) (int64, error)
}

// BudgetLineRepository reads budget lines (read-only for this service)
type BudgetLineRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.BudgetLine, error)
}

// ParticipantRepository reads participants
type ParticipantRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Participant, error)
}

// ProviderRepository reads providers
type ProviderRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Provider, error)
}

// ServiceAgreementRepository reads service agreements with their rate lines
type ServiceAgreementRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.ServiceAgreement, error)
}

// OCRJobRepository persists text-recognition jobs
type OCRJobRepository interface {
	Create(ctx context.Context, job *entity.OCRJob) error
	GetByID(ctx context.Context, id string) (*entity.OCRJob, error)
	Update(ctx context.Context, job *entity.OCRJob) error
}

// AuditRepository appends audit entries
type AuditRepository interface {
	Create(ctx context.Context, e *entity.AuditEntry) error
}

// OutboxRepository stages domain events for asynchronous relay
type OutboxRepository interface {
	Enqueue(ctx context.Context, evt *entity.OutboxEvent) error
	ListUnpublished(ctx context.Context, limit int) ([]*entity.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string) error
	MarkAttempt(ctx context.Context, id string) error
}

// TransactionManager executes a function within a database transaction. The
// transaction is carried in the context; repositories join it automatically.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
