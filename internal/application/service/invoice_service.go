package service

import (
	"context"
	"fmt"
	"time"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/event"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Bulk invoice actions
const (
	BulkActionApprove = "approve"
	BulkActionReject  = "reject"
	BulkActionClaim   = "claim"
)

// BulkFailure records a per-item failure within a bulk operation
type BulkFailure struct {
	ID    int64  `json:"id"`
	Error string `json:"error"`
}

// BulkResult reports per-item outcomes of a bulk operation. A failed item
// never aborts the remainder of the batch.
type BulkResult struct {
	Succeeded []int64       `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

// ClaimCreator is the narrow dependency the bulk "claim" action needs
type ClaimCreator interface {
	CreateClaimFromInvoice(ctx context.Context, invoiceID int64, actor string) (*entity.Claim, error)
}

// InvoiceService owns the invoice lifecycle state machine
type InvoiceService interface {
	Get(ctx context.Context, id int64) (*entity.Invoice, error)
	List(ctx context.Context, status workflow.State, limit, offset int) ([]*entity.Invoice, error)
	Approve(ctx context.Context, invoiceID int64, actor string) error
	Reject(ctx context.Context, invoiceID int64, actor, reason string) error

	// SkipExpiredApprovals sweeps invoices whose participant-approval token has
	// expired back to PENDING_REVIEW. Safe to run repeatedly and concurrently.
	SkipExpiredApprovals(ctx context.Context) (int, error)

	BulkAction(ctx context.Context, action string, invoiceIDs []int64, actor, reason string) (*BulkResult, error)
}

type invoiceService struct {
	invoiceRepo port.InvoiceRepository
	auditRepo   port.AuditRepository
	txManager   port.TransactionManager
	emitter     port.EventEmitter
	claims      ClaimCreator
	logger      Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo port.InvoiceRepository,
	auditRepo port.AuditRepository,
	txManager port.TransactionManager,
	emitter port.EventEmitter,
	claims ClaimCreator,
	logger Logger,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		emitter:     emitter,
		claims:      claims,
		logger:      logger,
	}
}

func (s *invoiceService) Get(ctx context.Context, id int64) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, fmt.Errorf("invoice %d: %w", id, ErrNotFound)
	}

	items, err := s.invoiceRepo.GetLineItems(ctx, id)
	if err != nil {
		return nil, err
	}
	invoice.LineItems = items

	return invoice, nil
}

func (s *invoiceService) List(ctx context.Context, status workflow.State, limit, offset int) ([]*entity.Invoice, error) {
	return s.invoiceRepo.List(ctx, status, limit, offset)
}

func (s *invoiceService) Approve(ctx context.Context, invoiceID int64, actor string) error {
	invoice, err := s.loadForTransition(ctx, invoiceID)
	if err != nil {
		return err
	}

	now := time.Now()
	err = s.applyTransition(ctx, invoice, workflow.TriggerApprove, actor, "approved by staff", func(inv *entity.Invoice) {
		inv.ApprovedBy = actor
		inv.ApprovedAt = &now
	})
	if err != nil {
		return err
	}

	s.emitter.Emit(ctx, event.New(event.TypeInvoiceApproved, invoiceID, map[string]interface{}{
		"actor":       actor,
		"total_cents": invoice.TotalCents,
	}))
	s.logger.Info("Invoice approved", "invoice_id", invoiceID, "actor", actor)
	return nil
}

func (s *invoiceService) Reject(ctx context.Context, invoiceID int64, actor, reason string) error {
	if reason == "" {
		return ErrReasonRequired
	}

	invoice, err := s.loadForTransition(ctx, invoiceID)
	if err != nil {
		return err
	}

	now := time.Now()
	err = s.applyTransition(ctx, invoice, workflow.TriggerReject, actor, reason, func(inv *entity.Invoice) {
		inv.RejectedBy = actor
		inv.RejectedAt = &now
		inv.RejectionReason = reason
	})
	if err != nil {
		return err
	}

	s.emitter.Emit(ctx, event.New(event.TypeInvoiceRejected, invoiceID, map[string]interface{}{
		"actor":  actor,
		"reason": reason,
	}))
	s.logger.Info("Invoice rejected", "invoice_id", invoiceID, "actor", actor)
	return nil
}

func (s *invoiceService) SkipExpiredApprovals(ctx context.Context) (int, error) {
	now := time.Now()
	expired, err := s.invoiceRepo.ListExpiredParticipantApprovals(ctx, now)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, invoice := range expired {
		inv := invoice
		err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			// Re-read inside the transaction; a concurrent sweep or response
			// may already have moved the invoice on
			current, err := s.invoiceRepo.GetByID(txCtx, inv.ID)
			if err != nil {
				return err
			}
			if current == nil || current.Status != workflow.StatePendingParticipantApproval {
				return ErrInvalidStatus
			}
			if current.HasUsableToken(now) {
				return ErrInvalidStatus
			}

			machine := workflow.NewInvoiceMachine(current.Status)
			if err := machine.Fire(workflow.TriggerSkipParticipantApproval); err != nil {
				return ErrInvalidStatus
			}

			from := current.Status
			current.Status = machine.State()
			current.ParticipantApprovalStatus = entity.ParticipantApprovalSkipped
			current.ApprovalTokenHash = ""
			current.ApprovalTokenExpiry = nil

			if err := s.invoiceRepo.Update(txCtx, current); err != nil {
				return err
			}
			return s.auditRepo.Create(txCtx, &entity.AuditEntry{
				Entity:     "invoice",
				EntityID:   current.ID,
				Actor:      "system",
				Action:     workflow.TriggerSkipParticipantApproval.String(),
				FromStatus: from.String(),
				ToStatus:   current.Status.String(),
				Detail:     "participant approval token expired",
			})
		})
		if err != nil {
			// Someone else got there first; the sweep stays idempotent
			continue
		}

		s.emitter.Emit(ctx, event.New(event.TypeParticipantApprovalSkipped, inv.ID, nil))
		count++
	}

	if count > 0 {
		s.logger.Info("Expired participant approvals skipped", "count", count)
	}
	return count, nil
}

func (s *invoiceService) BulkAction(ctx context.Context, action string, invoiceIDs []int64, actor, reason string) (*BulkResult, error) {
	if len(invoiceIDs) == 0 {
		return nil, ErrEmptyInvoiceIDs
	}
	if action == BulkActionReject && reason == "" {
		return nil, ErrReasonRequired
	}

	result := &BulkResult{Succeeded: []int64{}, Failed: []BulkFailure{}}
	for _, id := range invoiceIDs {
		var err error
		switch action {
		case BulkActionApprove:
			err = s.Approve(ctx, id, actor)
		case BulkActionReject:
			err = s.Reject(ctx, id, actor, reason)
		case BulkActionClaim:
			_, err = s.claims.CreateClaimFromInvoice(ctx, id, actor)
		default:
			return nil, fmt.Errorf("%q: %w", action, ErrUnknownAction)
		}

		if err != nil {
			result.Failed = append(result.Failed, BulkFailure{ID: id, Error: ErrorCode(err)})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}

	s.logger.Info("Bulk invoice action completed",
		"action", action,
		"succeeded", len(result.Succeeded),
		"failed", len(result.Failed))
	return result, nil
}

// loadForTransition fetches an invoice that is expected to exist
func (s *invoiceService) loadForTransition(ctx context.Context, invoiceID int64) (*entity.Invoice, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, fmt.Errorf("invoice %d: %w", invoiceID, ErrNotFound)
	}
	return invoice, nil
}

// applyTransition fires the trigger against the lifecycle machine and, when
// permitted, persists the new status plus an audit entry in one transaction.
func (s *invoiceService) applyTransition(
	ctx context.Context,
	invoice *entity.Invoice,
	trigger workflow.Trigger,
	actor, detail string,
	mutate func(*entity.Invoice),
) error {
	machine := workflow.NewInvoiceMachine(invoice.Status)
	if err := machine.Fire(trigger); err != nil {
		return fmt.Errorf("%s from %s: %w", trigger, invoice.Status, ErrInvalidStatus)
	}

	from := invoice.Status
	invoice.Status = machine.State()
	if mutate != nil {
		mutate(invoice)
	}

	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.Update(txCtx, invoice); err != nil {
			return err
		}
		return s.auditRepo.Create(txCtx, &entity.AuditEntry{
			Entity:     "invoice",
			EntityID:   invoice.ID,
			Actor:      actor,
			Action:     trigger.String(),
			FromStatus: from.String(),
			ToStatus:   invoice.Status.String(),
			Detail:     detail,
		})
	})
}
