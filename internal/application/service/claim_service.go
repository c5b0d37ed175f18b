package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/event"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/workflow"
)

// BatchExporter writes the payer-portal upload artifact for a batch. Export
// failures are logged, never fatal to batch creation.
type BatchExporter interface {
	Export(ctx context.Context, batch *entity.ClaimBatch, claims []*entity.Claim) (string, error)
}

// ClaimBatchResult reports the outcome of generating a batch from invoices
type ClaimBatchResult struct {
	Batch     *entity.ClaimBatch `json:"batch"`
	Succeeded []int64            `json:"succeeded"`
	Failed    []BulkFailure      `json:"failed"`
}

// ClaimService converts approved invoices into funding claims and groups
// claims into submission batches.
type ClaimService interface {
	// CreateClaimFromInvoice copies amount and participant from the invoice,
	// builds claim lines from its extracted line items, and moves the invoice
	// to CLAIMED. An invoice may only ever be claimed once.
	CreateClaimFromInvoice(ctx context.Context, invoiceID int64, actor string) (*entity.Claim, error)

	GetClaim(ctx context.Context, id int64) (*entity.Claim, error)

	// GenerateClaimBatch claims each invoice independently and collects
	// per-item successes and failures (partial success, never all-or-nothing)
	GenerateClaimBatch(ctx context.Context, invoiceIDs []int64, actor string) (*ClaimBatchResult, error)

	// CreateBatch groups existing PENDING, unbatched claims into a new batch
	CreateBatch(ctx context.Context, claimIDs []int64, actor string) (*entity.ClaimBatch, error)

	// SubmitBatch flips the batch and all its claims to SUBMITTED. Unlike the
	// bulk actions this is all-or-nothing: any non-PENDING claim fails the call.
	SubmitBatch(ctx context.Context, batchID int64, actor string) (*entity.ClaimBatch, error)
}

type claimService struct {
	claimRepo   port.ClaimRepository
	batchRepo   port.ClaimBatchRepository
	invoiceRepo port.InvoiceRepository
	auditRepo   port.AuditRepository
	txManager   port.TransactionManager
	emitter     port.EventEmitter
	exporter    BatchExporter
	logger      Logger
}

// NewClaimService creates a new ClaimService
func NewClaimService(
	claimRepo port.ClaimRepository,
	batchRepo port.ClaimBatchRepository,
	invoiceRepo port.InvoiceRepository,
	auditRepo port.AuditRepository,
	txManager port.TransactionManager,
	emitter port.EventEmitter,
	exporter BatchExporter,
	logger Logger,
) ClaimService {
	return &claimService{
		claimRepo:   claimRepo,
		batchRepo:   batchRepo,
		invoiceRepo: invoiceRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		emitter:     emitter,
		exporter:    exporter,
		logger:      logger,
	}
}

func (s *claimService) CreateClaimFromInvoice(ctx context.Context, invoiceID int64, actor string) (*entity.Claim, error) {
	var claim *entity.Claim

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		invoice, err := s.invoiceRepo.GetByID(txCtx, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return fmt.Errorf("invoice %d: %w", invoiceID, ErrNotFound)
		}
		if invoice.Status != workflow.StateApproved {
			return fmt.Errorf("invoice %d is %s: %w", invoiceID, invoice.Status, ErrInvoiceNotApproved)
		}

		existing, err := s.claimRepo.GetByInvoiceID(txCtx, invoiceID)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("invoice %d: %w", invoiceID, ErrClaimAlreadyExists)
		}

		items, err := s.invoiceRepo.GetLineItems(txCtx, invoiceID)
		if err != nil {
			return err
		}

		claim = &entity.Claim{
			Reference:     newClaimReference(),
			InvoiceID:     invoice.ID,
			ParticipantID: invoice.ParticipantID,
			ClaimedCents:  invoice.TotalCents,
			Status:        entity.ClaimStatusPending,
			Lines:         claimLinesFrom(invoice, items),
			CreatedBy:     actor,
		}

		machine := workflow.NewInvoiceMachine(invoice.Status)
		if err := machine.Fire(workflow.TriggerClaim); err != nil {
			return fmt.Errorf("claim from %s: %w", invoice.Status, ErrInvalidStatus)
		}
		from := invoice.Status
		invoice.Status = machine.State()

		if err := s.claimRepo.Create(txCtx, claim); err != nil {
			return err
		}
		if err := s.invoiceRepo.Update(txCtx, invoice); err != nil {
			return err
		}
		return s.auditRepo.Create(txCtx, &entity.AuditEntry{
			Entity:     "invoice",
			EntityID:   invoice.ID,
			Actor:      actor,
			Action:     workflow.TriggerClaim.String(),
			FromStatus: from.String(),
			ToStatus:   invoice.Status.String(),
			Detail:     fmt.Sprintf("claim %s for %d cents", claim.Reference, claim.ClaimedCents),
		})
	})
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, event.New(event.TypeClaimCreated, claim.ID, map[string]interface{}{
		"invoice_id":    claim.InvoiceID,
		"claimed_cents": claim.ClaimedCents,
		"reference":     claim.Reference,
	}))
	s.emitter.Emit(ctx, event.New(event.TypeInvoiceClaimed, claim.InvoiceID, map[string]interface{}{
		"claim_id": claim.ID,
	}))
	s.logger.Info("Claim created", "claim_id", claim.ID, "invoice_id", claim.InvoiceID, "reference", claim.Reference)
	return claim, nil
}

func (s *claimService) GetClaim(ctx context.Context, id int64) (*entity.Claim, error) {
	claim, err := s.claimRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if claim == nil {
		return nil, fmt.Errorf("claim %d: %w", id, ErrNotFound)
	}
	return claim, nil
}

func (s *claimService) GenerateClaimBatch(ctx context.Context, invoiceIDs []int64, actor string) (*ClaimBatchResult, error) {
	if len(invoiceIDs) == 0 {
		return nil, ErrEmptyInvoiceIDs
	}

	batch := &entity.ClaimBatch{
		Reference: newBatchReference(),
		Status:    entity.BatchStatusPending,
		CreatedBy: actor,
	}
	if err := s.batchRepo.Create(ctx, batch); err != nil {
		return nil, err
	}

	result := &ClaimBatchResult{Batch: batch, Succeeded: []int64{}, Failed: []BulkFailure{}}
	var claims []*entity.Claim

	// Each invoice is claimed in its own transaction so one failure cannot
	// poison another's success
	for _, invoiceID := range invoiceIDs {
		claim, err := s.CreateClaimFromInvoice(ctx, invoiceID, actor)
		if err != nil {
			result.Failed = append(result.Failed, BulkFailure{ID: invoiceID, Error: ErrorCode(err)})
			continue
		}
		if err := s.claimRepo.AssignBatch(ctx, claim.ID, batch.ID); err != nil {
			result.Failed = append(result.Failed, BulkFailure{ID: invoiceID, Error: ErrorCode(err)})
			continue
		}
		claim.BatchID = &batch.ID
		claims = append(claims, claim)
		result.Succeeded = append(result.Succeeded, invoiceID)
	}

	s.exportBatch(ctx, batch, claims)

	s.logger.Info("Claim batch generated",
		"batch_id", batch.ID,
		"reference", batch.Reference,
		"succeeded", len(result.Succeeded),
		"failed", len(result.Failed))
	return result, nil
}

func (s *claimService) CreateBatch(ctx context.Context, claimIDs []int64, actor string) (*entity.ClaimBatch, error) {
	if len(claimIDs) == 0 {
		return nil, ErrEmptyClaimIDs
	}

	batch := &entity.ClaimBatch{
		Reference: newBatchReference(),
		Status:    entity.BatchStatusPending,
		CreatedBy: actor,
	}

	var claims []*entity.Claim
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		loaded, err := s.claimRepo.ListByIDs(txCtx, claimIDs)
		if err != nil {
			return err
		}
		if len(loaded) != len(claimIDs) {
			return fmt.Errorf("some claims do not exist: %w", ErrNotFound)
		}
		for _, c := range loaded {
			if c.Status != entity.ClaimStatusPending {
				return fmt.Errorf("claim %d is %s: %w", c.ID, c.Status, ErrClaimNotPending)
			}
			if c.BatchID != nil {
				return fmt.Errorf("claim %d in batch %d: %w", c.ID, *c.BatchID, ErrClaimAlreadyBatched)
			}
		}

		if err := s.batchRepo.Create(txCtx, batch); err != nil {
			return err
		}
		for _, c := range loaded {
			if err := s.claimRepo.AssignBatch(txCtx, c.ID, batch.ID); err != nil {
				return err
			}
			c.BatchID = &batch.ID
		}
		claims = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.exportBatch(ctx, batch, claims)

	s.logger.Info("Claim batch created", "batch_id", batch.ID, "claims", len(claims))
	return batch, nil
}

func (s *claimService) SubmitBatch(ctx context.Context, batchID int64, actor string) (*entity.ClaimBatch, error) {
	var batch *entity.ClaimBatch

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		batch, err = s.batchRepo.GetByID(txCtx, batchID)
		if err != nil {
			return err
		}
		if batch == nil {
			return fmt.Errorf("batch %d: %w", batchID, ErrNotFound)
		}
		if batch.Status != entity.BatchStatusPending {
			return fmt.Errorf("batch %d is %s: %w", batchID, batch.Status, ErrBatchNotPending)
		}

		claims, err := s.claimRepo.ListByBatchID(txCtx, batchID)
		if err != nil {
			return err
		}

		// All-or-nothing: a single non-PENDING member fails the whole call
		for _, c := range claims {
			if c.Status != entity.ClaimStatusPending {
				return fmt.Errorf("claim %d is %s: %w", c.ID, c.Status, ErrBatchNotPending)
			}
		}

		now := time.Now()
		for _, c := range claims {
			if err := s.claimRepo.UpdateStatus(txCtx, c.ID, entity.ClaimStatusSubmitted, &now); err != nil {
				return err
			}
		}

		batch.Status = entity.BatchStatusSubmitted
		batch.SubmittedAt = &now
		if err := s.batchRepo.Update(txCtx, batch); err != nil {
			return err
		}
		return s.auditRepo.Create(txCtx, &entity.AuditEntry{
			Entity:     "claim_batch",
			EntityID:   batch.ID,
			Actor:      actor,
			Action:     "SUBMIT",
			FromStatus: entity.BatchStatusPending,
			ToStatus:   entity.BatchStatusSubmitted,
			Detail:     fmt.Sprintf("%d claims", len(claims)),
		})
	})
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, event.New(event.TypeBatchSubmitted, batch.ID, map[string]interface{}{
		"reference": batch.Reference,
	}))
	s.logger.Info("Claim batch submitted", "batch_id", batch.ID, "actor", actor)
	return batch, nil
}

// exportBatch writes the submission spreadsheet, best effort
func (s *claimService) exportBatch(ctx context.Context, batch *entity.ClaimBatch, claims []*entity.Claim) {
	if s.exporter == nil || len(claims) == 0 {
		return
	}

	path, err := s.exporter.Export(ctx, batch, claims)
	if err != nil {
		s.logger.Error("Failed to export claim batch", "batch_id", batch.ID, "error", err)
		return
	}

	batch.ExportPath = path
	if err := s.batchRepo.Update(ctx, batch); err != nil {
		s.logger.Error("Failed to record batch export path", "batch_id", batch.ID, "error", err)
	}
}

// claimLinesFrom builds claim lines from the invoice's extracted items. When
// items are missing or disagree with the invoice total, a single covering line
// keeps sum(line.total) == claimedCents.
func claimLinesFrom(invoice *entity.Invoice, items []entity.InvoiceLineItem) []entity.ClaimLine {
	var lines []entity.ClaimLine
	var sum int64
	for _, item := range items {
		lines = append(lines, entity.ClaimLine{
			SupportItemCode: item.SupportItemCode,
			Quantity:        item.Quantity,
			UnitPriceCents:  item.UnitPriceCents,
			TotalCents:      item.TotalCents,
		})
		sum += item.TotalCents
	}

	if len(lines) == 0 || sum != invoice.TotalCents {
		return []entity.ClaimLine{{
			SupportItemCode: "",
			Quantity:        1,
			UnitPriceCents:  invoice.TotalCents,
			TotalCents:      invoice.TotalCents,
		}}
	}
	return lines
}

func newClaimReference() string {
	return "CLM-" + strings.ToUpper(uuid.NewString()[:8])
}

func newBatchReference() string {
	return "BATCH-" + strings.ToUpper(uuid.NewString()[:8])
}
