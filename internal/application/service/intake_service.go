package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/event"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/workflow"
	"github.com/SpudMar/Lotus-PM-sub001/internal/extraction"
)

// Intake outcomes
const (
	IntakeOutcomeProcessed    = "PROCESSED"
	IntakeOutcomeNoAttachment = "NO_ATTACHMENT"
	IntakeOutcomeDuplicate    = "DUPLICATE"
)

// IntakeResult reports what happened to an inbound email artifact. A missing
// attachment is a successful terminal outcome, not an error, so the calling
// queue stops retrying.
type IntakeResult struct {
	Outcome   string `json:"outcome"`
	InvoiceID int64  `json:"invoice_id,omitempty"`
	OCRJobID  string `json:"ocr_job_id,omitempty"`
}

// ExtractionOutcome reports a completed extraction
type ExtractionOutcome struct {
	InvoiceID     int64   `json:"invoice_id"`
	Status        string  `json:"status"`
	InvoiceNumber string  `json:"invoice_number"`
	Confidence    float64 `json:"confidence"`
	LineItemCount int     `json:"line_item_count"`
}

// FieldExtractor turns recognized text into structured invoice fields
type FieldExtractor interface {
	Extract(text string) (*extraction.Result, error)
}

// AssistedExtractor is a second-pass extractor consulted when heuristics come
// back low-confidence (optional)
type AssistedExtractor interface {
	Extract(ctx context.Context, text string) (*extraction.Result, error)
}

// IntakeService is the asynchronous document-extraction pipeline: it turns an
// inbound email artifact into a draft invoice plus a running OCR job, and
// applies structured field extraction once the job completes. Both stages are
// idempotent under at-least-once delivery.
type IntakeService interface {
	IngestEmail(ctx context.Context, location, key string) (*IntakeResult, error)
	CompleteExtraction(ctx context.Context, jobID string, invoiceID int64) (*ExtractionOutcome, error)
}

type intakeService struct {
	invoiceRepo port.InvoiceRepository
	auditRepo   port.AuditRepository
	txManager   port.TransactionManager
	emitter     port.EventEmitter
	mailbox     port.MailboxStore
	documents   port.DocumentStorage
	ocr         port.OCRService
	extractor   FieldExtractor
	assisted    AssistedExtractor
	aiThreshold float64
	logger      Logger
}

// NewIntakeService creates a new IntakeService. assisted may be nil, in which
// case low-confidence extractions stand as-is.
func NewIntakeService(
	invoiceRepo port.InvoiceRepository,
	auditRepo port.AuditRepository,
	txManager port.TransactionManager,
	emitter port.EventEmitter,
	mailbox port.MailboxStore,
	documents port.DocumentStorage,
	ocr port.OCRService,
	extractor FieldExtractor,
	assisted AssistedExtractor,
	aiThreshold float64,
	logger Logger,
) IntakeService {
	return &intakeService{
		invoiceRepo: invoiceRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		emitter:     emitter,
		mailbox:     mailbox,
		documents:   documents,
		ocr:         ocr,
		extractor:   extractor,
		assisted:    assisted,
		aiThreshold: aiThreshold,
		logger:      logger,
	}
}

func (s *intakeService) IngestEmail(ctx context.Context, location, key string) (*IntakeResult, error) {
	sourceKey := location + "/" + key

	// At-least-once transport: a redelivered artifact returns the invoice it
	// already produced
	existing, err := s.invoiceRepo.GetBySourceKey(ctx, sourceKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &IntakeResult{
			Outcome:   IntakeOutcomeDuplicate,
			InvoiceID: existing.ID,
			OCRJobID:  existing.OCRJobID,
		}, nil
	}

	raw, err := s.mailbox.Fetch(ctx, location, key)
	if err != nil {
		return nil, fmt.Errorf("fetch email artifact: %w", err)
	}

	doc, err := extraction.ParseEmail(raw)
	if err != nil || len(doc.PDF) == 0 {
		// Artifacts without a usable PDF will never gain one; park them and
		// report success so the queue stops redelivering
		if holdErr := s.mailbox.MoveToHolding(ctx, location, key); holdErr != nil {
			return nil, fmt.Errorf("move artifact to holding: %w", holdErr)
		}
		s.logger.Info("Email artifact had no PDF attachment", "location", location, "key", key)
		return &IntakeResult{Outcome: IntakeOutcomeNoAttachment}, nil
	}

	name := doc.Filename
	if name == "" {
		name = path.Base(key) + ".pdf"
	}
	storedPath, err := s.documents.Save(ctx, name, doc.PDF)
	if err != nil {
		return nil, fmt.Errorf("store invoice document: %w", err)
	}

	jobID, err := s.ocr.StartJob(ctx, storedPath)
	if err != nil {
		return nil, fmt.Errorf("start ocr job: %w", err)
	}

	invoice := &entity.Invoice{
		Status:                    workflow.StateProcessing,
		Source:                    entity.SourceEmail,
		SenderAddress:             doc.From,
		SourceKey:                 sourceKey,
		DocumentPath:              storedPath,
		OCRJobID:                  jobID,
		InvoiceNumber:             placeholderNumber(jobID),
		ParticipantApprovalStatus: entity.ParticipantApprovalNone,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.Create(txCtx, invoice); err != nil {
			return err
		}
		return s.auditRepo.Create(txCtx, &entity.AuditEntry{
			Entity:     "invoice",
			EntityID:   invoice.ID,
			Actor:      "system",
			Action:     workflow.TriggerStartProcessing.String(),
			FromStatus: workflow.StateReceived.String(),
			ToStatus:   workflow.StateProcessing.String(),
			Detail:     "ingested from " + sourceKey,
		})
	})
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, event.New(event.TypeInvoiceReceived, invoice.ID, map[string]interface{}{
		"source":     entity.SourceEmail,
		"ocr_job_id": jobID,
	}))
	s.logger.Info("Draft invoice created from email",
		"invoice_id", invoice.ID, "ocr_job_id", jobID, "sender", doc.From)

	return &IntakeResult{
		Outcome:   IntakeOutcomeProcessed,
		InvoiceID: invoice.ID,
		OCRJobID:  jobID,
	}, nil
}

func (s *intakeService) CompleteExtraction(ctx context.Context, jobID string, invoiceID int64) (*ExtractionOutcome, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, fmt.Errorf("invoice %d: %w", invoiceID, ErrNotFound)
	}
	if invoice.OCRJobID != jobID {
		return nil, fmt.Errorf("job %s does not belong to invoice %d: %w", jobID, invoiceID, ErrNotFound)
	}

	// A late-arriving duplicate callback must not clobber an invoice a human
	// has already reviewed
	if invoice.Status != workflow.StateProcessing {
		return nil, fmt.Errorf("invoice %d is %s: %w", invoiceID, invoice.Status, ErrInvalidStatus)
	}

	ocrResult, err := s.ocr.JobResult(ctx, jobID)
	if err != nil {
		// ErrJobPending passes through untouched as a retry signal
		return nil, err
	}

	result, err := s.extractor.Extract(ocrResult.Text)
	if err != nil {
		return nil, fmt.Errorf("field extraction: %w", err)
	}

	if s.assisted != nil && result.Confidence < s.aiThreshold {
		if aiResult, aiErr := s.assisted.Extract(ctx, ocrResult.Text); aiErr == nil {
			result = extraction.Merge(result, aiResult)
		} else {
			s.logger.Error("Assisted extraction failed, keeping heuristic result",
				"invoice_id", invoiceID, "error", aiErr)
		}
	}

	machine := workflow.NewInvoiceMachine(invoice.Status)
	if err := machine.Fire(workflow.TriggerCompleteExtraction); err != nil {
		return nil, fmt.Errorf("complete extraction from %s: %w", invoice.Status, ErrInvalidStatus)
	}

	from := invoice.Status
	invoice.Status = machine.State()
	if result.InvoiceNumber != "" {
		invoice.InvoiceNumber = result.InvoiceNumber
	}
	invoice.InvoiceDate = result.InvoiceDate
	invoice.SubtotalCents = result.SubtotalCents
	invoice.GSTCents = result.GSTCents
	invoice.TotalCents = result.TotalCents
	confidence := result.Confidence
	invoice.Confidence = &confidence

	items := make([]entity.InvoiceLineItem, 0, len(result.LineItems))
	for _, l := range result.LineItems {
		items = append(items, entity.InvoiceLineItem{
			InvoiceID:       invoice.ID,
			SupportItemCode: l.SupportItemCode,
			Description:     l.Description,
			Quantity:        l.Quantity,
			UnitPriceCents:  l.UnitPriceCents,
			TotalCents:      l.TotalCents,
		})
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.Update(txCtx, invoice); err != nil {
			return err
		}
		if err := s.invoiceRepo.ReplaceLineItems(txCtx, invoice.ID, items); err != nil {
			return err
		}
		return s.auditRepo.Create(txCtx, &entity.AuditEntry{
			Entity:     "invoice",
			EntityID:   invoice.ID,
			Actor:      "system",
			Action:     workflow.TriggerCompleteExtraction.String(),
			FromStatus: from.String(),
			ToStatus:   invoice.Status.String(),
			Detail:     fmt.Sprintf("confidence %.2f, %d line items", result.Confidence, len(items)),
		})
	})
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, event.New(event.TypeInvoiceExtracted, invoice.ID, map[string]interface{}{
		"confidence":  result.Confidence,
		"total_cents": result.TotalCents,
	}))
	s.logger.Info("Invoice extraction completed",
		"invoice_id", invoice.ID,
		"invoice_number", invoice.InvoiceNumber,
		"confidence", result.Confidence)

	return &ExtractionOutcome{
		InvoiceID:     invoice.ID,
		Status:        invoice.Status.String(),
		InvoiceNumber: invoice.InvoiceNumber,
		Confidence:    result.Confidence,
		LineItemCount: len(items),
	}, nil
}

func placeholderNumber(jobID string) string {
	id := strings.ReplaceAll(jobID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return "PENDING-" + strings.ToUpper(id)
}
