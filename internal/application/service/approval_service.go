package service

import (
	"context"
	"fmt"
	"time"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/event"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/token"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/workflow"
)

// Participant decisions submitted through the approval link
const (
	DecisionApproved = "APPROVED"
	DecisionRejected = "REJECTED"
)

// ApprovalStatus is the read-only view returned to a token holder. It never
// exposes the stored token hash.
type ApprovalStatus struct {
	InvoiceID     int64      `json:"invoice_id"`
	Status        string     `json:"status"`
	TotalCents    int64      `json:"total_cents"`
	ProviderName  string     `json:"provider_name"`
	InvoiceNumber string     `json:"invoice_number"`
	InvoiceDate   *time.Time `json:"invoice_date,omitempty"`
}

// ApprovalService implements the signed single-use approval-token protocol
// used when a funding recipient must personally authorise a spend.
type ApprovalService interface {
	// RequestApproval issues a fresh token for the invoice, stores its hash and
	// expiry, transitions the invoice to PENDING_PARTICIPANT_APPROVAL and
	// dispatches the approval link to the participant.
	RequestApproval(ctx context.Context, invoiceID int64, actor string) error

	// ProcessResponse consumes a presented token exactly once and applies the
	// participant's decision. A participant rejection is a soft signal: the
	// invoice returns to PENDING_REVIEW for staff, it is not hard-rejected.
	ProcessResponse(ctx context.Context, rawToken, decision string) (*ApprovalStatus, error)

	// GetApprovalStatus verifies the token and returns the invoice view
	GetApprovalStatus(ctx context.Context, rawToken string) (*ApprovalStatus, error)
}

type approvalService struct {
	invoiceRepo     port.InvoiceRepository
	participantRepo port.ParticipantRepository
	providerRepo    port.ProviderRepository
	auditRepo       port.AuditRepository
	txManager       port.TransactionManager
	emitter         port.EventEmitter
	notifier        port.NotificationSender
	codec           *token.Codec
	approvalBaseURL string
	logger          Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	invoiceRepo port.InvoiceRepository,
	participantRepo port.ParticipantRepository,
	providerRepo port.ProviderRepository,
	auditRepo port.AuditRepository,
	txManager port.TransactionManager,
	emitter port.EventEmitter,
	notifier port.NotificationSender,
	codec *token.Codec,
	approvalBaseURL string,
	logger Logger,
) ApprovalService {
	return &approvalService{
		invoiceRepo:     invoiceRepo,
		participantRepo: participantRepo,
		providerRepo:    providerRepo,
		auditRepo:       auditRepo,
		txManager:       txManager,
		emitter:         emitter,
		notifier:        notifier,
		codec:           codec,
		approvalBaseURL: approvalBaseURL,
		logger:          logger,
	}
}

func (s *approvalService) RequestApproval(ctx context.Context, invoiceID int64, actor string) error {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return err
	}
	if invoice == nil {
		return fmt.Errorf("invoice %d: %w", invoiceID, ErrNotFound)
	}

	participant, err := s.participantRepo.GetByID(ctx, invoice.ParticipantID)
	if err != nil {
		return err
	}
	if participant == nil {
		return fmt.Errorf("participant %d: %w", invoice.ParticipantID, ErrNotFound)
	}
	if !participant.ApprovalEnabled {
		return ErrApprovalNotEnabled
	}
	if participant.ApprovalContact() == "" {
		return ErrNoApprovalContact
	}

	machine := workflow.NewInvoiceMachine(invoice.Status)
	if err := machine.Fire(workflow.TriggerRequestParticipantApproval); err != nil {
		return fmt.Errorf("request approval from %s: %w", invoice.Status, ErrInvalidStatus)
	}

	issued, err := s.codec.Issue(invoice.ID, participant.ID)
	if err != nil {
		return fmt.Errorf("issue approval token: %w", err)
	}

	from := invoice.Status
	invoice.Status = machine.State()
	invoice.ApprovalTokenHash = issued.Hash
	invoice.ApprovalTokenExpiry = &issued.ExpiresAt
	invoice.ParticipantApprovalStatus = entity.ParticipantApprovalPending

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.Update(txCtx, invoice); err != nil {
			return err
		}
		return s.auditRepo.Create(txCtx, &entity.AuditEntry{
			Entity:     "invoice",
			EntityID:   invoice.ID,
			Actor:      actor,
			Action:     workflow.TriggerRequestParticipantApproval.String(),
			FromStatus: from.String(),
			ToStatus:   invoice.Status.String(),
			Detail:     fmt.Sprintf("token %s expires %s", issued.TokenID, issued.ExpiresAt.Format(time.RFC3339)),
		})
	})
	if err != nil {
		return err
	}

	approvalURL := fmt.Sprintf("%s/approval/respond?token=%s", s.approvalBaseURL, issued.Token)
	if err := s.notifier.SendApprovalRequest(ctx, participant, invoice, approvalURL); err != nil {
		// Delivery is best-effort; the sweep will reclaim the invoice if the
		// participant never sees the link
		s.logger.Error("Failed to dispatch approval request", "invoice_id", invoice.ID, "error", err)
	}

	s.emitter.Emit(ctx, event.New(event.TypeParticipantApprovalRequested, invoice.ID, map[string]interface{}{
		"participant_id": participant.ID,
		"method":         participant.ApprovalMethod,
		"expires_at":     issued.ExpiresAt.Format(time.RFC3339),
	}))
	s.logger.Info("Participant approval requested", "invoice_id", invoice.ID, "participant_id", participant.ID)
	return nil
}

func (s *approvalService) ProcessResponse(ctx context.Context, rawToken, decision string) (*ApprovalStatus, error) {
	if decision != DecisionApproved && decision != DecisionRejected {
		return nil, fmt.Errorf("decision %q: %w", decision, ErrUnknownAction)
	}

	// Stateless verification first: signature, structure and expiry are
	// checked before any database lookup
	claims, err := s.codec.Verify(rawToken)
	if err != nil {
		return nil, err
	}

	presentedHash := token.Hash(rawToken)
	now := time.Now()

	var invoice *entity.Invoice
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		invoice, err = s.invoiceRepo.GetByID(txCtx, claims.InvoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return fmt.Errorf("invoice %d: %w", claims.InvoiceID, ErrNotFound)
		}

		// Single-use guard: the first successful response clears the stored
		// hash, so a replayed token fails here even though it still verifies
		if invoice.ApprovalTokenHash == "" || invoice.ApprovalTokenHash != presentedHash {
			return ErrTokenAlreadyUsed
		}
		if invoice.Status != workflow.StatePendingParticipantApproval {
			return ErrInvoiceNotPendingApproval
		}

		// Compare-and-swap on the stored hash closes the double-spend race
		// between two concurrent responses to the same link
		cleared, err := s.invoiceRepo.ClearApprovalToken(txCtx, invoice.ID, presentedHash)
		if err != nil {
			return err
		}
		if !cleared {
			return ErrTokenAlreadyUsed
		}

		machine := workflow.NewInvoiceMachine(invoice.Status)
		from := invoice.Status

		if decision == DecisionApproved {
			if err := machine.Fire(workflow.TriggerParticipantApprove); err != nil {
				return ErrInvoiceNotPendingApproval
			}
			invoice.Status = machine.State()
			invoice.ParticipantApprovalStatus = entity.ParticipantApprovalApproved
			invoice.ApprovedBy = fmt.Sprintf("participant:%d", claims.ParticipantID)
			invoice.ApprovedAt = &now
		} else {
			if err := machine.Fire(workflow.TriggerParticipantReject); err != nil {
				return ErrInvoiceNotPendingApproval
			}
			invoice.Status = machine.State()
			invoice.ParticipantApprovalStatus = entity.ParticipantApprovalRejected
		}

		invoice.ApprovalTokenHash = ""
		invoice.ApprovalTokenExpiry = nil

		if err := s.invoiceRepo.Update(txCtx, invoice); err != nil {
			return err
		}
		return s.auditRepo.Create(txCtx, &entity.AuditEntry{
			Entity:     "invoice",
			EntityID:   invoice.ID,
			Actor:      fmt.Sprintf("participant:%d", claims.ParticipantID),
			Action:     "PARTICIPANT_" + decision,
			FromStatus: from.String(),
			ToStatus:   invoice.Status.String(),
			Detail:     "token " + claims.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	eventType := event.TypeParticipantApproved
	if decision == DecisionRejected {
		eventType = event.TypeParticipantRejected
	}
	s.emitter.Emit(ctx, event.New(eventType, invoice.ID, map[string]interface{}{
		"participant_id": claims.ParticipantID,
	}))
	s.logger.Info("Participant approval response processed",
		"invoice_id", invoice.ID, "decision", decision)

	return s.statusView(ctx, invoice)
}

func (s *approvalService) GetApprovalStatus(ctx context.Context, rawToken string) (*ApprovalStatus, error) {
	claims, err := s.codec.Verify(rawToken)
	if err != nil {
		return nil, err
	}

	invoice, err := s.invoiceRepo.GetByID(ctx, claims.InvoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, fmt.Errorf("invoice %d: %w", claims.InvoiceID, ErrNotFound)
	}

	return s.statusView(ctx, invoice)
}

func (s *approvalService) statusView(ctx context.Context, invoice *entity.Invoice) (*ApprovalStatus, error) {
	view := &ApprovalStatus{
		InvoiceID:     invoice.ID,
		Status:        invoice.Status.String(),
		TotalCents:    invoice.TotalCents,
		InvoiceNumber: invoice.InvoiceNumber,
		InvoiceDate:   invoice.InvoiceDate,
	}

	provider, err := s.providerRepo.GetByID(ctx, invoice.ProviderID)
	if err == nil && provider != nil {
		view.ProviderName = provider.Name
	}

	return view, nil
}
