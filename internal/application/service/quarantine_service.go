package service

import (
	"context"
	"fmt"
	"time"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/event"
)

// thresholdRatio is the utilisation level at which a draw-down fires a
// non-blocking threshold event
const thresholdRatio = 0.8

// CreateQuarantineInput carries the fields for a new reservation
type CreateQuarantineInput struct {
	BudgetLineID       int64
	AmountCents        int64
	ProviderID         *int64
	ServiceAgreementID *int64
	SupportItemCode    string
	Notes              string
	ExpiresAt          *time.Time
}

// UpdateQuarantineInput carries updatable fields. AmountCents nil means the
// reserved amount is unchanged and the capacity check is skipped.
type UpdateQuarantineInput struct {
	AmountCents *int64
	Notes       *string
}

// QuarantineService is the budget-capacity reservation ledger gating claim
// creation. Capacity checks and the subsequent write execute inside one
// transaction scoped to the budget line, so concurrent reservations against
// the same line are strictly ordered.
type QuarantineService interface {
	CreateQuarantine(ctx context.Context, input CreateQuarantineInput, actor string) (*entity.FundQuarantine, error)
	GetQuarantine(ctx context.Context, id int64) (*entity.FundQuarantine, error)
	ListByBudgetLine(ctx context.Context, budgetLineID int64) ([]*entity.FundQuarantine, error)
	UpdateQuarantine(ctx context.Context, id int64, input UpdateQuarantineInput, actor string) (*entity.FundQuarantine, error)
	ReleaseQuarantine(ctx context.Context, id int64, actor string) error
	DrawDown(ctx context.Context, id int64, amountCents int64, actor string) (*entity.FundQuarantine, error)

	// AutoCreateFromServiceAgreement walks an activated agreement's rate lines
	// and creates one quarantine per line with a matching budget line and
	// sufficient capacity, silently skipping the rest. Best effort, not
	// all-or-nothing.
	AutoCreateFromServiceAgreement(ctx context.Context, agreementID int64, actor string) ([]*entity.FundQuarantine, error)
}

type quarantineService struct {
	quarantineRepo port.QuarantineRepository
	budgetRepo     port.BudgetLineRepository
	agreementRepo  port.ServiceAgreementRepository
	auditRepo      port.AuditRepository
	txManager      port.TransactionManager
	emitter        port.EventEmitter
	logger         Logger
}

// NewQuarantineService creates a new QuarantineService
func NewQuarantineService(
	quarantineRepo port.QuarantineRepository,
	budgetRepo port.BudgetLineRepository,
	agreementRepo port.ServiceAgreementRepository,
	auditRepo port.AuditRepository,
	txManager port.TransactionManager,
	emitter port.EventEmitter,
	logger Logger,
) QuarantineService {
	return &quarantineService{
		quarantineRepo: quarantineRepo,
		budgetRepo:     budgetRepo,
		agreementRepo:  agreementRepo,
		auditRepo:      auditRepo,
		txManager:      txManager,
		emitter:        emitter,
		logger:         logger,
	}
}

func (s *quarantineService) CreateQuarantine(ctx context.Context, input CreateQuarantineInput, actor string) (*entity.FundQuarantine, error) {
	if input.AmountCents <= 0 {
		return nil, fmt.Errorf("amount must be positive: %w", ErrInsufficientCapacity)
	}

	q := &entity.FundQuarantine{
		BudgetLineID:       input.BudgetLineID,
		ProviderID:         input.ProviderID,
		ServiceAgreementID: input.ServiceAgreementID,
		SupportItemCode:    input.SupportItemCode,
		QuarantinedCents:   input.AmountCents,
		Status:             entity.QuarantineStatusActive,
		Notes:              input.Notes,
		ExpiresAt:          input.ExpiresAt,
		CreatedBy:          actor,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		available, err := s.availableCapacity(txCtx, input.BudgetLineID, 0)
		if err != nil {
			return err
		}
		if input.AmountCents > available {
			return fmt.Errorf("requested %d, available %d: %w", input.AmountCents, available, ErrInsufficientCapacity)
		}

		if err := s.quarantineRepo.Create(txCtx, q); err != nil {
			return err
		}
		return s.auditRepo.Create(txCtx, &entity.AuditEntry{
			Entity:   "quarantine",
			EntityID: q.ID,
			Actor:    actor,
			Action:   "CREATE",
			ToStatus: entity.QuarantineStatusActive,
			Detail:   fmt.Sprintf("reserved %d cents on budget line %d", input.AmountCents, input.BudgetLineID),
		})
	})
	if err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, event.New(event.TypeQuarantineCreated, q.ID, map[string]interface{}{
		"budget_line_id":    q.BudgetLineID,
		"quarantined_cents": q.QuarantinedCents,
	}))
	s.logger.Info("Quarantine created", "quarantine_id", q.ID, "budget_line_id", q.BudgetLineID)
	return q, nil
}

func (s *quarantineService) GetQuarantine(ctx context.Context, id int64) (*entity.FundQuarantine, error) {
	q, err := s.quarantineRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, fmt.Errorf("quarantine %d: %w", id, ErrNotFound)
	}
	return q, nil
}

func (s *quarantineService) ListByBudgetLine(ctx context.Context, budgetLineID int64) ([]*entity.FundQuarantine, error) {
	return s.quarantineRepo.ListByBudgetLine(ctx, budgetLineID)
}

func (s *quarantineService) UpdateQuarantine(ctx context.Context, id int64, input UpdateQuarantineInput, actor string) (*entity.FundQuarantine, error) {
	var updated *entity.FundQuarantine

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		q, err := s.quarantineRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if q == nil {
			return fmt.Errorf("quarantine %d: %w", id, ErrNotFound)
		}

		if input.AmountCents != nil && *input.AmountCents != q.QuarantinedCents {
			if q.Status != entity.QuarantineStatusActive {
				return ErrQuarantineNotActive
			}
			if *input.AmountCents < q.UsedCents {
				return fmt.Errorf("amount below used %d: %w", q.UsedCents, ErrDrawDownExceedsQuarantine)
			}

			// Re-run the capacity check only when the reserved amount changes;
			// metadata-only edits skip it
			available, err := s.availableCapacity(txCtx, q.BudgetLineID, q.ID)
			if err != nil {
				return err
			}
			if *input.AmountCents > available {
				return fmt.Errorf("requested %d, available %d: %w", *input.AmountCents, available, ErrInsufficientCapacity)
			}
			q.QuarantinedCents = *input.AmountCents
		}
		if input.Notes != nil {
			q.Notes = *input.Notes
		}

		if err := s.quarantineRepo.Update(txCtx, q); err != nil {
			return err
		}
		updated = q
		return s.auditRepo.Create(txCtx, &entity.AuditEntry{
			Entity:   "quarantine",
			EntityID: q.ID,
			Actor:    actor,
			Action:   "UPDATE",
			Detail:   fmt.Sprintf("quarantined %d cents", q.QuarantinedCents),
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *quarantineService) ReleaseQuarantine(ctx context.Context, id int64, actor string) error {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		q, err := s.quarantineRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if q == nil {
			return fmt.Errorf("quarantine %d: %w", id, ErrNotFound)
		}
		if q.Status != entity.QuarantineStatusActive {
			return ErrQuarantineNotActive
		}

		now := time.Now()
		q.Status = entity.QuarantineStatusReleased
		q.ReleasedAt = &now

		if err := s.quarantineRepo.Update(txCtx, q); err != nil {
			return err
		}
		return s.auditRepo.Create(txCtx, &entity.AuditEntry{
			Entity:     "quarantine",
			EntityID:   q.ID,
			Actor:      actor,
			Action:     "RELEASE",
			FromStatus: entity.QuarantineStatusActive,
			ToStatus:   entity.QuarantineStatusReleased,
		})
	})
	if err != nil {
		return err
	}

	s.emitter.Emit(ctx, event.New(event.TypeQuarantineReleased, id, nil))
	s.logger.Info("Quarantine released", "quarantine_id", id, "actor", actor)
	return nil
}

func (s *quarantineService) DrawDown(ctx context.Context, id int64, amountCents int64, actor string) (*entity.FundQuarantine, error) {
	if amountCents <= 0 {
		return nil, fmt.Errorf("draw-down must be positive: %w", ErrDrawDownExceedsQuarantine)
	}

	var q *entity.FundQuarantine
	var crossedThreshold bool

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		q, err = s.quarantineRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if q == nil {
			return fmt.Errorf("quarantine %d: %w", id, ErrNotFound)
		}
		if q.Status != entity.QuarantineStatusActive {
			return ErrQuarantineNotActive
		}
		if q.UsedCents+amountCents > q.QuarantinedCents {
			return fmt.Errorf("used %d + %d > %d: %w", q.UsedCents, amountCents, q.QuarantinedCents, ErrDrawDownExceedsQuarantine)
		}

		before := q.Utilisation()
		q.UsedCents += amountCents
		crossedThreshold = before < thresholdRatio && q.Utilisation() >= thresholdRatio

		if err := s.quarantineRepo.Update(txCtx, q); err != nil {
			return err
		}
		return s.auditRepo.Create(txCtx, &entity.AuditEntry{
			Entity:   "quarantine",
			EntityID: q.ID,
			Actor:    actor,
			Action:   "DRAW_DOWN",
			Detail:   fmt.Sprintf("drew %d cents, used %d of %d", amountCents, q.UsedCents, q.QuarantinedCents),
		})
	})
	if err != nil {
		return nil, err
	}

	if crossedThreshold {
		s.emitter.Emit(ctx, event.New(event.TypeQuarantineThreshold, q.ID, map[string]interface{}{
			"budget_line_id":    q.BudgetLineID,
			"used_cents":        q.UsedCents,
			"quarantined_cents": q.QuarantinedCents,
		}))
	}

	return q, nil
}

func (s *quarantineService) AutoCreateFromServiceAgreement(ctx context.Context, agreementID int64, actor string) ([]*entity.FundQuarantine, error) {
	agreement, err := s.agreementRepo.GetByID(ctx, agreementID)
	if err != nil {
		return nil, err
	}
	if agreement == nil {
		return nil, fmt.Errorf("service agreement %d: %w", agreementID, ErrNotFound)
	}
	if agreement.Status != entity.AgreementStatusActive {
		return nil, fmt.Errorf("agreement %d is %s: %w", agreementID, agreement.Status, ErrInvalidStatus)
	}

	var created []*entity.FundQuarantine
	for _, line := range agreement.RateLines {
		if line.BudgetLineID == nil {
			continue
		}

		q, err := s.CreateQuarantine(ctx, CreateQuarantineInput{
			BudgetLineID:       *line.BudgetLineID,
			AmountCents:        line.AgreedCents,
			ProviderID:         &agreement.ProviderID,
			ServiceAgreementID: &agreement.ID,
			SupportItemCode:    line.SupportItemCode,
			Notes:              fmt.Sprintf("auto-created from service agreement %d", agreement.ID),
		}, actor)
		if err != nil {
			// Lines without capacity are skipped, not fatal
			s.logger.Info("Skipped agreement rate line",
				"agreement_id", agreement.ID,
				"support_item", line.SupportItemCode,
				"reason", ErrorCode(err))
			continue
		}
		created = append(created, q)
	}

	s.logger.Info("Auto-created quarantines from agreement",
		"agreement_id", agreementID, "created", len(created), "lines", len(agreement.RateLines))
	return created, nil
}

// availableCapacity computes allocated - spent - sum of other ACTIVE
// reservations on the line. Must be called inside a transaction.
func (s *quarantineService) availableCapacity(ctx context.Context, budgetLineID, excludeID int64) (int64, error) {
	line, err := s.budgetRepo.GetByID(ctx, budgetLineID)
	if err != nil {
		return 0, err
	}
	if line == nil {
		return 0, fmt.Errorf("budget line %d: %w", budgetLineID, ErrNotFound)
	}

	reserved, err := s.quarantineRepo.SumActiveByBudgetLine(ctx, budgetLineID, excludeID)
	if err != nil {
		return 0, err
	}

	return line.AllocatedCents - line.SpentCents - reserved, nil
}
