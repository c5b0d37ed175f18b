package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
)

const quarantineColumns = `id, budget_line_id, provider_id, service_agreement_id,
	support_item_code, quarantined_cents, used_cents, status, notes,
	created_by, created_at, released_at, expires_at`

// QuarantineRepository implements port.QuarantineRepository
type QuarantineRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewQuarantineRepository creates a new quarantine repository
func NewQuarantineRepository(db *sql.DB, logger *zap.Logger) port.QuarantineRepository {
	return &QuarantineRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new fund quarantine
func (r *QuarantineRepository) Create(ctx context.Context, q *entity.FundQuarantine) error {
	query := `
		INSERT INTO fund_quarantines (
			budget_line_id, provider_id, service_agreement_id, support_item_code,
			quarantined_cents, used_cents, status, notes, created_by, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		q.BudgetLineID,
		q.ProviderID,
		q.ServiceAgreementID,
		q.SupportItemCode,
		q.QuarantinedCents,
		q.UsedCents,
		q.Status,
		q.Notes,
		q.CreatedBy,
		q.ExpiresAt,
	)
	if err != nil {
		r.logger.Error("Failed to create quarantine", zap.Error(err))
		return fmt.Errorf("failed to create quarantine: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	q.ID = id
	return nil
}

// GetByID retrieves a quarantine by ID
func (r *QuarantineRepository) GetByID(ctx context.Context, id int64) (*entity.FundQuarantine, error) {
	query := `SELECT ` + quarantineColumns + ` FROM fund_quarantines WHERE id = ?`

	q, err := scanQuarantine(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get quarantine", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get quarantine: %w", err)
	}
	return q, nil
}

// ListByBudgetLine retrieves all quarantines on a budget line
func (r *QuarantineRepository) ListByBudgetLine(ctx context.Context, budgetLineID int64) ([]*entity.FundQuarantine, error) {
	query := `SELECT ` + quarantineColumns + ` FROM fund_quarantines WHERE budget_line_id = ? ORDER BY id`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, budgetLineID)
	if err != nil {
		r.logger.Error("Failed to list quarantines", zap.Int64("budget_line_id", budgetLineID), zap.Error(err))
		return nil, fmt.Errorf("failed to list quarantines: %w", err)
	}
	defer rows.Close()

	var quarantines []*entity.FundQuarantine
	for rows.Next() {
		q, err := scanQuarantine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quarantine: %w", err)
		}
		quarantines = append(quarantines, q)
	}
	return quarantines, rows.Err()
}

// Update persists the quarantine's mutable fields
func (r *QuarantineRepository) Update(ctx context.Context, q *entity.FundQuarantine) error {
	query := `
		UPDATE fund_quarantines SET
			provider_id = ?, service_agreement_id = ?, support_item_code = ?,
			quarantined_cents = ?, used_cents = ?, status = ?, notes = ?,
			released_at = ?, expires_at = ?
		WHERE id = ?
	`

	if _, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		q.ProviderID,
		q.ServiceAgreementID,
		q.SupportItemCode,
		q.QuarantinedCents,
		q.UsedCents,
		q.Status,
		q.Notes,
		q.ReleasedAt,
		q.ExpiresAt,
		q.ID,
	); err != nil {
		r.logger.Error("Failed to update quarantine", zap.Int64("id", q.ID), zap.Error(err))
		return fmt.Errorf("failed to update quarantine: %w", err)
	}
	return nil
}

// SumActiveByBudgetLine totals the reserved cents of ACTIVE quarantines on a
// budget line, excluding excludeID (0 excludes nothing)
func (r *QuarantineRepository) SumActiveByBudgetLine(ctx context.Context, budgetLineID, excludeID int64) (int64, error) {
	query := `
		SELECT COALESCE(SUM(quarantined_cents), 0)
		FROM fund_quarantines
		WHERE budget_line_id = ? AND status = ? AND id != ?
	`

	var total int64
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query,
		budgetLineID, entity.QuarantineStatusActive, excludeID).Scan(&total)
	if err != nil {
		r.logger.Error("Failed to sum active quarantines", zap.Int64("budget_line_id", budgetLineID), zap.Error(err))
		return 0, fmt.Errorf("failed to sum active quarantines: %w", err)
	}
	return total, nil
}

func scanQuarantine(row rowScanner) (*entity.FundQuarantine, error) {
	var (
		q           entity.FundQuarantine
		providerID  sql.NullInt64
		agreementID sql.NullInt64
		releasedAt  sql.NullTime
		expiresAt   sql.NullTime
	)

	err := row.Scan(
		&q.ID,
		&q.BudgetLineID,
		&providerID,
		&agreementID,
		&q.SupportItemCode,
		&q.QuarantinedCents,
		&q.UsedCents,
		&q.Status,
		&q.Notes,
		&q.CreatedBy,
		&q.CreatedAt,
		&releasedAt,
		&expiresAt,
	)
	if err != nil {
		return nil, err
	}

	if providerID.Valid {
		q.ProviderID = &providerID.Int64
	}
	if agreementID.Valid {
		q.ServiceAgreementID = &agreementID.Int64
	}
	if releasedAt.Valid {
		q.ReleasedAt = &releasedAt.Time
	}
	if expiresAt.Valid {
		q.ExpiresAt = &expiresAt.Time
	}
	return &q, nil
}

// Verify interface compliance
var _ port.QuarantineRepository = (*QuarantineRepository)(nil)
