package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
)

// ServiceAgreementRepository implements port.ServiceAgreementRepository
type ServiceAgreementRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewServiceAgreementRepository creates a new service agreement repository
func NewServiceAgreementRepository(db *sql.DB, logger *zap.Logger) port.ServiceAgreementRepository {
	return &ServiceAgreementRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a service agreement with its rate lines
func (r *ServiceAgreementRepository) GetByID(ctx context.Context, id int64) (*entity.ServiceAgreement, error) {
	query := `
		SELECT id, participant_id, provider_id, status, created_at
		FROM service_agreements
		WHERE id = ?
	`

	var agreement entity.ServiceAgreement
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&agreement.ID,
		&agreement.ParticipantID,
		&agreement.ProviderID,
		&agreement.Status,
		&agreement.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get service agreement", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get service agreement: %w", err)
	}

	agreement.RateLines, err = r.getRateLines(ctx, id)
	if err != nil {
		return nil, err
	}
	return &agreement, nil
}

func (r *ServiceAgreementRepository) getRateLines(ctx context.Context, agreementID int64) ([]entity.AgreementRateLine, error) {
	query := `
		SELECT id, agreement_id, support_item_code, budget_line_id, agreed_cents
		FROM agreement_rate_lines
		WHERE agreement_id = ?
		ORDER BY id
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, agreementID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rate lines: %w", err)
	}
	defer rows.Close()

	var lines []entity.AgreementRateLine
	for rows.Next() {
		var (
			line         entity.AgreementRateLine
			budgetLineID sql.NullInt64
		)
		if err := rows.Scan(
			&line.ID,
			&line.AgreementID,
			&line.SupportItemCode,
			&budgetLineID,
			&line.AgreedCents,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rate line: %w", err)
		}
		if budgetLineID.Valid {
			line.BudgetLineID = &budgetLineID.Int64
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// Verify interface compliance
var _ port.ServiceAgreementRepository = (*ServiceAgreementRepository)(nil)
