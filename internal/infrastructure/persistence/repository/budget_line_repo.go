package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
)

// BudgetLineRepository implements port.BudgetLineRepository
type BudgetLineRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewBudgetLineRepository creates a new budget line repository
func NewBudgetLineRepository(db *sql.DB, logger *zap.Logger) port.BudgetLineRepository {
	return &BudgetLineRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a budget line by ID
func (r *BudgetLineRepository) GetByID(ctx context.Context, id int64) (*entity.BudgetLine, error) {
	query := `
		SELECT id, plan_id, participant_id, category, allocated_cents, spent_cents
		FROM budget_lines
		WHERE id = ?
	`

	var line entity.BudgetLine
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&line.ID,
		&line.PlanID,
		&line.ParticipantID,
		&line.Category,
		&line.AllocatedCents,
		&line.SpentCents,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get budget line", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get budget line: %w", err)
	}
	return &line, nil
}

// Verify interface compliance
var _ port.BudgetLineRepository = (*BudgetLineRepository)(nil)
