package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
)

// ParticipantRepository implements port.ParticipantRepository
type ParticipantRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewParticipantRepository creates a new participant repository
func NewParticipantRepository(db *sql.DB, logger *zap.Logger) port.ParticipantRepository {
	return &ParticipantRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a participant by ID
func (r *ParticipantRepository) GetByID(ctx context.Context, id int64) (*entity.Participant, error) {
	query := `
		SELECT id, name, ndis_number, approval_enabled, approval_method, email, phone, created_at
		FROM participants
		WHERE id = ?
	`

	var p entity.Participant
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.NDISNumber,
		&p.ApprovalEnabled,
		&p.ApprovalMethod,
		&p.Email,
		&p.Phone,
		&p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get participant", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return &p, nil
}

// Verify interface compliance
var _ port.ParticipantRepository = (*ParticipantRepository)(nil)
