package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
)

// ClaimBatchRepository implements port.ClaimBatchRepository
type ClaimBatchRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewClaimBatchRepository creates a new claim batch repository
func NewClaimBatchRepository(db *sql.DB, logger *zap.Logger) port.ClaimBatchRepository {
	return &ClaimBatchRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new claim batch
func (r *ClaimBatchRepository) Create(ctx context.Context, batch *entity.ClaimBatch) error {
	query := `
		INSERT INTO claim_batches (reference, status, export_path, created_by)
		VALUES (?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		batch.Reference,
		batch.Status,
		batch.ExportPath,
		batch.CreatedBy,
	)
	if err != nil {
		r.logger.Error("Failed to create claim batch", zap.Error(err))
		return fmt.Errorf("failed to create claim batch: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	batch.ID = id
	return nil
}

// GetByID retrieves a claim batch by ID
func (r *ClaimBatchRepository) GetByID(ctx context.Context, id int64) (*entity.ClaimBatch, error) {
	query := `
		SELECT id, reference, status, export_path, created_by, created_at, submitted_at
		FROM claim_batches
		WHERE id = ?
	`

	var (
		batch       entity.ClaimBatch
		submittedAt sql.NullTime
	)
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&batch.ID,
		&batch.Reference,
		&batch.Status,
		&batch.ExportPath,
		&batch.CreatedBy,
		&batch.CreatedAt,
		&submittedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get claim batch", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get claim batch: %w", err)
	}

	if submittedAt.Valid {
		batch.SubmittedAt = &submittedAt.Time
	}
	return &batch, nil
}

// Update persists the batch's mutable fields
func (r *ClaimBatchRepository) Update(ctx context.Context, batch *entity.ClaimBatch) error {
	query := `
		UPDATE claim_batches
		SET status = ?, export_path = ?, submitted_at = ?
		WHERE id = ?
	`

	if _, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		batch.Status,
		batch.ExportPath,
		batch.SubmittedAt,
		batch.ID,
	); err != nil {
		r.logger.Error("Failed to update claim batch", zap.Int64("id", batch.ID), zap.Error(err))
		return fmt.Errorf("failed to update claim batch: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.ClaimBatchRepository = (*ClaimBatchRepository)(nil)
