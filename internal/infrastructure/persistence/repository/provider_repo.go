package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
)

// ProviderRepository implements port.ProviderRepository
type ProviderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProviderRepository creates a new provider repository
func NewProviderRepository(db *sql.DB, logger *zap.Logger) port.ProviderRepository {
	return &ProviderRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a provider by ID
func (r *ProviderRepository) GetByID(ctx context.Context, id int64) (*entity.Provider, error) {
	query := `
		SELECT id, name, abn, email, created_at
		FROM providers
		WHERE id = ?
	`

	var p entity.Provider
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&p.ID,
		&p.Name,
		&p.ABN,
		&p.Email,
		&p.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get provider", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get provider: %w", err)
	}
	return &p, nil
}

// Verify interface compliance
var _ port.ProviderRepository = (*ProviderRepository)(nil)
