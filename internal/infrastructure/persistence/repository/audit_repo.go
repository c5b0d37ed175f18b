package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
)

// AuditRepository implements port.AuditRepository
type AuditRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB, logger *zap.Logger) port.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends an audit entry
func (r *AuditRepository) Create(ctx context.Context, e *entity.AuditEntry) error {
	query := `
		INSERT INTO audit_log (entity, entity_id, actor, action, from_status, to_status, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		e.Entity,
		e.EntityID,
		e.Actor,
		e.Action,
		e.FromStatus,
		e.ToStatus,
		e.Detail,
	)
	if err != nil {
		r.logger.Error("Failed to create audit entry", zap.Error(err))
		return fmt.Errorf("failed to create audit entry: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

// Verify interface compliance
var _ port.AuditRepository = (*AuditRepository)(nil)
