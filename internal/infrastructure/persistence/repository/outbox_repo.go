package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
)

// OutboxRepository implements port.OutboxRepository
type OutboxRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOutboxRepository creates a new outbox repository
func NewOutboxRepository(db *sql.DB, logger *zap.Logger) port.OutboxRepository {
	return &OutboxRepository{
		db:     db,
		logger: logger,
	}
}

// Enqueue stages an event for relay
func (r *OutboxRepository) Enqueue(ctx context.Context, evt *entity.OutboxEvent) error {
	query := `
		INSERT INTO event_outbox (id, type, entity_id, payload)
		VALUES (?, ?, ?, ?)
	`

	if _, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		evt.ID,
		evt.Type,
		evt.EntityID,
		evt.Payload,
	); err != nil {
		r.logger.Error("Failed to enqueue outbox event", zap.String("id", evt.ID), zap.Error(err))
		return fmt.Errorf("failed to enqueue outbox event: %w", err)
	}
	return nil
}

// ListUnpublished retrieves the oldest staged events awaiting relay
func (r *OutboxRepository) ListUnpublished(ctx context.Context, limit int) ([]*entity.OutboxEvent, error) {
	query := `
		SELECT id, type, entity_id, payload, attempts, created_at, published_at
		FROM event_outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT ?
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, limit)
	if err != nil {
		r.logger.Error("Failed to list unpublished events", zap.Error(err))
		return nil, fmt.Errorf("failed to list unpublished events: %w", err)
	}
	defer rows.Close()

	var events []*entity.OutboxEvent
	for rows.Next() {
		var (
			evt         entity.OutboxEvent
			publishedAt sql.NullTime
		)
		if err := rows.Scan(
			&evt.ID,
			&evt.Type,
			&evt.EntityID,
			&evt.Payload,
			&evt.Attempts,
			&evt.CreatedAt,
			&publishedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan outbox event: %w", err)
		}
		if publishedAt.Valid {
			evt.PublishedAt = &publishedAt.Time
		}
		events = append(events, &evt)
	}
	return events, rows.Err()
}

// MarkPublished records successful relay of an event
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string) error {
	query := `UPDATE event_outbox SET published_at = CURRENT_TIMESTAMP WHERE id = ?`
	if _, err := getExecutor(ctx, r.db).ExecContext(ctx, query, id); err != nil {
		r.logger.Error("Failed to mark event published", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark event published: %w", err)
	}
	return nil
}

// MarkAttempt increments the delivery attempt counter
func (r *OutboxRepository) MarkAttempt(ctx context.Context, id string) error {
	query := `UPDATE event_outbox SET attempts = attempts + 1 WHERE id = ?`
	if _, err := getExecutor(ctx, r.db).ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark delivery attempt: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.OutboxRepository = (*OutboxRepository)(nil)
