package events

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/event"
)

// OutboxEmitter stages events in the database outbox. When called inside a
// transaction the staging commits or rolls back with the core write, so no
// event can describe a change that never happened. Failures are logged and
// swallowed; emission never blocks the calling operation.
type OutboxEmitter struct {
	outbox port.OutboxRepository
	logger *zap.Logger
}

// NewOutboxEmitter creates a new OutboxEmitter
func NewOutboxEmitter(outbox port.OutboxRepository, logger *zap.Logger) *OutboxEmitter {
	return &OutboxEmitter{
		outbox: outbox,
		logger: logger,
	}
}

// Emit stages an event for asynchronous relay
func (e *OutboxEmitter) Emit(ctx context.Context, evt *event.Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		e.logger.Error("Failed to marshal event",
			zap.String("type", string(evt.Type)),
			zap.Error(err))
		return
	}

	row := &entity.OutboxEvent{
		ID:       evt.ID,
		Type:     string(evt.Type),
		EntityID: evt.EntityID,
		Payload:  string(payload),
	}
	if err := e.outbox.Enqueue(ctx, row); err != nil {
		e.logger.Error("Failed to enqueue event",
			zap.String("id", evt.ID),
			zap.String("type", string(evt.Type)),
			zap.Error(err))
	}
}

// Verify interface compliance
var _ port.EventEmitter = (*OutboxEmitter)(nil)
