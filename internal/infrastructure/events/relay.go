package events

import (
	"context"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
)

const (
	relayBatchSize   = 100
	relayMaxAttempts = 10
)

// Relay drains the event outbox to NATS. Delivery is at-least-once; consumers
// dedupe on the event ID. Events that keep failing past the attempt cap are
// left in place and logged rather than dropped.
type Relay struct {
	outbox        port.OutboxRepository
	conn          *nats.Conn
	subjectPrefix string
	interval      time.Duration
	logger        *zap.Logger
}

// NewRelay creates a new outbox relay publishing under subjectPrefix
func NewRelay(outbox port.OutboxRepository, conn *nats.Conn, subjectPrefix string, interval time.Duration, logger *zap.Logger) *Relay {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Relay{
		outbox:        outbox,
		conn:          conn,
		subjectPrefix: subjectPrefix,
		interval:      interval,
		logger:        logger,
	}
}

// Run drains the outbox until the context is cancelled
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("Outbox relay started",
		zap.String("subject_prefix", r.subjectPrefix),
		zap.Duration("interval", r.interval))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Outbox relay stopped")
			return
		case <-ticker.C:
			r.drain(ctx)
		}
	}
}

func (r *Relay) drain(ctx context.Context) {
	pending, err := r.outbox.ListUnpublished(ctx, relayBatchSize)
	if err != nil {
		r.logger.Error("Failed to read outbox", zap.Error(err))
		return
	}

	for _, evt := range pending {
		if evt.Attempts >= relayMaxAttempts {
			r.logger.Warn("Event exceeded delivery attempts, leaving in outbox",
				zap.String("id", evt.ID),
				zap.String("type", evt.Type),
				zap.Int("attempts", evt.Attempts))
			continue
		}

		if err := r.outbox.MarkAttempt(ctx, evt.ID); err != nil {
			r.logger.Error("Failed to record delivery attempt", zap.String("id", evt.ID), zap.Error(err))
			continue
		}

		subject := r.subjectPrefix + "." + evt.Type
		if err := r.conn.Publish(subject, []byte(evt.Payload)); err != nil {
			r.logger.Error("Failed to publish event",
				zap.String("id", evt.ID),
				zap.String("subject", subject),
				zap.Error(err))
			continue
		}

		if err := r.outbox.MarkPublished(ctx, evt.ID); err != nil {
			// Publish succeeded but the marker failed; the event will be
			// published again, which at-least-once delivery allows
			r.logger.Error("Failed to mark event published", zap.String("id", evt.ID), zap.Error(err))
		}
	}
}
