package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/service"
	"go.uber.org/zap"
)

// SweepWorker periodically returns invoices with expired participant-approval
// tokens to the review queue.
type SweepWorker struct {
	invoices service.InvoiceService
	interval time.Duration
	logger   *zap.Logger

	mu        sync.RWMutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewSweepWorker creates a new approval sweep worker
func NewSweepWorker(invoices service.InvoiceService, interval time.Duration, logger *zap.Logger) *SweepWorker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &SweepWorker{
		invoices: invoices,
		interval: interval,
		logger:   logger,
	}
}

// Start begins the periodic sweep loop
func (w *SweepWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("sweep worker already running")
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.isRunning = true
	w.done = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("SweepWorker started", zap.Duration("interval", w.interval))

	go w.sweepLoop()
	return nil
}

// Stop gracefully terminates the worker
func (w *SweepWorker) Stop() error {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return nil
	}
	w.isRunning = false
	w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}
	<-w.done

	w.logger.Info("SweepWorker stopped")
	return nil
}

// Name returns the worker name for identification
func (w *SweepWorker) Name() string {
	return "SweepWorker"
}

func (w *SweepWorker) sweepLoop() {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			count, err := w.invoices.SkipExpiredApprovals(w.ctx)
			if err != nil {
				w.logger.Error("Approval sweep failed", zap.Error(err))
				continue
			}
			if count > 0 {
				w.logger.Info("Expired approvals returned to review", zap.Int("count", count))
			}
		}
	}
}
