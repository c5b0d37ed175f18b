package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
	"github.com/SpudMar/Lotus-PM-sub001/internal/application/service"
	"go.uber.org/zap"
)

const extractionQueueSize = 256

// ExtractionWorker turns completed recognition jobs into extracted invoices.
// The OCR engine pushes finished job IDs through Enqueue; the worker looks up
// the owning invoice and runs field extraction on it.
type ExtractionWorker struct {
	invoiceRepo port.InvoiceRepository
	intake      service.IntakeService
	logger      *zap.Logger

	jobs chan string

	mu        sync.RWMutex
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewExtractionWorker creates a new extraction worker
func NewExtractionWorker(
	invoiceRepo port.InvoiceRepository,
	intake service.IntakeService,
	logger *zap.Logger,
) *ExtractionWorker {
	return &ExtractionWorker{
		invoiceRepo: invoiceRepo,
		intake:      intake,
		logger:      logger,
		jobs:        make(chan string, extractionQueueSize),
	}
}

// Enqueue hands a finished recognition job to the worker. It never blocks:
// if the queue is full the job is dropped and left for the completion
// callback endpoint to pick up.
func (w *ExtractionWorker) Enqueue(jobID string) {
	select {
	case w.jobs <- jobID:
	default:
		w.logger.Warn("Extraction queue full, dropping job notification",
			zap.String("job_id", jobID))
	}
}

// Start begins consuming finished recognition jobs
func (w *ExtractionWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.isRunning {
		w.mu.Unlock()
		return fmt.Errorf("extraction worker already running")
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.isRunning = true
	w.done = make(chan struct{})
	w.mu.Unlock()

	w.logger.Info("ExtractionWorker started", zap.Int("queue_size", extractionQueueSize))

	go w.consumeLoop()
	return nil
}

// Stop gracefully terminates the worker
func (w *ExtractionWorker) Stop() error {
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

	w.logger.Info("ExtractionWorker stopped")
	return nil
}

// Name returns the worker name for identification
func (w *ExtractionWorker) Name() string {
	return "ExtractionWorker"
}

func (w *ExtractionWorker) consumeLoop() {
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			return
		case jobID := <-w.jobs:
			if err := w.process(w.ctx, jobID); err != nil {
				w.logger.Error("Failed to complete extraction",
					zap.String("job_id", jobID),
					zap.Error(err))
			}
		}
	}
}

func (w *ExtractionWorker) process(ctx context.Context, jobID string) error {
	invoice, err := w.invoiceRepo.GetByOCRJobID(ctx, jobID)
	if err != nil {
		return err
	}
	if invoice == nil {
		w.logger.Warn("No invoice for recognition job", zap.String("job_id", jobID))
		return nil
	}

	outcome, err := w.intake.CompleteExtraction(ctx, jobID, invoice.ID)
	switch {
	case errors.Is(err, service.ErrInvalidStatus):
		// A concurrent callback already finished this invoice
		w.logger.Info("Invoice already extracted",
			zap.Int64("invoice_id", invoice.ID),
			zap.String("job_id", jobID))
		return nil
	case errors.Is(err, port.ErrJobPending):
		// The engine persists results before signalling, so this means the
		// notification raced a crash recovery. The callback endpoint covers it.
		w.logger.Warn("Recognition job still pending", zap.String("job_id", jobID))
		return nil
	case err != nil:
		return err
	}

	w.logger.Info("Invoice extracted",
		zap.Int64("invoice_id", invoice.ID),
		zap.String("job_id", jobID),
		zap.Float64("confidence", outcome.Confidence))
	return nil
}
