package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/go-fitz"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
)

// Engine runs text recognition on stored PDF documents using mupdf. Jobs run
// in the background and persist their result, so completion survives a
// restart and can be polled any number of times.
type Engine struct {
	jobs       port.OCRJobRepository
	logger     *zap.Logger
	onComplete func(jobID string)

	mu      sync.Mutex
	wg      sync.WaitGroup
	closed  bool
	workers chan struct{}
}

// NewEngine creates a new OCR engine with at most maxWorkers concurrent jobs
func NewEngine(jobs port.OCRJobRepository, maxWorkers int, logger *zap.Logger) *Engine {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Engine{
		jobs:    jobs,
		logger:  logger,
		workers: make(chan struct{}, maxWorkers),
	}
}

// OnComplete registers a hook invoked after a job reaches a terminal status.
// Must be called before the first StartJob.
func (e *Engine) OnComplete(fn func(jobID string)) {
	e.onComplete = fn
}

// StartJob records a RUNNING job and schedules recognition in the background
func (e *Engine) StartJob(ctx context.Context, documentPath string) (string, error) {
	if _, err := os.Stat(documentPath); err != nil {
		return "", fmt.Errorf("document not readable: %w", err)
	}

	job := &entity.OCRJob{
		ID:           uuid.NewString(),
		DocumentPath: documentPath,
		Status:       entity.OCRJobRunning,
		CreatedAt:    time.Now().UTC(),
	}
	if err := e.jobs.Create(ctx, job); err != nil {
		return "", fmt.Errorf("create ocr job: %w", err)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return "", fmt.Errorf("ocr engine is shut down")
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go e.run(job)

	e.logger.Info("OCR job started",
		zap.String("job_id", job.ID),
		zap.String("document", documentPath))
	return job.ID, nil
}

// JobResult returns the recognized text for a finished job. A job still
// running yields ErrJobPending; a failed one yields ErrJobFailed.
func (e *Engine) JobResult(ctx context.Context, jobID string) (*port.OCRResult, error) {
	job, err := e.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("ocr job %s not found", jobID)
	}

	switch job.Status {
	case entity.OCRJobRunning:
		return nil, port.ErrJobPending
	case entity.OCRJobFailed:
		return nil, fmt.Errorf("%s: %w", job.Error, port.ErrJobFailed)
	case entity.OCRJobSucceeded:
		return &port.OCRResult{Text: job.Text, Pages: job.Pages}, nil
	default:
		return nil, fmt.Errorf("ocr job %s has unknown status %s", jobID, job.Status)
	}
}

// Close waits for in-flight jobs to finish
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.wg.Wait()
}

func (e *Engine) run(job *entity.OCRJob) {
	defer e.wg.Done()
	e.workers <- struct{}{}
	defer func() { <-e.workers }()

	text, pages, err := recognize(job.DocumentPath)

	now := time.Now().UTC()
	job.CompletedAt = &now
	if err != nil {
		job.Status = entity.OCRJobFailed
		job.Error = err.Error()
		e.logger.Error("OCR job failed",
			zap.String("job_id", job.ID),
			zap.Error(err))
	} else {
		job.Status = entity.OCRJobSucceeded
		job.Text = text
		job.Pages = pages
		e.logger.Info("OCR job finished",
			zap.String("job_id", job.ID),
			zap.Int("pages", pages),
			zap.Int("text_length", len(text)))
	}

	// Background goroutine; persistence uses its own context
	if uerr := e.jobs.Update(context.Background(), job); uerr != nil {
		e.logger.Error("Failed to persist OCR job result",
			zap.String("job_id", job.ID),
			zap.Error(uerr))
		return
	}

	if e.onComplete != nil {
		e.onComplete(job.ID)
	}
}

// recognize extracts text from every page of a PDF
func recognize(path string) (string, int, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", 0, fmt.Errorf("open document: %w", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return "", 0, fmt.Errorf("document has no pages")
	}

	var sb strings.Builder
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		pageText, err := doc.Text(pageNum)
		if err != nil {
			return "", 0, fmt.Errorf("read page %d: %w", pageNum, err)
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", 0, fmt.Errorf("document contains no extractable text")
	}
	return text, pageCount, nil
}
