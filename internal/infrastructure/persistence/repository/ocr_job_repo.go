package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
)

// OCRJobRepository implements port.OCRJobRepository
type OCRJobRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewOCRJobRepository creates a new OCR job repository
func NewOCRJobRepository(db *sql.DB, logger *zap.Logger) port.OCRJobRepository {
	return &OCRJobRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new OCR job record
func (r *OCRJobRepository) Create(ctx context.Context, job *entity.OCRJob) error {
	query := `
		INSERT INTO ocr_jobs (id, document_path, status, text, pages, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	if _, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		job.ID,
		job.DocumentPath,
		job.Status,
		job.Text,
		job.Pages,
		job.Error,
	); err != nil {
		r.logger.Error("Failed to create OCR job", zap.String("id", job.ID), zap.Error(err))
		return fmt.Errorf("failed to create ocr job: %w", err)
	}
	return nil
}

// GetByID retrieves an OCR job by ID
func (r *OCRJobRepository) GetByID(ctx context.Context, id string) (*entity.OCRJob, error) {
	query := `
		SELECT id, document_path, status, text, pages, error, created_at, completed_at
		FROM ocr_jobs
		WHERE id = ?
	`

	var (
		job         entity.OCRJob
		completedAt sql.NullTime
	)
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&job.ID,
		&job.DocumentPath,
		&job.Status,
		&job.Text,
		&job.Pages,
		&job.Error,
		&job.CreatedAt,
		&completedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get OCR job", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get ocr job: %w", err)
	}

	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}
	return &job, nil
}

// Update persists the job's result fields
func (r *OCRJobRepository) Update(ctx context.Context, job *entity.OCRJob) error {
	query := `
		UPDATE ocr_jobs
		SET status = ?, text = ?, pages = ?, error = ?, completed_at = ?
		WHERE id = ?
	`

	if _, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		job.Status,
		job.Text,
		job.Pages,
		job.Error,
		job.CompletedAt,
		job.ID,
	); err != nil {
		r.logger.Error("Failed to update OCR job", zap.String("id", job.ID), zap.Error(err))
		return fmt.Errorf("failed to update ocr job: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.OCRJobRepository = (*OCRJobRepository)(nil)
