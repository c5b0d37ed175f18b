package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/workflow"
)

const invoiceColumns = `id, participant_id, provider_id, budget_line_id, invoice_number,
	invoice_date, subtotal_cents, gst_cents, total_cents, status, source,
	sender_address, source_key, document_path, ocr_job_id, confidence,
	approval_token_hash, approval_token_expiry, participant_approval_status,
	approved_by, approved_at, rejected_by, rejected_at, rejection_reason,
	created_at, updated_at`

// InvoiceRepository implements port.InvoiceRepository
type InvoiceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sql.DB, logger *zap.Logger) port.InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new invoice record
func (r *InvoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		INSERT INTO invoices (
			participant_id, provider_id, budget_line_id, invoice_number, invoice_date,
			subtotal_cents, gst_cents, total_cents, status, source,
			sender_address, source_key, document_path, ocr_job_id, confidence,
			approval_token_hash, approval_token_expiry, participant_approval_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		invoice.ParticipantID,
		invoice.ProviderID,
		invoice.BudgetLineID,
		invoice.InvoiceNumber,
		invoice.InvoiceDate,
		invoice.SubtotalCents,
		invoice.GSTCents,
		invoice.TotalCents,
		invoice.Status.String(),
		invoice.Source,
		invoice.SenderAddress,
		nullString(invoice.SourceKey),
		invoice.DocumentPath,
		invoice.OCRJobID,
		invoice.Confidence,
		invoice.ApprovalTokenHash,
		invoice.ApprovalTokenExpiry,
		invoice.ParticipantApprovalStatus,
	)
	if err != nil {
		r.logger.Error("Failed to create invoice", zap.Error(err))
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	invoice.ID = id
	return nil
}

// GetByID retrieves an invoice by ID
func (r *InvoiceRepository) GetByID(ctx context.Context, id int64) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ?`

	invoice, err := scanInvoice(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get invoice by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return invoice, nil
}

// GetBySourceKey retrieves the invoice created from an inbound artifact
func (r *InvoiceRepository) GetBySourceKey(ctx context.Context, sourceKey string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE source_key = ?`

	invoice, err := scanInvoice(getExecutor(ctx, r.db).QueryRowContext(ctx, query, sourceKey))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get invoice by source key", zap.String("source_key", sourceKey), zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return invoice, nil
}

// GetByOCRJobID retrieves the invoice tracking a recognition job
func (r *InvoiceRepository) GetByOCRJobID(ctx context.Context, jobID string) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE ocr_job_id = ?`

	invoice, err := scanInvoice(getExecutor(ctx, r.db).QueryRowContext(ctx, query, jobID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get invoice by OCR job", zap.String("job_id", jobID), zap.Error(err))
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return invoice, nil
}

// List retrieves invoices, optionally filtered by status
func (r *InvoiceRepository) List(ctx context.Context, status workflow.State, limit, offset int) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status.String())
	}
	query += ` ORDER BY id DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list invoices", zap.Error(err))
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*entity.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

// Update persists all mutable invoice fields
func (r *InvoiceRepository) Update(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		UPDATE invoices SET
			participant_id = ?, provider_id = ?, budget_line_id = ?,
			invoice_number = ?, invoice_date = ?,
			subtotal_cents = ?, gst_cents = ?, total_cents = ?,
			status = ?, confidence = ?,
			approval_token_hash = ?, approval_token_expiry = ?,
			participant_approval_status = ?,
			approved_by = ?, approved_at = ?,
			rejected_by = ?, rejected_at = ?, rejection_reason = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	_, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		invoice.ParticipantID,
		invoice.ProviderID,
		invoice.BudgetLineID,
		invoice.InvoiceNumber,
		invoice.InvoiceDate,
		invoice.SubtotalCents,
		invoice.GSTCents,
		invoice.TotalCents,
		invoice.Status.String(),
		invoice.Confidence,
		invoice.ApprovalTokenHash,
		invoice.ApprovalTokenExpiry,
		invoice.ParticipantApprovalStatus,
		invoice.ApprovedBy,
		invoice.ApprovedAt,
		invoice.RejectedBy,
		invoice.RejectedAt,
		invoice.RejectionReason,
		invoice.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update invoice", zap.Int64("id", invoice.ID), zap.Error(err))
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	return nil
}

// ReplaceLineItems swaps the invoice's line items for the given set
func (r *InvoiceRepository) ReplaceLineItems(ctx context.Context, invoiceID int64, items []entity.InvoiceLineItem) error {
	exec := getExecutor(ctx, r.db)

	if _, err := exec.ExecContext(ctx, `DELETE FROM invoice_line_items WHERE invoice_id = ?`, invoiceID); err != nil {
		return fmt.Errorf("failed to clear line items: %w", err)
	}

	query := `
		INSERT INTO invoice_line_items (
			invoice_id, support_item_code, description, quantity, unit_price_cents, total_cents
		) VALUES (?, ?, ?, ?, ?, ?)
	`
	for i := range items {
		result, err := exec.ExecContext(ctx, query,
			invoiceID,
			items[i].SupportItemCode,
			items[i].Description,
			items[i].Quantity,
			items[i].UnitPriceCents,
			items[i].TotalCents,
		)
		if err != nil {
			return fmt.Errorf("failed to insert line item: %w", err)
		}
		if id, err := result.LastInsertId(); err == nil {
			items[i].ID = id
			items[i].InvoiceID = invoiceID
		}
	}
	return nil
}

// GetLineItems retrieves the invoice's line items
func (r *InvoiceRepository) GetLineItems(ctx context.Context, invoiceID int64) ([]entity.InvoiceLineItem, error) {
	query := `
		SELECT id, invoice_id, support_item_code, description, quantity, unit_price_cents, total_cents
		FROM invoice_line_items
		WHERE invoice_id = ?
		ORDER BY id
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get line items: %w", err)
	}
	defer rows.Close()

	var items []entity.InvoiceLineItem
	for rows.Next() {
		var item entity.InvoiceLineItem
		if err := rows.Scan(
			&item.ID,
			&item.InvoiceID,
			&item.SupportItemCode,
			&item.Description,
			&item.Quantity,
			&item.UnitPriceCents,
			&item.TotalCents,
		); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListExpiredParticipantApprovals retrieves invoices still awaiting participant
// approval whose token expiry has passed
func (r *InvoiceRepository) ListExpiredParticipantApprovals(ctx context.Context, now time.Time) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + `
		FROM invoices
		WHERE status = ? AND approval_token_expiry IS NOT NULL AND approval_token_expiry < ?
		ORDER BY id`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query,
		workflow.StatePendingParticipantApproval.String(), now)
	if err != nil {
		r.logger.Error("Failed to list expired participant approvals", zap.Error(err))
		return nil, fmt.Errorf("failed to list expired approvals: %w", err)
	}
	defer rows.Close()

	var invoices []*entity.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, invoice)
	}
	return invoices, rows.Err()
}

// ClearApprovalToken clears the stored token hash only if it still matches.
// The conditional update makes concurrent responders race safely; exactly one
// caller sees true.
func (r *InvoiceRepository) ClearApprovalToken(ctx context.Context, invoiceID int64, hash string) (bool, error) {
	query := `
		UPDATE invoices
		SET approval_token_hash = '', approval_token_expiry = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND approval_token_hash = ?
	`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query, invoiceID, hash)
	if err != nil {
		r.logger.Error("Failed to clear approval token", zap.Int64("invoice_id", invoiceID), zap.Error(err))
		return false, fmt.Errorf("failed to clear approval token: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected == 1, nil
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanInvoice(row rowScanner) (*entity.Invoice, error) {
	var (
		invoice      entity.Invoice
		status       string
		budgetLineID sql.NullInt64
		invoiceDate  sql.NullTime
		confidence   sql.NullFloat64
		tokenExpiry  sql.NullTime
		approvedAt   sql.NullTime
		rejectedAt   sql.NullTime
		sourceKey    sql.NullString
	)

	err := row.Scan(
		&invoice.ID,
		&invoice.ParticipantID,
		&invoice.ProviderID,
		&budgetLineID,
		&invoice.InvoiceNumber,
		&invoiceDate,
		&invoice.SubtotalCents,
		&invoice.GSTCents,
		&invoice.TotalCents,
		&status,
		&invoice.Source,
		&invoice.SenderAddress,
		&sourceKey,
		&invoice.DocumentPath,
		&invoice.OCRJobID,
		&confidence,
		&invoice.ApprovalTokenHash,
		&tokenExpiry,
		&invoice.ParticipantApprovalStatus,
		&invoice.ApprovedBy,
		&approvedAt,
		&invoice.RejectedBy,
		&rejectedAt,
		&invoice.RejectionReason,
		&invoice.CreatedAt,
		&invoice.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	invoice.Status = workflow.State(status)
	if budgetLineID.Valid {
		invoice.BudgetLineID = &budgetLineID.Int64
	}
	if invoiceDate.Valid {
		invoice.InvoiceDate = &invoiceDate.Time
	}
	if confidence.Valid {
		invoice.Confidence = &confidence.Float64
	}
	if tokenExpiry.Valid {
		invoice.ApprovalTokenExpiry = &tokenExpiry.Time
	}
	if approvedAt.Valid {
		invoice.ApprovedAt = &approvedAt.Time
	}
	if rejectedAt.Valid {
		invoice.RejectedAt = &rejectedAt.Time
	}
	invoice.SourceKey = sourceKey.String
	return &invoice, nil
}

// nullString maps the empty string to NULL so unique indexes ignore it
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// Verify interface compliance
var _ port.InvoiceRepository = (*InvoiceRepository)(nil)
