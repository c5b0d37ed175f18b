package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
)

const claimColumns = `id, reference, invoice_id, participant_id, batch_id, claimed_cents,
	status, submitted_at, approved_cents, outcome_notes, decided_by, decided_at,
	created_by, created_at`

// ClaimRepository implements port.ClaimRepository
type ClaimRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *sql.DB, logger *zap.Logger) port.ClaimRepository {
	return &ClaimRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a claim together with its lines
func (r *ClaimRepository) Create(ctx context.Context, claim *entity.Claim) error {
	exec := getExecutor(ctx, r.db)

	query := `
		INSERT INTO claims (
			reference, invoice_id, participant_id, batch_id, claimed_cents, status, created_by
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	result, err := exec.ExecContext(ctx, query,
		claim.Reference,
		claim.InvoiceID,
		claim.ParticipantID,
		claim.BatchID,
		claim.ClaimedCents,
		claim.Status,
		claim.CreatedBy,
	)
	if err != nil {
		r.logger.Error("Failed to create claim", zap.Error(err))
		return fmt.Errorf("failed to create claim: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	claim.ID = id

	lineQuery := `
		INSERT INTO claim_lines (
			claim_id, support_item_code, quantity, unit_price_cents, total_cents
		) VALUES (?, ?, ?, ?, ?)
	`
	for i := range claim.Lines {
		lineResult, err := exec.ExecContext(ctx, lineQuery,
			claim.ID,
			claim.Lines[i].SupportItemCode,
			claim.Lines[i].Quantity,
			claim.Lines[i].UnitPriceCents,
			claim.Lines[i].TotalCents,
		)
		if err != nil {
			return fmt.Errorf("failed to insert claim line: %w", err)
		}
		if lineID, err := lineResult.LastInsertId(); err == nil {
			claim.Lines[i].ID = lineID
			claim.Lines[i].ClaimID = claim.ID
		}
	}
	return nil
}

// GetByID retrieves a claim with its lines
func (r *ClaimRepository) GetByID(ctx context.Context, id int64) (*entity.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE id = ?`

	claim, err := scanClaim(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get claim by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}

	claim.Lines, err = r.getLines(ctx, claim.ID)
	if err != nil {
		return nil, err
	}
	return claim, nil
}

// GetByInvoiceID retrieves the claim generated from an invoice
func (r *ClaimRepository) GetByInvoiceID(ctx context.Context, invoiceID int64) (*entity.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE invoice_id = ?`

	claim, err := scanClaim(getExecutor(ctx, r.db).QueryRowContext(ctx, query, invoiceID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get claim by invoice ID", zap.Int64("invoice_id", invoiceID), zap.Error(err))
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return claim, nil
}

// ListByBatchID retrieves all claims assigned to a batch
func (r *ClaimRepository) ListByBatchID(ctx context.Context, batchID int64) ([]*entity.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE batch_id = ? ORDER BY id`
	return r.list(ctx, query, batchID)
}

// ListByIDs retrieves the named claims; absent IDs are simply missing from the
// result
func (r *ClaimRepository) ListByIDs(ctx context.Context, ids []int64) ([]*entity.Claim, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := `SELECT ` + claimColumns + ` FROM claims WHERE id IN (` + placeholders + `) ORDER BY id`

	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return r.list(ctx, query, args...)
}

// AssignBatch attaches a claim to a batch
func (r *ClaimRepository) AssignBatch(ctx context.Context, claimID, batchID int64) error {
	query := `UPDATE claims SET batch_id = ? WHERE id = ?`
	if _, err := getExecutor(ctx, r.db).ExecContext(ctx, query, batchID, claimID); err != nil {
		r.logger.Error("Failed to assign claim to batch", zap.Int64("claim_id", claimID), zap.Error(err))
		return fmt.Errorf("failed to assign claim to batch: %w", err)
	}
	return nil
}

// UpdateStatus moves a claim to a new status
func (r *ClaimRepository) UpdateStatus(ctx context.Context, claimID int64, status string, submittedAt *time.Time) error {
	query := `UPDATE claims SET status = ?, submitted_at = COALESCE(?, submitted_at) WHERE id = ?`
	if _, err := getExecutor(ctx, r.db).ExecContext(ctx, query, status, submittedAt, claimID); err != nil {
		r.logger.Error("Failed to update claim status", zap.Int64("claim_id", claimID), zap.Error(err))
		return fmt.Errorf("failed to update claim status: %w", err)
	}
	return nil
}

func (r *ClaimRepository) list(ctx context.Context, query string, args ...interface{}) ([]*entity.Claim, error) {
	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list claims", zap.Error(err))
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	var claims []*entity.Claim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, claim)
	}
	return claims, rows.Err()
}

func (r *ClaimRepository) getLines(ctx context.Context, claimID int64) ([]entity.ClaimLine, error) {
	query := `
		SELECT id, claim_id, support_item_code, quantity, unit_price_cents, total_cents
		FROM claim_lines
		WHERE claim_id = ?
		ORDER BY id
	`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to get claim lines: %w", err)
	}
	defer rows.Close()

	var lines []entity.ClaimLine
	for rows.Next() {
		var line entity.ClaimLine
		if err := rows.Scan(
			&line.ID,
			&line.ClaimID,
			&line.SupportItemCode,
			&line.Quantity,
			&line.UnitPriceCents,
			&line.TotalCents,
		); err != nil {
			return nil, fmt.Errorf("failed to scan claim line: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func scanClaim(row rowScanner) (*entity.Claim, error) {
	var (
		claim         entity.Claim
		batchID       sql.NullInt64
		submittedAt   sql.NullTime
		approvedCents sql.NullInt64
		decidedAt     sql.NullTime
	)

	err := row.Scan(
		&claim.ID,
		&claim.Reference,
		&claim.InvoiceID,
		&claim.ParticipantID,
		&batchID,
		&claim.ClaimedCents,
		&claim.Status,
		&submittedAt,
		&approvedCents,
		&claim.OutcomeNotes,
		&claim.DecidedBy,
		&decidedAt,
		&claim.CreatedBy,
		&claim.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if batchID.Valid {
		claim.BatchID = &batchID.Int64
	}
	if submittedAt.Valid {
		claim.SubmittedAt = &submittedAt.Time
	}
	if approvedCents.Valid {
		claim.ApprovedCents = &approvedCents.Int64
	}
	if decidedAt.Valid {
		claim.DecidedAt = &decidedAt.Time
	}
	return &claim, nil
}

// Verify interface compliance
var _ port.ClaimRepository = (*ClaimRepository)(nil)
