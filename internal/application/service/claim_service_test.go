package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/event"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/workflow"
)

type claimFixture struct {
	service     ClaimService
	invoiceRepo *fakeInvoiceRepo
	claimRepo   *fakeClaimRepo
	batchRepo   *fakeBatchRepo
	auditRepo   *fakeAuditRepo
	emitter     *fakeEmitter
	exporter    *fakeExporter
}

func newClaimFixture() *claimFixture {
	f := &claimFixture{
		invoiceRepo: &fakeInvoiceRepo{},
		claimRepo:   &fakeClaimRepo{},
		batchRepo:   &fakeBatchRepo{},
		auditRepo:   &fakeAuditRepo{},
		emitter:     &fakeEmitter{},
		exporter:    &fakeExporter{},
	}
	f.service = NewClaimService(
		f.claimRepo,
		f.batchRepo,
		f.invoiceRepo,
		f.auditRepo,
		&fakeTxManager{},
		f.emitter,
		f.exporter,
		nopLogger{},
	)
	return f
}

func approvedInvoice(id int64) *entity.Invoice {
	return &entity.Invoice{
		ID:            id,
		ParticipantID: 3,
		ProviderID:    5,
		InvoiceNumber: "INV-20341",
		TotalCents:    28350,
		Status:        workflow.StateApproved,
	}
}

func TestCreateClaimFromInvoice(t *testing.T) {
	f := newClaimFixture()

	var updated *entity.Invoice
	f.invoiceRepo.GetByIDFn = func(ctx context.Context, id int64) (*entity.Invoice, error) {
		return approvedInvoice(id), nil
	}
	f.invoiceRepo.GetLineItemsFn = func(ctx context.Context, invoiceID int64) ([]entity.InvoiceLineItem, error) {
		return []entity.InvoiceLineItem{
			{SupportItemCode: "01_011_0107_1_1", Quantity: 2, UnitPriceCents: 6500, TotalCents: 13000},
			{SupportItemCode: "01_013_0107_1_1", Quantity: 1, UnitPriceCents: 15350, TotalCents: 15350},
		}, nil
	}
	f.invoiceRepo.UpdateFn = func(ctx context.Context, invoice *entity.Invoice) error {
		updated = invoice
		return nil
	}
	f.claimRepo.CreateFn = func(ctx context.Context, claim *entity.Claim) error {
		claim.ID = 11
		return nil
	}

	claim, err := f.service.CreateClaimFromInvoice(context.Background(), 7, "erin")
	require.NoError(t, err)

	assert.Equal(t, int64(7), claim.InvoiceID)
	assert.Equal(t, int64(3), claim.ParticipantID)
	assert.Equal(t, int64(28350), claim.ClaimedCents)
	assert.Equal(t, entity.ClaimStatusPending, claim.Status)
	assert.True(t, strings.HasPrefix(claim.Reference, "CLM-"))
	require.Len(t, claim.Lines, 2)
	assert.Equal(t, claim.ClaimedCents, claim.LineTotalCents())

	require.NotNil(t, updated)
	assert.Equal(t, workflow.StateClaimed, updated.Status)

	require.Len(t, f.auditRepo.Entries, 1)
	assert.Equal(t, "APPROVED", f.auditRepo.Entries[0].FromStatus)
	assert.Equal(t, "CLAIMED", f.auditRepo.Entries[0].ToStatus)

	assert.Equal(t, []event.Type{event.TypeClaimCreated, event.TypeInvoiceClaimed}, f.emitter.Types())
}

func TestCreateClaimCoveringLine(t *testing.T) {
	// Extracted items that disagree with the invoice total collapse into a
	// single covering line so the claim still adds up.
	f := newClaimFixture()
	f.invoiceRepo.GetByIDFn = func(ctx context.Context, id int64) (*entity.Invoice, error) {
		return approvedInvoice(id), nil
	}
	f.invoiceRepo.GetLineItemsFn = func(ctx context.Context, invoiceID int64) ([]entity.InvoiceLineItem, error) {
		return []entity.InvoiceLineItem{
			{SupportItemCode: "01_011_0107_1_1", Quantity: 1, UnitPriceCents: 9999, TotalCents: 9999},
		}, nil
	}

	claim, err := f.service.CreateClaimFromInvoice(context.Background(), 7, "erin")
	require.NoError(t, err)

	require.Len(t, claim.Lines, 1)
	assert.Equal(t, int64(28350), claim.Lines[0].TotalCents)
	assert.Equal(t, float64(1), claim.Lines[0].Quantity)
}

func TestCreateClaimFromInvoiceGuards(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *claimFixture)
		wantErr error
	}{
		{
			name:    "invoice missing",
			setup:   func(f *claimFixture) {},
			wantErr: ErrNotFound,
		},
		{
			name: "invoice not approved",
			setup: func(f *claimFixture) {
				f.invoiceRepo.GetByIDFn = func(ctx context.Context, id int64) (*entity.Invoice, error) {
					inv := approvedInvoice(id)
					inv.Status = workflow.StatePendingReview
					return inv, nil
				}
			},
			wantErr: ErrInvoiceNotApproved,
		},
		{
			name: "already claimed",
			setup: func(f *claimFixture) {
				f.invoiceRepo.GetByIDFn = func(ctx context.Context, id int64) (*entity.Invoice, error) {
					return approvedInvoice(id), nil
				}
				f.claimRepo.GetByInvoiceIDFn = func(ctx context.Context, invoiceID int64) (*entity.Claim, error) {
					return &entity.Claim{ID: 2, InvoiceID: invoiceID}, nil
				}
			},
			wantErr: ErrClaimAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newClaimFixture()
			tt.setup(f)

			_, err := f.service.CreateClaimFromInvoice(context.Background(), 7, "erin")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.emitter.Events)
		})
	}
}

func TestGetClaim(t *testing.T) {
	f := newClaimFixture()
	f.claimRepo.GetByIDFn = func(ctx context.Context, id int64) (*entity.Claim, error) {
		return &entity.Claim{ID: id, Reference: "CLM-AB12CD34"}, nil
	}

	claim, err := f.service.GetClaim(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, "CLM-AB12CD34", claim.Reference)

	f.claimRepo.GetByIDFn = nil
	_, err = f.service.GetClaim(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenerateClaimBatchPartialSuccess(t *testing.T) {
	f := newClaimFixture()

	invoices := map[int64]*entity.Invoice{
		1: approvedInvoice(1),
		2: {ID: 2, ParticipantID: 3, TotalCents: 5000, Status: workflow.StatePendingReview},
	}
	f.invoiceRepo.GetByIDFn = func(ctx context.Context, id int64) (*entity.Invoice, error) {
		return invoices[id], nil
	}
	var nextID int64
	f.claimRepo.CreateFn = func(ctx context.Context, claim *entity.Claim) error {
		nextID++
		claim.ID = nextID
		return nil
	}
	var exported []*entity.Claim
	f.exporter.ExportFn = func(ctx context.Context, batch *entity.ClaimBatch, claims []*entity.Claim) (string, error) {
		exported = claims
		return "/exports/batch.xlsx", nil
	}
	var updatedBatch *entity.ClaimBatch
	f.batchRepo.UpdateFn = func(ctx context.Context, batch *entity.ClaimBatch) error {
		updatedBatch = batch
		return nil
	}

	result, err := f.service.GenerateClaimBatch(context.Background(), []int64{1, 2, 3}, "erin")
	require.NoError(t, err)

	assert.Equal(t, []int64{1}, result.Succeeded)
	require.Len(t, result.Failed, 2)
	assert.Equal(t, int64(2), result.Failed[0].ID)
	assert.Equal(t, "InvoiceNotApproved", result.Failed[0].Error)
	assert.Equal(t, int64(3), result.Failed[1].ID)
	assert.Equal(t, "NotFound", result.Failed[1].Error)

	require.Len(t, exported, 1)
	require.NotNil(t, exported[0].BatchID)
	assert.Equal(t, result.Batch.ID, *exported[0].BatchID)

	require.NotNil(t, updatedBatch)
	assert.Equal(t, "/exports/batch.xlsx", updatedBatch.ExportPath)
}

func TestGenerateClaimBatchEmpty(t *testing.T) {
	f := newClaimFixture()

	_, err := f.service.GenerateClaimBatch(context.Background(), nil, "erin")
	assert.ErrorIs(t, err, ErrEmptyInvoiceIDs)
}

func TestCreateBatch(t *testing.T) {
	f := newClaimFixture()

	f.claimRepo.ListByIDsFn = func(ctx context.Context, ids []int64) ([]*entity.Claim, error) {
		claims := make([]*entity.Claim, 0, len(ids))
		for _, id := range ids {
			claims = append(claims, &entity.Claim{ID: id, Status: entity.ClaimStatusPending})
		}
		return claims, nil
	}
	var assigned []int64
	f.claimRepo.AssignBatchFn = func(ctx context.Context, claimID, batchID int64) error {
		assigned = append(assigned, claimID)
		return nil
	}

	batch, err := f.service.CreateBatch(context.Background(), []int64{4, 5}, "erin")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(batch.Reference, "BATCH-"))
	assert.Equal(t, entity.BatchStatusPending, batch.Status)
	assert.Equal(t, []int64{4, 5}, assigned)
	assert.Equal(t, "/exports/batch.xlsx", batch.ExportPath)
}

func TestCreateBatchValidation(t *testing.T) {
	existingBatchID := int64(9)
	tests := []struct {
		name    string
		ids     []int64
		claims  []*entity.Claim
		wantErr error
	}{
		{
			name:    "empty id list",
			ids:     nil,
			wantErr: ErrEmptyClaimIDs,
		},
		{
			name:    "missing claim",
			ids:     []int64{4, 5},
			claims:  []*entity.Claim{{ID: 4, Status: entity.ClaimStatusPending}},
			wantErr: ErrNotFound,
		},
		{
			name: "claim not pending",
			ids:  []int64{4},
			claims: []*entity.Claim{
				{ID: 4, Status: entity.ClaimStatusSubmitted},
			},
			wantErr: ErrClaimNotPending,
		},
		{
			name: "claim already batched",
			ids:  []int64{4},
			claims: []*entity.Claim{
				{ID: 4, Status: entity.ClaimStatusPending, BatchID: &existingBatchID},
			},
			wantErr: ErrClaimAlreadyBatched,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newClaimFixture()
			f.claimRepo.ListByIDsFn = func(ctx context.Context, ids []int64) ([]*entity.Claim, error) {
				return tt.claims, nil
			}

			_, err := f.service.CreateBatch(context.Background(), tt.ids, "erin")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSubmitBatch(t *testing.T) {
	f := newClaimFixture()

	f.batchRepo.GetByIDFn = func(ctx context.Context, id int64) (*entity.ClaimBatch, error) {
		return &entity.ClaimBatch{ID: id, Reference: "BATCH-AB12CD34", Status: entity.BatchStatusPending}, nil
	}
	f.claimRepo.ListByBatchIDFn = func(ctx context.Context, batchID int64) ([]*entity.Claim, error) {
		return []*entity.Claim{
			{ID: 4, Status: entity.ClaimStatusPending},
			{ID: 5, Status: entity.ClaimStatusPending},
		}, nil
	}
	type statusChange struct {
		claimID int64
		status  string
	}
	var changes []statusChange
	f.claimRepo.UpdateStatusFn = func(ctx context.Context, claimID int64, status string, submittedAt *time.Time) error {
		require.NotNil(t, submittedAt)
		changes = append(changes, statusChange{claimID, status})
		return nil
	}

	batch, err := f.service.SubmitBatch(context.Background(), 9, "erin")
	require.NoError(t, err)

	assert.Equal(t, entity.BatchStatusSubmitted, batch.Status)
	require.NotNil(t, batch.SubmittedAt)
	assert.Equal(t, []statusChange{
		{4, entity.ClaimStatusSubmitted},
		{5, entity.ClaimStatusSubmitted},
	}, changes)

	require.Len(t, f.auditRepo.Entries, 1)
	assert.Equal(t, "SUBMIT", f.auditRepo.Entries[0].Action)
	assert.Equal(t, []event.Type{event.TypeBatchSubmitted}, f.emitter.Types())
}

func TestSubmitBatchAllOrNothing(t *testing.T) {
	f := newClaimFixture()

	f.batchRepo.GetByIDFn = func(ctx context.Context, id int64) (*entity.ClaimBatch, error) {
		return &entity.ClaimBatch{ID: id, Status: entity.BatchStatusPending}, nil
	}
	f.claimRepo.ListByBatchIDFn = func(ctx context.Context, batchID int64) ([]*entity.Claim, error) {
		return []*entity.Claim{
			{ID: 4, Status: entity.ClaimStatusPending},
			{ID: 5, Status: entity.ClaimStatusSubmitted},
		}, nil
	}
	var statusUpdates int
	f.claimRepo.UpdateStatusFn = func(ctx context.Context, claimID int64, status string, submittedAt *time.Time) error {
		statusUpdates++
		return nil
	}

	_, err := f.service.SubmitBatch(context.Background(), 9, "erin")
	assert.ErrorIs(t, err, ErrBatchNotPending)
	assert.Zero(t, statusUpdates)
	assert.Empty(t, f.emitter.Events)
}

func TestSubmitBatchGuards(t *testing.T) {
	f := newClaimFixture()

	_, err := f.service.SubmitBatch(context.Background(), 9, "erin")
	assert.ErrorIs(t, err, ErrNotFound)

	f.batchRepo.GetByIDFn = func(ctx context.Context, id int64) (*entity.ClaimBatch, error) {
		return &entity.ClaimBatch{ID: id, Status: entity.BatchStatusSubmitted}, nil
	}
	_, err = f.service.SubmitBatch(context.Background(), 9, "erin")
	assert.ErrorIs(t, err, ErrBatchNotPending)
}

func TestCreateBatchExportFailureIsNonFatal(t *testing.T) {
	f := newClaimFixture()

	f.claimRepo.ListByIDsFn = func(ctx context.Context, ids []int64) ([]*entity.Claim, error) {
		return []*entity.Claim{{ID: 4, Status: entity.ClaimStatusPending}}, nil
	}
	f.exporter.ExportFn = func(ctx context.Context, batch *entity.ClaimBatch, claims []*entity.Claim) (string, error) {
		return "", assert.AnError
	}

	batch, err := f.service.CreateBatch(context.Background(), []int64{4}, "erin")
	require.NoError(t, err)
	assert.Empty(t, batch.ExportPath)
}
