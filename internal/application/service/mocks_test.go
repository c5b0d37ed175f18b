package service

import (
	"context"
	"time"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/port"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/event"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/workflow"
	"github.com/SpudMar/Lotus-PM-sub001/internal/extraction"
)

// Function-field fakes. Unset fields return zero values so each test only
// wires the calls it exercises.

type fakeInvoiceRepo struct {
	CreateFn           func(ctx context.Context, invoice *entity.Invoice) error
	GetByIDFn          func(ctx context.Context, id int64) (*entity.Invoice, error)
	GetBySourceKeyFn   func(ctx context.Context, sourceKey string) (*entity.Invoice, error)
	GetByOCRJobIDFn    func(ctx context.Context, jobID string) (*entity.Invoice, error)
	ListFn             func(ctx context.Context, status workflow.State, limit, offset int) ([]*entity.Invoice, error)
	UpdateFn           func(ctx context.Context, invoice *entity.Invoice) error
	ReplaceLineItemsFn func(ctx context.Context, invoiceID int64, items []entity.InvoiceLineItem) error
	GetLineItemsFn     func(ctx context.Context, invoiceID int64) ([]entity.InvoiceLineItem, error)
	ListExpiredFn      func(ctx context.Context, now time.Time) ([]*entity.Invoice, error)
	ClearApprovalFn    func(ctx context.Context, invoiceID int64, hash string) (bool, error)
}

func (f *fakeInvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	if f.CreateFn == nil {
		return nil
	}
	return f.CreateFn(ctx, invoice)
}

func (f *fakeInvoiceRepo) GetByID(ctx context.Context, id int64) (*entity.Invoice, error) {
	if f.GetByIDFn == nil {
		return nil, nil
	}
	return f.GetByIDFn(ctx, id)
}

func (f *fakeInvoiceRepo) GetBySourceKey(ctx context.Context, sourceKey string) (*entity.Invoice, error) {
	if f.GetBySourceKeyFn == nil {
		return nil, nil
	}
	return f.GetBySourceKeyFn(ctx, sourceKey)
}

func (f *fakeInvoiceRepo) GetByOCRJobID(ctx context.Context, jobID string) (*entity.Invoice, error) {
	if f.GetByOCRJobIDFn == nil {
		return nil, nil
	}
	return f.GetByOCRJobIDFn(ctx, jobID)
}

func (f *fakeInvoiceRepo) List(ctx context.Context, status workflow.State, limit, offset int) ([]*entity.Invoice, error) {
	if f.ListFn == nil {
		return nil, nil
	}
	return f.ListFn(ctx, status, limit, offset)
}

func (f *fakeInvoiceRepo) Update(ctx context.Context, invoice *entity.Invoice) error {
	if f.UpdateFn == nil {
		return nil
	}
	return f.UpdateFn(ctx, invoice)
}

func (f *fakeInvoiceRepo) ReplaceLineItems(ctx context.Context, invoiceID int64, items []entity.InvoiceLineItem) error {
	if f.ReplaceLineItemsFn == nil {
		return nil
	}
	return f.ReplaceLineItemsFn(ctx, invoiceID, items)
}

func (f *fakeInvoiceRepo) GetLineItems(ctx context.Context, invoiceID int64) ([]entity.InvoiceLineItem, error) {
	if f.GetLineItemsFn == nil {
		return nil, nil
	}
	return f.GetLineItemsFn(ctx, invoiceID)
}

func (f *fakeInvoiceRepo) ListExpiredParticipantApprovals(ctx context.Context, now time.Time) ([]*entity.Invoice, error) {
	if f.ListExpiredFn == nil {
		return nil, nil
	}
	return f.ListExpiredFn(ctx, now)
}

func (f *fakeInvoiceRepo) ClearApprovalToken(ctx context.Context, invoiceID int64, hash string) (bool, error) {
	if f.ClearApprovalFn == nil {
		return true, nil
	}
	return f.ClearApprovalFn(ctx, invoiceID, hash)
}

type fakeClaimRepo struct {
	CreateFn         func(ctx context.Context, claim *entity.Claim) error
	GetByIDFn        func(ctx context.Context, id int64) (*entity.Claim, error)
	GetByInvoiceIDFn func(ctx context.Context, invoiceID int64) (*entity.Claim, error)
	ListByBatchIDFn  func(ctx context.Context, batchID int64) ([]*entity.Claim, error)
	ListByIDsFn      func(ctx context.Context, ids []int64) ([]*entity.Claim, error)
	AssignBatchFn    func(ctx context.Context, claimID, batchID int64) error
	UpdateStatusFn   func(ctx context.Context, claimID int64, status string, submittedAt *time.Time) error
}

func (f *fakeClaimRepo) Create(ctx context.Context, claim *entity.Claim) error {
	if f.CreateFn == nil {
		return nil
	}
	return f.CreateFn(ctx, claim)
}

func (f *fakeClaimRepo) GetByID(ctx context.Context, id int64) (*entity.Claim, error) {
	if f.GetByIDFn == nil {
		return nil, nil
	}
	return f.GetByIDFn(ctx, id)
}

func (f *fakeClaimRepo) GetByInvoiceID(ctx context.Context, invoiceID int64) (*entity.Claim, error) {
	if f.GetByInvoiceIDFn == nil {
		return nil, nil
	}
	return f.GetByInvoiceIDFn(ctx, invoiceID)
}

func (f *fakeClaimRepo) ListByBatchID(ctx context.Context, batchID int64) ([]*entity.Claim, error) {
	if f.ListByBatchIDFn == nil {
		return nil, nil
	}
	return f.ListByBatchIDFn(ctx, batchID)
}

func (f *fakeClaimRepo) ListByIDs(ctx context.Context, ids []int64) ([]*entity.Claim, error) {
	if f.ListByIDsFn == nil {
		return nil, nil
	}
	return f.ListByIDsFn(ctx, ids)
}

func (f *fakeClaimRepo) AssignBatch(ctx context.Context, claimID, batchID int64) error {
	if f.AssignBatchFn == nil {
		return nil
	}
	return f.AssignBatchFn(ctx, claimID, batchID)
}

func (f *fakeClaimRepo) UpdateStatus(ctx context.Context, claimID int64, status string, submittedAt *time.Time) error {
	if f.UpdateStatusFn == nil {
		return nil
	}
	return f.UpdateStatusFn(ctx, claimID, status, submittedAt)
}

type fakeBatchRepo struct {
	CreateFn  func(ctx context.Context, batch *entity.ClaimBatch) error
	GetByIDFn func(ctx context.Context, id int64) (*entity.ClaimBatch, error)
	UpdateFn  func(ctx context.Context, batch *entity.ClaimBatch) error
}

func (f *fakeBatchRepo) Create(ctx context.Context, batch *entity.ClaimBatch) error {
	if f.CreateFn == nil {
		batch.ID = 1
		return nil
	}
	return f.CreateFn(ctx, batch)
}

func (f *fakeBatchRepo) GetByID(ctx context.Context, id int64) (*entity.ClaimBatch, error) {
	if f.GetByIDFn == nil {
		return nil, nil
	}
	return f.GetByIDFn(ctx, id)
}

func (f *fakeBatchRepo) Update(ctx context.Context, batch *entity.ClaimBatch) error {
	if f.UpdateFn == nil {
		return nil
	}
	return f.UpdateFn(ctx, batch)
}

type fakeQuarantineRepo struct {
	CreateFn           func(ctx context.Context, q *entity.FundQuarantine) error
	GetByIDFn          func(ctx context.Context, id int64) (*entity.FundQuarantine, error)
	ListByBudgetLineFn func(ctx context.Context, budgetLineID int64) ([]*entity.FundQuarantine, error)
	UpdateFn           func(ctx context.Context, q *entity.FundQuarantine) error
	SumActiveFn        func(ctx context.Context, budgetLineID, excludeID int64) (int64, error)
}

func (f *fakeQuarantineRepo) Create(ctx context.Context, q *entity.FundQuarantine) error {
	if f.CreateFn == nil {
		q.ID = 1
		return nil
	}
	return f.CreateFn(ctx, q)
}

func (f *fakeQuarantineRepo) GetByID(ctx context.Context, id int64) (*entity.FundQuarantine, error) {
	if f.GetByIDFn == nil {
		return nil, nil
	}
	return f.GetByIDFn(ctx, id)
}

func (f *fakeQuarantineRepo) ListByBudgetLine(ctx context.Context, budgetLineID int64) ([]*entity.FundQuarantine, error) {
	if f.ListByBudgetLineFn == nil {
		return nil, nil
	}
	return f.ListByBudgetLineFn(ctx, budgetLineID)
}

func (f *fakeQuarantineRepo) Update(ctx context.Context, q *entity.FundQuarantine) error {
	if f.UpdateFn == nil {
		return nil
	}
	return f.UpdateFn(ctx, q)
}

func (f *fakeQuarantineRepo) SumActiveByBudgetLine(ctx context.Context, budgetLineID, excludeID int64) (int64, error) {
	if f.SumActiveFn == nil {
		return 0, nil
	}
	return f.SumActiveFn(ctx, budgetLineID, excludeID)
}

type fakeBudgetLineRepo struct {
	GetByIDFn func(ctx context.Context, id int64) (*entity.BudgetLine, error)
}

func (f *fakeBudgetLineRepo) GetByID(ctx context.Context, id int64) (*entity.BudgetLine, error) {
	if f.GetByIDFn == nil {
		return nil, nil
	}
	return f.GetByIDFn(ctx, id)
}

type fakeParticipantRepo struct {
	GetByIDFn func(ctx context.Context, id int64) (*entity.Participant, error)
}

func (f *fakeParticipantRepo) GetByID(ctx context.Context, id int64) (*entity.Participant, error) {
	if f.GetByIDFn == nil {
		return nil, nil
	}
	return f.GetByIDFn(ctx, id)
}

type fakeProviderRepo struct {
	GetByIDFn func(ctx context.Context, id int64) (*entity.Provider, error)
}

func (f *fakeProviderRepo) GetByID(ctx context.Context, id int64) (*entity.Provider, error) {
	if f.GetByIDFn == nil {
		return nil, nil
	}
	return f.GetByIDFn(ctx, id)
}

type fakeAgreementRepo struct {
	GetByIDFn func(ctx context.Context, id int64) (*entity.ServiceAgreement, error)
}

func (f *fakeAgreementRepo) GetByID(ctx context.Context, id int64) (*entity.ServiceAgreement, error) {
	if f.GetByIDFn == nil {
		return nil, nil
	}
	return f.GetByIDFn(ctx, id)
}

type fakeAuditRepo struct {
	Entries []entity.AuditEntry
	err     error
}

func (f *fakeAuditRepo) Create(ctx context.Context, e *entity.AuditEntry) error {
	if f.err != nil {
		return f.err
	}
	f.Entries = append(f.Entries, *e)
	return nil
}

// fakeTxManager runs the function directly; tests assert on repository calls
type fakeTxManager struct{}

func (f *fakeTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeEmitter struct {
	Events []*event.Event
}

func (f *fakeEmitter) Emit(ctx context.Context, evt *event.Event) {
	f.Events = append(f.Events, evt)
}

func (f *fakeEmitter) Types() []event.Type {
	types := make([]event.Type, 0, len(f.Events))
	for _, evt := range f.Events {
		types = append(types, evt.Type)
	}
	return types
}

type fakeNotifier struct {
	Sent []string
	err  error
}

func (f *fakeNotifier) SendApprovalRequest(ctx context.Context, participant *entity.Participant, invoice *entity.Invoice, approvalURL string) error {
	if f.err != nil {
		return f.err
	}
	f.Sent = append(f.Sent, approvalURL)
	return nil
}

type fakeOCRService struct {
	StartJobFn  func(ctx context.Context, documentPath string) (string, error)
	JobResultFn func(ctx context.Context, jobID string) (*port.OCRResult, error)
}

func (f *fakeOCRService) StartJob(ctx context.Context, documentPath string) (string, error) {
	if f.StartJobFn == nil {
		return "job-1", nil
	}
	return f.StartJobFn(ctx, documentPath)
}

func (f *fakeOCRService) JobResult(ctx context.Context, jobID string) (*port.OCRResult, error) {
	if f.JobResultFn == nil {
		return &port.OCRResult{}, nil
	}
	return f.JobResultFn(ctx, jobID)
}

type fakeDocumentStorage struct {
	SaveFn func(ctx context.Context, key string, content []byte) (string, error)
	ReadFn func(ctx context.Context, path string) ([]byte, error)
}

func (f *fakeDocumentStorage) Save(ctx context.Context, key string, content []byte) (string, error) {
	if f.SaveFn == nil {
		return "/docs/" + key, nil
	}
	return f.SaveFn(ctx, key, content)
}

func (f *fakeDocumentStorage) Read(ctx context.Context, path string) ([]byte, error) {
	if f.ReadFn == nil {
		return nil, nil
	}
	return f.ReadFn(ctx, path)
}

type fakeMailboxStore struct {
	FetchFn func(ctx context.Context, location, key string) ([]byte, error)
	Parked  []string
}

func (f *fakeMailboxStore) Fetch(ctx context.Context, location, key string) ([]byte, error) {
	if f.FetchFn == nil {
		return nil, nil
	}
	return f.FetchFn(ctx, location, key)
}

func (f *fakeMailboxStore) MoveToHolding(ctx context.Context, location, key string) error {
	f.Parked = append(f.Parked, location+"/"+key)
	return nil
}

type fakeExtractor struct {
	result *extraction.Result
	err    error
}

func (f *fakeExtractor) Extract(text string) (*extraction.Result, error) {
	return f.result, f.err
}

type fakeAssistedExtractor struct {
	result *extraction.Result
	err    error
	calls  int
}

func (f *fakeAssistedExtractor) Extract(ctx context.Context, text string) (*extraction.Result, error) {
	f.calls++
	return f.result, f.err
}

type fakeClaimCreator struct {
	CreateFn func(ctx context.Context, invoiceID int64, actor string) (*entity.Claim, error)
}

func (f *fakeClaimCreator) CreateClaimFromInvoice(ctx context.Context, invoiceID int64, actor string) (*entity.Claim, error) {
	if f.CreateFn == nil {
		return &entity.Claim{InvoiceID: invoiceID}, nil
	}
	return f.CreateFn(ctx, invoiceID, actor)
}

type fakeExporter struct {
	ExportFn func(ctx context.Context, batch *entity.ClaimBatch, claims []*entity.Claim) (string, error)
}

func (f *fakeExporter) Export(ctx context.Context, batch *entity.ClaimBatch, claims []*entity.Claim) (string, error) {
	if f.ExportFn == nil {
		return "/exports/batch.xlsx", nil
	}
	return f.ExportFn(ctx, batch, claims)
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}
