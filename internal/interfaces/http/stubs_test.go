package http

import (
	"context"

	"github.com/SpudMar/Lotus-PM-sub001/internal/application/service"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/entity"
	"github.com/SpudMar/Lotus-PM-sub001/internal/domain/workflow"
)

// Function-field stubs for the application services. A nil field means the
// handler under test is not expected to hit that operation.

type stubIntakeService struct {
	IngestEmailFn        func(ctx context.Context, location, key string) (*service.IntakeResult, error)
	CompleteExtractionFn func(ctx context.Context, jobID string, invoiceID int64) (*service.ExtractionOutcome, error)
}

func (s *stubIntakeService) IngestEmail(ctx context.Context, location, key string) (*service.IntakeResult, error) {
	return s.IngestEmailFn(ctx, location, key)
}

func (s *stubIntakeService) CompleteExtraction(ctx context.Context, jobID string, invoiceID int64) (*service.ExtractionOutcome, error) {
	return s.CompleteExtractionFn(ctx, jobID, invoiceID)
}

type stubInvoiceService struct {
	GetFn        func(ctx context.Context, id int64) (*entity.Invoice, error)
	ListFn       func(ctx context.Context, status workflow.State, limit, offset int) ([]*entity.Invoice, error)
	ApproveFn    func(ctx context.Context, invoiceID int64, actor string) error
	RejectFn     func(ctx context.Context, invoiceID int64, actor, reason string) error
	SkipFn       func(ctx context.Context) (int, error)
	BulkActionFn func(ctx context.Context, action string, invoiceIDs []int64, actor, reason string) (*service.BulkResult, error)
}

func (s *stubInvoiceService) Get(ctx context.Context, id int64) (*entity.Invoice, error) {
	return s.GetFn(ctx, id)
}

func (s *stubInvoiceService) List(ctx context.Context, status workflow.State, limit, offset int) ([]*entity.Invoice, error) {
	return s.ListFn(ctx, status, limit, offset)
}

func (s *stubInvoiceService) Approve(ctx context.Context, invoiceID int64, actor string) error {
	return s.ApproveFn(ctx, invoiceID, actor)
}

func (s *stubInvoiceService) Reject(ctx context.Context, invoiceID int64, actor, reason string) error {
	return s.RejectFn(ctx, invoiceID, actor, reason)
}

func (s *stubInvoiceService) SkipExpiredApprovals(ctx context.Context) (int, error) {
	return s.SkipFn(ctx)
}

func (s *stubInvoiceService) BulkAction(ctx context.Context, action string, invoiceIDs []int64, actor, reason string) (*service.BulkResult, error) {
	return s.BulkActionFn(ctx, action, invoiceIDs, actor, reason)
}

type stubApprovalService struct {
	RequestApprovalFn func(ctx context.Context, invoiceID int64, actor string) error
	ProcessResponseFn func(ctx context.Context, rawToken, decision string) (*service.ApprovalStatus, error)
	GetStatusFn       func(ctx context.Context, rawToken string) (*service.ApprovalStatus, error)
}

func (s *stubApprovalService) RequestApproval(ctx context.Context, invoiceID int64, actor string) error {
	return s.RequestApprovalFn(ctx, invoiceID, actor)
}

func (s *stubApprovalService) ProcessResponse(ctx context.Context, rawToken, decision string) (*service.ApprovalStatus, error) {
	return s.ProcessResponseFn(ctx, rawToken, decision)
}

func (s *stubApprovalService) GetApprovalStatus(ctx context.Context, rawToken string) (*service.ApprovalStatus, error) {
	return s.GetStatusFn(ctx, rawToken)
}

type stubQuarantineService struct {
	CreateFn     func(ctx context.Context, input service.CreateQuarantineInput, actor string) (*entity.FundQuarantine, error)
	GetFn        func(ctx context.Context, id int64) (*entity.FundQuarantine, error)
	ListFn       func(ctx context.Context, budgetLineID int64) ([]*entity.FundQuarantine, error)
	UpdateFn     func(ctx context.Context, id int64, input service.UpdateQuarantineInput, actor string) (*entity.FundQuarantine, error)
	ReleaseFn    func(ctx context.Context, id int64, actor string) error
	DrawDownFn   func(ctx context.Context, id int64, amountCents int64, actor string) (*entity.FundQuarantine, error)
	AutoCreateFn func(ctx context.Context, agreementID int64, actor string) ([]*entity.FundQuarantine, error)
}

func (s *stubQuarantineService) CreateQuarantine(ctx context.Context, input service.CreateQuarantineInput, actor string) (*entity.FundQuarantine, error) {
	return s.CreateFn(ctx, input, actor)
}

func (s *stubQuarantineService) GetQuarantine(ctx context.Context, id int64) (*entity.FundQuarantine, error) {
	return s.GetFn(ctx, id)
}

func (s *stubQuarantineService) ListByBudgetLine(ctx context.Context, budgetLineID int64) ([]*entity.FundQuarantine, error) {
	return s.ListFn(ctx, budgetLineID)
}

func (s *stubQuarantineService) UpdateQuarantine(ctx context.Context, id int64, input service.UpdateQuarantineInput, actor string) (*entity.FundQuarantine, error) {
	return s.UpdateFn(ctx, id, input, actor)
}

func (s *stubQuarantineService) ReleaseQuarantine(ctx context.Context, id int64, actor string) error {
	return s.ReleaseFn(ctx, id, actor)
}

func (s *stubQuarantineService) DrawDown(ctx context.Context, id int64, amountCents int64, actor string) (*entity.FundQuarantine, error) {
	return s.DrawDownFn(ctx, id, amountCents, actor)
}

func (s *stubQuarantineService) AutoCreateFromServiceAgreement(ctx context.Context, agreementID int64, actor string) ([]*entity.FundQuarantine, error) {
	return s.AutoCreateFn(ctx, agreementID, actor)
}

type stubClaimService struct {
	CreateClaimFn   func(ctx context.Context, invoiceID int64, actor string) (*entity.Claim, error)
	GetClaimFn      func(ctx context.Context, id int64) (*entity.Claim, error)
	GenerateBatchFn func(ctx context.Context, invoiceIDs []int64, actor string) (*service.ClaimBatchResult, error)
	CreateBatchFn   func(ctx context.Context, claimIDs []int64, actor string) (*entity.ClaimBatch, error)
	SubmitBatchFn   func(ctx context.Context, batchID int64, actor string) (*entity.ClaimBatch, error)
}

func (s *stubClaimService) CreateClaimFromInvoice(ctx context.Context, invoiceID int64, actor string) (*entity.Claim, error) {
	return s.CreateClaimFn(ctx, invoiceID, actor)
}

func (s *stubClaimService) GetClaim(ctx context.Context, id int64) (*entity.Claim, error) {
	return s.GetClaimFn(ctx, id)
}

func (s *stubClaimService) GenerateClaimBatch(ctx context.Context, invoiceIDs []int64, actor string) (*service.ClaimBatchResult, error) {
	return s.GenerateBatchFn(ctx, invoiceIDs, actor)
}

func (s *stubClaimService) CreateBatch(ctx context.Context, claimIDs []int64, actor string) (*entity.ClaimBatch, error) {
	return s.CreateBatchFn(ctx, claimIDs, actor)
}

func (s *stubClaimService) SubmitBatch(ctx context.Context, batchID int64, actor string) (*entity.ClaimBatch, error) {
	return s.SubmitBatchFn(ctx, batchID, actor)
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}
