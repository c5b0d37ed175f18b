package service

import "errors"

// Domain errors surfaced to the transport layer. Handlers map these onto
// HTTP statuses and error codes; anything else is an internal error.
var (
	ErrNotFound = errors.New("not found")

	// State machine guard violated
	ErrInvalidStatus = errors.New("invalid status for requested operation")

	// Request-level validation
	ErrReasonRequired  = errors.New("rejection reason is required")
	ErrEmptyInvoiceIDs = errors.New("invoice id list is empty")
	ErrEmptyClaimIDs   = errors.New("claim id list is empty")
	ErrUnknownAction   = errors.New("unknown bulk action")

	// Participant approval protocol
	ErrApprovalNotEnabled        = errors.New("participant has not enabled invoice approval")
	ErrNoApprovalContact         = errors.New("participant has no usable contact for their approval method")
	ErrTokenAlreadyUsed          = errors.New("approval token has already been used")
	ErrInvoiceNotPendingApproval = errors.New("invoice is not awaiting participant approval")

	// Capacity ledger
	ErrInsufficientCapacity      = errors.New("insufficient budget capacity")
	ErrQuarantineNotActive       = errors.New("quarantine is not active")
	ErrDrawDownExceedsQuarantine = errors.New("draw-down exceeds quarantined amount")

	// Claim generation
	ErrInvoiceNotApproved  = errors.New("invoice is not approved")
	ErrClaimAlreadyExists  = errors.New("invoice already has a claim")
	ErrClaimNotPending     = errors.New("claim is not pending")
	ErrClaimAlreadyBatched = errors.New("claim already belongs to a batch")
	ErrBatchNotPending     = errors.New("batch is not pending")
)

// ErrorCode maps a service error onto its wire-level error code. Unknown
// errors map to INTERNAL and must not leak their message to callers.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrInvalidStatus):
		return "InvalidStatus"
	case errors.Is(err, ErrReasonRequired), errors.Is(err, ErrEmptyInvoiceIDs),
		errors.Is(err, ErrEmptyClaimIDs), errors.Is(err, ErrUnknownAction):
		return "ValidationError"
	case errors.Is(err, ErrApprovalNotEnabled), errors.Is(err, ErrNoApprovalContact):
		return "ApprovalNotEnabled"
	case errors.Is(err, ErrTokenAlreadyUsed):
		return "TokenAlreadyUsed"
	case errors.Is(err, ErrInvoiceNotPendingApproval):
		return "InvoiceNotPendingApproval"
	case errors.Is(err, ErrInsufficientCapacity):
		return "InsufficientBudgetCapacity"
	case errors.Is(err, ErrQuarantineNotActive):
		return "QuarantineNotActive"
	case errors.Is(err, ErrDrawDownExceedsQuarantine):
		return "DrawDownExceedsQuarantine"
	case errors.Is(err, ErrInvoiceNotApproved):
		return "InvoiceNotApproved"
	case errors.Is(err, ErrClaimAlreadyExists):
		return "ClaimAlreadyExists"
	case errors.Is(err, ErrClaimNotPending), errors.Is(err, ErrBatchNotPending):
		return "InvalidStatus"
	case errors.Is(err, ErrClaimAlreadyBatched):
		return "Conflict"
	default:
		return "Internal"
	}
}
