package workflow

// invoiceLifecycle is the single source of truth for the invoice state graph.
// RECEIVED and PROCESSING are transient states owned by the extraction pipeline;
// REJECTED and PAID are terminal.
var invoiceLifecycle StateMachineBuilder

// The graph is assembled in init rather than a package-level initializer so
// that validStates is guaranteed to be populated before Configure runs.
func init() {
	b := NewBuilder()

	b.Configure(StateReceived).
		Permit(TriggerStartProcessing, StateProcessing)

	b.Configure(StateProcessing).
		Permit(TriggerCompleteExtraction, StatePendingReview)

	b.Configure(StatePendingReview).
		Permit(TriggerApprove, StateApproved).
		Permit(TriggerReject, StateRejected).
		Permit(TriggerRequestParticipantApproval, StatePendingParticipantApproval)

	b.Configure(StatePendingParticipantApproval).
		Permit(TriggerParticipantApprove, StateApproved).
		Permit(TriggerParticipantReject, StatePendingReview).
		Permit(TriggerSkipParticipantApproval, StatePendingReview)

	b.Configure(StateApproved).
		Permit(TriggerClaim, StateClaimed)

	b.Configure(StateClaimed).
		Permit(TriggerMarkPaid, StatePaid)

	invoiceLifecycle = b
}

// NewInvoiceMachine builds a state machine positioned at the given state.
func NewInvoiceMachine(current State) StateMachine {
	return invoiceLifecycle.Build(current)
}

// CanTransition reports whether the trigger is valid from the given state.
func CanTransition(from State, trigger Trigger) bool {
	return invoiceLifecycle.Build(from).CanFire(trigger)
}
