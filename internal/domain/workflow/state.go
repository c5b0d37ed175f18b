package workflow

// State represents an invoice state in the claiming lifecycle
type State string

const (
	StateReceived                   State = "RECEIVED"
	StateProcessing                 State = "PROCESSING"
	StatePendingReview              State = "PENDING_REVIEW"
	StatePendingParticipantApproval State = "PENDING_PARTICIPANT_APPROVAL"
	StateApproved                   State = "APPROVED"
	StateRejected                   State = "REJECTED"
	StateClaimed                    State = "CLAIMED"
	StatePaid                       State = "PAID"
)

var validStates = map[State]bool{
	StateReceived:                   true,
	StateProcessing:                 true,
	StatePendingReview:              true,
	StatePendingParticipantApproval: true,
	StateApproved:                   true,
	StateRejected:                   true,
	StateClaimed:                    true,
	StatePaid:                       true,
}

var terminalStates = map[State]bool{
	StateRejected: true,
	StatePaid:     true,
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid lifecycle state
func (s State) IsValid() bool {
	return validStates[s]
}
