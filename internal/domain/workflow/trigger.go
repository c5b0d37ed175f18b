package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	TriggerStartProcessing            Trigger = "START_PROCESSING"
	TriggerCompleteExtraction         Trigger = "COMPLETE_EXTRACTION"
	TriggerApprove                    Trigger = "APPROVE"
	TriggerReject                     Trigger = "REJECT"
	TriggerRequestParticipantApproval Trigger = "REQUEST_PARTICIPANT_APPROVAL"
	TriggerParticipantApprove         Trigger = "PARTICIPANT_APPROVE"
	TriggerParticipantReject          Trigger = "PARTICIPANT_REJECT"
	TriggerSkipParticipantApproval    Trigger = "SKIP_PARTICIPANT_APPROVAL"
	TriggerClaim                      Trigger = "CLAIM"
	TriggerMarkPaid                   Trigger = "MARK_PAID"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
