package event

// Type identifies the type of domain event
type Type string

const (
	TypeInvoiceReceived              Type = "invoice.received"
	TypeInvoiceExtracted             Type = "invoice.extracted"
	TypeInvoiceApproved              Type = "invoice.approved"
	TypeInvoiceRejected              Type = "invoice.rejected"
	TypeInvoiceClaimed               Type = "invoice.claimed"
	TypeParticipantApprovalRequested Type = "invoice.participant_approval_requested"
	TypeParticipantApproved          Type = "invoice.participant_approved"
	TypeParticipantRejected          Type = "invoice.participant_rejected"
	TypeParticipantApprovalSkipped   Type = "invoice.participant_approval_skipped"
	TypeClaimCreated                 Type = "claim.created"
	TypeBatchSubmitted               Type = "claim_batch.submitted"
	TypeQuarantineCreated            Type = "quarantine.created"
	TypeQuarantineReleased           Type = "quarantine.released"
	TypeQuarantineThreshold          Type = "quarantine.threshold"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeInvoiceReceived,
		TypeInvoiceExtracted,
		TypeInvoiceApproved,
		TypeInvoiceRejected,
		TypeInvoiceClaimed,
		TypeParticipantApprovalRequested,
		TypeParticipantApproved,
		TypeParticipantRejected,
		TypeParticipantApprovalSkipped,
		TypeClaimCreated,
		TypeBatchSubmitted,
		TypeQuarantineCreated,
		TypeQuarantineReleased,
		TypeQuarantineThreshold:
		return true
	default:
		return false
	}
}
