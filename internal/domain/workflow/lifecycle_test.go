package workflow

import (
	"errors"
	"testing"
)

func TestInvoiceLifecycleTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		trigger Trigger
		want    State
		wantErr bool
	}{
		{
			name:    "received starts processing",
			from:    StateReceived,
			trigger: TriggerStartProcessing,
			want:    StateProcessing,
		},
		{
			name:    "processing completes extraction",
			from:    StateProcessing,
			trigger: TriggerCompleteExtraction,
			want:    StatePendingReview,
		},
		{
			name:    "pending review approved",
			from:    StatePendingReview,
			trigger: TriggerApprove,
			want:    StateApproved,
		},
		{
			name:    "pending review rejected",
			from:    StatePendingReview,
			trigger: TriggerReject,
			want:    StateRejected,
		},
		{
			name:    "pending review escalates to participant",
			from:    StatePendingReview,
			trigger: TriggerRequestParticipantApproval,
			want:    StatePendingParticipantApproval,
		},
		{
			name:    "participant approval finalises",
			from:    StatePendingParticipantApproval,
			trigger: TriggerParticipantApprove,
			want:    StateApproved,
		},
		{
			name:    "participant rejection returns to review",
			from:    StatePendingParticipantApproval,
			trigger: TriggerParticipantReject,
			want:    StatePendingReview,
		},
		{
			name:    "expired approval returns to review",
			from:    StatePendingParticipantApproval,
			trigger: TriggerSkipParticipantApproval,
			want:    StatePendingReview,
		},
		{
			name:    "approved invoices can be claimed",
			from:    StateApproved,
			trigger: TriggerClaim,
			want:    StateClaimed,
		},
		{
			name:    "claimed invoices can be paid",
			from:    StateClaimed,
			trigger: TriggerMarkPaid,
			want:    StatePaid,
		},
		{
			name:    "cannot approve a processing invoice",
			from:    StateProcessing,
			trigger: TriggerApprove,
			wantErr: true,
		},
		{
			name:    "cannot claim a pending invoice",
			from:    StatePendingReview,
			trigger: TriggerClaim,
			wantErr: true,
		},
		{
			name:    "rejected is terminal",
			from:    StateRejected,
			trigger: TriggerApprove,
			wantErr: true,
		},
		{
			name:    "paid is terminal",
			from:    StatePaid,
			trigger: TriggerMarkPaid,
			wantErr: true,
		},
		{
			name:    "cannot re-request participant approval while pending",
			from:    StatePendingParticipantApproval,
			trigger: TriggerRequestParticipantApproval,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := NewInvoiceMachine(tt.from)
			err := machine.Fire(tt.trigger)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("Fire(%s) from %s: expected error, got state %s", tt.trigger, tt.from, machine.State())
				}
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("Fire(%s) error = %v, want ErrInvalidTransition", tt.trigger, err)
				}
				if machine.State() != tt.from {
					t.Errorf("state changed on rejected trigger: %s", machine.State())
				}
				return
			}

			if err != nil {
				t.Fatalf("Fire(%s) from %s: %v", tt.trigger, tt.from, err)
			}
			if machine.State() != tt.want {
				t.Errorf("state = %s, want %s", machine.State(), tt.want)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	if !CanTransition(StatePendingReview, TriggerApprove) {
		t.Error("expected approve to be permitted from pending review")
	}
	if CanTransition(StateRejected, TriggerApprove) {
		t.Error("expected rejected to be terminal")
	}
}

func TestPermittedTriggers(t *testing.T) {
	machine := NewInvoiceMachine(StatePendingReview)
	triggers := machine.PermittedTriggers()
	if len(triggers) != 3 {
		t.Fatalf("got %d permitted triggers, want 3: %v", len(triggers), triggers)
	}

	machine = NewInvoiceMachine(StatePaid)
	if len(machine.PermittedTriggers()) != 0 {
		t.Error("expected no triggers from a terminal state")
	}
}

func TestLifecycleCoversAllStates(t *testing.T) {
	// Every non-terminal state must have an outgoing edge, and building a
	// machine at any valid state must succeed without touching the builder.
	for state := range validStates {
		machine := NewInvoiceMachine(state)
		if machine.State() != state {
			t.Errorf("machine at %s reports %s", state, machine.State())
		}
		if !state.IsTerminal() && len(machine.PermittedTriggers()) == 0 {
			t.Errorf("non-terminal state %s has no permitted triggers", state)
		}
		if state.IsTerminal() && len(machine.PermittedTriggers()) != 0 {
			t.Errorf("terminal state %s permits %v", state, machine.PermittedTriggers())
		}
	}
}

func TestBuilderIsolation(t *testing.T) {
	// Machines built from the shared lifecycle must not share mutable state
	a := NewInvoiceMachine(StateReceived)
	b := NewInvoiceMachine(StateReceived)

	if err := a.Fire(TriggerStartProcessing); err != nil {
		t.Fatal(err)
	}
	if b.State() != StateReceived {
		t.Errorf("second machine moved to %s", b.State())
	}
}
