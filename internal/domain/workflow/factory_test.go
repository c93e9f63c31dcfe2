package workflow

import (
	"context"
	"errors"
	"testing"
)

func fire(t *testing.T, m StateMachine, trigger Trigger, want State) {
	t.Helper()
	if err := m.Fire(context.Background(), trigger); err != nil {
		t.Fatalf("Fire(%s) failed: %v", trigger, err)
	}
	if m.State() != want {
		t.Fatalf("State after %s = %v, want %v", trigger, m.State(), want)
	}
}

func TestInvoiceMachine_HappyPath(t *testing.T) {
	machine := NewInvoiceMachine(StateInvoiceDraft)

	fire(t, machine, TriggerSend, StateInvoiceSent)
	fire(t, machine, TriggerView, StateInvoiceViewed)
	fire(t, machine, TriggerPay, StateInvoicePaid)

	if !machine.IsTerminal() {
		t.Error("PAID should be terminal")
	}
}

func TestInvoiceMachine_PayFromDraft(t *testing.T) {
	machine := NewInvoiceMachine(StateInvoiceDraft)
	fire(t, machine, TriggerPay, StateInvoicePaid)
}

func TestInvoiceMachine_OverduePath(t *testing.T) {
	machine := NewInvoiceMachine(StateInvoiceSent)

	fire(t, machine, TriggerMarkOverdue, StateInvoiceOverdue)
	fire(t, machine, TriggerPay, StateInvoicePaid)
}

func TestInvoiceMachine_ResendKeepsState(t *testing.T) {
	// Re-sending never moves the status backward
	sent := NewInvoiceMachine(StateInvoiceSent)
	fire(t, sent, TriggerSend, StateInvoiceSent)

	viewed := NewInvoiceMachine(StateInvoiceViewed)
	fire(t, viewed, TriggerSend, StateInvoiceViewed)
}

func TestInvoiceMachine_RejectedTransitions(t *testing.T) {
	tests := []struct {
		name    string
		initial State
		trigger Trigger
	}{
		{"view from draft", StateInvoiceDraft, TriggerView},
		{"overdue from draft", StateInvoiceDraft, TriggerMarkOverdue},
		{"view from overdue", StateInvoiceOverdue, TriggerView},
		{"send from overdue", StateInvoiceOverdue, TriggerSend},
		{"pay from paid", StateInvoicePaid, TriggerPay},
		{"send from cancelled", StateInvoiceCancelled, TriggerSend},
		{"pay from cancelled", StateInvoiceCancelled, TriggerPay},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := NewInvoiceMachine(tt.initial)
			err := machine.Fire(context.Background(), tt.trigger)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Fire(%s) error = %v, want ErrInvalidTransition", tt.trigger, err)
			}
			if machine.State() != tt.initial {
				t.Errorf("State changed to %v after rejected trigger", machine.State())
			}
		})
	}
}

func TestInvoiceMachine_CancelFromEveryNonTerminalState(t *testing.T) {
	for _, initial := range []State{StateInvoiceDraft, StateInvoiceSent, StateInvoiceViewed, StateInvoiceOverdue} {
		t.Run(string(initial), func(t *testing.T) {
			machine := NewInvoiceMachine(initial)
			fire(t, machine, TriggerCancel, StateInvoiceCancelled)
		})
	}
}

func TestContractMachine_HappyPath(t *testing.T) {
	allSigned := func(ctx context.Context) bool { return true }
	machine := NewContractMachine(StateContractDraft, allSigned)

	fire(t, machine, TriggerSendForSignature, StateContractPendingSignature)
	fire(t, machine, TriggerCompleteSigning, StateContractSigned)
	fire(t, machine, TriggerActivate, StateContractActive)
	fire(t, machine, TriggerExpire, StateContractExpired)

	if !machine.IsTerminal() {
		t.Error("EXPIRED should be terminal")
	}
}

func TestContractMachine_ActivateGuardFails(t *testing.T) {
	allSigned := func(ctx context.Context) bool { return false }
	machine := NewContractMachine(StateContractSigned, allSigned)

	err := machine.Fire(context.Background(), TriggerActivate)
	if !errors.Is(err, ErrGuardFailed) {
		t.Errorf("Fire(ACTIVATE) error = %v, want ErrGuardFailed", err)
	}
	if machine.State() != StateContractSigned {
		t.Errorf("State changed to %v after guarded rejection", machine.State())
	}
}

func TestContractMachine_CompleteSigningFromDraft(t *testing.T) {
	// Signatures collected before the contract is sent out still advance it
	machine := NewContractMachine(StateContractDraft, nil)
	fire(t, machine, TriggerCompleteSigning, StateContractSigned)
}

func TestContractMachine_ExpireWhilePending(t *testing.T) {
	machine := NewContractMachine(StateContractPendingSignature, nil)
	fire(t, machine, TriggerExpire, StateContractExpired)
}

func TestContractMachine_RejectedTransitions(t *testing.T) {
	tests := []struct {
		name    string
		initial State
		trigger Trigger
	}{
		{"activate from draft", StateContractDraft, TriggerActivate},
		{"activate from pending", StateContractPendingSignature, TriggerActivate},
		{"send from signed", StateContractSigned, TriggerSendForSignature},
		{"cancel from active", StateContractActive, TriggerCancel},
		{"send from expired", StateContractExpired, TriggerSendForSignature},
		{"activate from cancelled", StateContractCancelled, TriggerActivate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machine := NewContractMachine(tt.initial, func(ctx context.Context) bool { return true })
			err := machine.Fire(context.Background(), tt.trigger)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Fire(%s) error = %v, want ErrInvalidTransition", tt.trigger, err)
			}
			if machine.State() != tt.initial {
				t.Errorf("State changed to %v after rejected trigger", machine.State())
			}
		})
	}
}
