package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestStateSet_IsTerminal(t *testing.T) {
	tests := []struct {
		set      StateSet
		state    State
		expected bool
	}{
		{InvoiceStates(), StateInvoiceDraft, false},
		{InvoiceStates(), StateInvoiceSent, false},
		{InvoiceStates(), StateInvoiceViewed, false},
		{InvoiceStates(), StateInvoiceOverdue, false},
		{InvoiceStates(), StateInvoicePaid, true},
		{InvoiceStates(), StateInvoiceCancelled, true},
		{ContractStates(), StateContractDraft, false},
		{ContractStates(), StateContractPendingSignature, false},
		{ContractStates(), StateContractSigned, false},
		{ContractStates(), StateContractActive, false},
		{ContractStates(), StateContractExpired, true},
		{ContractStates(), StateContractCancelled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.set.IsTerminal(tt.state); got != tt.expected {
				t.Errorf("IsTerminal(%s) = %v, want %v", tt.state, got, tt.expected)
			}
		})
	}
}

func TestStateSet_Contains(t *testing.T) {
	set := InvoiceStates()

	if !set.Contains(StateInvoiceDraft) {
		t.Error("Contains() should be true for a lifecycle state")
	}
	if !set.Contains(StateInvoicePaid) {
		t.Error("Contains() should be true for a terminal state")
	}
	if set.Contains(State("INVALID")) {
		t.Error("Contains() should be false for an unknown state")
	}
	if set.Contains(State("")) {
		t.Error("Contains() should be false for an empty state")
	}
}

func TestState_String(t *testing.T) {
	if got := StateInvoiceDraft.String(); got != "DRAFT" {
		t.Errorf("State.String() = %v, want %v", got, "DRAFT")
	}
}

func TestTrigger_String(t *testing.T) {
	if got := TriggerSend.String(); got != "SEND" {
		t.Errorf("Trigger.String() = %v, want %v", got, "SEND")
	}
}

func TestBuilder_Configure(t *testing.T) {
	builder := NewBuilder(InvoiceStates())

	config := builder.Configure(StateInvoiceDraft)
	if config == nil {
		t.Fatal("Configure() returned nil")
	}

	// Configure same state again should return same config
	config2 := builder.Configure(StateInvoiceDraft)
	if config != config2 {
		t.Error("Configure() should return same config for same state")
	}
}

func TestBuilder_ConfigurePanicsOnUnknownState(t *testing.T) {
	builder := NewBuilder(InvoiceStates())

	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on unknown state")
		}
	}()

	builder.Configure(State("INVALID"))
}

func TestBuilder_ConfigurePanicsOnTerminalState(t *testing.T) {
	builder := NewBuilder(InvoiceStates())

	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on terminal state")
		}
	}()

	builder.Configure(StateInvoicePaid)
}

func TestBuilder_BuildPanicsOnUnknownInitialState(t *testing.T) {
	builder := NewBuilder(InvoiceStates())

	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on unknown initial state")
		}
	}()

	builder.Build(State("INVALID"))
}

func TestStateConfiguration_Permit(t *testing.T) {
	builder := NewBuilder(InvoiceStates())
	builder.Configure(StateInvoiceDraft).
		Permit(TriggerSend, StateInvoiceSent)

	machine := builder.Build(StateInvoiceDraft)

	if !machine.CanFire(TriggerSend) {
		t.Error("CanFire() should return true for permitted trigger")
	}

	if err := machine.Fire(context.Background(), TriggerSend); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}

	if machine.State() != StateInvoiceSent {
		t.Errorf("State after Fire() = %v, want %v", machine.State(), StateInvoiceSent)
	}
}

func TestStateConfiguration_PermitIf_GuardPasses(t *testing.T) {
	builder := NewBuilder(ContractStates())
	builder.Configure(StateContractSigned).
		PermitIf(TriggerActivate, StateContractActive, func(ctx context.Context) bool {
			return true
		})

	machine := builder.Build(StateContractSigned)

	if err := machine.Fire(context.Background(), TriggerActivate); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}

	if machine.State() != StateContractActive {
		t.Errorf("State after Fire() = %v, want %v", machine.State(), StateContractActive)
	}
}

func TestStateConfiguration_PermitIf_GuardFails(t *testing.T) {
	builder := NewBuilder(ContractStates())
	builder.Configure(StateContractSigned).
		PermitIf(TriggerActivate, StateContractActive, func(ctx context.Context) bool {
			return false
		})

	machine := builder.Build(StateContractSigned)

	err := machine.Fire(context.Background(), TriggerActivate)
	if err == nil {
		t.Fatal("Fire() should fail when guard fails")
	}

	if !errors.Is(err, ErrGuardFailed) {
		t.Errorf("Fire() error = %v, want %v", err, ErrGuardFailed)
	}

	if machine.State() != StateContractSigned {
		t.Errorf("State should remain %v after failed Fire(), got %v", StateContractSigned, machine.State())
	}
}

func TestStateConfiguration_PermitIf_FirstPassingGuardWins(t *testing.T) {
	type guardKey struct{}

	builder := NewBuilder(InvoiceStates())
	builder.Configure(StateInvoiceSent).
		PermitIf(TriggerPay, StateInvoicePaid, func(ctx context.Context) bool {
			return ctx.Value(guardKey{}).(bool)
		}).
		PermitIf(TriggerPay, StateInvoiceOverdue, func(ctx context.Context) bool {
			return !ctx.Value(guardKey{}).(bool)
		})

	machine1 := builder.Build(StateInvoiceSent)
	ctx1 := context.WithValue(context.Background(), guardKey{}, true)
	if err := machine1.Fire(ctx1, TriggerPay); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}
	if machine1.State() != StateInvoicePaid {
		t.Errorf("State after Fire() = %v, want %v", machine1.State(), StateInvoicePaid)
	}

	machine2 := builder.Build(StateInvoiceSent)
	ctx2 := context.WithValue(context.Background(), guardKey{}, false)
	if err := machine2.Fire(ctx2, TriggerPay); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}
	if machine2.State() != StateInvoiceOverdue {
		t.Errorf("State after Fire() = %v, want %v", machine2.State(), StateInvoiceOverdue)
	}
}

func TestStateMachine_CanFire(t *testing.T) {
	builder := NewBuilder(InvoiceStates())
	builder.Configure(StateInvoiceDraft).
		Permit(TriggerSend, StateInvoiceSent)

	machine := builder.Build(StateInvoiceDraft)

	tests := []struct {
		trigger  Trigger
		expected bool
	}{
		{TriggerSend, true},
		{TriggerView, false},
		{TriggerMarkOverdue, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.trigger), func(t *testing.T) {
			if got := machine.CanFire(tt.trigger); got != tt.expected {
				t.Errorf("CanFire() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestStateMachine_Fire_InvalidTransition(t *testing.T) {
	builder := NewBuilder(InvoiceStates())
	builder.Configure(StateInvoiceDraft).
		Permit(TriggerSend, StateInvoiceSent)

	machine := builder.Build(StateInvoiceDraft)

	err := machine.Fire(context.Background(), TriggerView)
	if err == nil {
		t.Fatal("Fire() should fail for invalid transition")
	}

	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}

	if machine.State() != StateInvoiceDraft {
		t.Errorf("State should remain %v after failed Fire(), got %v", StateInvoiceDraft, machine.State())
	}
}

func TestStateMachine_Fire_NoConfiguration(t *testing.T) {
	builder := NewBuilder(InvoiceStates())
	machine := builder.Build(StateInvoiceDraft)

	err := machine.Fire(context.Background(), TriggerSend)
	if err == nil {
		t.Fatal("Fire() should fail when no configuration exists")
	}

	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}
}

func TestStateMachine_PermittedTriggers(t *testing.T) {
	builder := NewBuilder(InvoiceStates())
	builder.Configure(StateInvoiceDraft).
		Permit(TriggerSend, StateInvoiceSent).
		Permit(TriggerCancel, StateInvoiceCancelled)

	machine := builder.Build(StateInvoiceDraft)

	triggers := machine.PermittedTriggers()
	if len(triggers) != 2 {
		t.Errorf("PermittedTriggers() returned %d triggers, want 2", len(triggers))
	}

	hasSend := false
	hasCancel := false
	for _, trigger := range triggers {
		if trigger == TriggerSend {
			hasSend = true
		}
		if trigger == TriggerCancel {
			hasCancel = true
		}
	}

	if !hasSend || !hasCancel {
		t.Errorf("PermittedTriggers() = %v, want both TriggerSend and TriggerCancel", triggers)
	}
}

func TestStateMachine_IsTerminal(t *testing.T) {
	builder := NewBuilder(InvoiceStates())
	builder.Configure(StateInvoiceDraft).
		Permit(TriggerPay, StateInvoicePaid)

	machine := builder.Build(StateInvoiceDraft)
	if machine.IsTerminal() {
		t.Error("IsTerminal() should be false in DRAFT")
	}

	if err := machine.Fire(context.Background(), TriggerPay); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if !machine.IsTerminal() {
		t.Error("IsTerminal() should be true in PAID")
	}
}

func TestStateMachine_Immutability(t *testing.T) {
	builder := NewBuilder(InvoiceStates())
	builder.Configure(StateInvoiceDraft).
		Permit(TriggerSend, StateInvoiceSent)

	machine1 := builder.Build(StateInvoiceDraft)
	machine2 := builder.Build(StateInvoiceDraft)

	if err := machine1.Fire(context.Background(), TriggerSend); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}

	if machine1.State() != StateInvoiceSent {
		t.Errorf("machine1 state = %v, want %v", machine1.State(), StateInvoiceSent)
	}
	if machine2.State() != StateInvoiceDraft {
		t.Errorf("machine2 state = %v, want %v", machine2.State(), StateInvoiceDraft)
	}
}
